// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - Web interface launcher for the cmdai CLI.
//
// Handles the "cmdai serve" command: runs the single-page chat interface
// until SIGINT/SIGTERM, then shuts down gracefully.
//
// Command: serve [--port N]
// Short:   Run the web interface
//
// Examples:
//   cmdai serve
//   cmdai serve --port 8080
//
// The server starts even without a configured API key; submissions then get
// a soft error bubble until a key is provided (page field or config). While
// running, config.toml and .env are watched so an operator can fix
// credentials without restarting.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/cmdai/internal/config"
	"github.com/jeranaias/cmdai/internal/server"
)

// shutdownTimeout bounds graceful shutdown; in-flight upstream requests get
// this long to finish.
const shutdownTimeout = 10 * time.Second

// HandleServe handles the "serve" command.
func HandleServe(args Args) error {
	cfg := config.Global()
	applyUIConfig(cfg, args)

	if args.Port > 0 {
		cfg = cfg.Clone()
		cfg.Web.Port = args.Port
	}

	srv := server.New(cfg, Version)

	// RELIABILITY: Credential fixes land without a restart. The watcher
	// re-resolves the config when config.toml or .env changes on disk.
	watcher, err := config.NewWatcher(func(next *config.Config) {
		srv.UpdateConfig(next)
	})
	if err == nil {
		if werr := watcher.Watch(); werr == nil {
			defer watcher.Close()
		}
	}

	fmt.Println(TitleStyle.Render("cmdai 网页界面"))
	fmt.Printf("%s %s\n", ValueStyle.Render("访问地址:"), SuccessStyle.Render("http://"+srv.Addr()))
	if !cfg.HasKey() {
		fmt.Println(WarningStyle.Render("提示: 尚未配置 API Key，可在页面中输入，或修改配置后自动生效。"))
	}
	fmt.Println(DimStyle.Render("按 Ctrl+C 停止"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return NewConfigError("无法启动服务: "+err.Error(), err)
		}
		return nil

	case <-sigChan:
		fmt.Println()
		fmt.Println(WarningStyle.Render("正在关闭服务..."))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}

		fmt.Println(SuccessStyle.Render("服务已停止。"))
		return nil
	}
}
