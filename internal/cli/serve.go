package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"vibetab/internal/web"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var open bool
	var readOnly bool
	var token string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout as a JSON API with live updates",
		Long: strings.TrimSpace(`
Serve the current layout over HTTP.

Endpoints:
- GET  /layout, /grid, /kinds, /widgets/{id}
- POST /widgets, PATCH|DELETE /widgets/{id}, POST /widgets/{id}/align
- POST /undo, /redo, /layout/reset; PUT /viewport
- GET  /events (server-sent datastar signal patches), /ws (websocket drag session)
- GET  /docs/{topic}
`),
		Example: strings.TrimSpace(`
# Serve on localhost
vibetab serve --addr 127.0.0.1:3336

# Require a generated bearer token
vibetab serve --token auto
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("serve: missing --addr"))
			}
			token = strings.TrimSpace(token)
			if token == "auto" {
				t, err := web.NewToken()
				if err != nil {
					return writeErr(cmd, err)
				}
				token = t
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			d, s, err := openDashboard(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer func() {
				if err := closeDashboard(context.Background(), d, s); err != nil {
					app.logger.Error("closing dashboard", "err", err)
				}
			}()

			srv, err := web.NewServer(web.ServerConfig{
				Dashboard: d,
				Logger:    app.logger,
				ReadOnly:  readOnly,
				Token:     token,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}

			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + "/"
			if token != "" {
				url += "layout?token=" + token
			}

			opened := false
			openErr := ""
			if open {
				if err := openPath(url); err != nil {
					openErr = err.Error()
				} else {
					opened = true
				}
			}

			_ = writeData(cmd, app, map[string]any{
				"addr":      actualAddr,
				"url":       url,
				"dir":       s.Dir,
				"layout":    d.Layout(),
				"readOnly":  readOnly,
				"token":     token,
				"opened":    opened,
				"openError": openErr,
				"startedAt": app.now().UTC().Format(time.RFC3339Nano),
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "vibetab serving %s at %s\n", d.Layout(), url)

			hs := &http.Server{
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() { errCh <- hs.Serve(ln) }()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return writeErr(cmd, err)
				}
				return nil
			case <-ctx.Done():
			}
			app.logger.Info("shutting down", "addr", actualAddr)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := hs.Shutdown(shutdownCtx); err != nil {
				// Long-lived event streams and websockets do not drain on their own.
				_ = hs.Close()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOr("VIBETAB_ADDR", "127.0.0.1:3336"), "Bind address (host:port or :port)")
	cmd.Flags().BoolVar(&open, "open", false, "Open the layout in your default browser")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Reject every mutating request")
	cmd.Flags().StringVar(&token, "token", envOr("VIBETAB_TOKEN", ""), "Bearer token required by the API ('auto' generates one)")
	return cmd
}

func openPath(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("empty path")
	}
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path).Run()
	case "windows":
		return exec.Command("cmd", "/c", "start", "", path).Run()
	default:
		return exec.Command("xdg-open", path).Run()
	}
}
