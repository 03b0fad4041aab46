package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"jiskefet/internal/bootstrap"
	"jiskefet/internal/bootstrap/logging"
	"jiskefet/internal/errs"
	"jiskefet/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the logbook HTTP API",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		migrate, _ := cmd.Flags().GetBool("migrate")
		if migrate {
			if err := app.InitSchema(ctx); err != nil {
				return errs.Wrap(err, "initialize schema")
			}
		}

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = app.Config.HTTP.Addr
		}

		server, err := httpapi.NewServer(app.Services, app.Sink, httpapi.Options{
			JWTSecret: app.Config.HTTP.JWTSecret,
			Ping:      app.Ping,
		})
		if err != nil {
			return errs.Wrap(err, "build http server")
		}

		httpServer := &http.Server{
			Addr:              addr,
			Handler:           server.Handler(),
			ReadTimeout:       app.Config.HTTP.ReadTimeout,
			ReadHeaderTimeout: app.Config.HTTP.ReadTimeout,
			WriteTimeout:      app.Config.HTTP.WriteTimeout,
			BaseContext: func(_ net.Listener) context.Context {
				return ctx
			},
		}

		serveErr := make(chan error, 1)
		go func() {
			serveErr <- httpServer.ListenAndServe()
		}()
		logging.Info(ctx, "logbook api started", slog.String("addr", addr))

		select {
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error(ctx, "logbook api failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "serve logbook api")
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return errs.Wrap(err, "shutdown logbook api")
		}
		logging.Info(ctx, "logbook api stopped")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (defaults to http.addr)")
	serveCmd.Flags().Bool("migrate", false, "Run schema migration before serving")
}
