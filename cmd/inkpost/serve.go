package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/inkpost"
	"github.com/eringen/inkpost/views"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the blog server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := inkpost.New(siteConfig(cfg), views.Default(),
			inkpost.WithStaticDir(cfg.GetString(cfgKeyStaticDir)))
		defer app.Close()

		if err := app.Init(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() {
			if err := app.Echo.Start(app.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
			close(errc)
		}()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.Echo.Shutdown(shutdownCtx)
	},
}
