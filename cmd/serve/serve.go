package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-extras/cobraflags"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dfryer1193/inkwell/internal/app"
	"github.com/dfryer1193/inkwell/internal/web"
)

const (
	addrFlag = "addr"

	sessionCleanupInterval = time.Hour
)

func newServeFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		addrFlag: &cobraflags.StringFlag{
			Name:  addrFlag,
			Value: "",
			Usage: "Listen address, overriding server.port (e.g. 127.0.0.1:8080)",
		},
	}
}

func NewServeCommand() *cobra.Command {
	flags := newServeFlags()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the blog HTTP server",
		Long: `Run the blog HTTP server.

The database is migrated on startup. The server stops gracefully on SIGINT or
SIGTERM, waiting up to server.shutdown_timeout for in-flight requests.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serveCommand(cmd, flags[addrFlag].GetString())
		},
	}

	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func serveCommand(cmd *cobra.Command, addr string) error {
	a, err := app.Bootstrap(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	router, err := web.NewRouter(web.Options{
		Posts:        a.Posts,
		Sessions:     a.Sessions,
		Markdown:     a.Markdown,
		DB:           a.DB,
		SecureCookie: a.Config.Session.SecureCookie,
	})
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	if addr == "" {
		addr = a.Config.Server.Addr()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go cleanupSessions(ctx, a)

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}

func cleanupSessions(ctx context.Context, a *app.App) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		if _, err := a.Sessions.CleanupExpired(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Failed to clean up expired sessions")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
