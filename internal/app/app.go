// Package app wires configuration, storage and services together for the
// CLI commands.
package app

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dfryer1193/inkwell/blog/application"
	"github.com/dfryer1193/inkwell/blog/persistence"
	"github.com/dfryer1193/inkwell/internal/config"
	"github.com/dfryer1193/inkwell/shared/db"
	"github.com/dfryer1193/inkwell/shared/db/sqlite"
)

// ConfigFlag is the persistent root flag naming the config file.
const ConfigFlag = "config"

type App struct {
	Config   *config.Config
	DB       db.Database
	Markdown application.MarkdownRenderer
	Posts    *application.PostService
	Authors  *application.AuthorService
	Sessions *application.SessionService
}

// LoadConfig reads the config named by --config and configures logging.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString(ConfigFlag)
	if err != nil {
		path = ""
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if err := config.SetupLogging(cfg.Log, cmd.ErrOrStderr()); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	return cfg, nil
}

// OpenDatabase connects to the configured database. Connecting applies
// pending migrations.
func OpenDatabase(cfg *config.Config) (db.Database, error) {
	database := sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{Path: cfg.Database.Path})
	if err := database.Connect(); err != nil {
		return nil, err
	}
	return database, nil
}

// New opens the database and builds the services.
func New(cfg *config.Config) (*App, error) {
	database, err := OpenDatabase(cfg)
	if err != nil {
		return nil, err
	}

	conn := database.DB()
	authorRepo := persistence.NewAuthorRepository(conn)
	markdown := application.NewMarkdownRenderer()

	gate := application.NewGate(application.AccessPolicy{
		RequireAuthForMutation: cfg.Blog.RequireAuthForMutation,
		OwnerOnly:              cfg.Blog.OwnerOnlyMutation,
	})

	authors := application.NewAuthorService(authorRepo)

	a := &App{
		Config:   cfg,
		DB:       database,
		Markdown: markdown,
		Posts: application.NewPostService(
			persistence.NewPostRepository(conn),
			authorRepo,
			gate,
			markdown,
			application.PostServiceConfig{DefaultAuthor: cfg.Blog.DefaultAuthor},
		),
		Authors:  authors,
		Sessions: application.NewSessionService(persistence.NewSessionRepository(conn), authors, cfg.Session.TTL),
	}

	log.Debug().
		Str("database", cfg.Database.Path).
		Bool("requireAuthForMutation", cfg.Blog.RequireAuthForMutation).
		Bool("ownerOnlyMutation", cfg.Blog.OwnerOnlyMutation).
		Msg("Application initialized")

	return a, nil
}

// Bootstrap is LoadConfig followed by New.
func Bootstrap(cmd *cobra.Command) (*App, error) {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

func (a *App) Close() error {
	return a.DB.Close()
}
