package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dfryer1193/inkwell/cmd/author"
	"github.com/dfryer1193/inkwell/cmd/migrate"
	"github.com/dfryer1193/inkwell/cmd/seed"
	"github.com/dfryer1193/inkwell/cmd/serve"
	"github.com/dfryer1193/inkwell/internal/app"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "inkwell",
		Short:         "A small multi-author blog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String(app.ConfigFlag, "", "Config file (yaml, toml or json); INKWELL_* environment variables override it")

	root.AddCommand(serve.NewServeCommand())
	root.AddCommand(migrate.NewMigrateCommand())
	root.AddCommand(author.NewAuthorCommand())
	root.AddCommand(seed.NewSeedCommand())
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
