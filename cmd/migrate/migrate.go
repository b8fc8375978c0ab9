package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dfryer1193/inkwell/internal/app"
	"github.com/dfryer1193/inkwell/shared/db/sqlite"
)

func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE:  migrateCommand,
	}
}

func migrateCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := app.LoadConfig(cmd)
	if err != nil {
		return err
	}

	database, err := app.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	version, err := sqlite.CurrentVersion(database.DB())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "database %s at schema version %d (latest %d)\n",
		cfg.Database.Path, version, sqlite.LatestVersion())
	return nil
}
