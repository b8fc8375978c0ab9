package seed

import (
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/dfryer1193/inkwell/internal/app"
	"github.com/dfryer1193/inkwell/internal/seed"
)

const fileFlag = "file"

func newSeedFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		fileFlag: &cobraflags.StringFlag{
			Name:  fileFlag,
			Value: "",
			Usage: "Fixture file with authors and posts (.yaml, .yml or .toml)",
		},
	}
}

func NewSeedCommand() *cobra.Command {
	flags := newSeedFlags()

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load authors and posts from a fixture file",
		Long: `Load authors and posts from a YAML or TOML fixture file.

Authors whose username already exists and posts whose slug already exists are
skipped, so the same file can be applied more than once.`,
		Example: "  inkwell seed --file fixtures.yaml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return seedCommand(cmd, flags[fileFlag].GetString())
		},
	}

	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func seedCommand(cmd *cobra.Command, path string) error {
	if path == "" {
		return fmt.Errorf("--%s is required", fileFlag)
	}

	fixture, err := seed.LoadFile(path)
	if err != nil {
		return err
	}

	a, err := app.Bootstrap(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := seed.Apply(cmd.Context(), fixture, a.Authors, a.Posts)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "authors: %d created, %d skipped; posts: %d created, %d skipped\n",
		res.AuthorsCreated, res.AuthorsSkipped, res.PostsCreated, res.PostsSkipped)
	return nil
}
