package author

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/dfryer1193/inkwell/blog/application"
	"github.com/dfryer1193/inkwell/blog/domain"
	"github.com/dfryer1193/inkwell/internal/app"
)

const (
	usernameFlag  = "username"
	emailFlag     = "email"
	passwordFlag  = "password"
	superuserFlag = "superuser"
)

func newCreateFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		usernameFlag: &cobraflags.StringFlag{
			Name:  usernameFlag,
			Value: "",
			Usage: "Login name of the new author (required)",
		},
		emailFlag: &cobraflags.StringFlag{
			Name:  emailFlag,
			Value: "",
			Usage: "Email address of the new author",
		},
		passwordFlag: &cobraflags.StringFlag{
			Name:  passwordFlag,
			Value: "",
			Usage: "Password of the new author (required)",
		},
		superuserFlag: &cobraflags.BoolFlag{
			Name:  superuserFlag,
			Value: false,
			Usage: "Allow the author to change every post",
		},
	}
}

func newDeleteFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		usernameFlag: &cobraflags.StringFlag{
			Name:  usernameFlag,
			Value: "",
			Usage: "Login name of the author to delete (required)",
		},
	}
}

func NewAuthorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "author [create|delete|list]",
		Short: "Manage author accounts",
	}

	cmd.AddCommand(newCreateCommand())
	cmd.AddCommand(newDeleteCommand())
	cmd.AddCommand(newListCommand())
	return cmd
}

func newCreateCommand() *cobra.Command {
	flags := newCreateFlags()

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an author account",
		Example: `  inkwell author create --username root --password s3cret --superuser
  inkwell author create --username writer --email writer@example.com --password s3cret`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return createCommand(cmd, application.AuthorInput{
				Username:  flags[usernameFlag].GetString(),
				Email:     flags[emailFlag].GetString(),
				Password:  flags[passwordFlag].GetString(),
				Superuser: flags[superuserFlag].GetBool(),
			})
		},
	}

	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newDeleteCommand() *cobra.Command {
	flags := newDeleteFlags()

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an author account that owns no posts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return deleteCommand(cmd, flags[usernameFlag].GetString())
		},
	}

	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List author accounts",
		RunE:  listCommand,
	}
}

func createCommand(cmd *cobra.Command, in application.AuthorInput) error {
	a, err := app.Bootstrap(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	author, err := a.Authors.CreateAuthor(cmd.Context(), in)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created author %s (id %d)\n", author.Username, author.ID)
	return nil
}

func deleteCommand(cmd *cobra.Command, username string) error {
	if username == "" {
		return fmt.Errorf("--%s is required", usernameFlag)
	}

	a, err := app.Bootstrap(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	err = a.Authors.DeleteAuthor(cmd.Context(), username)
	switch {
	case errors.Is(err, domain.ErrAuthorHasPosts):
		return fmt.Errorf("author %s still has posts; delete or reassign them first", username)
	case errors.Is(err, domain.ErrAuthorNotFound):
		return fmt.Errorf("author %s does not exist", username)
	case err != nil:
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "deleted author %s\n", username)
	return nil
}

func listCommand(cmd *cobra.Command, _ []string) error {
	a, err := app.Bootstrap(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	authors, err := a.Authors.ListAuthors(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tSUPERUSER\tCREATED")
	for _, au := range authors {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\n", au.ID, au.Username, au.Email, au.Superuser, au.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}
