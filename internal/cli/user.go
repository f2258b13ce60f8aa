package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/cli/output"
	"github.com/sakif/snippetshare/internal/form"
	"github.com/sakif/snippetshare/internal/model"
)

const timeLayout = "2006-01-02 15:04"

func newUserCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(
		newUserCreateCommand(a),
		newUserListCommand(a),
		newUserDeleteCommand(a),
	)
	return cmd
}

func newUserCreateCommand(a *app) *cobra.Command {
	var f form.UserForm

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a password account",
		Long: `Create an account that can log in with the login form.

The password is read from --password, or from the ` + PasswordEnv + `
environment variable when the flag is omitted.

Examples:
  snippetctl user create --username alice --email alice@example.com --password 's3cret-pass'
  ` + PasswordEnv + `=s3cret-pass snippetctl user create --username alice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.Password == "" {
				f.Password = os.Getenv(PasswordEnv)
			}

			user, err := a.accounts.CreateUser(cmd.Context(), f)
			if err != nil {
				return describe(err)
			}

			if a.jsonOutput {
				return output.JSON(a.out, user)
			}
			output.Success(a.out, "Created user %s (%s)", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.Username, "username", "", "login name (letters, digits and @.+-_)")
	cmd.Flags().StringVar(&f.Email, "email", "", "email address (optional)")
	cmd.Flags().StringVar(&f.Password, "password", "", "password, at least 8 characters (default $"+PasswordEnv+")")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func newUserListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := a.accounts.ListUsers(cmd.Context())
			if err != nil {
				return err
			}

			if a.jsonOutput {
				return output.JSON(a.out, nonNil(users))
			}

			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{u.ID, u.Username, u.Email, loginKind(&u), u.CreatedAt.Format(timeLayout)})
			}
			output.Table(a.out, []string{"ID", "USERNAME", "EMAIL", "LOGIN", "CREATED"}, rows)
			return nil
		},
	}
}

func newUserDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete an account with its snippets and comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.accounts.DeleteUser(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}

			if a.jsonOutput {
				return output.JSON(a.out, user)
			}
			output.Success(a.out, "Deleted user %s with their snippets and comments", user.Username)
			return nil
		},
	}
}

func loginKind(u *model.User) string {
	switch {
	case u.GitHubID != 0 && u.HasPassword():
		return "password, github:" + strconv.FormatInt(u.GitHubID, 10)
	case u.GitHubID != 0:
		return "github:" + strconv.FormatInt(u.GitHubID, 10)
	default:
		return "password"
	}
}

// describe turns a validation error into one line per field so the admin
// sees every problem at once. Other errors pass through.
func describe(err error) error {
	var fe *apperror.FieldErrors
	if !errors.As(err, &fe) {
		return err
	}

	fields := make([]string, 0, len(fe.Fields))
	for field := range fe.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msg := "invalid input:"
	for _, field := range fields {
		msg += fmt.Sprintf("\n  %s: %s", field, fe.Fields[field])
	}
	return errors.New(msg)
}

// nonNil makes an empty result encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
