// Package cli implements snippetctl, the administration console.
//
// snippetctl works on the same database as the server, through the same
// config loader, store opener and services, so every rule the web
// handlers enforce (validation, cascades, unique usernames) applies here
// too. It replaces a web-based admin area: there are no admin routes.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/snippetshare/internal/auth"
	"github.com/sakif/snippetshare/internal/config"
	"github.com/sakif/snippetshare/internal/form"
	"github.com/sakif/snippetshare/internal/repository"
	"github.com/sakif/snippetshare/internal/repository/store"
	"github.com/sakif/snippetshare/internal/service"
)

// PasswordEnv supplies the password for "user create" when --password is
// not given, keeping it out of shell history.
const PasswordEnv = "SNIPPETS_ADMIN_PASSWORD"

// app holds the global flags and, once PersistentPreRunE has run, the
// opened store and services.
type app struct {
	configPath string
	jsonOutput bool

	out    io.Writer
	errOut io.Writer

	openStore func(ctx context.Context, cfg config.DatabaseConfig) (repository.Store, error)
	passwords *auth.PasswordService

	store    repository.Store
	snippets *service.SnippetService
	comments *service.CommentService
	accounts *service.AuthService
}

// Execute runs snippetctl with os.Args.
func Execute() {
	a := newApp(os.Stdout, os.Stderr)
	err := newRootCommand(a).Execute()
	// PersistentPostRunE is skipped when a command fails.
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
		fmt.Fprintln(os.Stderr, "Error:", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree writing results to out and
// diagnostics to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	return newRootCommand(newApp(out, errOut))
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out:       out,
		errOut:    errOut,
		openStore: store.Open,
		passwords: auth.NewPasswordService(),
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "snippetctl",
		Short: "Administer the snippet sharing site",
		Long: `snippetctl manages users, snippets and comments directly in the
site's database.

It reads the same configuration as the server: an optional YAML file
(--config or SNIPPETS_CONFIG) overridden by SNIPPETS_* environment variables.

Examples:
  snippetctl user create --username alice --email alice@example.com
  snippetctl snippet list --limit 20
  snippetctl snippet show cv1a2b3c4d5e6f7g8h9i
  snippetctl user delete alice`,
		SilenceUsage:      true,
		PersistentPreRunE: a.open,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv("SNIPPETS_CONFIG"), "path to a YAML config file")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output in JSON format")

	root.AddCommand(
		newUserCommand(a),
		newSnippetCommand(a),
		newCommentCommand(a),
	)
	return root
}

// open loads the configuration and wires the services. Only the database
// section is validated: the admin console issues no sessions.
func (a *app) open(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadUnchecked(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	// Info lines from the services would interleave with command output.
	logger := slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: max(level, slog.LevelWarn)}))

	validator, err := form.NewValidator(cfg.Site.Locale)
	if err != nil {
		return err
	}

	db, err := a.openStore(cmd.Context(), cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	a.store = db

	a.snippets = service.NewSnippetService(db.Snippets(), db.Comments(), validator, nil, logger)
	a.comments = service.NewCommentService(db.Snippets(), db.Comments(), validator, nil, logger)
	// No TokenService: CreateUser, ListUsers and DeleteUser never issue tokens.
	a.accounts = service.NewAuthService(db.Users(), nil, a.passwords, validator, nil, logger)
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}
