package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/realjackcrew/leornian-query/internal/engine"
	"github.com/realjackcrew/leornian-query/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	User  string
	DSN   string
	Count bool
}

// NewQueryCommand creates the query command: run one intent end to end
// against a database.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [intent-file]",
		Short: "Execute a query intent against the database",
		Long: `Execute one query intent JSON file (or stdin when no file is given)
against the wellness log database and print the result.

The intent may be raw JSON or fenced LLM output; fencing is stripped.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, opts, cmd, args)
		},
	}

	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "user ID to query for (required)")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "PostgreSQL DSN (overrides config file)")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "include an unpaginated total row count")

	return cmd
}

func runQuery(rootOpts *RootOptions, opts *QueryOptions, cmd *cobra.Command, args []string) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	cfg, err := LoadConfig(rootOpts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}
	if opts.DSN != "" {
		cfg.DSN = opts.DSN
	}
	if opts.User != "" {
		cfg.User = opts.User
	}
	if cfg.User == "" {
		return NewExitError(ExitCommandError, "no user ID: pass --user or set user in the config file")
	}
	if cfg.DSN == "" {
		return NewExitError(ExitCommandError, "no database DSN: pass --dsn or set dsn in the config file")
	}

	raw, err := readIntent(cmd.InOrStdin(), args)
	if err != nil {
		return WrapExitError(ExitCommandError, "read intent", err)
	}

	st, err := store.Open(cmd.Context(), cfg.DSN)
	if err != nil {
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer st.Close()

	exec := engine.New(engine.Config{
		Store:  st,
		Dates:  st,
		Logger: newLogger(cmd.ErrOrStderr(), rootOpts.Verbose),
	})

	res := exec.ExecuteFromJSON(cmd.Context(), raw, cfg.User, engine.Options{IncludeCount: opts.Count})

	if formatter.Format == "json" {
		if err := formatter.JSON(res); err != nil {
			return err
		}
	} else {
		fmt.Fprint(formatter.Writer, engine.FormatText(res))
	}

	if !res.Success {
		return NewExitError(ExitFailure, "query failed")
	}
	return nil
}

// readIntent reads the intent body from the named file, or stdin when no
// file argument was given.
func readIntent(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	raw, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// newLogger builds the slog logger for command execution. Verbose enables
// debug level, which includes compiled SQL and parameters.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
