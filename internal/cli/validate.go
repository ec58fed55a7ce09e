package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/realjackcrew/leornian-query/internal/engine"
	"github.com/realjackcrew/leornian-query/internal/intent"
)

var defaultClock engine.Clock = engine.SystemClock{}

// noHistory is the offline FirstLogDateProvider: no database, so no log
// history. Date clamping then floors at today, which is the most
// conservative check an offline run can make.
type noHistory struct{}

func (noHistory) FirstLogDate(context.Context, string) (string, bool, error) {
	return "", false, nil
}

// validationOutput is the JSON shape for the validate command.
type validationOutput struct {
	Valid    bool                `json:"valid"`
	Errors   []string            `json:"errors"`
	Warnings []string            `json:"warnings"`
	Intent   *intent.QueryIntent `json:"intent,omitempty"`
}

// NewValidateCommand creates the validate command: parse and check an
// intent without touching a database.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var today string
	var showIntent bool

	cmd := &cobra.Command{
		Use:   "validate [intent-file]",
		Short: "Validate a query intent offline",
		Long: `Parse one query intent JSON file (or stdin) and run the full validation
pass without a database connection.

Offline validation assumes the user has no log history, so a start date in
the past always produces a clamping warning; against a real database it may
not. Everything else - selections, operators, values, aggregation rules -
checks identically.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd, args, today, showIntent)
		},
	}

	cmd.Flags().StringVar(&today, "today", "", "override today's date (YYYY-MM-DD) for deterministic output")
	cmd.Flags().BoolVar(&showIntent, "show-intent", false, "include the parsed intent in the output")

	return cmd
}

func runValidate(rootOpts *RootOptions, cmd *cobra.Command, args []string, today string, showIntent bool) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	raw, err := readIntent(cmd.InOrStdin(), args)
	if err != nil {
		return WrapExitError(ExitCommandError, "read intent", err)
	}

	q, err := intent.Parse(raw)
	if err != nil {
		if rootOpts.Format == "json" {
			_ = formatter.JSON(validationOutput{Valid: false, Errors: []string{err.Error()}, Warnings: []string{}})
		} else {
			formatter.Text("✗ %v", err)
		}
		return NewExitError(ExitFailure, "intent does not parse")
	}

	if today == "" {
		today = defaultClock.Today()
	}
	v := intent.Validate(cmd.Context(), q, "offline", noHistory{}, today)

	out := validationOutput{Valid: v.IsValid, Errors: v.Errors, Warnings: v.Warnings}
	if showIntent {
		out.Intent = q
	}

	if rootOpts.Format == "json" {
		if err := formatter.JSON(out); err != nil {
			return err
		}
	} else {
		if v.IsValid {
			formatter.Text("✓ Intent valid")
		} else {
			formatter.Text("✗ Intent invalid")
			for _, e := range v.Errors {
				formatter.Text("  error: %s", e)
			}
		}
		for _, w := range v.Warnings {
			formatter.Text("  warning: %s", w)
		}
	}

	if !v.IsValid {
		return NewExitError(ExitFailure, "intent validation failed")
	}
	return nil
}
