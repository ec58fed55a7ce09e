package cli

import (
	"github.com/spf13/cobra"

	"github.com/realjackcrew/leornian-query/internal/registry"
)

// fieldInfo is one catalog entry in the fields command's JSON output.
type fieldInfo struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Type     string `json:"type"`
}

// NewFieldsCommand creates the fields command: list the queryable catalog.
func NewFieldsCommand(rootOpts *RootOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List the queryable field catalog",
		Long: `List every category and datapoint the query pipeline knows about, with
its declared type. This is exactly the whitelist intents are validated
against.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFields(rootOpts, cmd, category)
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "limit to one category")

	return cmd
}

func runFields(rootOpts *RootOptions, cmd *cobra.Command, category string) error {
	formatter := &OutputFormatter{
		Format:  rootOpts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: rootOpts.Verbose,
	}

	reg := registry.Default()

	categories := reg.Categories()
	if category != "" {
		if !reg.IsCategory(category) {
			return NewExitError(ExitCommandError, "unknown category "+category)
		}
		categories = []string{category}
	}

	if rootOpts.Format == "json" {
		out := []fieldInfo{}
		for _, c := range categories {
			for _, f := range reg.FieldsOf(c) {
				ft, _ := reg.TypeOf(f)
				out = append(out, fieldInfo{Name: f, Category: c, Type: string(ft)})
			}
		}
		return formatter.JSON(out)
	}

	for _, c := range categories {
		formatter.Text("%s:", c)
		for _, f := range reg.FieldsOf(c) {
			ft, _ := reg.TypeOf(f)
			formatter.Text("  %-28s %s", f, ft)
		}
	}
	return nil
}
