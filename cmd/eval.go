package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/pquery"
)

var evalAt string

var evalCmd = &cobra.Command{
	Use:   "eval STATEMENT",
	Short: "Evaluate one pQuery statement against the presets document",
	Example: `  tcpm eval "$('#configure-common cacheVariables').json()"
  tcpm eval "$(this).text()" --at '$.configurePresets[0].name'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd.ErrOrStderr())
		doc, err := loadSource(log)
		if err != nil {
			return err
		}
		loc, err := evalLocator(doc, evalAt)
		if err != nil {
			return err
		}
		v, err := pquery.NewRenderer(pquery.WithLogger(log)).Evaluate(doc, loc, args[0])
		if err != nil {
			return err
		}
		return printDocument(cmd.OutOrStdout(), v)
	},
}

// evalLocator accepts a plain locator or any JSONPath that matches exactly
// one node.
func evalLocator(doc document.Value, at string) (document.Locator, error) {
	if loc, err := document.ParseLocator(at); err == nil {
		return loc, nil
	}
	found, err := document.Find(doc, at)
	if err != nil {
		return nil, err
	}
	if len(found) != 1 {
		return nil, fmt.Errorf("--at %s: matched %d nodes, need exactly one", at, len(found))
	}
	return found[0], nil
}

func init() {
	evalCmd.Flags().StringVar(&evalAt, "at", "$", "Locator of the node bound to this")
	rootCmd.AddCommand(evalCmd)
}
