package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/pquery"
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/presets"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Evaluate the pQuery statements of the preset collections without generating presets",
	Long: `render runs the on-load statements of the vendor section, then replaces
every pQuery statement found in the preset collections with its result and
prints the document. The presets file is never written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd.ErrOrStderr())
		doc, err := loadSource(log)
		if err != nil {
			return err
		}
		meta, err := presets.FromDocument(doc)
		if err != nil {
			return err
		}
		r := pquery.NewRenderer(pquery.WithLogger(log))
		for _, expr := range meta.OnLoad {
			if _, err := r.Evaluate(doc, expr.Locator, expr.Text); err != nil {
				return fmt.Errorf("on-load: %w", err)
			}
		}
		if err := r.Render(doc, presets.CollectionKeys()...); err != nil {
			return err
		}
		return printDocument(cmd.OutOrStdout(), doc)
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
}
