package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hmans/larder/internal/fixtures"
	"github.com/hmans/larder/internal/logging"
	"github.com/hmans/larder/internal/output"
	"github.com/hmans/larder/internal/ui"
)

var loadJSON bool

var loadCmd = &cobra.Command{
	Use:   "load <dir>",
	Short: "Load fixtures into the catalog",
	Long: `Reads every *.md fixture below dir and upserts the records they describe.
The load runs in a single transaction: if any fixture fails, nothing is
written.

A fixture is a markdown file with YAML front matter:

  ---
  model: ingredient
  id: 1
  name: saffron
  origin: Iran
  ---

Cuisine fixtures may name a banner image relative to the fixture file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := fixtures.LoadDir(args[0])
		if err != nil {
			return cmdError(loadJSON, output.ErrFileError, "%v", err)
		}

		applied, err := fixtures.Apply(cmd.Context(), db, storage, loaded, logging.Component(logger, "fixtures"))
		if err != nil {
			return cmdError(loadJSON, output.ErrValidation, "%v", err)
		}

		msg := fmt.Sprintf("Loaded %d ingredient(s) and %d cuisine(s)", len(applied.Ingredients), len(applied.Cuisines))
		if loadJSON {
			return output.JSON(output.Response{Success: true, Count: len(loaded), Message: msg})
		}
		fmt.Println(ui.Success.Render(msg))
		return nil
	},
}

func init() {
	loadCmd.Flags().BoolVar(&loadJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(loadCmd)
}
