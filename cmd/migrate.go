package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hmans/larder/internal/food"
	"github.com/hmans/larder/internal/output"
	"github.com/hmans/larder/internal/ui"
)

var migrateJSON bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	Long: `Runs the schema migration for all catalog tables. SQLite databases are
migrated automatically whenever larder opens them; PostgreSQL databases must
be migrated with this command.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.Migrate(cmd.Context()); err != nil {
			return cmdError(migrateJSON, output.ErrInternal, "migration failed: %v", err)
		}

		tables := make([]string, 0, len(food.Models()))
		for _, m := range food.Models() {
			if t, ok := m.(interface{ TableName() string }); ok {
				tables = append(tables, t.TableName())
			}
		}

		if migrateJSON {
			return output.SuccessMultiple(tables)
		}
		for _, t := range tables {
			fmt.Println(ui.Success.Render("migrated ") + t)
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(migrateCmd)
}
