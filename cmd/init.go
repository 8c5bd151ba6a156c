package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hmans/larder/internal/config"
	"github.com/hmans/larder/internal/output"
	"github.com/hmans/larder/internal/ui"
)

var (
	initJSON    bool
	initForce   bool
	initDriver  string
	initDSN     string
	initBackend string
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Initialize a larder project",
	Long: `Creates a .larder.yml config file and the media directory in the given
directory (default: the current directory).

The default configuration uses a SQLite database (larder.db) and stores
uploaded banners on the local filesystem below media/.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		dir, err := filepath.Abs(dir)
		if err != nil {
			return cmdError(initJSON, output.ErrFileError, "%v", err)
		}

		configFile := filepath.Join(dir, config.ConfigFile)
		if _, err := os.Stat(configFile); err == nil && !initForce {
			return cmdError(initJSON, output.ErrValidation, "%s already exists (use --force to overwrite)", configFile)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cmdError(initJSON, output.ErrFileError, "%v", err)
		}

		newCfg := config.Default()
		if initDriver != "" {
			newCfg.Database.Driver = initDriver
		}
		if initDSN != "" {
			newCfg.Database.DSN = initDSN
		}
		if initBackend != "" {
			newCfg.Storage.Backend = initBackend
		}
		if newCfg.Database.Driver == config.DriverPostgres && initDSN == "" {
			return cmdError(initJSON, output.ErrValidation, "--dsn is required for the %s driver", config.DriverPostgres)
		}
		if err := newCfg.Validate(); err != nil {
			return cmdError(initJSON, output.ErrValidation, "%v", err)
		}

		if err := os.MkdirAll(dir, 0755); err != nil {
			return cmdError(initJSON, output.ErrFileError, "failed to create directory: %v", err)
		}
		newCfg.SetConfigDir(dir)
		if err := newCfg.Save(dir); err != nil {
			return cmdError(initJSON, output.ErrFileError, "failed to create config: %v", err)
		}

		mediaDir := ""
		if newCfg.Storage.Backend == config.BackendFileSystem {
			mediaDir = filepath.Join(newCfg.MediaRoot(), newCfg.Storage.Dir)
			if err := os.MkdirAll(mediaDir, 0755); err != nil {
				return cmdError(initJSON, output.ErrFileError, "failed to create media directory: %v", err)
			}
		}

		if initJSON {
			return output.Success(map[string]string{
				"config": configFile,
				"media":  mediaDir,
			}, "Project initialized")
		}

		fmt.Println(ui.Success.Render("Initialized larder project ") + ui.Path.Render(configFile))
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initJSON, "json", false, "Output as JSON")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config file")
	initCmd.Flags().StringVar(&initDriver, "driver", "", "Database driver (sqlite, postgres)")
	initCmd.Flags().StringVar(&initDSN, "dsn", "", "Database DSN")
	initCmd.Flags().StringVar(&initBackend, "storage", "", "Storage backend (filesystem, s3)")
	rootCmd.AddCommand(initCmd)
}
