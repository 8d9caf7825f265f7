// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/senma231/checkprice-sub001/internal/config"
)

var (
	configPath string // Path to the configuration directory
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "checkprice",
	Short: "checkprice is the admin backend of the logistics price quoting system",
	Long: `checkprice is the admin backend of the logistics price quoting system.
It manages the organization hierarchy, users, roles and permissions,
the service catalog and the prices each organization maintains.`,
	Args: cobra.OnlyValidArgs,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./etc/", "directory holding main.toml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func readConfig() error {
	var err error

	cfg, err = config.ReadConfig(configPath)

	return err
}
