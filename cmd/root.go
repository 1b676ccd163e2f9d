package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

var rootCmd = &cobra.Command{
	Use:           "yatube",
	Short:         "Yatube blogging platform",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, groupsCmd, usersCmd)
}

// Execute runs the command line. With no subcommand it serves HTTP.
func Execute() {
	rootCmd.RunE = serveCmd.RunE
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, starts logging and opens the database.
func bootstrap(requireSecret bool) (config.AppConfig, *gorm.DB, error) {
	cfg := config.Load()
	if requireSecret {
		if err := cfg.Validate(); err != nil {
			return cfg, nil, err
		}
	}
	if err := utils.InitLogger(cfg); err != nil {
		return cfg, nil, err
	}
	db, err := config.OpenDatabase(cfg, utils.Logger)
	if err != nil {
		return cfg, nil, err
	}
	if err := models.AutoMigrate(db); err != nil {
		return cfg, nil, fmt.Errorf("auto migrate: %w", err)
	}
	return cfg, db, nil
}
