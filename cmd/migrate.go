package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cppla/yatube/utils"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables and exit",
	RunE: func(_ *cobra.Command, _ []string) error {
		if _, _, err := bootstrap(false); err != nil {
			return err
		}
		utils.Sugar.Info("database schema is up to date")
		return nil
	},
}
