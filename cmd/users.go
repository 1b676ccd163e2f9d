package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cppla/yatube/services"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts",
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete an account with its posts, comments and follows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := bootstrap(false)
		if err != nil {
			return err
		}
		return deleteUser(cmd, services.NewUsers(db), args[0])
	},
}

func init() {
	usersCmd.AddCommand(usersDeleteCmd)
}

func deleteUser(cmd *cobra.Command, users *services.Users, username string) error {
	if err := users.Delete(commandContext(cmd), username); err != nil {
		return fmt.Errorf("delete user %q: %w", username, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted user %q\n", username)
	return nil
}
