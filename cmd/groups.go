package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cppla/yatube/services"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Manage post groups",
}

var groupInput services.GroupInput

var groupsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a group",
	RunE: func(cmd *cobra.Command, _ []string) error {
		groups, err := openGroups()
		if err != nil {
			return err
		}
		g, err := groups.Create(commandContext(cmd), groupInput)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created group %q (/group/%s/)\n", g.Title, g.Slug)
		return nil
	},
}

var groupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List groups",
	RunE: func(cmd *cobra.Command, _ []string) error {
		groups, err := openGroups()
		if err != nil {
			return err
		}
		list, err := groups.List(commandContext(cmd))
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SLUG\tTITLE")
		for _, g := range list {
			fmt.Fprintf(w, "%s\t%s\n", g.Slug, g.Title)
		}
		return w.Flush()
	},
}

var groupsDeleteCmd = &cobra.Command{
	Use:   "delete <slug>",
	Short: "Delete a group; its posts stay ungrouped",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		groups, err := openGroups()
		if err != nil {
			return err
		}
		return groups.Delete(commandContext(cmd), args[0])
	},
}

func init() {
	f := groupsCreateCmd.Flags()
	f.StringVar(&groupInput.Title, "title", "", "group title")
	f.StringVar(&groupInput.Slug, "slug", "", "url slug, derived from the title when empty")
	f.StringVar(&groupInput.Description, "description", "", "group description")
	_ = groupsCreateCmd.MarkFlagRequired("title")

	groupsCmd.AddCommand(groupsCreateCmd, groupsListCmd, groupsDeleteCmd)
}

func openGroups() (*services.Groups, error) {
	_, db, err := bootstrap(false)
	if err != nil {
		return nil, err
	}
	return services.NewGroups(db), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
