package main

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Manage saved plans",
}

var plansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved plans",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newItineraryClient(cfg)
		if err != nil {
			return err
		}
		plans, err := client.ListPlans(cmd.Context())
		if err != nil {
			return err
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("ID", "Title", "Created")
		for _, p := range plans {
			_ = table.Append(p.ID, p.Title, p.CreatedAt)
		}
		return table.Render()
	},
}

var plansShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved plan as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newItineraryClient(cfg)
		if err != nil {
			return err
		}
		plan, err := client.GetPlan(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out, err := sonic.ConfigStd.MarshalIndent(plan, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var plansDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newItineraryClient(cfg)
		if err != nil {
			return err
		}
		if err := client.DeletePlan(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("deleted", args[0])
		return nil
	},
}

func init() {
	plansCmd.AddCommand(plansListCmd, plansShowCmd, plansDeleteCmd)
}
