package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ReminderResponse mirrors the reminders endpoint payload.
type ReminderResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"created_at"`
}

// RemindersCmd creates the reminders command group.
func RemindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Manage committed reminders",
	}

	cmd.AddCommand(remindersListCmd())
	cmd.AddCommand(remindersAddCmd())
	cmd.AddCommand(remindersCompleteCmd())
	cmd.AddCommand(remindersDeleteCmd())

	return cmd
}

func remindersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List reminders sorted by due date",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/reminders")
			if err != nil {
				return fmt.Errorf("list failed: %w", err)
			}

			var reminders []ReminderResponse
			if err := json.Unmarshal(resp.Data, &reminders); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				output, _ := json.MarshalIndent(reminders, "", "  ")
				fmt.Println(string(output))
				return nil
			}

			if len(reminders) == 0 {
				fmt.Println("No reminders.")
				return nil
			}

			for _, r := range reminders {
				status := " "
				if r.Completed {
					status = "x"
				}
				fmt.Printf("[%s] %s  %s (%s, %s)\n", status, r.Date, r.Title, r.Priority, r.Category)
				if r.Description != "" {
					fmt.Printf("      %s\n", r.Description)
				}
				fmt.Printf("      ID: %s\n", r.ID)
			}
			return nil
		},
	}
}

func remindersAddCmd() *cobra.Command {
	var (
		date        string
		description string
		priority    string
		category    string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a reminder directly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Post("/reminders", map[string]string{
				"title":       args[0],
				"date":        date,
				"description": description,
				"priority":    priority,
				"category":    category,
			})
			if err != nil {
				return fmt.Errorf("add failed: %w", err)
			}

			var created ReminderResponse
			if err := json.Unmarshal(resp.Data, &created); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				output, _ := json.MarshalIndent(created, "", "  ")
				fmt.Println(string(output))
				return nil
			}

			fmt.Printf("Created reminder %q for %s (ID: %s)\n", created.Title, created.Date, created.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Due date (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&description, "description", "", "Longer description")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority (low|medium|high)")
	cmd.Flags().StringVar(&category, "category", "", "Category label")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func remindersCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a reminder as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if _, err := api.Put("/reminders/"+args[0]+"/complete", nil); err != nil {
				return fmt.Errorf("complete failed: %w", err)
			}
			fmt.Println("Reminder completed.")
			return nil
		},
	}
}

func remindersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if _, err := api.Delete("/reminders/" + args[0]); err != nil {
				return fmt.Errorf("delete failed: %w", err)
			}
			fmt.Println("Reminder deleted.")
			return nil
		},
	}
}
