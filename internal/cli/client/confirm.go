package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ConfirmResponse mirrors the confirm endpoint payload.
type ConfirmResponse struct {
	Decision   string `json:"decision"`
	ReminderID string `json:"reminder_id,omitempty"`
	Message    string `json:"message"`
}

// ConfirmCmd creates the confirm command.
func ConfirmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confirm <session-id>",
		Short: "Confirm the session's pending action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return resolvePending(api, args[0], "confirm", outputJSON)
		},
	}
	return cmd
}

// RejectCmd creates the reject command.
func RejectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reject <session-id>",
		Short: "Reject the session's pending action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return resolvePending(api, args[0], "reject", outputJSON)
		},
	}
	return cmd
}

func resolvePending(api *APIClient, sessionID, decision string, outputJSON bool) error {
	resp, err := api.Post("/confirm", map[string]string{
		"session_id": sessionID,
		"decision":   decision,
	})
	if err != nil {
		return fmt.Errorf("%s failed: %w", decision, err)
	}

	var outcome ConfirmResponse
	if err := json.Unmarshal(resp.Data, &outcome); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(outcome, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(outcome.Message)
	if outcome.ReminderID != "" {
		fmt.Printf("Reminder ID: %s\n", outcome.ReminderID)
	}
	return nil
}
