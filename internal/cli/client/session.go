package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// SessionHistoryResponse mirrors the session history payload.
type SessionHistoryResponse struct {
	SessionID string `json:"session_id"`
	CreatedAt string `json:"created_at"`
	Messages  []struct {
		Role                string   `json:"role"`
		Content             string   `json:"content"`
		Timestamp           string   `json:"timestamp"`
		AttachedDocumentIDs []string `json:"attached_document_ids,omitempty"`
	} `json:"messages"`
	PendingAction bool `json:"pending_action"`
}

// ActionLogResponse mirrors a committed-action feed entry.
type ActionLogResponse struct {
	ID          string `json:"id"`
	ActionType  string `json:"action_type"`
	Description string `json:"description"`
	Status      string `json:"status"`
	SessionID   string `json:"session_id"`
	CreatedAt   string `json:"created_at"`
}

// SessionCmd creates the session command group.
func SessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and manage chat sessions",
	}

	cmd.AddCommand(sessionShowCmd())
	cmd.AddCommand(sessionDeleteCmd())

	return cmd
}

func sessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session's message history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/history/" + args[0])
			if err != nil {
				return fmt.Errorf("show failed: %w", err)
			}

			var history SessionHistoryResponse
			if err := json.Unmarshal(resp.Data, &history); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				output, _ := json.MarshalIndent(history, "", "  ")
				fmt.Println(string(output))
				return nil
			}

			fmt.Printf("Session %s (started %s)\n", history.SessionID, history.CreatedAt)
			if history.PendingAction {
				fmt.Println("A proposed action is awaiting confirmation.")
			}
			fmt.Println()
			for _, msg := range history.Messages {
				fmt.Printf("%s: %s\n", msg.Role, msg.Content)
				if len(msg.AttachedDocumentIDs) > 0 {
					fmt.Printf("  (attachments: %v)\n", msg.AttachedDocumentIDs)
				}
			}
			return nil
		},
	}
}

func sessionDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if _, err := api.Delete("/history/" + args[0]); err != nil {
				return fmt.Errorf("delete failed: %w", err)
			}
			fmt.Println("Session deleted.")
			return nil
		},
	}
}

// ActionsCmd creates the actions command.
func ActionsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List recently committed actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get(fmt.Sprintf("/history/actions?limit=%d", limit))
			if err != nil {
				return fmt.Errorf("actions failed: %w", err)
			}

			var entries []ActionLogResponse
			if err := json.Unmarshal(resp.Data, &entries); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				output, _ := json.MarshalIndent(entries, "", "  ")
				fmt.Println(string(output))
				return nil
			}

			if len(entries) == 0 {
				fmt.Println("No committed actions.")
				return nil
			}

			for _, e := range entries {
				fmt.Printf("%s  %s [%s]\n", e.CreatedAt, e.Description, e.Status)
				if e.SessionID != "" {
					fmt.Printf("  Session: %s\n", e.SessionID)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries")

	return cmd
}
