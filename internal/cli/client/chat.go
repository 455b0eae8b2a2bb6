package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/papyrai/internal/service"
)

// ChatResponse mirrors the chat endpoint payload.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Type      string `json:"type"`
	Response  string `json:"response"`
	Action    *struct {
		Kind               string `json:"kind"`
		ConfirmationPrompt string `json:"confirmation_prompt"`
	} `json:"action,omitempty"`
}

// ChatCmd creates the chat command.
func ChatCmd() *cobra.Command {
	var (
		sessionID string
		files     []string
	)

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send a chat message",
		Long: `Sends a message to the assistant, optionally attaching documents that are
indexed before the answer is produced. When the assistant proposes an action
(like creating a reminder), answer with 'papyr confirm' or 'papyr reject',
or just reply in the same session with yes/no.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runChat(cmd, strings.Join(args, " "), sessionID, files, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID to continue a conversation")
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "Attach a document (repeatable)")

	return cmd
}

func runChat(cmd *cobra.Command, message, sessionID string, files []string, outputJSON bool) error {
	if strings.TrimSpace(message) == "" && len(files) == 0 {
		return fmt.Errorf("nothing to send: provide a message or attach a file")
	}

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	// A yes/no in an active session resolves the pending action instead of
	// starting a new turn.
	if sessionID != "" && len(files) == 0 {
		if decision, err := service.ParseDecision(message); err == nil {
			return resolvePending(api, sessionID, string(decision), outputJSON)
		}
	}

	resp, err := api.PostMultipart("/chat", map[string]string{
		"message":    message,
		"session_id": sessionID,
	}, "files", files)
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	var chat ChatResponse
	if err := json.Unmarshal(resp.Data, &chat); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(chat, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(chat.Response)
	if chat.Type == "pending_action" && chat.Action != nil {
		fmt.Printf("\n[%s proposed] %s\n", chat.Action.Kind, chat.Action.ConfirmationPrompt)
	}
	fmt.Printf("\nSession: %s\n", chat.SessionID)
	return nil
}
