package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/papyrai/internal/cli"
	"github.com/cloo-solutions/papyrai/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "papyr",
		Short: "Papyr CLI - chat with your documents",
		Long: `Papyr CLI talks to a running papyrd instance: upload documents, chat over
them, and confirm or reject the actions the assistant proposes.

Environment variables:
  PAPYR_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.UploadCmd())
	rootCmd.AddCommand(client.HistoryCmd())
	rootCmd.AddCommand(client.ChatCmd())
	rootCmd.AddCommand(client.ConfirmCmd())
	rootCmd.AddCommand(client.RejectCmd())
	rootCmd.AddCommand(client.StatsCmd())
	rootCmd.AddCommand(client.RemindersCmd())
	rootCmd.AddCommand(client.SessionCmd())
	rootCmd.AddCommand(client.ActionsCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
