package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// StatsResponse mirrors the stats endpoint payload.
type StatsResponse struct {
	ChunkCount    int      `json:"chunk_count"`
	DocumentCount int      `json:"document_count"`
	Sources       []string `json:"sources"`
	EmbeddingLive bool     `json:"embedding_live"`
}

// StatsCmd creates the stats command.
func StatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show vector index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runStats(cmd, outputJSON)
		},
	}
	return cmd
}

func runStats(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/stats")
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	var stats StatsResponse
	if err := json.Unmarshal(resp.Data, &stats); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Indexed chunks:    %d\n", stats.ChunkCount)
	fmt.Printf("Indexed documents: %d\n", stats.DocumentCount)
	fmt.Printf("Embedding:         %s\n", liveLabel(stats.EmbeddingLive))
	if len(stats.Sources) > 0 {
		fmt.Println("Sources:")
		for _, src := range stats.Sources {
			fmt.Printf("  - %s\n", src)
		}
	}
	return nil
}

func liveLabel(live bool) string {
	if live {
		return "live"
	}
	return "unavailable"
}
