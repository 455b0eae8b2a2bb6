package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// UploadResponse mirrors the upload endpoint payload.
type UploadResponse struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	MimeClass  string `json:"mime_class"`
	Preview    string `json:"preview"`
	Indexing   string `json:"indexing"`
}

// UploadCmd creates the upload command.
func UploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload documents for indexing",
		Long:  "Parses and stores one or more documents (pdf, csv, xlsx, docx, txt, md) and queues them for embedding.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runUpload(cmd, args, outputJSON)
		},
	}

	return cmd
}

func runUpload(cmd *cobra.Command, paths []string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	var results []UploadResponse
	for _, path := range paths {
		resp, err := api.PostMultipart("/upload", nil, "file", []string{path})
		if err != nil {
			return fmt.Errorf("upload of %s failed: %w", path, err)
		}

		var uploaded UploadResponse
		if err := json.Unmarshal(resp.Data, &uploaded); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		results = append(results, uploaded)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	for _, r := range results {
		fmt.Printf("Uploaded %s [%s]\n", r.Filename, r.MimeClass)
		fmt.Printf("  ID: %s\n", r.DocumentID)
		fmt.Printf("  Preview: %s\n", r.Preview)
		fmt.Printf("  Indexing: %s\n", r.Indexing)
	}
	return nil
}

// DocumentListResponse mirrors the upload history payload.
type DocumentListResponse struct {
	Items []struct {
		ID         string `json:"id"`
		Filename   string `json:"filename"`
		MimeClass  string `json:"mime_class"`
		RawSize    int64  `json:"raw_size"`
		Preview    string `json:"preview"`
		UploadedAt string `json:"uploaded_at"`
	} `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

// HistoryCmd creates the upload history command.
func HistoryCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List uploaded documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runHistory(cmd, limit, cursor, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runHistory(cmd *cobra.Command, limit int, cursor string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/upload/history?limit=%d", limit)
	if cursor != "" {
		path += "&cursor=" + cursor
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("history failed: %w", err)
	}

	var page DocumentListResponse
	if err := json.Unmarshal(resp.Data, &page); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(page, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(page.Items) == 0 {
		fmt.Println("No documents uploaded.")
		return nil
	}

	for i, item := range page.Items {
		fmt.Printf("%d. %s [%s, %d bytes]\n", i+1, item.Filename, item.MimeClass, item.RawSize)
		fmt.Printf("   ID: %s\n", item.ID)
		fmt.Printf("   Uploaded: %s\n", item.UploadedAt)
		if item.Preview != "" {
			fmt.Printf("   Preview: %s\n", item.Preview)
		}
	}

	if page.HasMore && page.Cursor != "" {
		fmt.Printf("\n%s\n", strings.Repeat("-", 40))
		fmt.Printf("More results available. Use --cursor %s\n", page.Cursor)
	}
	return nil
}
