package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var rerankTopK int

func init() {
	rerankCmd.Flags().IntVar(&rerankTopK, "top-k", 0, "return only the top K results (0 = all)")
}

// rerankCmd scores documents against a query
var rerankCmd = &cobra.Command{
	Use:   "rerank <query> [file]",
	Short: "Rerank documents against a query",
	Long: `Rerank documents against a query using the rerankd server.

Documents are read from a file or stdin: either a JSON array of
{"id", "content", "metadata"} objects, or plain text with one document
per line.

Examples:
  # Rerank documents from a file
  rerankctl rerank "what is kubernetes" docs.json

  # Rerank lines from stdin, keep the top 3
  cat candidates.txt | rerankctl rerank "what is kubernetes" --top-k 3 -`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRerank,
}

// DocumentPayload matches internal/server DocumentPayload
type DocumentPayload struct {
	ID       string                 `json:"id,omitempty"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// RerankRequest matches internal/server RerankRequest
type RerankRequest struct {
	Query     string            `json:"query"`
	Documents []DocumentPayload `json:"documents"`
	TopK      int               `json:"top_k,omitempty"`
}

// RerankResponse matches internal/server RerankResponse
type RerankResponse struct {
	Results []struct {
		ID             string  `json:"id"`
		Content        string  `json:"content"`
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// parseDocuments accepts either a JSON array of documents or plain
// text with one document per line.
func parseDocuments(content []byte) ([]DocumentPayload, error) {
	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return nil, fmt.Errorf("no documents to rerank")
	}

	if strings.HasPrefix(trimmed, "[") {
		var docs []DocumentPayload
		if err := json.Unmarshal([]byte(trimmed), &docs); err != nil {
			return nil, fmt.Errorf("failed to parse document JSON: %w", err)
		}
		return docs, nil
	}

	var docs []DocumentPayload
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		docs = append(docs, DocumentPayload{Content: line})
	}
	return docs, nil
}

// runRerank handles the rerank command
func runRerank(cmd *cobra.Command, args []string) error {
	content, err := readInput(args[1:])
	if err != nil {
		return err
	}

	docs, err := parseDocuments(content)
	if err != nil {
		return err
	}

	var resp RerankResponse
	err = postJSON("POST", "/api/v1/rerank", RerankRequest{
		Query:     args[0],
		Documents: docs,
		TopK:      rerankTopK,
	}, &resp)
	if err != nil {
		return err
	}

	for rank, result := range resp.Results {
		fmt.Printf("%2d. [%.4f] %s\n", rank+1, result.RelevanceScore, result.Content)
	}

	return nil
}
