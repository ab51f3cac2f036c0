package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	searchCollection string
	searchTopK       int
	searchFetchK     int
)

func init() {
	searchCmd.Flags().StringVar(&searchCollection, "collection", "", "collection to search (default collection if empty)")
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 0, "return only the top K results after reranking (0 = all)")
	searchCmd.Flags().IntVar(&searchFetchK, "fetch-k", 0, "number of candidates to fetch before reranking (server default if 0)")
}

// searchCmd runs the two-stage retrieval pipeline
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed documents",
	Long: `Search indexed documents: fetch candidates by vector similarity,
then rerank them against the query.

Examples:
  # Search the default collection
  rerankctl search "how do I configure retries"

  # Search a named collection, keep the top 5
  rerankctl search --collection runbooks --top-k 5 "failover procedure"`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

// SearchRequest matches internal/server SearchRequest
type SearchRequest struct {
	Query      string `json:"query"`
	Collection string `json:"collection,omitempty"`
	FetchK     int    `json:"fetch_k,omitempty"`
	TopK       int    `json:"top_k,omitempty"`
}

// SearchResponse matches internal/server SearchResponse
type SearchResponse struct {
	Results []struct {
		ID             string  `json:"id"`
		Content        string  `json:"content"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// runSearch handles the search command
func runSearch(cmd *cobra.Command, args []string) error {
	var resp SearchResponse
	err := postJSON("POST", "/api/v1/search", SearchRequest{
		Query:      args[0],
		Collection: searchCollection,
		FetchK:     searchFetchK,
		TopK:       searchTopK,
	}, &resp)
	if err != nil {
		return err
	}

	if len(resp.Results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for rank, result := range resp.Results {
		fmt.Printf("%2d. [%.4f] %s\n    id: %s\n", rank+1, result.RelevanceScore, result.Content, result.ID)
	}

	return nil
}
