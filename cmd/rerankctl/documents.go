package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	indexCollection  string
	deleteCollection string
)

func init() {
	indexCmd.Flags().StringVar(&indexCollection, "collection", "", "collection to index into (default collection if empty)")
	deleteCmd.Flags().StringVar(&deleteCollection, "collection", "", "collection to delete from (default collection if empty)")
}

// indexCmd adds documents to the vector store
var indexCmd = &cobra.Command{
	Use:   "index [file]",
	Short: "Index documents into the vector store",
	Long: `Index documents into the rerankd vector store.

Documents are read from a file or stdin: either a JSON array of
{"id", "content", "metadata"} objects, or plain text with one document
per line. Documents without an id are assigned one by the server.

Examples:
  # Index a JSON document file
  rerankctl index docs.json

  # Index lines from stdin into a named collection
  cat notes.txt | rerankctl index --collection notes -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

// deleteCmd removes documents from the vector store
var deleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete documents from the vector store",
	Long: `Delete documents from the rerankd vector store by ID.

Examples:
  # Delete two documents from the default collection
  rerankctl delete doc-1 doc-2

  # Delete from a named collection
  rerankctl delete --collection notes doc-3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

// AddDocumentsRequest matches internal/server AddDocumentsRequest
type AddDocumentsRequest struct {
	Collection string            `json:"collection,omitempty"`
	Documents  []DocumentPayload `json:"documents"`
}

// AddDocumentsResponse matches internal/server AddDocumentsResponse
type AddDocumentsResponse struct {
	IDs []string `json:"ids"`
}

// DeleteDocumentsRequest matches internal/server DeleteDocumentsRequest
type DeleteDocumentsRequest struct {
	Collection string   `json:"collection,omitempty"`
	IDs        []string `json:"ids"`
}

// runIndex handles the index command
func runIndex(cmd *cobra.Command, args []string) error {
	content, err := readInput(args)
	if err != nil {
		return err
	}

	docs, err := parseDocuments(content)
	if err != nil {
		return err
	}

	var resp AddDocumentsResponse
	err = postJSON("POST", "/api/v1/documents", AddDocumentsRequest{
		Collection: indexCollection,
		Documents:  docs,
	}, &resp)
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %d document(s)\n", len(resp.IDs))
	for _, id := range resp.IDs {
		fmt.Println(id)
	}

	return nil
}

// runDelete handles the delete command
func runDelete(cmd *cobra.Command, args []string) error {
	err := postJSON("DELETE", "/api/v1/documents", DeleteDocumentsRequest{
		Collection: deleteCollection,
		IDs:        args,
	}, nil)
	if err != nil {
		return err
	}

	fmt.Printf("Deleted %d document(s)\n", len(args))
	return nil
}
