package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/akolanti/GoRAG/internal/adapter"
	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/spf13/cobra"
)

var (
	searchLimit    int
	searchDocument string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search ingested chunks",
	Long: `Runs the hybrid search used for answering: vector similarity fused with
keyword scores, best match first.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the ingested documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, askCmd} {
		c.Flags().IntVarP(&searchLimit, "limit", "n", 0, "number of chunks to retrieve (default 3, max 50)")
		c.Flags().StringVarP(&searchDocument, "document", "d", "", "restrict to one document id")
		rootCmd.AddCommand(c)
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	results, err := ragService.Search(context.Background(), query, searchDocument, searchLimit)
	if err != nil && !errors.Is(err, ragErrors.ErrNoResultsFound) {
		return fmt.Errorf("search failed: %w", err)
	}

	if outputJSON {
		return printJSON(cmd, adapter.ToSearchResponse(query, results))
	}
	printResults(cmd, results)
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	answer, err := ragService.Answer(context.Background(), args[0], searchDocument, searchLimit)
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	if outputJSON {
		return printJSON(cmd, adapter.ToAnswerResponse(answer))
	}
	if answer.NoResults {
		cmd.Println("No relevant documents found.")
		return nil
	}
	cmd.Println(answer.Answer)
	cmd.Println()
	cmd.Println("Sources:")
	printResults(cmd, answer.Context)
	return nil
}

func printResults(cmd *cobra.Command, results []commonModels.SearchResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}
	for i, r := range results {
		cmd.Printf("  [%d] %s #%d (%.3f)\n", i+1, r.Chunk.DocumentId, r.Chunk.ChunkIndex, r.Score)
		cmd.Printf("      %s\n", snippet(r.Chunk.Text, 160))
	}
}

func snippet(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
