package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/rag/parser"
	"github.com/spf13/cobra"
)

var ingestDocumentId string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Parse, chunk, embed and store a document",
	Long: `Ingests a pdf, docx, rtf, odt, json or txt file. Any earlier version stored
under the same document id is replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var parseCmd = &cobra.Command{
	Use:         "parse [file]",
	Short:       "Extract the text and metadata of a document without storing it",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{offlineAnnotation: "true"},
	RunE:        runParse,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestDocumentId, "id", "i", "", "document id, derived from the file name when empty")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(parseCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	report, parsed, err := ragService.IngestFile(context.Background(), path, filepath.Base(path), ingestDocumentId)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if outputJSON {
		return printJSON(cmd, map[string]any{
			"document_id": report.DocumentId,
			"format":      parsed.Format,
			"chunk_count": report.ChunkCount,
			"metadata":    parsed.Metadata.ToMap(),
		})
	}
	cmd.Printf("Ingested %s as %q (%s, %d chunks)\n", path, report.DocumentId, parsed.Format, report.ChunkCount)
	return nil
}

// parse runs without OCR, scanned PDFs need the full service.
func runParse(cmd *cobra.Command, args []string) error {
	path := args[0]
	p := parser.NewParser(nil, config.GenerationTimeout)
	doc, err := p.Parse(context.Background(), path, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	if outputJSON {
		return printJSON(cmd, map[string]any{
			"filename": doc.FileName,
			"format":   doc.Format,
			"content":  doc.Text,
			"metadata": doc.Metadata.ToMap(),
		})
	}
	cmd.Printf("%s (%s)\n", doc.FileName, doc.Format)
	for k, v := range doc.Metadata {
		cmd.Printf("  %s: %s\n", k, v)
	}
	cmd.Println()
	cmd.Println(doc.Text)
	return nil
}
