// Package mcpTools exposes the rag service to MCP clients over stdio.
package mcpTools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/akolanti/GoRAG/internal/adapter"
	"github.com/akolanti/GoRAG/internal/api"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/rag"
	"github.com/akolanti/GoRAG/internal/rag/aggregate"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverName = "gorag-mcp"

type SearchInput struct {
	Query      string `json:"query" jsonschema:"text to search the ingested documents for"`
	DocumentId string `json:"document_id,omitempty" jsonschema:"restrict the search to one document (optional)"`
	Limit      int    `json:"limit,omitempty" jsonschema:"number of chunks to return (optional, defaults to 3, max 50)"`
}

type AnswerInput struct {
	Question   string `json:"question" jsonschema:"the question to answer from the ingested documents"`
	DocumentId string `json:"document_id,omitempty" jsonschema:"restrict retrieval to one document (optional)"`
	Limit      int    `json:"limit,omitempty" jsonschema:"number of chunks to retrieve (optional, defaults to 3)"`
}

type AggregateInput struct {
	Field      string         `json:"field" jsonschema:"dot separated path of the numeric field, e.g. products.price"`
	Operation  string         `json:"operation" jsonschema:"one of max, min, sum, average, median, count"`
	DocumentId string         `json:"document_id,omitempty" jsonschema:"aggregate over one document only (optional)"`
	Filter     map[string]any `json:"filter,omitempty" jsonschema:"field path to required value, all must match (optional)"`
}

type IngestInput struct {
	Path       string `json:"path" jsonschema:"path of a local file to ingest"`
	DocumentId string `json:"document_id,omitempty" jsonschema:"document id, derived from the file name when empty (optional)"`
}

type IngestOutput struct {
	DocumentId string         `json:"document_id"`
	Format     string         `json:"format"`
	ChunkCount int            `json:"chunk_count"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type toolSet struct {
	service rag.Service
	// roots limits ingest_file to files below these directories. Empty allows any path.
	roots  []string
	logger *logger_i.Logger
}

// NewServer registers the document tools on a fresh MCP server.
func NewServer(service rag.Service, version string, ingestRoots []string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)
	t := &toolSet{service: service, roots: ingestRoots, logger: logger_i.NewLogger("mcp")}
	t.register(server)
	return server
}

func (t *toolSet) register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Hybrid (vector and keyword) search over ingested document chunks, best match first.",
	}, t.searchDocuments)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "answer_question",
		Description: "Answer a question using only the ingested documents as context. Returns the answer and the chunks it used.",
	}, t.answerQuestion)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "aggregate_records",
		Description: "Compute max, min, sum, average, median or count of a numeric field across structured JSON records.",
	}, t.aggregateRecords)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_file",
		Description: "Parse, chunk, embed and store a local file (pdf, docx, rtf, odt, json, txt). Replaces any earlier version with the same id.",
	}, t.ingestFile)
}

func (t *toolSet) searchDocuments(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, api.SearchResponse, error) {
	results, err := t.service.Search(ctx, input.Query, input.DocumentId, input.Limit)
	if errors.Is(err, ragErrors.ErrNoResultsFound) {
		return nil, adapter.ToSearchResponse(input.Query, nil), nil
	}
	if err != nil {
		return nil, api.SearchResponse{}, t.toolError(ctx, "search_documents", err)
	}
	return nil, adapter.ToSearchResponse(input.Query, results), nil
}

func (t *toolSet) answerQuestion(ctx context.Context, _ *mcp.CallToolRequest, input AnswerInput) (*mcp.CallToolResult, api.AnswerResponse, error) {
	answer, err := t.service.Answer(ctx, input.Question, input.DocumentId, input.Limit)
	if err != nil {
		return nil, api.AnswerResponse{}, t.toolError(ctx, "answer_question", err)
	}
	return nil, adapter.ToAnswerResponse(answer), nil
}

func (t *toolSet) aggregateRecords(ctx context.Context, _ *mcp.CallToolRequest, input AggregateInput) (*mcp.CallToolResult, api.AggregateResponse, error) {
	res, err := t.service.Aggregate(ctx, aggregate.Request{
		Field:      input.Field,
		Operation:  aggregate.Operation(strings.ToLower(input.Operation)),
		Filter:     input.Filter,
		DocumentId: input.DocumentId,
	})
	if err != nil {
		return nil, api.AggregateResponse{}, t.toolError(ctx, "aggregate_records", err)
	}
	return nil, adapter.ToAggregateResponse(res), nil
}

func (t *toolSet) ingestFile(ctx context.Context, _ *mcp.CallToolRequest, input IngestInput) (*mcp.CallToolResult, IngestOutput, error) {
	path, err := t.resolvePath(input.Path)
	if err != nil {
		return nil, IngestOutput{}, t.toolError(ctx, "ingest_file", err)
	}

	report, parsed, err := t.service.IngestFile(ctx, path, filepath.Base(path), input.DocumentId)
	if err != nil {
		return nil, IngestOutput{}, t.toolError(ctx, "ingest_file", err)
	}
	return nil, IngestOutput{
		DocumentId: report.DocumentId,
		Format:     string(parsed.Format),
		ChunkCount: report.ChunkCount,
		Metadata:   parsed.Metadata.ToMap(),
	}, nil
}

func (t *toolSet) resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ragErrors.Newf(ragErrors.KindInvalidDocument, "mcp.ingest_file", "", "path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ragErrors.New(ragErrors.KindInvalidDocument, "mcp.ingest_file", "", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", ragErrors.New(ragErrors.KindInvalidDocument, "mcp.ingest_file", "", err)
	}
	if info.IsDir() {
		return "", ragErrors.Newf(ragErrors.KindInvalidDocument, "mcp.ingest_file", "", "%s is a directory", path)
	}
	if len(t.roots) == 0 {
		return abs, nil
	}
	for _, root := range t.roots {
		rootAbs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		if rel, err := filepath.Rel(rootAbs, abs); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return abs, nil
		}
	}
	return "", ragErrors.Newf(ragErrors.KindInvalidDocument, "mcp.ingest_file", "", "%s is outside the allowed directories", path)
}

// toolError keeps the error kind visible to the model so it can decide whether to retry.
func (t *toolSet) toolError(ctx context.Context, tool string, err error) error {
	kind := ragErrors.KindOf(err)
	t.logger.WithTrace(ctx).Error("Tool call failed", "tool", tool, "kind", kind, "error", err)
	return fmt.Errorf("%s (%s, retryable=%t)", ragErrors.PublicMessage(err), kind, ragErrors.Retryable(err))
}
