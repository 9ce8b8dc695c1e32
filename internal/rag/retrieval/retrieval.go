package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

type Options struct {
	// ContextBudget is the character budget of the assembled context.
	ContextBudget int
	DefaultLimit  int
	MaxLimit      int
}

// Assembler turns a query into a budgeted window of ranked chunks.
type Assembler struct {
	store  vectorDB.DocumentStore
	opts   Options
	logger *logger_i.Logger
}

func NewAssembler(store vectorDB.DocumentStore, opts Options) *Assembler {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 3
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}
	return &Assembler{store: store, opts: opts, logger: logger_i.NewLogger("retrieval")}
}

// Search returns the ranked chunks for query without applying the context budget.
func (a *Assembler) Search(ctx context.Context, query string, documentIdFilter string, limit int) ([]commonModels.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ragErrors.Newf(ragErrors.KindInvalidQuery, "retrieve", documentIdFilter, "query is empty")
	}
	results, err := a.store.HybridSearch(ctx, query, documentIdFilter, a.clampLimit(limit))
	if err != nil {
		return nil, ragErrors.FromExternal(ragErrors.KindStoreUnavailable, "retrieve", documentIdFilter, err)
	}
	if len(results) == 0 {
		return nil, ragErrors.Newf(ragErrors.KindNoResultsFound, "retrieve", documentIdFilter, "no chunks matched the query")
	}
	return results, nil
}

func (a *Assembler) Retrieve(ctx context.Context, query string, documentIdFilter string, limit int) (commonModels.ContextWindow, error) {
	log := a.logger.WithTrace(ctx)
	results, err := a.Search(ctx, query, documentIdFilter, limit)
	if err != nil {
		if errors.Is(err, ragErrors.ErrNoResultsFound) {
			log.Debug("no results", "document_id", documentIdFilter)
			return commonModels.ContextWindow{Query: query, Budget: a.opts.ContextBudget}, err
		}
		return commonModels.ContextWindow{}, err
	}

	window := SelectWithinBudget(query, results, a.opts.ContextBudget)
	metrics.CaptureContextSize(window.UsedChars)
	log.Debug("context assembled", "candidates", len(results), "selected", len(window.Results), "chars", window.UsedChars)
	return window, nil
}

func (a *Assembler) clampLimit(limit int) int {
	if limit <= 0 {
		return a.opts.DefaultLimit
	}
	return min(limit, a.opts.MaxLimit)
}

// SelectWithinBudget keeps results in rank order until the next one would overflow the
// budget. Results are never reordered or split, so a first result larger than the
// budget yields an empty window. A budget <= 0 means no limit.
func SelectWithinBudget(query string, results []commonModels.SearchResult, budget int) commonModels.ContextWindow {
	window := commonModels.ContextWindow{Query: query, Budget: budget, Results: make([]commonModels.SearchResult, 0, len(results))}
	for i, r := range results {
		size := utf8.RuneCountInString(r.Chunk.Text)
		if budget > 0 && window.UsedChars+size > budget {
			window.Truncated = true
			window.Dropped = len(results) - i
			break
		}
		window.Results = append(window.Results, r)
		window.UsedChars += size
	}
	return window
}

// FormatContext renders each chunk as a labelled block for the generation prompt.
func FormatContext(window commonModels.ContextWindow) []string {
	blocks := make([]string, len(window.Results))
	for i, r := range window.Results {
		blocks[i] = fmt.Sprintf("Document: %s\nContent: %s", r.Chunk.DocumentId, r.Chunk.Text)
	}
	return blocks
}

// JoinContext is FormatContext as a single string, blocks separated by a blank line.
func JoinContext(window commonModels.ContextWindow) string {
	return strings.Join(FormatContext(window), "\n\n")
}
