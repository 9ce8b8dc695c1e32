package hybrid

import (
	"context"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	// Alpha weighs the vector list against the lexical one. 1 is pure vector search.
	Alpha            float64
	StoreTimeout     time.Duration
	EmbeddingTimeout time.Duration
}

// Store fans a query out to a vector index and a lexical index and fuses the two lists.
type Store struct {
	vectors  vectorDB.VectorIndex
	lexical  vectorDB.LexicalIndex
	embedder embedding.Embedder
	opts     Options
	logger   *logger_i.Logger
}

// NewStore accepts a nil lexical index, searches are then vector only.
func NewStore(vectors vectorDB.VectorIndex, lexical vectorDB.LexicalIndex, embedder embedding.Embedder, opts Options) *Store {
	return &Store{
		vectors:  vectors,
		lexical:  lexical,
		embedder: embedder,
		opts:     opts,
		logger:   logger_i.NewLogger("hybrid store"),
	}
}

func (s *Store) CreateSchema(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	return ragErrors.FromExternal(ragErrors.KindStoreUnavailable, "store.create_schema", "",
		s.vectors.CreateCollection(ctx, ""))
}

func (s *Store) Upsert(ctx context.Context, chunks []commonModels.DocChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docId := chunks[0].DocumentId
	ctx, cancel := s.withTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	if err := s.vectors.UpsertBatch(ctx, chunks); err != nil {
		return ragErrors.FromExternal(ragErrors.KindStoreUnavailable, "store.upsert", docId, err)
	}
	if s.lexical != nil {
		if err := s.lexical.Index(ctx, chunks); err != nil {
			return ragErrors.FromExternal(ragErrors.KindStoreUnavailable, "store.upsert", docId, err)
		}
	}
	return nil
}

func (s *Store) DeleteByDocumentId(ctx context.Context, documentId string) error {
	ctx, cancel := s.withTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	// lexical first: if the vector delete then fails the chunks are still reachable by vector search
	if s.lexical != nil {
		if err := s.lexical.DeleteByDocumentId(ctx, documentId); err != nil {
			return ragErrors.FromExternal(ragErrors.KindStoreUnavailable, "store.delete", documentId, err)
		}
	}
	if err := s.vectors.DeleteByDocumentId(ctx, documentId); err != nil {
		return ragErrors.FromExternal(ragErrors.KindStoreUnavailable, "store.delete", documentId, err)
	}
	return nil
}

func (s *Store) HybridSearch(ctx context.Context, query string, documentIdFilter string, limit int) ([]commonModels.SearchResult, error) {
	log := s.logger.WithTrace(ctx)
	if limit <= 0 {
		return nil, nil
	}

	embedCtx, cancelEmbed := s.withTimeout(ctx, s.opts.EmbeddingTimeout)
	vector, err := s.embedder.GetEmbedding(embedCtx, query)
	cancelEmbed()
	if err != nil {
		return nil, ragErrors.FromExternal(ragErrors.KindAdapterUnavailable, "store.embed_query", documentIdFilter, err)
	}

	// each side contributes a wider pool so fusion can promote chunks ranked low on one side
	candidates := limit * 2
	searchCtx, cancel := s.withTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	var vectorHits, lexicalHits []commonModels.SearchResult
	g, gctx := errgroup.WithContext(searchCtx)
	g.Go(func() error {
		var err error
		vectorHits, err = s.vectors.Search(gctx, vector, documentIdFilter, candidates)
		return err
	})
	if s.lexical != nil && s.opts.Alpha < 1 {
		g.Go(func() error {
			var err error
			lexicalHits, err = s.lexical.Search(gctx, query, documentIdFilter, candidates)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, ragErrors.FromExternal(ragErrors.KindStoreUnavailable, "store.search", documentIdFilter, err)
	}

	fused := Fuse(vectorHits, lexicalHits, s.opts.Alpha, limit)
	log.Debug("hybrid search", "vector_hits", len(vectorHits), "lexical_hits", len(lexicalHits), "returned", len(fused))
	return fused, nil
}

func (s *Store) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
