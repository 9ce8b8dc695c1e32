package ingest

import (
	"context"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"golang.org/x/sync/errgroup"
)

// embedChunks fills in every chunk's embedding. Batches run concurrently up to
// opts.Concurrency; each batch writes only its own slice range so order is kept.
func (c *Coordinator) embedChunks(ctx context.Context, documentId string, chunks []commonModels.DocChunk) error {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for i := 0; i < len(chunks); i += c.opts.BatchSize {
		batch := chunks[i:min(i+c.opts.BatchSize, len(chunks))]
		g.Go(func() error {
			texts := make([]string, len(batch))
			for j, chunk := range batch {
				texts[j] = chunk.Text
			}

			batchCtx, cancel := c.batchContext(gctx)
			defer cancel()
			vectors, err := c.embedder.BatchEmbedding(batchCtx, texts)
			if err != nil {
				return ragErrors.FromExternal(ragErrors.KindAdapterUnavailable, "ingest.embed", documentId, err)
			}
			if err := embedding.CheckBatch(len(batch), vectors); err != nil {
				return ragErrors.New(ragErrors.KindAdapterUnavailable, "ingest.embed", documentId, err)
			}
			for j := range batch {
				batch[j].Embedding = vectors[j]
			}
			return nil
		})
	}
	return g.Wait()
}

func (c *Coordinator) batchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.EmbeddingTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.opts.EmbeddingTimeout)
}
