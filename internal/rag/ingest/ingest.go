package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/domain/storeModel"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/chunker"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/google/uuid"
)

type Parser interface {
	Parse(ctx context.Context, path string, fileName string) (commonModels.ParsedDocument, error)
}

type Options struct {
	Chunker          chunker.Options
	BatchSize        int
	Concurrency      int
	EmbeddingTimeout time.Duration
}

// Coordinator runs validate, chunk, embed, delete old version, upsert new version, in that order.
type Coordinator struct {
	store    vectorDB.DocumentStore
	records  storeModel.RecordStore
	locker   storeModel.DocumentLocker
	embedder embedding.Embedder
	parser   Parser
	opts     Options
	logger   *logger_i.Logger
	now      func() time.Time
}

func NewCoordinator(store vectorDB.DocumentStore, records storeModel.RecordStore, locker storeModel.DocumentLocker,
	embedder embedding.Embedder, parser Parser, opts Options) *Coordinator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Coordinator{
		store:    store,
		records:  records,
		locker:   locker,
		embedder: embedder,
		parser:   parser,
		opts:     opts,
		logger:   logger_i.NewLogger("Document Ingestion"),
		now:      time.Now,
	}
}

func (c *Coordinator) Ingest(ctx context.Context, doc commonModels.Document) (commonModels.IngestionReport, error) {
	log := c.logger.WithTrace(ctx).With("document_id", doc.Id)

	if strings.TrimSpace(doc.Id) == "" {
		return commonModels.IngestionReport{}, ragErrors.Newf(ragErrors.KindInvalidDocument, "ingest.validate", "", "document id is empty")
	}
	if strings.TrimSpace(doc.RawText) == "" {
		return commonModels.IngestionReport{}, ragErrors.Newf(ragErrors.KindInvalidDocument, "ingest.validate", doc.Id, "document has no text")
	}

	candidates, err := chunker.Chunk(doc.RawText, c.opts.Chunker)
	if err != nil {
		return commonModels.IngestionReport{}, err
	}
	log.Debug("Chunked document", "chunks", len(candidates))

	ingestedAt := c.now().UTC()
	chunks := buildChunks(doc, candidates, ingestedAt)

	if err := c.embedChunks(ctx, doc.Id, chunks); err != nil {
		metrics.CaptureIngestion(string(ragErrors.KindOf(err)), 0)
		return commonModels.IngestionReport{}, err
	}

	if err := c.replaceDocument(ctx, doc, chunks); err != nil {
		log.Error("Ingestion failed", "error", err)
		metrics.CaptureIngestion(string(ragErrors.KindOf(err)), 0)
		return commonModels.IngestionReport{}, err
	}

	metrics.CaptureIngestion("ok", len(chunks))
	log.Info("Document ingested", "chunks", len(chunks), "records", len(doc.Records))
	return commonModels.IngestionReport{DocumentId: doc.Id, ChunkCount: len(chunks), IngestedAt: ingestedAt}, nil
}

// IngestFile parses the file and ingests it. An empty documentId is derived from fileName.
func (c *Coordinator) IngestFile(ctx context.Context, path string, fileName string, documentId string) (commonModels.IngestionReport, commonModels.ParsedDocument, error) {
	parsed, err := c.parser.Parse(ctx, path, fileName)
	if err != nil {
		return commonModels.IngestionReport{}, parsed, err
	}
	if strings.TrimSpace(documentId) == "" {
		documentId = DeriveDocumentId(fileName, c.now())
	}

	report, err := c.Ingest(ctx, commonModels.Document{
		Id:       documentId,
		RawText:  parsed.Text,
		Metadata: parsed.Metadata,
		Records:  parsed.Records,
	})
	return report, parsed, err
}

// DeriveDocumentId names an upload after its file, e.g. report.pdf -> report_20240102150405.
func DeriveDocumentId(fileName string, at time.Time) string {
	base := filepath.Base(fileName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "document"
	}
	return base + "_" + at.Format("20060102150405")
}

// ChunkId is stable for a (document, index) pair so re-ingestion overwrites in place.
func ChunkId(documentId string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(fmt.Sprintf("%s_%d", documentId, index))).String()
}

func buildChunks(doc commonModels.Document, candidates []chunker.Candidate, ingestedAt time.Time) []commonModels.DocChunk {
	chunks := make([]commonModels.DocChunk, len(candidates))
	for i, cand := range candidates {
		md := doc.Metadata.Clone()
		if md == nil {
			md = commonModels.Metadata{}
		}
		md["char_start"] = commonModels.Int(cand.CharStart)
		md["char_end"] = commonModels.Int(cand.CharEnd)

		chunks[i] = commonModels.DocChunk{
			Id:         ChunkId(doc.Id, cand.Index),
			DocumentId: doc.Id,
			ChunkIndex: cand.Index,
			Text:       cand.Text,
			CharStart:  cand.CharStart,
			CharEnd:    cand.CharEnd,
			Metadata:   md,
			IngestedAt: ingestedAt,
		}
	}
	return chunks
}

// replaceDocument holds the document lock across delete and upsert. Records are cleared
// before the chunks, so the only destructive step is the chunk delete; anything failing
// after it leaves the document without chunks and is reported as IngestionFailed.
func (c *Coordinator) replaceDocument(ctx context.Context, doc commonModels.Document, chunks []commonModels.DocChunk) error {
	unlock, err := c.locker.Lock(ctx, doc.Id)
	if err != nil {
		return ragErrors.FromExternal(ragErrors.KindStoreUnavailable, "ingest.lock", doc.Id, err)
	}
	defer unlock()

	start := time.Now()
	if c.records != nil {
		if err := c.records.DeleteRecords(ctx, doc.Id); err != nil {
			return ragErrors.FromExternal(ragErrors.KindStoreUnavailable, "ingest.delete_records", doc.Id, err)
		}
	}
	if err := c.store.DeleteByDocumentId(ctx, doc.Id); err != nil {
		return ragErrors.FromExternal(ragErrors.KindStoreUnavailable, "ingest.delete", doc.Id, err)
	}

	if err := c.store.Upsert(ctx, chunks); err != nil {
		metrics.IncrementZeroChunkDocuments()
		return ragErrors.New(ragErrors.KindIngestionFailed, "ingest.upsert", doc.Id, err)
	}
	// chunks are in place here, only the structured records are missing
	if c.records != nil && len(doc.Records) > 0 {
		if err := c.records.ReplaceRecords(ctx, doc.Id, doc.Records); err != nil {
			return ragErrors.New(ragErrors.KindIngestionFailed, "ingest.upsert_records", doc.Id, err)
		}
	}
	metrics.CaptureExecutionMetrics("store_replace", time.Since(start))
	return nil
}
