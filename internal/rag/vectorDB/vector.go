package vectorDB

import (
	"context"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
)

// DocumentStore is what the ingestion and retrieval paths talk to.
type DocumentStore interface {
	CreateSchema(ctx context.Context) error
	Upsert(ctx context.Context, chunks []commonModels.DocChunk) error
	DeleteByDocumentId(ctx context.Context, documentId string) error
	// HybridSearch ranks chunks for query, best first. An empty documentIdFilter searches everything.
	HybridSearch(ctx context.Context, query string, documentIdFilter string, limit int) ([]commonModels.SearchResult, error)
}

// VectorIndex is a dense vector backend. Chunks must carry their embedding.
type VectorIndex interface {
	CreateCollection(ctx context.Context, collectionName string) error
	UpsertBatch(ctx context.Context, chunks []commonModels.DocChunk) error
	DeleteByDocumentId(ctx context.Context, documentId string) error
	Search(ctx context.Context, vector []float32, documentIdFilter string, limit int) ([]commonModels.SearchResult, error)
}

// LexicalIndex is a keyword backend.
type LexicalIndex interface {
	Index(ctx context.Context, chunks []commonModels.DocChunk) error
	DeleteByDocumentId(ctx context.Context, documentId string) error
	Search(ctx context.Context, query string, documentIdFilter string, limit int) ([]commonModels.SearchResult, error)
}

// payload keys shared by every backend
const (
	FieldContent    = "content"
	FieldDocumentId = "document_id"
	FieldChunkIndex = "chunk_index"
	FieldCharStart  = "char_start"
	FieldCharEnd    = "char_end"
	FieldMetadata   = "metadata"
	FieldIngestedAt = "ingested_at"
)
