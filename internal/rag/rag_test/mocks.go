package rag_test

import (
	"context"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
)

// MockStore implements vectorDB.DocumentStore
type MockStore struct {
	// Control fields to simulate different behaviors
	OnUpsert             func(ctx context.Context, chunks []commonModels.DocChunk) error
	OnDeleteByDocumentId func(ctx context.Context, documentId string) error
	OnHybridSearch       func(ctx context.Context, query string, documentIdFilter string, limit int) ([]commonModels.SearchResult, error)

	Upserted []commonModels.DocChunk
}

func (m *MockStore) CreateSchema(ctx context.Context) error { return nil }

func (m *MockStore) Upsert(ctx context.Context, chunks []commonModels.DocChunk) error {
	if m.OnUpsert != nil {
		if err := m.OnUpsert(ctx, chunks); err != nil {
			return err
		}
	}
	m.Upserted = append(m.Upserted, chunks...)
	return nil
}

func (m *MockStore) DeleteByDocumentId(ctx context.Context, documentId string) error {
	if m.OnDeleteByDocumentId != nil {
		return m.OnDeleteByDocumentId(ctx, documentId)
	}
	return nil
}

func (m *MockStore) HybridSearch(ctx context.Context, query string, documentIdFilter string, limit int) ([]commonModels.SearchResult, error) {
	if m.OnHybridSearch != nil {
		return m.OnHybridSearch(ctx, query, documentIdFilter, limit)
	}
	return []commonModels.SearchResult{{
		Chunk: commonModels.DocChunk{DocumentId: "doc", Text: "default context"},
		Score: 1,
	}}, nil
}

type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, text string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, chunks []string) ([][]float32, error)
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, chunks)
	}
	// Return dummy vectors matching chunk size
	out := make([][]float32, len(chunks))
	for i := range out {
		out[i] = []float32{0.1}
	}
	return out, nil
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query)
	}
	return []float32{0.1}, nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnGenerate func(ctx context.Context, query string, contextChunks []string, maxTokens int) (string, error)
	Calls      int
}

func (m *MockLLM) Generate(ctx context.Context, q string, chunks []string, maxTokens int) (string, error) {
	m.Calls++
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, q, chunks, maxTokens)
	}
	return "mocked llm response", nil
}
