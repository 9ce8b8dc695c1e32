package hybrid

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB/chromemDB"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB/lexical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEmbedder struct {
	OnGetEmbedding func(ctx context.Context, query string) ([]float32, error)
}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return m.OnGetEmbedding(ctx, query)
}

func (m *mockEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	for i, c := range chunks {
		v, err := m.OnGetEmbedding(ctx, c)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func result(id, doc string, idx int, score float64) commonModels.SearchResult {
	return commonModels.SearchResult{
		Chunk: commonModels.DocChunk{Id: id, DocumentId: doc, ChunkIndex: idx},
		Score: score,
	}
}

func ids(results []commonModels.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Chunk.Id
	}
	return out
}

func TestFuse(t *testing.T) {
	tests := []struct {
		name    string
		vector  []commonModels.SearchResult
		lexical []commonModels.SearchResult
		alpha   float64
		limit   int
		want    []string
	}{
		{
			name:    "weighted merge",
			vector:  []commonModels.SearchResult{result("A", "d", 0, 0.9), result("B", "d", 1, 0.5), result("C", "d", 2, 0.1)},
			lexical: []commonModels.SearchResult{result("C", "d", 2, 5), result("D", "d", 3, 1)},
			alpha:   0.75,
			limit:   10,
			want:    []string{"A", "B", "C", "D"},
		},
		{
			name:    "lexical can lift a chunk",
			vector:  []commonModels.SearchResult{result("A", "d", 0, 0.9), result("B", "d", 1, 0.8), result("C", "d", 2, 0.1)},
			lexical: []commonModels.SearchResult{result("B", "d", 1, 3), result("A", "d", 0, 1)},
			alpha:   0.5,
			limit:   10,
			want:    []string{"B", "A", "C"},
		},
		{
			name:   "ties break on document then index",
			vector: []commonModels.SearchResult{result("X", "doc-b", 0, 0.5), result("Y", "doc-a", 1, 0.5), result("Z", "doc-a", 0, 0.5)},
			alpha:  1,
			limit:  10,
			want:   []string{"Z", "Y", "X"},
		},
		{
			name:   "limit truncates",
			vector: []commonModels.SearchResult{result("A", "d", 0, 0.9), result("B", "d", 1, 0.5), result("C", "d", 2, 0.1)},
			alpha:  1,
			limit:  2,
			want:   []string{"A", "B"},
		},
		{
			name:  "both empty",
			alpha: 0.75,
			limit: 3,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fuse(tt.vector, tt.lexical, tt.alpha, tt.limit)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFuse_KeepsRawScores(t *testing.T) {
	v := result("A", "d", 0, 0.42)
	v.VectorScore = 0.42
	l := result("A", "d", 0, 7.5)
	l.LexicalScore = 7.5

	got := Fuse([]commonModels.SearchResult{v}, []commonModels.SearchResult{l}, 0.75, 5)
	require.Len(t, got, 1)
	assert.Equal(t, 0.42, got[0].VectorScore)
	assert.Equal(t, 7.5, got[0].LexicalScore)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
}

// vectors: anything mentioning a cat points along x, everything else along z
func keywordEmbedder() *mockEmbedder {
	return &mockEmbedder{OnGetEmbedding: func(_ context.Context, text string) ([]float32, error) {
		if strings.Contains(strings.ToLower(text), "cat") {
			return []float32{1, 0, 0}, nil
		}
		return []float32{0, 0, 1}, nil
	}}
}

func newStore(t *testing.T, alpha float64) (*Store, *mockEmbedder) {
	t.Helper()
	vectors, err := chromemDB.NewStore("", "hybrid-test")
	require.NoError(t, err)
	lex, err := lexical.NewIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = lex.Close() })

	emb := keywordEmbedder()
	s := NewStore(vectors, lex, emb, Options{Alpha: alpha, StoreTimeout: time.Second, EmbeddingTimeout: time.Second})
	require.NoError(t, s.CreateSchema(context.Background()))
	return s, emb
}

func seed(t *testing.T, s *Store, emb *mockEmbedder, docId string, texts ...string) {
	t.Helper()
	vecs, err := emb.BatchEmbedding(context.Background(), texts)
	require.NoError(t, err)
	chunks := make([]commonModels.DocChunk, len(texts))
	for i, text := range texts {
		chunks[i] = commonModels.DocChunk{
			Id:         docId + "-" + string(rune('0'+i)),
			DocumentId: docId,
			ChunkIndex: i,
			Text:       text,
			CharEnd:    len(text),
			Embedding:  vecs[i],
		}
	}
	require.NoError(t, s.Upsert(context.Background(), chunks))
}

func TestHybridSearch_EndToEnd(t *testing.T) {
	s, emb := newStore(t, 0.75)
	seed(t, s, emb, "pets", "cats purr loudly", "dogs bark at night")
	seed(t, s, emb, "space", "rockets reach orbit")

	res, err := s.HybridSearch(context.Background(), "cat behaviour", "", 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "pets", res[0].Chunk.DocumentId)
	assert.Equal(t, 0, res[0].Chunk.ChunkIndex)
	assert.GreaterOrEqual(t, res[0].Score, res[1].Score)
}

func TestHybridSearch_DocumentFilter(t *testing.T) {
	s, emb := newStore(t, 0.75)
	seed(t, s, emb, "pets", "cats purr loudly")
	seed(t, s, emb, "space", "rockets reach orbit")

	res, err := s.HybridSearch(context.Background(), "cats", "space", 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "space", res[0].Chunk.DocumentId)
}

func TestDeleteByDocumentId_RemovesFromBothIndexes(t *testing.T) {
	s, emb := newStore(t, 0.5)
	seed(t, s, emb, "pets", "cats purr loudly")
	seed(t, s, emb, "space", "rockets reach orbit")

	require.NoError(t, s.DeleteByDocumentId(context.Background(), "pets"))

	res, err := s.HybridSearch(context.Background(), "cats", "", 5)
	require.NoError(t, err)
	for _, r := range res {
		assert.NotEqual(t, "pets", r.Chunk.DocumentId)
	}
}

func TestHybridSearch_EmbedderFailure(t *testing.T) {
	s, emb := newStore(t, 0.75)
	emb.OnGetEmbedding = func(context.Context, string) ([]float32, error) {
		return nil, errors.New("provider down")
	}

	_, err := s.HybridSearch(context.Background(), "anything", "", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ragErrors.ErrAdapterUnavailable)
}

func TestHybridSearch_EmbedderTimeout(t *testing.T) {
	s, emb := newStore(t, 0.75)
	emb.OnGetEmbedding = func(ctx context.Context, _ string) ([]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	s.opts.EmbeddingTimeout = 10 * time.Millisecond

	_, err := s.HybridSearch(context.Background(), "anything", "", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ragErrors.ErrTimeout)
}

type failingDeleteIndex struct {
	vectorDB.LexicalIndex
}

func (f failingDeleteIndex) DeleteByDocumentId(context.Context, string) error {
	return errors.New("bleve: index closed")
}

func TestDeleteByDocumentId_LexicalFailureKeepsVectors(t *testing.T) {
	vectors, err := chromemDB.NewStore("", "hybrid-delete-test")
	require.NoError(t, err)
	lex, err := lexical.NewIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = lex.Close() })

	emb := keywordEmbedder()
	s := NewStore(vectors, failingDeleteIndex{lex}, emb, Options{Alpha: 1, StoreTimeout: time.Second, EmbeddingTimeout: time.Second})
	require.NoError(t, s.CreateSchema(context.Background()))
	seed(t, s, emb, "pets", "cats purr loudly")

	err = s.DeleteByDocumentId(context.Background(), "pets")
	assert.ErrorIs(t, err, ragErrors.ErrStoreUnavailable)

	res, err := s.HybridSearch(context.Background(), "cats", "pets", 5)
	require.NoError(t, err)
	require.Len(t, res, 1, "vector chunks must survive a failed delete")
	assert.Equal(t, "pets", res[0].Chunk.DocumentId)
}
