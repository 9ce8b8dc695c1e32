package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keywordEmbedder struct{}

func (keywordEmbedder) vector(text string) []float32 {
	text = strings.ToLower(text)
	return []float32{
		float32(strings.Count(text, "cat")),
		float32(strings.Count(text, "dog")),
		1,
	}
}

func (e keywordEmbedder) GetEmbedding(_ context.Context, query string) ([]float32, error) {
	return e.vector(query), nil
}

func (e keywordEmbedder) BatchEmbedding(_ context.Context, chunks []string) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	for i, c := range chunks {
		out[i] = e.vector(c)
	}
	return out, nil
}

type recordingLLM struct {
	contexts [][]string
}

func (l *recordingLLM) Generate(_ context.Context, question string, contextChunks []string, _ int) (string, error) {
	l.contexts = append(l.contexts, contextChunks)
	return "answer to " + question, nil
}

func testSettings(t *testing.T, redisAddr string) *config.Settings {
	t.Helper()
	s := config.Defaults()
	s.VectorStore.Backend = config.VectorBackendChromem
	s.VectorStore.Dimension = 3
	s.Redis.Addr = redisAddr
	s.Chunker.ChunkSize = 60
	s.Chunker.Overlap = 10
	s.Chunker.LookBack = 15
	return s
}

func TestBuildWith_IngestAndAnswer(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	generator := &recordingLLM{}
	a, err := BuildWith(ctx, testSettings(t, mr.Addr()), Providers{Embedder: keywordEmbedder{}, LLM: generator})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NotNil(t, a.JobStore)
	require.NoError(t, a.JobStore.SaveJob(ctx, jobModel.Job{Id: "job-1", Status: jobModel.JobStatusQueued}))
	_, found := a.JobStore.GetJob(ctx, "job-1")
	assert.True(t, found)

	path := filepath.Join(t.TempDir(), "pets.txt")
	text := "The cat sleeps on the warm window sill all afternoon. " +
		"The dog barks at the mail carrier every single morning."
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))

	report, parsed, err := a.Service.IngestFile(ctx, path, "pets.txt", "pets")
	require.NoError(t, err)
	assert.Equal(t, "pets", report.DocumentId)
	assert.Positive(t, report.ChunkCount)
	assert.NotEmpty(t, parsed.Text)

	answer, err := a.Service.Answer(ctx, "where does the cat sleep", "pets", 2)
	require.NoError(t, err)
	assert.False(t, answer.NoResults)
	assert.Equal(t, "answer to where does the cat sleep", answer.Answer)
	require.Len(t, generator.contexts, 1)
	require.NotEmpty(t, generator.contexts[0])
	assert.Contains(t, generator.contexts[0][0], "Document: pets")
}

func TestOptions(t *testing.T) {
	s := config.Defaults()
	s.Retrieval.ContextBudget = 123
	s.Chunker.Overlap = 7

	opts := Options(s)
	assert.Equal(t, 123, opts.Retrieval.ContextBudget)
	assert.Equal(t, 7, opts.Ingest.Chunker.Overlap)
	assert.Equal(t, s.Ingestion.BatchSize, opts.Ingest.BatchSize)
	assert.Equal(t, s.Timeouts.Generation, opts.GenerationTimeout)
	assert.Equal(t, s.LLM.MaxTokens, opts.MaxTokens)
}
