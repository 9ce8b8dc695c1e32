package openaiEmbedding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/akolanti/GoRAG/internal/customHttpClient"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client

type client struct {
	api       *openai.Client
	model     string
	dimension int64
}

// GetOpenAIEmbeddingClient returns nil when no key is configured.
func GetOpenAIEmbeddingClient(ctx context.Context, modelName string, apikey string, dimension int) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("openai_embedding")
		if apikey == "" {
			logger.Error("OPENAI_API_KEY is not set")
			return
		}
		embeddingClient = newClient(apikey, modelName, dimension,
			option.WithHTTPClient(customHttpClient.GetPooledClient()),
			option.WithMaxRetries(1),
		)
		logger.Info("OpenAI Embedding client created", "model", modelName)
		go closeClient(ctx, embeddingClient)
	})

	if embeddingClient == nil {
		return nil
	}
	return &client{api: embeddingClient.api, model: embeddingClient.model, dimension: embeddingClient.dimension}
}

func newClient(apikey string, modelName string, dimension int, opts ...option.RequestOption) *client {
	c := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apikey)}, opts...)...)
	return &client{api: &c, model: modelName, dimension: int64(dimension)}
}

func closeClient(ctx context.Context, c *client) {
	<-ctx.Done()
	logger.Info("Closing OpenAI Embedding client")
	c.api = nil
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.BatchEmbedding(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	log := logger.WithTrace(ctx).With("batch", len(chunks))
	if len(chunks) == 0 {
		return [][]float32{}, nil
	}
	if c.api == nil {
		return nil, errors.New("openai embedding client is closed")
	}

	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: chunks},
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: openai.Int(c.dimension),
	})
	if err != nil {
		log.Error("Error getting Embeddings from OpenAI", "error", err)
		return nil, err
	}
	if len(resp.Data) != len(chunks) {
		return nil, fmt.Errorf("openai returned %d vectors for %d inputs", len(resp.Data), len(chunks))
	}

	// the API reports the input position per vector
	out := make([][]float32, len(chunks))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, fmt.Errorf("openai returned out of range index %d", d.Index)
		}
		out[d.Index] = toFloat32(d.Embedding)
	}
	return out, nil
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
