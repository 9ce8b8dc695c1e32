package gemini

import (
	"context"
	"errors"
	"sync"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/customHttpClient"
	"github.com/akolanti/GoRAG/internal/rag/llm"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client    *genai.Client
	modelName string
	prompt    string
}

var logger *logger_i.Logger
var geminiClient *llmClient
var once sync.Once

func GetGeminiClient(ctx context.Context, apikey string, modelName string) llm.Provider {
	c := getShared(ctx, apikey, modelName)
	if c == nil {
		return nil
	}
	return &llmClient{client: c.client, modelName: c.modelName, prompt: c.prompt}
}

func getShared(ctx context.Context, apikey string, modelName string) *llmClient {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_gemini")
		newGeminiClient(ctx, apikey, modelName)
	})
	return geminiClient
}

func newGeminiClient(ctx context.Context, apikey string, modelName string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apikey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: customHttpClient.GetPooledClient(),
	})
	if err != nil {
		logger.Error("Error creating Gemini client:", "error", err)
	}
	if c != nil {
		geminiClient = &llmClient{client: c, modelName: modelName, prompt: config.ModelContext}
		logger.Debug("Gemini client created", "model", modelName)
		logger.Info("Gemini client created")
		go closeClient(ctx, geminiClient)
	}
}

func (c *llmClient) Generate(ctx context.Context, question string, contextChunks []string, maxTokens int) (string, error) {
	log := logger.WithTrace(ctx)
	if c.client == nil {
		return "", errors.New("gemini client is closed")
	}

	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: c.prompt}},
		},
		MaxOutputTokens: int32(maxTokens),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(llm.UserPrompt(question, contextChunks)), contentConfig)
	if err != nil {
		log.Error("Gemini generation failed", "error", err)
		return "", err
	}
	return result.Text(), nil
}

func closeClient(ctx context.Context, llm *llmClient) {
	<-ctx.Done()
	logger.Info("Closing Gemini client")
	llm.client = nil
	llm.modelName = ""
	llm.prompt = ""
}
