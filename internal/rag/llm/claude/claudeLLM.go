package claude

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/customHttpClient"
	"github.com/akolanti/GoRAG/internal/rag/llm"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type llmClient struct {
	client    *anthropic.Client
	modelName string
	prompt    string
}

var logger *logger_i.Logger
var claudeClient *llmClient
var once sync.Once

// GetClaudeClient returns nil when no key is configured.
func GetClaudeClient(ctx context.Context, apikey string, modelName string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_claude")
		if apikey == "" {
			logger.Error("ANTHROPIC_API_KEY is not set")
			return
		}
		claudeClient = newClient(apikey, modelName,
			option.WithHTTPClient(customHttpClient.GetPooledClient()),
			option.WithMaxRetries(1),
		)
		logger.Info("Claude client created", "model", modelName)
		go closeClient(ctx, claudeClient)
	})

	if claudeClient == nil {
		return nil
	}
	return &llmClient{client: claudeClient.client, modelName: claudeClient.modelName, prompt: claudeClient.prompt}
}

func newClient(apikey string, modelName string, opts ...option.RequestOption) *llmClient {
	c := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apikey)}, opts...)...)
	return &llmClient{client: &c, modelName: modelName, prompt: config.ModelContext}
}

func (c *llmClient) Generate(ctx context.Context, question string, contextChunks []string, maxTokens int) (string, error) {
	log := logger.WithTrace(ctx)
	if c.client == nil {
		return "", errors.New("claude client is closed")
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.modelName),
		MaxTokens: int64(maxTokens),
		System:    []anthropic.TextBlockParam{{Text: c.prompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(llm.UserPrompt(question, contextChunks))),
		},
	})
	if err != nil {
		log.Error("Claude generation failed", "error", err)
		return "", err
	}

	var answer strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			answer.WriteString(block.Text)
		}
	}
	return answer.String(), nil
}

func closeClient(ctx context.Context, c *llmClient) {
	<-ctx.Done()
	logger.Info("Closing Claude client")
	c.client = nil
}
