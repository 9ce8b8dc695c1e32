package gemini

import (
	"context"
	"errors"

	"github.com/akolanti/GoRAG/internal/rag/llm"
	"google.golang.org/genai"
)

const ocrInstruction = "Extract all readable text from this document, page by page, in reading order. " +
	"Return only the extracted text without commentary."

type ocrClient struct {
	shared *llmClient
}

// GetGeminiOCR reuses the generation client to read scanned documents.
func GetGeminiOCR(ctx context.Context, apikey string, modelName string) llm.OCR {
	c := getShared(ctx, apikey, modelName)
	if c == nil {
		return nil
	}
	return &ocrClient{shared: c}
}

func (o *ocrClient) ExtractText(ctx context.Context, data []byte, mimeType string) (string, error) {
	log := logger.WithTrace(ctx)
	if o.shared.client == nil {
		return "", errors.New("gemini client is closed")
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, mimeType),
			genai.NewPartFromText(ocrInstruction),
		}, genai.RoleUser),
	}

	result, err := o.shared.client.Models.GenerateContent(ctx, o.shared.modelName, contents, nil)
	if err != nil {
		log.Error("Gemini OCR failed", "error", err)
		return "", err
	}
	log.Debug("Gemini OCR complete", "bytes", len(data))
	return result.Text(), nil
}
