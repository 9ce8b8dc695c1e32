package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/anthropics/anthropic-sdk-go/option"
)

func TestGenerate_SendsContextAndReadsText(t *testing.T) {
	logger = logger_i.NewLogger("test claude")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			MaxTokens int `json:"max_tokens"`
			Messages  []struct {
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.MaxTokens != 256 {
			t.Errorf("max tokens got %d", body.MaxTokens)
		}
		if len(body.Messages) != 1 || !strings.Contains(body.Messages[0].Content[0].Text, "Document: doc-1") {
			t.Errorf("context not forwarded: %+v", body.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "The answer is 42."}],
			"stop_reason": "end_turn", "stop_sequence": null,
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	c := newClient("test-key", "claude-3-5-haiku-latest", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	answer, err := c.Generate(context.Background(), "What is the answer?", []string{"Document: doc-1\nContent: 42"}, 256)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if answer != "The answer is 42." {
		t.Errorf("got %q", answer)
	}
}
