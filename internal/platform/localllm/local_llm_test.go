package localllm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homechef/internal/assistant"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	} `json:"messages"`
}

// fakeServer answers OpenAI chat completions with the given replies in turn.
func fakeServer(t *testing.T, replies ...string) (*httptest.Server, *[]chatRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		seen = append(seen, req)
		n := len(seen)
		mu.Unlock()

		if req.Model == "missing-model" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": {"message": "model not found", "code": "model_not_found"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": replies[(n-1)%len(replies)]},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestGenerate(t *testing.T) {
	srv, seen := fakeServer(t, `{"match_titles": []}`)
	client, err := NewClient(srv.URL, "")
	require.NoError(t, err)

	text, err := client.Generate(context.Background(), assistant.Request{
		Model:  "llama-3",
		Prompt: "suggest",
		Params: assistant.Params{Temperature: 0.3, TopP: 0.9, MaxTokens: 64, JSON: true},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"match_titles": []}`, text)
	require.Len(t, *seen, 1)
	assert.Equal(t, "llama-3", (*seen)[0].Model)
}

func TestGenerateModelNotFound(t *testing.T) {
	srv, _ := fakeServer(t, "unused")
	client, err := NewClient(srv.URL, "token")
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), assistant.Request{Model: "missing-model", Prompt: "hi"})
	assert.ErrorIs(t, err, assistant.ErrModelNotFound)
	assert.True(t, assistant.IsModelNotFound(err))
}

func TestChatReplaysHistory(t *testing.T) {
	srv, seen := fakeServer(t, "Hello!", "Use basil.")
	client, err := NewClient(srv.URL, "")
	require.NoError(t, err)

	chat := client.StartChat("llama-3", assistant.Params{Temperature: 0.5, TopP: 0.9, MaxTokens: 64})
	first, err := chat.Send(context.Background(), "hi")
	require.NoError(t, err)
	second, err := chat.Send(context.Background(), "herb for tomato soup?")
	require.NoError(t, err)

	assert.Equal(t, "Hello!", first)
	assert.Equal(t, "Use basil.", second)
	require.Len(t, *seen, 2)
	assert.Len(t, (*seen)[0].Messages, 1)
	assert.Len(t, (*seen)[1].Messages, 3)
	assert.Equal(t, "assistant", (*seen)[1].Messages[1].Role)
}
