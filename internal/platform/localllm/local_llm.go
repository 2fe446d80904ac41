package localllm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"homechef/internal/assistant"
)

// Client talks to an OpenAI-compatible server such as LM Studio or Ollama.
type Client struct {
	llm *openai.LLM
}

// NewClient creates a new client for the local LLM at baseURL.
func NewClient(baseURL, token string) (*Client, error) {
	if token == "" {
		token = "local"
	}
	llm, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(token),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create local LLM client: %w", err)
	}
	return &Client{llm: llm}, nil
}

func callOptions(model string, params assistant.Params) []llms.CallOption {
	opts := []llms.CallOption{
		llms.WithModel(model),
		llms.WithTemperature(float64(params.Temperature)),
		llms.WithTopP(float64(params.TopP)),
		llms.WithMaxTokens(int(params.MaxTokens)),
	}
	if params.JSON {
		opts = append(opts, llms.WithJSONMode())
	}
	return opts
}

// Generate sends one prompt and returns the first choice.
func (c *Client) Generate(ctx context.Context, req assistant.Request) (string, error) {
	return c.complete(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, req.Prompt),
	}, callOptions(req.Model, req.Params))
}

func (c *Client) complete(ctx context.Context, messages []llms.MessageContent, opts []llms.CallOption) (string, error) {
	resp, err := c.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", translate(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("no content found in response")
	}
	return resp.Choices[0].Content, nil
}

// StartChat opens a conversation whose history is replayed on every turn.
func (c *Client) StartChat(model string, params assistant.Params) assistant.ChatSession {
	return &chatSession{client: c, opts: callOptions(model, params)}
}

type chatSession struct {
	client *Client
	opts   []llms.CallOption

	mu      sync.Mutex
	history []llms.MessageContent
}

func (s *chatSession) Send(ctx context.Context, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn := llms.TextParts(schema.ChatMessageTypeHuman, message)
	messages := append(append([]llms.MessageContent{}, s.history...), turn)
	reply, err := s.client.complete(ctx, messages, s.opts)
	if err != nil {
		return "", err
	}
	s.history = append(s.history, turn, llms.TextParts(schema.ChatMessageTypeAI, reply))
	return reply, nil
}

func translate(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "404") || strings.Contains(msg, "model_not_found") {
		return fmt.Errorf("%w: %v", assistant.ErrModelNotFound, err)
	}
	return err
}
