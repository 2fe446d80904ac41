package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"homechef/internal/assistant"
)

// Client is a client for the Gemini API.
type Client struct {
	client *genai.Client
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, assistant.ErrUnavailable
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Client{client: client}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) model(name string, params assistant.Params) *genai.GenerativeModel {
	m := c.client.GenerativeModel(name)
	configure(m, params)
	return m
}

func configure(m *genai.GenerativeModel, params assistant.Params) {
	m.SetTemperature(params.Temperature)
	m.SetTopP(params.TopP)
	m.SetMaxOutputTokens(params.MaxTokens)
	if params.JSON {
		m.ResponseMIMEType = "application/json"
	}
}

// Generate runs a single prompt.
func (c *Client) Generate(ctx context.Context, req assistant.Request) (string, error) {
	resp, err := c.model(req.Model, req.Params).GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", translate(err)
	}
	return responseText(resp)
}

// StartChat opens a conversation on model.
func (c *Client) StartChat(model string, params assistant.Params) assistant.ChatSession {
	return &chatSession{session: c.model(model, params).StartChat()}
}

type chatSession struct {
	session *genai.ChatSession
}

func (s *chatSession) Send(ctx context.Context, message string) (string, error) {
	resp, err := s.session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", translate(err)
	}
	return responseText(resp)
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from Gemini")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}

// translate maps a missing-model response onto assistant.ErrModelNotFound,
// keeping the original message.
func translate(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %v", assistant.ErrModelNotFound, err)
	}
	return err
}
