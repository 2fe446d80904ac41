// Package assistant turns free-form generative text into bounded recipe
// suggestions, substitutions, cooking tips and chat replies.
package assistant

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrUnavailable is returned when no backend is configured.
	ErrUnavailable = errors.New("AI is unavailable: GEMINI_API_KEY is not set")
	// ErrModelNotFound is returned by backends when the model id is unknown.
	ErrModelNotFound = errors.New("model not found")
	// ErrStepOutOfRange is returned for a tip on a step the recipe lacks.
	ErrStepOutOfRange = errors.New("step out of range")
)

// Params tunes a single generation.
type Params struct {
	Temperature float32
	TopP        float32
	MaxTokens   int32
	// JSON asks the backend for application/json output.
	JSON bool
}

// Request is one stateless generation.
type Request struct {
	Model  string
	Prompt string
	Params Params
}

// Backend is a generative-text provider.
type Backend interface {
	Generate(ctx context.Context, req Request) (string, error)
	StartChat(model string, params Params) ChatSession
}

// ChatSession keeps conversation history in memory for one conversation.
type ChatSession interface {
	Send(ctx context.Context, message string) (string, error)
}

// IsModelNotFound reports whether err means the requested model does not
// exist. Providers are inconsistent, so the message is inspected too.
func IsModelNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrModelNotFound) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "NotFound") || strings.Contains(msg, "404") ||
		strings.Contains(strings.ToLower(msg), "not found")
}
