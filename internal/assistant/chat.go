package assistant

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"homechef/internal/metrics"
)

// Chat is one ongoing conversation. History lives only in the backend
// session; Reset discards it.
type Chat struct {
	svc *Service

	mu      sync.Mutex
	model   string
	session ChatSession
}

// NewChat opens a conversation on the service's current model.
func (s *Service) NewChat() *Chat {
	model := s.Model()
	return &Chat{svc: s, model: model, session: s.backend.StartChat(model, chatParams)}
}

// Send delivers message and returns the reply. If the model is reported
// missing, the conversation is reopened once on the first working fallback
// model and the message is resent there.
func (c *Chat) Send(ctx context.Context, message string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var reply string
	_, err := c.svc.fallback(c.model, func(model string) error {
		session := c.session
		if model != c.model {
			session = c.svc.backend.StartChat(model, chatParams)
		}
		out, err := session.Send(ctx, message)
		if IsModelNotFound(err) {
			return err
		}
		c.model, c.session = model, session
		reply = out
		return err
	})
	metrics.AIRequests.WithLabelValues("chat", metrics.Outcome(err)).Inc()
	if err != nil {
		c.svc.log.Error("chat message failed", zap.String("model", c.model), zap.Error(err))
		return "", err
	}
	return reply, nil
}

// Reset drops the history and opens a fresh session.
func (c *Chat) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = c.svc.backend.StartChat(c.model, chatParams)
}

// Model returns the model the conversation is using.
func (c *Chat) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}
