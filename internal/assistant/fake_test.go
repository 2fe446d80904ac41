package assistant

import (
	"context"
	"fmt"
	"sync"
)

// fakeBackend answers from per-model scripts. Models without a script are
// reported missing.
type fakeBackend struct {
	mu       sync.Mutex
	replies  map[string][]reply
	requests []Request
	chats    []*fakeChat
}

type reply struct {
	text string
	err  error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{replies: map[string][]reply{}}
}

func (f *fakeBackend) script(model string, replies ...reply) *fakeBackend {
	f.replies[model] = append(f.replies[model], replies...)
	return f
}

func (f *fakeBackend) next(model string) reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	queue, ok := f.replies[model]
	if !ok {
		return reply{err: fmt.Errorf("404 models/%s is not found for API version v1beta", model)}
	}
	if len(queue) == 0 {
		return reply{err: fmt.Errorf("no scripted reply for %s", model)}
	}
	r := queue[0]
	f.replies[model] = queue[1:]
	return r
}

func (f *fakeBackend) Generate(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	r := f.next(req.Model)
	return r.text, r.err
}

func (f *fakeBackend) StartChat(model string, params Params) ChatSession {
	c := &fakeChat{backend: f, model: model}
	f.mu.Lock()
	f.chats = append(f.chats, c)
	f.mu.Unlock()
	return c
}

func (f *fakeBackend) models() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.Model
	}
	return out
}

type fakeChat struct {
	backend *fakeBackend
	model   string
	history []string
}

func (c *fakeChat) Send(_ context.Context, message string) (string, error) {
	r := c.backend.next(c.model)
	if r.err != nil {
		return "", r.err
	}
	c.history = append(c.history, message)
	return r.text, nil
}
