// Package assistant answers free-form operator prompts through a generative
// backend, with the durable response cache consulted before any external
// call.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"spica/internal/cache"

	"go.uber.org/zap"
)

const historyWordBudget = 1000

// Generator is the prompt→text boundary to the model backend.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service fronts a Generator with the response cache. Entries are keyed by
// the exact operator prompt, not the expanded prompt sent to the backend.
type Service struct {
	cache *cache.ResponseCache
	gen   Generator
	log   *zap.Logger
}

// NewService creates an assistant Service.
func NewService(cache *cache.ResponseCache, gen Generator, log *zap.Logger) *Service {
	return &Service{cache: cache, gen: gen, log: log}
}

// Ask answers prompt, preferring the cache. cached reports whether the
// response was served without an external call.
func (s *Service) Ask(ctx context.Context, prompt, history string) (response string, cached bool, err error) {
	if resp, ok := s.cache.Lookup(prompt); ok {
		return resp, true, nil
	}

	resp, err := s.gen.Generate(ctx, BuildPrompt(prompt, history))
	if err != nil {
		return "", false, err
	}

	if err := s.cache.Store(prompt, resp); err != nil {
		// A failed snapshot write loses durability, not the answer.
		s.log.Warn("failed to persist response cache", zap.Error(err))
	}
	return resp, false, nil
}

// BuildPrompt assembles the backend prompt from the newest conversation
// history lines that fit the word budget.
func BuildPrompt(userInput, history string) string {
	trimmed := ""
	lines := strings.Split(history, "\n")
	words := 0
	for i := len(lines) - 1; i >= 0; i-- {
		n := len(strings.Fields(lines[i]))
		if words+n > historyWordBudget {
			break
		}
		words += n
		trimmed = lines[i] + "\n" + trimmed
	}

	return fmt.Sprintf(`You are a helpful assistant in a friendly, conversational setting.
You have the following conversation history:
%s
User: %s
Assistant:`, trimmed, userInput)
}
