// Package llm turns user questions into answers from a hosted language model.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/taxchat-backend/pkg/config"
)

// Provider performs a single blocking completion for an already composed prompt.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrMalformedResponse marks a 2xx reply whose body could not be decoded.
	ErrMalformedResponse = errors.New("llm: malformed response")
	// ErrEmptyCompletion marks a decoded reply that carried no text.
	ErrEmptyCompletion = errors.New("llm: empty completion")
)

// HTTPError is returned for non-2xx provider replies.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "upstream http error"
	}
	if e.Body == "" {
		return fmt.Sprintf("upstream http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("upstream http error: status=%d body=%s", e.StatusCode, e.Body)
}

// NewProvider builds the provider selected by cfg.Provider.
func NewProvider(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case config.LLMProviderGemini:
		return NewGemini(ctx, cfg)
	case config.LLMProviderOpenRouter, "":
		return NewOpenRouter(cfg, nil)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
