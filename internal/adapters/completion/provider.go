package completion

import (
	"context"
	"fmt"
	"time"

	"global_explorer/internal/domain"
)

type Options struct {
	Provider  string // http|openai|gemini
	URL       string
	Key       string
	KeyHeader string
	Model     string
	RPS       int
	Timeout   time.Duration
	Retries   int
}

// Open builds the configured backend behind a circuit breaker.
func Open(ctx context.Context, o Options) (domain.Completer, error) {
	var (
		next domain.Completer
		err  error
	)
	switch o.Provider {
	case "", "http":
		next, err = New(o.URL, o.Key, o.KeyHeader, o.RPS, o.Timeout, o.Retries)
	case "openai":
		next, err = NewOpenAI(o.URL, o.Key, o.Model, o.Timeout)
	case "gemini":
		next, err = NewGemini(ctx, o.Key, o.Model)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", o.Provider)
	}
	if err != nil {
		return nil, err
	}
	name := o.Provider
	if name == "" {
		name = "http"
	}
	return WithBreaker("completion_"+name, next, 5, 30*time.Second), nil
}
