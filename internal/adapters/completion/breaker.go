package completion

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"

	"global_explorer/internal/adapters/observability"
	"global_explorer/internal/domain"
)

// Breaker stops calling a failing completion backend for a cool-down period.
type Breaker struct {
	next domain.Completer
	cb   *gobreaker.CircuitBreaker[string]
}

// WithBreaker opens after failures consecutive errors and probes again after
// cooldown. Cancelled requests do not count as failures.
func WithBreaker(name string, next domain.Completer, failures uint32, cooldown time.Duration) *Breaker {
	if failures == 0 {
		failures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			observability.SetBreakerState(name, int(to))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	observability.SetBreakerState(name, int(gobreaker.StateClosed))
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker[string](settings)}
}

func (b *Breaker) Complete(ctx context.Context, conversation []domain.Message) (string, error) {
	return b.cb.Execute(func() (string, error) {
		return b.next.Complete(ctx, conversation)
	})
}

func (b *Breaker) State() gobreaker.State { return b.cb.State() }
