// Package resilience wraps calls to a flaky remote dependency with bounded
// retries and a circuit breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Outcome tells the Guard how to treat an error returned by a call.
type Outcome struct {
	Retry bool // try again (within MaxAttempts)
	Trip  bool // count against the breaker
}

// Judge maps an error to an Outcome.
type Judge func(err error) Outcome

// Guard executes calls to one dependency. It is safe for concurrent use.
type Guard struct {
	name    string
	policy  Policy
	judge   Judge
	log     *zap.Logger
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewGuard builds a Guard for the dependency called name. A nil judge makes
// every error final and counted.
func NewGuard(name string, p Policy, judge Judge, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	if judge == nil {
		judge = func(error) Outcome { return Outcome{Trip: true} }
	}
	g := &Guard{name: name, policy: p.withDefaults(), judge: judge, log: log}
	if g.policy.BreakerEnabled {
		g.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        name,
			MaxRequests: g.policy.BreakerHalfOpenMax,
			Timeout:     g.policy.BreakerOpenTimeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				if c.Requests < g.policy.BreakerMinRequests {
					return false
				}
				return float64(c.TotalFailures)/float64(c.Requests) >= g.policy.BreakerFailureRatio
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !g.judge(err).Trip
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				g.log.Warn("circuit breaker state change",
					zap.String("dependency", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}
	return g
}

// Do runs fn under the retry policy and, when enabled, the breaker.
func (g *Guard) Do(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("resilience: %s: nil call", g.name)
	}
	if g.breaker == nil {
		return g.retry(ctx, fn)
	}
	_, err := g.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, g.retry(ctx, fn)
	})
	return err
}

func (g *Guard) retry(ctx context.Context, fn func(context.Context) error) error {
	backoff := g.policy.InitialBackoff
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= g.policy.MaxAttempts || !g.judge(err).Retry {
			return err
		}

		wait := min(backoff, g.policy.MaxBackoff)
		g.log.Warn("retrying call",
			zap.String("dependency", g.name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", g.policy.MaxAttempts),
			zap.Duration("backoff", wait),
			zap.Error(err))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		backoff = min(time.Duration(float64(backoff)*g.policy.Multiplier), g.policy.MaxBackoff)
	}
}

// IsOpen reports whether err came from a rejecting breaker.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
