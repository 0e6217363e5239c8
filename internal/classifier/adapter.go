// Package classifier turns one image into a document-type verdict using a
// remote vision model. Classification never fails: any problem with the
// model yields the fail-closed "other" verdict.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"docingest/internal/model"
	"docingest/internal/resilience"
)

// Fallback reasons.
const (
	ReasonTimeout     = "classification timed out"
	ReasonBlocked     = "classification refused by safety filter"
	ReasonUnavailable = "classification service unavailable"
	ReasonFailed      = "classification request failed"
	ReasonMalformed   = "classification result malformed"
	ReasonThrottled   = "classification throttled"
)

// Adapter classifies single images. It is safe for concurrent use and is
// meant to be shared by all batches.
type Adapter struct {
	oracle  Oracle
	limiter *rate.Limiter
	policy  resilience.Policy
	guard   *resilience.Guard
	timeout time.Duration
	log     *zap.Logger
	tracer  trace.Tracer
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithRateLimit bounds calls to the oracle to perSecond with the given burst.
// A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(a *Adapter) {
		if perSecond <= 0 {
			a.limiter = nil
			return
		}
		a.limiter = rate.NewLimiter(rate.Limit(perSecond), max(1, burst))
	}
}

// WithPolicy wraps oracle calls in retries and a circuit breaker.
func WithPolicy(p resilience.Policy) Option {
	return func(a *Adapter) { a.policy = p }
}

// WithTimeout caps a single classification, retries included.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) { a.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.log = l
		}
	}
}

// New builds an Adapter around oracle.
func New(oracle Oracle, opts ...Option) *Adapter {
	a := &Adapter{
		oracle:  oracle,
		policy:  resilience.Policy{MaxAttempts: 1},
		timeout: 45 * time.Second,
		log:     zap.NewNop(),
		tracer:  otel.Tracer("docingest/classifier"),
	}
	for _, o := range opts {
		o(a)
	}
	a.guard = resilience.NewGuard("classification-oracle", a.policy, judge, a.log)
	return a
}

// Classify asks the oracle about one image. It always returns a Verdict.
func (a *Adapter) Classify(ctx context.Context, data []byte, mediaType string) model.Verdict {
	ctx, span := a.tracer.Start(ctx, "classifier.Classify",
		trace.WithAttributes(attribute.String("media_type", mediaType), attribute.Int("bytes", len(data))))
	defer span.End()

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	v, err := a.classify(ctx, data, mediaType)
	if err != nil {
		v = model.FallbackVerdict(reasonFor(err))
		a.log.Warn("classification fell back to other",
			zap.String("reason", v.Reason),
			zap.Error(err))
		span.RecordError(err)
	}
	span.SetAttributes(attribute.String("document_type", string(v.Kind)))
	return v
}

func (a *Adapter) classify(ctx context.Context, data []byte, mediaType string) (model.Verdict, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return model.Verdict{}, fmt.Errorf("%w: %v", errThrottled, err)
		}
	}

	q := Query{
		Instruction: Instruction,
		Image:       data,
		MediaType:   mediaType,
		Temperature: Temperature,
		Schema:      ResponseSchema,
	}
	var answer string
	err := a.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		answer, err = a.oracle.Ask(ctx, q)
		return err
	})
	if err != nil {
		return model.Verdict{}, err
	}
	return ParseVerdict(answer)
}

var errThrottled = errors.New("rate limiter")

var fallbackReasons = map[string]bool{
	ReasonTimeout:     true,
	ReasonBlocked:     true,
	ReasonUnavailable: true,
	ReasonFailed:      true,
	ReasonMalformed:   true,
	ReasonThrottled:   true,
}

// IsFallback reports whether v was produced by Classify's failure path rather
// than by the model.
func IsFallback(v model.Verdict) bool {
	return v.Kind == model.KindOther && fallbackReasons[v.Reason]
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, ErrMalformed):
		return ReasonMalformed
	case errors.Is(err, ErrBlocked):
		return ReasonBlocked
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, errThrottled), errors.Is(err, ErrRateLimited):
		return ReasonThrottled
	case resilience.IsOpen(err):
		return ReasonUnavailable
	default:
		return ReasonFailed
	}
}

// judge decides which oracle errors are worth another attempt.
func judge(err error) resilience.Outcome {
	switch {
	case errors.Is(err, ErrBlocked), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.Outcome{}
	case errors.Is(err, ErrRateLimited), errors.Is(err, ErrEmptyAnswer):
		return resilience.Outcome{Retry: true, Trip: true}
	}
	var t Temporary
	if errors.As(err, &t) && t.Temporary() {
		return resilience.Outcome{Retry: true, Trip: true}
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return resilience.Outcome{Retry: true, Trip: true}
	}
	return resilience.Outcome{Trip: true}
}
