// Package events announces committed ingestions to other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"docingest/internal/model"
	"docingest/internal/resilience"
)

// Ingested is published once per committed batch.
type Ingested struct {
	Kind       model.Kind `json:"kind"`
	DocumentID int64      `json:"document_id"`
	MemberID   int64      `json:"member_id"`
	ImageIDs   []int64    `json:"image_ids"`
	Appended   bool       `json:"appended"`
	At         time.Time  `json:"at"`
}

// Publisher sends Ingested events. Delivery is best effort.
type Publisher interface {
	PublishIngested(ctx context.Context, e Ingested) error
}

// Noop drops every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) PublishIngested(context.Context, Ingested) error { return nil }

type conn interface {
	Publish(subject string, data []byte) error
	Close()
}

// NATS publishes events as JSON on one subject.
type NATS struct {
	conn    conn
	subject string
	guard   *resilience.Guard
}

// Options tune the NATS connection.
type Options struct {
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	MaxReconnects  int
}

// NewNATS connects to url. The connection retries in the background when the
// server is not reachable yet.
func NewNATS(url, subject string, opts Options, log *zap.Logger) (*NATS, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 2 * time.Second
	}
	if opts.ReconnectWait <= 0 {
		opts.ReconnectWait = 2 * time.Second
	}
	if opts.MaxReconnects <= 0 {
		opts.MaxReconnects = 60
	}
	nc, err := nats.Connect(
		url,
		nats.Name("docingest"),
		nats.Timeout(opts.ConnectTimeout),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.MaxReconnects(opts.MaxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return newNATS(nc, subject, log), nil
}

func newNATS(c conn, subject string, log *zap.Logger) *NATS {
	policy := resilience.Policy{MaxAttempts: 3, InitialBackoff: 50 * time.Millisecond, MaxBackoff: 200 * time.Millisecond}
	retryAll := func(error) resilience.Outcome { return resilience.Outcome{Retry: true} }
	return &NATS{conn: c, subject: subject, guard: resilience.NewGuard("nats-publish", policy, retryAll, log)}
}

// PublishIngested marshals e and publishes it.
func (n *NATS) PublishIngested(ctx context.Context, e Ingested) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.guard.Do(ctx, func(context.Context) error {
		if err := n.conn.Publish(n.subject, data); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	})
}

// Close flushes pending publishes and closes the connection.
func (n *NATS) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}
