// Package nats publishes domain events to NATS subjects as JSON envelopes.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nomocars/nomo-api/internal/ports"
)

const (
	connectWait   = 5 * time.Second
	maxReconnects = 5
	reconnectWait = 2 * time.Second
)

var (
	_ ports.EventPublisher = (*Publisher)(nil)
	_ ports.EventPublisher = Noop{}
)

// Envelope wraps every published payload.
type Envelope struct {
	Subject    string    `json:"subject"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
	IsClosed() bool
}

// Publisher publishes events on a NATS connection. Subjects get Prefix prepended.
type Publisher struct {
	conn   conn
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

// Config holds connection settings.
type Config struct {
	URL    string
	Name   string
	Prefix string // e.g. "nomo." gives "nomo.drivers.registered"
	Logger *slog.Logger
}

// Connect dials NATS and returns a Publisher.
func Connect(cfg Config) (*Publisher, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := cfg.Name
	if name == "" {
		name = "nomo-api"
	}
	nc, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.Timeout(connectWait),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Info("nats connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", cfg.URL, err)
	}
	logger.Info("nats publisher connected", "url", nc.ConnectedUrl())
	return newPublisher(nc, cfg.Prefix, logger), nil
}

func newPublisher(c conn, prefix string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: c, prefix: prefix, logger: logger, now: time.Now}
}

func (p *Publisher) Publish(ctx context.Context, subject string, payload any) error {
	full := p.prefix + subject
	data, err := json.Marshal(Envelope{Subject: subject, OccurredAt: p.now().UTC(), Data: payload})
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", full, err)
	}
	if err := p.conn.Publish(full, data); err != nil {
		return fmt.Errorf("publish to %s: %w", full, err)
	}
	p.logger.DebugContext(ctx, "event published", "subject", full, "bytes", len(data))
	return nil
}

// Close drains the connection.
func (p *Publisher) Close() error {
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		return fmt.Errorf("drain nats connection: %w", err)
	}
	return nil
}

// Noop discards events. Used when NATS is not configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
