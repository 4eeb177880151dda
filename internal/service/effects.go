package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/nomocars/nomo-api/internal/ports"
)

// Effects groups the optional collaborators every service shares: outbound
// mail, domain events, the orphan ledger, logging and the clock. Nil members
// fall back to no-ops, slog.Default and time.Now.
type Effects struct {
	Mailer  ports.Mailer
	Events  ports.EventPublisher
	Orphans *OrphanRecorder
	Logger  *slog.Logger
	Clock   func() time.Time
}

func (e Effects) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e Effects) now() time.Time {
	if e.Clock != nil {
		return e.Clock().UTC()
	}
	return time.Now().UTC()
}

// publish sends an event; failures are logged and never returned.
func (e Effects) publish(ctx context.Context, subject string, payload any) {
	if e.Events == nil {
		return
	}
	if err := e.Events.Publish(ctx, subject, payload); err != nil {
		e.logger().WarnContext(ctx, "event publish failed", "subject", subject, "error", err)
	}
}

// mail sends m; failures are logged and reported as false.
func (e Effects) mail(ctx context.Context, m ports.Mail) bool {
	if e.Mailer == nil {
		e.logger().WarnContext(ctx, "no mailer configured", "subject", m.Subject)
		return false
	}
	if err := e.Mailer.Send(ctx, m); err != nil {
		e.logger().ErrorContext(ctx, "mail delivery failed", "subject", m.Subject, "error", err)
		return false
	}
	return true
}

func (e Effects) orphans() *OrphanRecorder {
	if e.Orphans != nil {
		return e.Orphans
	}
	return NewOrphanRecorder(OrphanRecorderOptions{Logger: e.logger()})
}

// DriverEvent is the payload of driver lifecycle events.
type DriverEvent struct {
	DriverID   string `json:"driverId"`
	Email      string `json:"email,omitempty"`
	AuthMethod string `json:"authMethod,omitempty"`
	Verified   *bool  `json:"verified,omitempty"`
	Actor      string `json:"actor,omitempty"`
}

// VehicleEvent is the payload of drivers.vehicles_changed.
type VehicleEvent struct {
	DriverID  string `json:"driverId"`
	VehicleID string `json:"vehicleId"`
	Action    string `json:"action"`
	Count     int    `json:"count"`
}

// ReviewEvent is the payload of reviews.created.
type ReviewEvent struct {
	DriverID string `json:"driverId"`
	ReviewID string `json:"reviewId"`
}
