package ports

import "context"

// Mail is a single outbound message.
type Mail struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer delivers transactional mail (verification and password reset links).
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// Event subjects published by the services.
const (
	SubjectDriverRegistered   = "drivers.registered"
	SubjectVerificationChange = "drivers.verification_changed"
	SubjectDriverDeleted      = "drivers.deleted"
	SubjectVehiclesChanged    = "drivers.vehicles_changed"
	SubjectReviewCreated      = "reviews.created"
)

// EventPublisher publishes domain events. Payloads are JSON-encoded by the adapter.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}
