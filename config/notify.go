package config

import "strings"

// MailConfig configures the SMTP mailer. An empty Host logs mail instead of sending it.
type MailConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT"       envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"       envDefault:"NOMO CARS <no-reply@nomocars.example.com>"`
	// Encryption is one of starttls, ssl, none.
	Encryption string `env:"ENCRYPTION" envDefault:"starttls"`
}

// Enabled reports whether mail goes out over SMTP.
func (m MailConfig) Enabled() bool { return m.Host != "" }

// Sanitize normalises the encryption mode.
func (m *MailConfig) Sanitize() {
	m.Host = strings.TrimSpace(m.Host)
	m.Encryption = strings.ToLower(strings.TrimSpace(m.Encryption))
	switch m.Encryption {
	case "starttls", "tls", "ssl", "none":
	default:
		m.Encryption = "starttls"
	}
}

// EventsConfig configures domain event publishing. An empty NATSURL disables it.
type EventsConfig struct {
	NATSURL       string `env:"NATS_URL"`
	ClientName    string `env:"NATS_CLIENT_NAME"      envDefault:"nomo-api"`
	SubjectPrefix string `env:"EVENTS_SUBJECT_PREFIX" envDefault:"nomo."`
}

// Enabled reports whether events are published.
func (e EventsConfig) Enabled() bool { return e.NATSURL != "" }

// Sanitize makes sure a non-empty prefix ends with a dot.
func (e *EventsConfig) Sanitize() {
	e.NATSURL = strings.TrimSpace(e.NATSURL)
	e.SubjectPrefix = strings.TrimSpace(e.SubjectPrefix)
	if e.SubjectPrefix != "" && !strings.HasSuffix(e.SubjectPrefix, ".") {
		e.SubjectPrefix += "."
	}
}
