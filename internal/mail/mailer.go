// Package mail builds outgoing messages and hands them to a transport.
package mail

import (
	"context"
	"errors"
	"fmt"

	"microblog/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Message is a fully rendered email.
type Message struct {
	Subject    string   `json:"subject"`
	Sender     string   `json:"sender"`
	Recipients []string `json:"recipients"`
	TextBody   string   `json:"text_body"`
	HTMLBody   string   `json:"html_body"`
}

// Validate reports a message that no transport could deliver.
func (m Message) Validate() error {
	if m.Sender == "" {
		return errors.New("mail: sender is required")
	}
	if len(m.Recipients) == 0 {
		return errors.New("mail: at least one recipient is required")
	}
	if m.Subject == "" {
		return errors.New("mail: subject is required")
	}
	return nil
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the Mailer for transport. The redis transport needs a client.
func New(transport string, client *redis.Client) (Mailer, error) {
	switch transport {
	case "redis":
		if client == nil {
			return nil, errors.New("mail: redis transport needs a redis connection")
		}
		return NewRedisOutbox(client, ""), nil
	case "log", "":
		return NewLogMailer(nil), nil
	default:
		return nil, fmt.Errorf("unsupported mail transport %q", transport)
	}
}

func record(transport string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	observability.MailDispatched.WithLabelValues(transport, result).Inc()
}
