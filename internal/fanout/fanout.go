// Package fanout delivers room events to subscribers. Broadcasts send one
// payload to every recipient; personalized sends compute a payload per
// recipient (hole cards are only visible to their owner). A recipient
// without a live transport is logged and skipped, never an error.
package fanout

import (
	"github.com/rs/zerolog"

	"github.com/quadsuit/pokerroom/internal/session"
)

// Publisher resolves recipients through the session directory and
// delivers events to their transports.
type Publisher struct {
	dir    *session.Directory
	logger zerolog.Logger
}

// NewPublisher creates a publisher backed by the session directory.
func NewPublisher(dir *session.Directory, logger zerolog.Logger) *Publisher {
	return &Publisher{
		dir:    dir,
		logger: logger.With().Str("component", "fanout").Logger(),
	}
}

// Send delivers one event to a single user.
func (p *Publisher) Send(userID, event string, payload any) {
	t, ok := p.dir.Lookup(userID)
	if !ok {
		p.logger.Debug().Str("user_id", userID).Str("event", event).Msg("No transport for recipient, skipping")
		return
	}
	if err := t.Send(event, payload); err != nil {
		p.logger.Debug().Err(err).Str("user_id", userID).Str("event", event).Msg("Delivery failed")
	}
}

// Broadcast delivers the same payload to every recipient.
func (p *Publisher) Broadcast(userIDs []string, event string, payload any) {
	for _, id := range userIDs {
		p.Send(id, event, payload)
	}
}

// Personalized delivers a per-recipient payload computed by payloadFor.
func (p *Publisher) Personalized(userIDs []string, event string, payloadFor func(userID string) any) {
	for _, id := range userIDs {
		p.Send(id, event, payloadFor(id))
	}
}
