// Package session maps persistent user ids to live transport handles.
// The mapping survives transport reconnects: a new connection for the
// same user replaces the old handle, and stale handles are evicted lazily
// on lookup.
package session

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// AnonymousPrefix marks client-generated anonymous ids. They are trusted
// for continuity only, never for authorization.
const AnonymousPrefix = "anon_"

// IsAnonymous reports whether the user id is a client-generated
// anonymous identity.
func IsAnonymous(userID string) bool {
	return strings.HasPrefix(userID, AnonymousPrefix)
}

// Transport is a live client connection capable of delivering events.
type Transport interface {
	UserID() string
	Send(event string, payload any) error
	Connected() bool
}

// Directory is the concurrent user-id -> transport map.
type Directory struct {
	mu         sync.RWMutex
	transports map[string]Transport
	logger     zerolog.Logger
}

// NewDirectory creates an empty directory.
func NewDirectory(logger zerolog.Logger) *Directory {
	return &Directory{
		transports: make(map[string]Transport),
		logger:     logger.With().Str("component", "session_directory").Logger(),
	}
}

// Bind registers a transport for its user, replacing any previous handle.
func (d *Directory) Bind(t Transport) {
	d.mu.Lock()
	d.transports[t.UserID()] = t
	d.mu.Unlock()

	d.logger.Debug().Str("user_id", t.UserID()).Msg("Transport bound")
}

// Unbind removes the mapping, but only if it still points at the given
// handle; a reconnect that already replaced it is left alone.
func (d *Directory) Unbind(t Transport) {
	d.mu.Lock()
	if current, ok := d.transports[t.UserID()]; ok && current == t {
		delete(d.transports, t.UserID())
	}
	d.mu.Unlock()
}

// Lookup returns the user's live transport. A handle that no longer
// reports connected is evicted and not returned.
func (d *Directory) Lookup(userID string) (Transport, bool) {
	d.mu.RLock()
	t, ok := d.transports[userID]
	d.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !t.Connected() {
		d.mu.Lock()
		if current, stillThere := d.transports[userID]; stillThere && current == t {
			delete(d.transports, userID)
		}
		d.mu.Unlock()
		d.logger.Debug().Str("user_id", userID).Msg("Evicted stale transport")
		return nil, false
	}
	return t, true
}

// Count returns the number of stored mappings; a stale handle counts
// until a lookup evicts it.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.transports)
}
