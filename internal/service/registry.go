package service

import (
	"sort"
	"time"

	"github.com/UniM0cha/gilton-system/internal/model"
)

// Participant is one live connection and whatever identity it has attached.
// Registered (has a profile) and admin are independent flags; a connection
// can be both.
type Participant struct {
	ID          string
	Profile     *model.Profile
	IsAdmin     bool
	ConnectedAt time.Time
}

// Registered reports whether the participant has completed "register".
func (p *Participant) Registered() bool {
	return p.Profile != nil
}

// SessionRegistry tracks currently connected participants. It has no
// persistence; its lifetime is the process.
//
// All mutation is funneled through the hub's event loop, so the registry
// itself carries no locking. Callers on other goroutines must go through
// the hub.
type SessionRegistry struct {
	participants map[string]*Participant
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{participants: make(map[string]*Participant)}
}

// Add records a new connection with no profile yet.
func (r *SessionRegistry) Add(id string, connectedAt time.Time) *Participant {
	p := &Participant{ID: id, ConnectedAt: connectedAt}
	r.participants[id] = p
	return p
}

// Get returns the participant for a connection id.
func (r *SessionRegistry) Get(id string) (*Participant, bool) {
	p, ok := r.participants[id]
	return p, ok
}

// Register attaches a profile to a connection. The profile replaces any
// previous one wholesale; fields are never merged.
func (r *SessionRegistry) Register(id string, profile model.Profile) bool {
	p, ok := r.participants[id]
	if !ok {
		return false
	}
	p.Profile = &profile
	return true
}

// RegisterAdmin marks a connection as an admin roster subscriber.
func (r *SessionRegistry) RegisterAdmin(id string) bool {
	p, ok := r.participants[id]
	if !ok {
		return false
	}
	p.IsAdmin = true
	return true
}

// Remove deletes a connection. Returns whether it existed.
func (r *SessionRegistry) Remove(id string) bool {
	if _, ok := r.participants[id]; !ok {
		return false
	}
	delete(r.participants, id)
	return true
}

// Len returns the number of connected participants, profiled or not.
func (r *SessionRegistry) Len() int {
	return len(r.participants)
}

// ListProfiled returns the roster: every connection that has completed
// "register", ordered by connection time. Admin-only connections without a
// profile are excluded.
func (r *SessionRegistry) ListProfiled() []model.RosterEntry {
	entries := make([]model.RosterEntry, 0, len(r.participants))
	for _, p := range r.participants {
		if !p.Registered() {
			continue
		}
		entries = append(entries, model.RosterEntry{
			ID:          p.ID,
			Profile:     *p.Profile,
			ConnectedAt: p.ConnectedAt,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ConnectedAt.Equal(entries[j].ConnectedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].ConnectedAt.Before(entries[j].ConnectedAt)
	})
	return entries
}

// Admins returns the connection ids subscribed to roster updates.
func (r *SessionRegistry) Admins() []string {
	ids := make([]string, 0)
	for _, p := range r.participants {
		if p.IsAdmin {
			ids = append(ids, p.ID)
		}
	}
	return ids
}
