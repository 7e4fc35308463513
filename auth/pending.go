package auth

import (
	"sync"
	"time"
)

// pendingTTL bounds how long an issued state stays consumable; abandoned
// authorization attempts are evicted past this age.
const pendingTTL = 10 * time.Minute

// Pending correlates an issued authorization URL with the callback that
// completes it. Entries are in-memory only and never survive a restart.
type Pending struct {
	State           string
	AccountKey      string
	SuccessRedirect string
	CreatedAt       time.Time
}

// PendingAuthorizations is the registry of outstanding authorization
// attempts, keyed by state token. Expired entries are evicted lazily on each
// Register and Consume call, so the registry needs no background sweeper.
type PendingAuthorizations struct {
	mu      sync.Mutex
	entries map[string]*Pending
	ttl     time.Duration
	now     func() time.Time
}

// NewPendingAuthorizations creates an empty registry.
func NewPendingAuthorizations() *PendingAuthorizations {
	return &PendingAuthorizations{
		entries: map[string]*Pending{},
		ttl:     pendingTTL,
		now:     time.Now,
	}
}

// Register records a pending authorization under the supplied state.
func (p *PendingAuthorizations) Register(state, accountKey, successRedirect string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evictExpired()
	p.entries[state] = &Pending{
		State:           state,
		AccountKey:      accountKey,
		SuccessRedirect: successRedirect,
		CreatedAt:       p.now(),
	}
}

// Consume atomically takes the entry for the state: present entries are
// returned and deleted in one step, so a replayed state always misses.
func (p *PendingAuthorizations) Consume(state string) (*Pending, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evictExpired()
	entry, ok := p.entries[state]
	if !ok {
		return nil, NewError(KindUnknownState, "unknown or already used authorization state")
	}
	delete(p.entries, state)
	return entry, nil
}

func (p *PendingAuthorizations) evictExpired() {
	deadline := p.now().Add(-p.ttl)
	for state, entry := range p.entries {
		if entry.CreatedAt.Before(deadline) {
			delete(p.entries, state)
		}
	}
}
