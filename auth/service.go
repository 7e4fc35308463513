package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Service is the collaborator-facing facade over the credential subsystem:
// it starts and completes authorization flows and resolves access tokens,
// refreshing expired records with at most one in-flight refresh per account
// key.
type Service struct {
	store     StoreWriter
	exchanger *Exchanger
	pending   *PendingAuthorizations
	now       func() time.Time

	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

// NewService creates a Service over the supplied store and exchanger.
func NewService(store StoreWriter, exchanger *Exchanger) *Service {
	return &Service{
		store:     store,
		exchanger: exchanger,
		pending:   NewPendingAuthorizations(),
		now:       time.Now,
		keyLocks:  map[string]*sync.Mutex{},
	}
}

// StartAuthorization issues an authorization URL for the account key and
// records the pending state so the redirect callback can be correlated.
func (s *Service) StartAuthorization(key string, scopes []string, successRedirect string) (authURL, state string, err error) {
	if authURL, state, err = s.exchanger.AuthorizeURL(scopes, ""); err != nil {
		return "", "", err
	}
	s.pending.Register(state, key, successRedirect)
	return authURL, state, nil
}

// CompleteAuthorization consumes the pending state and exchanges the code,
// committing the resulting token record under the pending account key. The
// consumed entry is returned so the caller can honor its success redirect.
func (s *Service) CompleteAuthorization(ctx context.Context, code, state string) (*Pending, error) {
	pending, err := s.pending.Consume(state)
	if err != nil {
		return nil, err
	}
	if _, err = s.exchanger.ExchangeCode(ctx, code, pending.AccountKey, ""); err != nil {
		return nil, err
	}
	return pending, nil
}

// ResolveAccessToken returns a bearer credential for the account key,
// refreshing the stored record first when it has expired. The check-then-
// refresh sequence is serialized per key so concurrent callers observing the
// same expired record trigger a single refresh.
func (s *Service) ResolveAccessToken(ctx context.Context, key string) (string, error) {
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	token, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to load credential for %q: %w", key, err)
	}
	if !ok {
		return "", NewError(KindNotAuthorized, fmt.Sprintf("account %q is not authorized", key))
	}
	if token.Valid(s.now()) {
		return token.AccessToken, nil
	}
	refreshed, err := s.exchanger.Refresh(ctx, key, "")
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

func (s *Service) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.keyLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.keyLocks[key] = lock
	}
	return lock
}
