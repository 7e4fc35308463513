package auth

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestServiceAuthorizationFlow(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	endpoint := &tokenEndpoint{payload: map[string]interface{}{
		"access_token":  "access-1",
		"refresh_token": "refresh-1",
		"expires_in":    3600,
		"token_type":    "Bearer",
	}}
	store := newMemoryStore()
	exchanger := newTestExchanger(t, endpoint, store, now)
	service := NewService(store, exchanger)

	// Nothing stored yet.
	_, err := service.ResolveAccessToken(context.Background(), "alice")
	assert.True(t, IsKind(err, KindNotAuthorized))

	authURL, state, err := service.StartAuthorization("alice", []string{"sleep"}, "http://example.com/done")
	assert.NoError(t, err)
	parsed, err := url.Parse(authURL)
	assert.NoError(t, err)
	assert.Equal(t, state, parsed.Query().Get("state"))
	assert.Equal(t, "sleep", parsed.Query().Get("scope"))

	pending, err := service.CompleteAuthorization(context.Background(), "code-1", state)
	assert.NoError(t, err)
	assert.Equal(t, "alice", pending.AccountKey)
	assert.Equal(t, "http://example.com/done", pending.SuccessRedirect)

	// The token landed under the account key recorded with the state.
	stored, ok, _ := store.Get(context.Background(), "alice")
	assert.True(t, ok)
	assert.Equal(t, "access-1", stored.AccessToken)

	// Resolution succeeds now without another provider call.
	service.now = func() time.Time { return now }
	accessToken, err := service.ResolveAccessToken(context.Background(), "alice")
	assert.NoError(t, err)
	assert.Equal(t, "access-1", accessToken)

	// The state is single use.
	_, err = service.CompleteAuthorization(context.Background(), "code-1", state)
	assert.True(t, IsKind(err, KindUnknownState))
}

func TestServiceResolveNotAuthorized(t *testing.T) {
	endpoint := &tokenEndpoint{}
	store := newMemoryStore()
	service := NewService(store, newTestExchanger(t, endpoint, store, time.Now()))

	_, err := service.ResolveAccessToken(context.Background(), "nobody")
	assert.True(t, IsKind(err, KindNotAuthorized))
	assert.Equal(t, 0, endpoint.count())
}

func TestServiceResolveValidToken(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	endpoint := &tokenEndpoint{}
	store := newMemoryStore()
	_ = store.Set(context.Background(), "alice", &Token{AccessToken: "access-1", ExpiresAt: now.UnixMilli() + 10_000})
	service := NewService(store, newTestExchanger(t, endpoint, store, now))
	service.now = func() time.Time { return now }

	accessToken, err := service.ResolveAccessToken(context.Background(), "alice")
	assert.NoError(t, err)
	assert.Equal(t, "access-1", accessToken)
	// No network call for a still valid token.
	assert.Equal(t, 0, endpoint.count())
}

func TestServiceResolveRefreshesExpired(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	endpoint := &tokenEndpoint{payload: map[string]interface{}{
		"access_token": "access-2",
		"expires_in":   3600,
	}}
	store := newMemoryStore()
	_ = store.Set(context.Background(), "alice", &Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    now.UnixMilli() - 1,
	})
	service := NewService(store, newTestExchanger(t, endpoint, store, now))
	service.now = func() time.Time { return now }

	accessToken, err := service.ResolveAccessToken(context.Background(), "alice")
	assert.NoError(t, err)
	assert.Equal(t, "access-2", accessToken)
	assert.Equal(t, 1, endpoint.count())
}

func TestServiceResolveRefreshFailure(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	endpoint := &tokenEndpoint{status: 401, payload: map[string]interface{}{"errors": []string{"invalid_token"}}}
	store := newMemoryStore()
	_ = store.Set(context.Background(), "alice", &Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    now.UnixMilli() - 1,
	})
	service := NewService(store, newTestExchanger(t, endpoint, store, now))
	service.now = func() time.Time { return now }

	// The failed renewal surfaces as a refresh failure, not as a missing
	// credential or a data-query error.
	_, err := service.ResolveAccessToken(context.Background(), "alice")
	assert.True(t, IsKind(err, KindRefreshFailed))
	assert.False(t, IsKind(err, KindNotAuthorized))
	var authErr *Error
	assert.ErrorAs(t, err, &authErr)
	assert.Equal(t, 401, authErr.StatusCode)
}

func TestServiceResolveSingleRefreshPerKey(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	endpoint := &tokenEndpoint{payload: map[string]interface{}{
		"access_token": "access-2",
		"expires_in":   3600,
	}}
	store := newMemoryStore()
	_ = store.Set(context.Background(), "alice", &Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    now.UnixMilli() - 1,
	})
	service := NewService(store, newTestExchanger(t, endpoint, store, now))
	service.now = func() time.Time { return now }

	var wg sync.WaitGroup
	results := make([]string, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			accessToken, err := service.ResolveAccessToken(context.Background(), "alice")
			assert.NoError(t, err)
			results[i] = accessToken
		}(i)
	}
	wg.Wait()
	// All callers converged on one refreshed credential.
	assert.Equal(t, 1, endpoint.count())
	for _, accessToken := range results {
		assert.Equal(t, "access-2", accessToken)
	}
}
