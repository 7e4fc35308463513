// Package auth implements the credential lifecycle against an OAuth2
// authorization-code provider: building authorization URLs, exchanging
// authorization codes, refreshing expired tokens with expiry-aware renewal,
// and correlating redirect callbacks with the requests that initiated them.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// StoreWriter is the slice of the credential store the exchanger needs.
type StoreWriter interface {
	Get(ctx context.Context, key string) (*Token, bool, error)
	Set(ctx context.Context, key string, token *Token) error
}

// Exchanger drives the provider's authorization-code and refresh-token
// grants and commits normalized token records to the credential store.
type Exchanger struct {
	config     *oauth2.Config
	store      StoreWriter
	httpClient *http.Client
	now        func() time.Time
}

// ExchangerOption configures an Exchanger.
type ExchangerOption func(e *Exchanger)

// WithHTTPClient overrides the HTTP client used for token endpoint calls.
func WithHTTPClient(client *http.Client) ExchangerOption {
	return func(e *Exchanger) {
		e.httpClient = client
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ExchangerOption {
	return func(e *Exchanger) {
		e.now = now
	}
}

// NewExchanger creates an exchanger for the given OAuth2 client configuration.
func NewExchanger(config *oauth2.Config, store StoreWriter, options ...ExchangerOption) *Exchanger {
	ret := &Exchanger{
		config:     config,
		store:      store,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// AuthorizeURL builds the provider authorization endpoint URL together with a
// freshly generated state. It does not contact the network; the caller is
// responsible for recording the state before redirecting the end user.
func (e *Exchanger) AuthorizeURL(scopes []string, redirectOverride string) (authURL, state string, err error) {
	if state, err = newState(); err != nil {
		return "", "", fmt.Errorf("failed to generate state: %w", err)
	}
	config := e.flowConfig(redirectOverride)
	if len(scopes) > 0 {
		config.Scopes = scopes
	}
	return config.AuthCodeURL(state), state, nil
}

// ExchangeCode exchanges an authorization code for a token record and commits
// it under the account key. A failed exchange is never retried here; the end
// user must restart the authorization flow.
func (e *Exchanger) ExchangeCode(ctx context.Context, code, key, redirectOverride string) (*Token, error) {
	config := e.flowConfig(redirectOverride)
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {config.ClientID},
		"client_secret": {config.ClientSecret},
		"redirect_uri":  {config.RedirectURL},
	}
	response, err := e.postToken(ctx, form)
	if err != nil {
		return nil, e.classify(KindExchangeFailed, "authorization code exchange failed", err)
	}
	token := response.normalize(e.now())
	if err = e.store.Set(ctx, key, token); err != nil {
		return nil, fmt.Errorf("failed to commit token for %q: %w", key, err)
	}
	return token, nil
}

// Refresh mints a new token record from the stored refresh token and commits
// it, preserving the previous refresh token when the provider response omits
// one. Failures are surfaced to the caller rather than retried internally.
func (e *Exchanger) Refresh(ctx context.Context, key, redirectOverride string) (*Token, error) {
	previous, ok, err := e.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewError(KindNoCredential, fmt.Sprintf("no credential stored for %q", key))
	}
	config := e.flowConfig(redirectOverride)
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {previous.RefreshToken},
		"client_id":     {config.ClientID},
		"client_secret": {config.ClientSecret},
		"scope":         {previous.Scope},
	}
	response, err := e.postToken(ctx, form)
	if err != nil {
		return nil, e.classify(KindRefreshFailed, fmt.Sprintf("token refresh failed for %q", key), err)
	}
	token := response.normalize(e.now())
	if token.RefreshToken == "" {
		token.RefreshToken = previous.RefreshToken
	}
	if err = e.store.Set(ctx, key, token); err != nil {
		return nil, fmt.Errorf("failed to commit refreshed token for %q: %w", key, err)
	}
	return token, nil
}

func (e *Exchanger) flowConfig(redirectOverride string) *oauth2.Config {
	config := *e.config
	if redirectOverride != "" {
		config.RedirectURL = redirectOverride
	}
	return &config
}

// httpError preserves the provider status code and body detail.
type httpError struct {
	statusCode int
	body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("status %v: %s", e.statusCode, e.body)
}

func (e *Exchanger) postToken(ctx context.Context, form url.Values) (*tokenResponse, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("Accept", "application/json")
	response, err := e.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	if response.StatusCode != http.StatusOK {
		return nil, &httpError{statusCode: response.StatusCode, body: string(body)}
	}
	result := &tokenResponse{}
	if err = json.Unmarshal(body, result); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	return result, nil
}

func (e *Exchanger) classify(kind ErrorKind, message string, cause error) *Error {
	ret := &Error{Kind: kind, Message: fmt.Sprintf("%v: %v", message, cause), cause: cause}
	var upstream *httpError
	if errors.As(cause, &upstream) {
		ret.StatusCode = upstream.statusCode
	}
	return ret
}

// newState returns a cryptographically random, URL-safe state token.
func newState() (string, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(nonce), nil
}
