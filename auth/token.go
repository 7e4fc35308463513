package auth

import "time"

// ExpiryBuffer is subtracted from the provider-declared token lifetime at
// normalization time so that a resolved token always has at least one minute
// of real remaining lifetime, absorbing clock skew and in-flight latency.
const ExpiryBuffer = time.Minute

// Token is one stored credential set, normalized from a provider token
// endpoint response. ExpiresAt is an absolute epoch-millisecond expiry with
// ExpiryBuffer already applied; it never holds the raw provider value.
type Token struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
	Scope        string `json:"scope"`
	TokenType    string `json:"tokenType"`
}

// Valid reports whether the token is logically valid at the supplied time.
func (t *Token) Valid(now time.Time) bool {
	return t != nil && t.ExpiresAt > now.UnixMilli()
}

// tokenResponse mirrors the provider token endpoint JSON payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
}

// normalize converts a provider response into a stored Token, applying the
// expiry buffer. A zero expires_in yields an already expired record, forcing
// a refresh on next use.
func (r *tokenResponse) normalize(now time.Time) *Token {
	return &Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    now.UnixMilli() + r.ExpiresIn*1000 - ExpiryBuffer.Milliseconds(),
		Scope:        r.Scope,
		TokenType:    r.TokenType,
	}
}
