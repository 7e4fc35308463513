// Package config assembles runtime configuration from flags, environment
// variables and an optional configuration document, and materializes the
// OAuth2 client configuration used against the Fitbit authorization server.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/scy/auth/authorizer"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"

	"github.com/viant/fitbit-mcp/auth/store"
)

// Endpoint is the Fitbit OAuth2 authorization server endpoint pair.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://www.fitbit.com/oauth2/authorize",
	TokenURL: "https://api.fitbit.com/oauth2/token",
}

// DefaultScopes cover the read-only query tools this server exposes.
var DefaultScopes = []string{"activity", "heartrate", "profile", "sleep"}

// Options defines the runtime configuration. Fields are populated from CLI
// flags and environment, or from a configuration document referenced by
// ConfigURL.
type Options struct {
	ConfigURL string `yaml:"-" json:"-" short:"f" long:"config" description:"configuration document URL (json or yaml)"`

	ClientID        string   `yaml:"clientID,omitempty" json:"clientID,omitempty" long:"client-id" env:"FITBIT_CLIENT_ID" description:"fitbit oauth2 client id"`
	ClientSecret    string   `yaml:"clientSecret,omitempty" json:"clientSecret,omitempty" long:"client-secret" env:"FITBIT_CLIENT_SECRET" description:"fitbit oauth2 client secret"`
	OAuth2ConfigURL string   `yaml:"oauth2ConfigURL,omitempty" json:"oauth2ConfigURL,omitempty" long:"oauth2-config" description:"secured oauth2 client config URL"`
	EncryptionKey   string   `yaml:"encryptionKey,omitempty" json:"encryptionKey,omitempty" short:"k" long:"key" description:"oauth2 config encryption key"`
	Scopes          []string `yaml:"scopes,omitempty" json:"scopes,omitempty" long:"scope" description:"oauth2 scopes"`

	PublicURL    string `yaml:"publicURL,omitempty" json:"publicURL,omitempty" long:"public-url" description:"externally reachable base URL used to build the oauth redirect URI"`
	CallbackPath string `yaml:"callbackPath,omitempty" json:"callbackPath,omitempty" long:"callback-path" description:"oauth redirect callback path"`

	TokenPath string `yaml:"tokenPath,omitempty" json:"tokenPath,omitempty" long:"token-path" env:"FITBIT_TOKEN_PATH" description:"token file location (file store backend)"`
	StoreDSN  string `yaml:"storeDSN,omitempty" json:"storeDSN,omitempty" long:"store-dsn" env:"FITBIT_STORE_DSN" description:"token table DSN (table store backend)"`
	Driver    string `yaml:"driver,omitempty" json:"driver,omitempty" long:"store-driver" description:"token table database/sql driver"`
	KeyPrefix string `yaml:"keyPrefix,omitempty" json:"keyPrefix,omitempty" long:"key-prefix" description:"account key prefix in the token table"`

	Addr       string `yaml:"addr,omitempty" json:"addr,omitempty" short:"a" long:"addr" description:"http listen address"`
	Transport  string `yaml:"transport,omitempty" json:"transport,omitempty" short:"t" long:"transport" description:"server transport" choice:"streamable" choice:"stdio"`
	AuthSecret string `yaml:"authSecret,omitempty" json:"authSecret,omitempty" long:"auth-secret" env:"MCP_AUTH_SECRET" description:"HMAC secret gating the MCP endpoint with bearer JWTs"`
}

// Init loads the configuration document when present and applies defaults.
func (o *Options) Init(ctx context.Context) error {
	if o.ConfigURL != "" {
		fs := afs.New()
		data, err := fs.DownloadWithURL(ctx, o.ConfigURL)
		if err != nil {
			return fmt.Errorf("failed to load config %v: %w", o.ConfigURL, err)
		}
		if isYAML(o.ConfigURL) {
			err = yaml.Unmarshal(data, o)
		} else {
			err = json.Unmarshal(data, o)
		}
		if err != nil {
			return fmt.Errorf("failed to parse config %v: %w", o.ConfigURL, err)
		}
	}
	if o.PublicURL == "" {
		o.PublicURL = "http://localhost:5000"
	}
	if o.CallbackPath == "" {
		o.CallbackPath = "/oauth/callback"
	}
	if o.TokenPath == "" {
		o.TokenPath = ".fitbit/tokens.json"
	}
	if o.Addr == "" {
		o.Addr = "127.0.0.1:5000"
	}
	if o.Transport == "" {
		o.Transport = "streamable"
	}
	if len(o.Scopes) == 0 {
		o.Scopes = DefaultScopes
	}
	return nil
}

// Validate ensures an OAuth2 client configuration source is present.
func (o *Options) Validate() error {
	if o.OAuth2ConfigURL == "" && (o.ClientID == "" || o.ClientSecret == "") {
		return fmt.Errorf("missing oauth2 client configuration: set client-id/client-secret or oauth2-config")
	}
	return nil
}

// RedirectURL is the registered OAuth redirect URI.
func (o *Options) RedirectURL() string {
	return strings.TrimSuffix(o.PublicURL, "/") + o.CallbackPath
}

// StoreConfig maps the options onto the credential store configuration.
func (o *Options) StoreConfig() *store.Config {
	return &store.Config{
		Path:      o.TokenPath,
		DSN:       o.StoreDSN,
		Driver:    o.Driver,
		KeyPrefix: o.KeyPrefix,
	}
}

// OAuthConfig materializes the OAuth2 client configuration, loading it from
// the secured config URL when one is set.
func (o *Options) OAuthConfig(ctx context.Context) (*oauth2.Config, error) {
	if o.OAuth2ConfigURL != "" {
		configURL := o.OAuth2ConfigURL
		if o.EncryptionKey != "" {
			configURL += "|" + o.EncryptionKey
		}
		anAuthorizer := authorizer.New()
		oauthCfg := &authorizer.OAuthConfig{ConfigURL: configURL}
		if err := anAuthorizer.EnsureConfig(ctx, oauthCfg); err != nil {
			return nil, fmt.Errorf("failed to load oauth2 config %q: %w", o.OAuth2ConfigURL, err)
		}
		config := oauthCfg.Config
		if config.RedirectURL == "" {
			config.RedirectURL = o.RedirectURL()
		}
		if len(config.Scopes) == 0 {
			config.Scopes = o.Scopes
		}
		return config, nil
	}
	return &oauth2.Config{
		ClientID:     o.ClientID,
		ClientSecret: o.ClientSecret,
		Endpoint:     Endpoint,
		RedirectURL:  o.RedirectURL(),
		Scopes:       o.Scopes,
	}, nil
}

func isYAML(URL string) bool {
	return strings.HasSuffix(URL, ".yaml") || strings.HasSuffix(URL, ".yml")
}
