// Package server exposes the Fitbit query tools over the MCP protocol. It
// multiplexes protocol sessions onto long-lived bidirectional transports,
// serves the streamable HTTP endpoint together with the OAuth redirect
// callback, and supports a stdio mode with a single implicit session.
package server

import (
	"errors"

	"github.com/viant/mcp-protocol/schema"

	"github.com/viant/fitbit-mcp/auth"
	"github.com/viant/fitbit-mcp/fitbit"
)

// Server owns the session map and the tool registry; per-session protocol
// state lives on Handler instances created for each transport.
type Server struct {
	info            schema.Implementation
	instructions    *string
	protocolVersion string
	loggerName      string

	auth   *auth.Service
	fitbit *fitbit.Client

	tools     map[string]*toolEntry
	toolNames []string

	sessions *Sessions

	corsConfig  *Cors
	corsHandler Middleware
	authSecret  []byte

	streamableURI string
	callbackPath  string
	addr          string
}

// New creates a Server over the credential service and the Fitbit client.
func New(authService *auth.Service, fitbitClient *fitbit.Client, options ...Option) (*Server, error) {
	if authService == nil {
		return nil, errors.New("no auth service specified")
	}
	if fitbitClient == nil {
		return nil, errors.New("no fitbit client specified")
	}
	s := &Server{
		info:            schema.Implementation{Name: "fitbit-mcp", Version: "0.1"},
		protocolVersion: schema.LatestProtocolVersion,
		loggerName:      "fitbit-mcp",
		auth:            authService,
		fitbit:          fitbitClient,
		tools:           map[string]*toolEntry{},
		sessions:        NewSessions(),
		streamableURI:   "/mcp",
		callbackPath:    "/oauth/callback",
	}
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}
	if s.corsHandler == nil {
		handler := &corsHandler{Cors: defaultCors()}
		s.corsConfig = handler.Cors
		s.corsHandler = handler.Middleware
	}
	if err := s.registerTools(); err != nil {
		return nil, err
	}
	return s, nil
}
