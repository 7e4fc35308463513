package server

import (
	"github.com/viant/mcp-protocol/schema"
)

// Option is a function that configures the server.
type Option func(s *Server) error

// WithImplementation sets the advertised server implementation.
func WithImplementation(implementation schema.Implementation) Option {
	return func(s *Server) error {
		s.info = implementation
		return nil
	}
}

// WithInstructions sets the instructions returned on initialize.
func WithInstructions(instructions string) Option {
	return func(s *Server) error {
		s.instructions = &instructions
		return nil
	}
}

// WithCORS adds a new CORS handler to the server.
func WithCORS(cors *Cors) Option {
	return func(s *Server) error {
		handler := &corsHandler{Cors: cors}
		s.corsConfig = cors
		s.corsHandler = handler.Middleware
		return nil
	}
}

// WithAuthSecret gates the streamable endpoint with bearer JWTs signed with
// the supplied HMAC secret.
func WithAuthSecret(secret []byte) Option {
	return func(s *Server) error {
		s.authSecret = secret
		return nil
	}
}

// WithStreamableURI overrides the streamable HTTP endpoint path.
func WithStreamableURI(uri string) Option {
	return func(s *Server) error {
		s.streamableURI = uri
		return nil
	}
}

// WithCallbackPath overrides the OAuth redirect callback path.
func WithCallbackPath(path string) Option {
	return func(s *Server) error {
		s.callbackPath = path
		return nil
	}
}

// WithAddr sets the default HTTP listen address.
func WithAddr(addr string) Option {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}

// WithLoggerName sets the logger name.
func WithLoggerName(name string) Option {
	return func(s *Server) error {
		s.loggerName = name
		return nil
	}
}
