package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/viant/jsonrpc/transport"
	"github.com/viant/mcp-protocol/syncmap"
)

// Session binds a protocol session identifier to one live bidirectional
// transport and its handler. A session is registered only after the
// initialize request succeeded and is removed when its transport closes.
type Session struct {
	ID        string
	handler   transport.Handler
	transport *StreamTransport
	createdAt time.Time
}

// Close tears down the session transport; the on-close callback installed at
// registration removes the map entry.
func (s *Session) Close() {
	s.transport.Close()
}

// Sessions maps session identifiers to live sessions. It is process-scoped
// state owned by the Server, created at construction and torn down with the
// process.
type Sessions struct {
	entries *syncmap.Map[string, *Session]
}

// NewSessions creates an empty session map.
func NewSessions() *Sessions {
	return &Sessions{entries: syncmap.NewMap[string, *Session]()}
}

// New registers a freshly initialized transport under a new unguessable
// identifier and wires closure of the transport to entry removal.
func (s *Sessions) New(handler transport.Handler, streamTransport *StreamTransport) *Session {
	session := &Session{
		ID:        uuid.NewString(),
		handler:   handler,
		transport: streamTransport,
		createdAt: time.Now(),
	}
	streamTransport.OnClose(func() {
		s.entries.Delete(session.ID)
	})
	s.entries.Put(session.ID, session)
	return session
}

// Lookup resolves a session identifier; ok=false covers process restarts,
// closed sessions and forged identifiers alike.
func (s *Sessions) Lookup(id string) (*Session, bool) {
	return s.entries.Get(id)
}
