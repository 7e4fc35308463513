package server

import (
	"context"

	"github.com/viant/jsonrpc/transport/server/stdio"
)

// Stdio returns a stdio server running a single implicit session.
func (s *Server) Stdio(ctx context.Context, options ...stdio.Option) *stdio.Server {
	return stdio.New(ctx, s.NewHandler, options...)
}
