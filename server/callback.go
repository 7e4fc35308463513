package server

import (
	"fmt"
	"net/http"

	"github.com/viant/fitbit-mcp/auth"
)

// handleOAuthCallback finishes the authorization-code flow: it consumes the
// state issued by StartAuthorization, exchanges the code and persists the
// token under the account key recorded with the state.
func (s *Server) handleOAuthCallback(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	if errCode := query.Get("error"); errCode != "" {
		description := query.Get("error_description")
		http.Error(writer, fmt.Sprintf("authorization declined: %v %v", errCode, description), http.StatusBadRequest)
		return
	}
	code := query.Get("code")
	state := query.Get("state")
	if code == "" || state == "" {
		http.Error(writer, "missing code or state parameter", http.StatusBadRequest)
		return
	}
	pending, err := s.auth.CompleteAuthorization(request.Context(), code, state)
	if err != nil {
		status := http.StatusBadGateway
		if auth.IsKind(err, auth.KindUnknownState) {
			status = http.StatusBadRequest
		}
		http.Error(writer, err.Error(), status)
		return
	}
	if pending.SuccessRedirect != "" {
		http.Redirect(writer, request, pending.SuccessRedirect, http.StatusFound)
		return
	}
	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprintf(writer, "<html><body><p>Account %q authorized. You can close this window.</p></body></html>", pending.AccountKey)
}
