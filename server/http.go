package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
	"github.com/viant/mcp-protocol/schema"
)

// SessionIDHeader carries the session id on every request after initialize.
const SessionIDHeader = "Mcp-Session-Id"

// HTTP builds the http.Server exposing the streamable MCP endpoint and the
// OAuth redirect callback.
func (s *Server) HTTP(_ context.Context, addr string) *http.Server {
	if addr == "" {
		addr = s.addr
	}
	if addr == "" {
		// Default bind only to localhost to reduce DNS rebinding risk
		addr = "127.0.0.1:5000"
	}
	var middlewareHandlers []Middleware
	if len(s.authSecret) > 0 {
		middlewareHandlers = append(middlewareHandlers, s.bearerAuthMiddleware())
	}
	middlewareHandlers = append(middlewareHandlers, protocolVersionMiddleware())
	middlewareHandlers = append(middlewareHandlers, s.corsHandler)
	if s.corsConfig != nil {
		middlewareHandlers = append(middlewareHandlers, originValidationMiddleware(s.corsConfig.AllowOrigins))
	}
	streamChain := ChainMiddlewareHandlers(http.HandlerFunc(s.handleStreamable), middlewareHandlers...)

	mux := http.NewServeMux()
	mux.Handle(s.streamableURI, streamChain)
	// The provider redirects the browser here; no MCP middleware applies.
	mux.HandleFunc(s.callbackPath, s.handleOAuthCallback)
	return &http.Server{Addr: addr, Handler: mux}
}

func (s *Server) handleStreamable(writer http.ResponseWriter, request *http.Request) {
	switch request.Method {
	case http.MethodPost:
		s.handlePost(writer, request)
	case http.MethodGet:
		s.handleStream(writer, request)
	case http.MethodDelete:
		s.handleDelete(writer, request)
	case http.MethodOptions:
		writer.WriteHeader(http.StatusNoContent)
	default:
		http.Error(writer, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// frame is the minimal probe used to classify an incoming JSON-RPC message
// before full dispatch.
type frame struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpc.Error  `json:"error,omitempty"`
}

func (s *Server) handlePost(writer http.ResponseWriter, request *http.Request) {
	data, err := io.ReadAll(request.Body)
	if err != nil {
		http.Error(writer, "failed to read request body", http.StatusBadRequest)
		return
	}
	var aFrame frame
	if err = json.Unmarshal(data, &aFrame); err != nil {
		http.Error(writer, "invalid JSON-RPC message", http.StatusBadRequest)
		return
	}

	sessionID := request.Header.Get(SessionIDHeader)
	if sessionID == "" {
		if aFrame.Method != schema.MethodInitialize {
			http.Error(writer, "missing "+SessionIDHeader+" header", http.StatusBadRequest)
			return
		}
		s.initializeSession(writer, request, data)
		return
	}
	session, ok := s.sessions.Lookup(sessionID)
	if !ok {
		http.Error(writer, "unknown session", http.StatusNotFound)
		return
	}

	// A frame without a method is a client response to a server request.
	if aFrame.Method == "" {
		response := &jsonrpc.Response{}
		if err = json.Unmarshal(data, response); err != nil {
			http.Error(writer, "invalid JSON-RPC response", http.StatusBadRequest)
			return
		}
		session.transport.Accept(response)
		writer.WriteHeader(http.StatusAccepted)
		return
	}

	// A frame without an id is a notification.
	if len(aFrame.Id) == 0 {
		notification := &jsonrpc.Notification{}
		if err = json.Unmarshal(data, notification); err != nil {
			http.Error(writer, "invalid JSON-RPC notification", http.StatusBadRequest)
			return
		}
		session.handler.OnNotification(request.Context(), notification)
		writer.WriteHeader(http.StatusAccepted)
		return
	}

	s.serveRequest(writer, request, session.handler, data)
}

// initializeSession runs the initialize handshake on a fresh handler and
// registers the session only once the handshake succeeded.
func (s *Server) initializeSession(writer http.ResponseWriter, httpRequest *http.Request, data []byte) {
	streamTransport := NewStreamTransport()
	handler := s.NewHandler(httpRequest.Context(), streamTransport)

	rpcRequest := &jsonrpc.Request{}
	if err := json.Unmarshal(data, rpcRequest); err != nil {
		http.Error(writer, "invalid JSON-RPC request", http.StatusBadRequest)
		return
	}
	response := &jsonrpc.Response{Id: rpcRequest.Id, Jsonrpc: rpcRequest.Jsonrpc}
	handler.Serve(httpRequest.Context(), rpcRequest, response)
	if response.Error == nil {
		session := s.sessions.New(handler, streamTransport)
		writer.Header().Set(SessionIDHeader, session.ID)
	}
	writeResponse(writer, response)
}

func (s *Server) serveRequest(writer http.ResponseWriter, httpRequest *http.Request, handler transport.Handler, data []byte) {
	rpcRequest := &jsonrpc.Request{}
	if err := json.Unmarshal(data, rpcRequest); err != nil {
		http.Error(writer, "invalid JSON-RPC request", http.StatusBadRequest)
		return
	}
	response := &jsonrpc.Response{Id: rpcRequest.Id, Jsonrpc: rpcRequest.Jsonrpc}
	handler.Serve(httpRequest.Context(), rpcRequest, response)
	writeResponse(writer, response)
}

func (s *Server) handleStream(writer http.ResponseWriter, request *http.Request) {
	sessionID := request.Header.Get(SessionIDHeader)
	if sessionID == "" {
		http.Error(writer, "missing "+SessionIDHeader+" header", http.StatusBadRequest)
		return
	}
	session, ok := s.sessions.Lookup(sessionID)
	if !ok {
		http.Error(writer, "unknown session", http.StatusNotFound)
		return
	}
	session.transport.Stream(writer, request)
}

func (s *Server) handleDelete(writer http.ResponseWriter, request *http.Request) {
	sessionID := request.Header.Get(SessionIDHeader)
	if sessionID == "" {
		http.Error(writer, "missing "+SessionIDHeader+" header", http.StatusBadRequest)
		return
	}
	session, ok := s.sessions.Lookup(sessionID)
	if !ok {
		http.Error(writer, "unknown session", http.StatusNotFound)
		return
	}
	session.Close()
	writer.WriteHeader(http.StatusNoContent)
}

func writeResponse(writer http.ResponseWriter, response *jsonrpc.Response) {
	writer.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(response)
	if err != nil {
		http.Error(writer, "failed to marshal response", http.StatusInternalServerError)
		return
	}
	_, _ = writer.Write(data)
}
