package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
	"github.com/viant/mcp-protocol/schema"
	"github.com/viant/mcp-protocol/syncmap"
)

// Handler carries per-session protocol state and dispatches JSON-RPC
// requests arriving on one transport.
type Handler struct {
	transport.Notifier
	*Logger
	*Server
	activeContexts   *syncmap.Map[int, *activeContext]
	clientInitialize *schema.InitializeRequestParams
	loggingLevel     schema.LoggingLevel
	Initialized      bool
}

// NewHandler creates a handler bound to the supplied transport.
func (s *Server) NewHandler(_ context.Context, aTransport transport.Transport) transport.Handler {
	ret := &Handler{
		Server:         s,
		Notifier:       aTransport,
		activeContexts: syncmap.NewMap[int, *activeContext](),
	}
	ret.Logger = NewLogger(s.loggerName, &ret.loggingLevel, ret.Notifier)
	return ret
}

// Serve handles incoming JSON-RPC requests
func (h *Handler) Serve(parent context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	if jsonrpc.Version != request.Jsonrpc {
		response.Error = jsonrpc.NewInvalidRequest("invalid JSON-RPC version", nil)
		return
	}
	id, _ := jsonrpc.AsRequestIntId(request.Id)
	ctx, cancel := context.WithCancel(parent)
	activeCtx, ctx := newActiveContext(ctx, cancel, request)
	h.activeContexts.Put(id, activeCtx)
	defer h.cancelOperation(id)

	switch request.Method {
	case schema.MethodInitialize:
		result, err := h.Initialize(ctx, request)
		h.setResponse(response, result, err)
	case schema.MethodPing:
		result, err := h.Ping(ctx, request)
		h.setResponse(response, result, err)
	case schema.MethodToolsList:
		result, err := h.ListTools(ctx, request)
		h.setResponse(response, result, err)
	case schema.MethodToolsCall:
		result, err := h.CallTool(ctx, request)
		h.setResponse(response, result, err)
	case schema.MethodLoggingSetLevel:
		result, err := h.SetLevel(ctx, request)
		h.setResponse(response, result, err)
	default:
		response.Error = jsonrpc.NewMethodNotFound(fmt.Sprintf("method: %v not found", request.Method), request.Params)
	}
}

func (h *Handler) setResponse(response *jsonrpc.Response, result interface{}, rpcError *jsonrpc.Error) {
	if rpcError != nil {
		response.Error = rpcError
		return
	}
	var err error
	response.Result, err = json.Marshal(result)
	if err != nil {
		response.Error = jsonrpc.NewInternalError(err.Error(), []byte{})
	}
}

// OnNotification handles incoming JSON-RPC notifications
func (h *Handler) OnNotification(ctx context.Context, notification *jsonrpc.Notification) {
	switch notification.Method {
	case schema.MethodNotificationCancel:
		h.Cancel(ctx, notification)
	case schema.MethodNotificationInitialized:
		h.Initialized = true
	}
}

// Cancel aborts the in-flight operation named by the cancellation notification.
func (h *Handler) Cancel(_ context.Context, notification *jsonrpc.Notification) *jsonrpc.Error {
	var params schema.CancelledNotificationParams
	if err := json.Unmarshal(notification.Params, &params); err != nil {
		return jsonrpc.NewParsingError(fmt.Sprintf("failed to parse notification: %v", err), notification.Params)
	}
	if params.RequestId == nil || *params.RequestId == 0 {
		return jsonrpc.NewInvalidParamsError("invalid requestId", notification.Params)
	}
	h.cancelOperation(int(*params.RequestId))
	return nil
}

func (h *Handler) cancelOperation(id int) {
	if active, ok := h.activeContexts.Get(id); ok {
		active.CancelFunc()
		h.activeContexts.Delete(id)
	}
}

// Initialize handles the initialize method
func (h *Handler) Initialize(_ context.Context, request *jsonrpc.Request) (*schema.InitializeResult, *jsonrpc.Error) {
	initRequest := schema.InitializeRequest{Method: schema.MethodInitialize}
	if err := json.Unmarshal(request.Params, &initRequest.Params); err != nil {
		return nil, jsonrpc.NewInvalidParamsError(fmt.Sprintf("failed to parse %v", err), request.Params)
	}
	h.clientInitialize = &initRequest.Params
	result := schema.InitializeResult{
		ProtocolVersion: h.protocolVersion,
		ServerInfo:      h.info,
		Capabilities:    schema.ServerCapabilities{Tools: &schema.ServerCapabilitiesTools{}},
		Instructions:    h.instructions,
	}
	return &result, nil
}

// Ping handles the ping method
func (h *Handler) Ping(_ context.Context, request *jsonrpc.Request) (*schema.PingResult, *jsonrpc.Error) {
	pingRequest := schema.PingRequest{Method: schema.MethodPing}
	if len(request.Params) > 0 {
		if err := json.Unmarshal(request.Params, &pingRequest.Params); err != nil {
			return nil, jsonrpc.NewInternalError(err.Error(), request.Params)
		}
	}
	return &schema.PingResult{}, nil
}

// SetLevel handles the logging/setLevel method
func (h *Handler) SetLevel(_ context.Context, request *jsonrpc.Request) (*schema.SetLevelResult, *jsonrpc.Error) {
	setLevelRequest := &schema.SetLevelRequest{Method: request.Method}
	if err := json.Unmarshal(request.Params, &setLevelRequest.Params); err != nil {
		return nil, jsonrpc.NewInvalidParamsError(fmt.Sprintf("failed to parse: %v", err), request.Params)
	}
	h.loggingLevel = setLevelRequest.Params.Level
	return &schema.SetLevelResult{}, nil
}
