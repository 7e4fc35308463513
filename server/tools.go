package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"

	"github.com/viant/fitbit-mcp/auth"
	"github.com/viant/fitbit-mcp/auth/store"
)

type toolEntry struct {
	tool schema.Tool
	call func(ctx context.Context, arguments json.RawMessage) (*schema.CallToolResult, *jsonrpc.Error)
}

// registerTool derives the input schema from T and adds the tool to the
// server registry.
func registerTool[T any](s *Server, name, description string, call func(ctx context.Context, input *T) (*schema.CallToolResult, *jsonrpc.Error)) error {
	var inputSchema schema.ToolInputSchema
	var prototype T
	if err := inputSchema.Load(&prototype); err != nil {
		return fmt.Errorf("failed to load schema for tool %v: %w", name, err)
	}
	s.tools[name] = &toolEntry{
		tool: schema.Tool{
			Name:        name,
			Description: &description,
			InputSchema: inputSchema,
		},
		call: func(ctx context.Context, arguments json.RawMessage) (*schema.CallToolResult, *jsonrpc.Error) {
			input := new(T)
			if len(arguments) > 0 {
				if err := json.Unmarshal(arguments, input); err != nil {
					return nil, jsonrpc.NewInvalidParamsError(fmt.Sprintf("invalid arguments: %v", err), arguments)
				}
			}
			return call(ctx, input)
		},
	}
	s.toolNames = append(s.toolNames, name)
	sort.Strings(s.toolNames)
	return nil
}

// ListTools handles the tools/list method
func (h *Handler) ListTools(_ context.Context, request *jsonrpc.Request) (*schema.ListToolsResult, *jsonrpc.Error) {
	listRequest := schema.ListToolsRequest{Method: schema.MethodToolsList}
	if len(request.Params) > 0 {
		if err := json.Unmarshal(request.Params, &listRequest.Params); err != nil {
			return nil, jsonrpc.NewInvalidParamsError(fmt.Sprintf("failed to parse %v", err), request.Params)
		}
	}
	result := &schema.ListToolsResult{Tools: make([]schema.Tool, 0, len(h.tools))}
	for _, name := range h.toolNames {
		result.Tools = append(result.Tools, h.tools[name].tool)
	}
	return result, nil
}

// CallTool handles the tools/call method
func (h *Handler) CallTool(ctx context.Context, request *jsonrpc.Request) (*schema.CallToolResult, *jsonrpc.Error) {
	callRequest := schema.CallToolRequest{Method: schema.MethodToolsCall}
	if err := json.Unmarshal(request.Params, &callRequest.Params); err != nil {
		return nil, jsonrpc.NewInvalidParamsError(fmt.Sprintf("failed to parse %v", err), request.Params)
	}
	entry, ok := h.tools[callRequest.Params.Name]
	if !ok {
		return nil, jsonrpc.NewMethodNotFound(fmt.Sprintf("tool %v not found", callRequest.Params.Name), nil)
	}
	arguments, err := json.Marshal(callRequest.Params.Arguments)
	if err != nil {
		return nil, jsonrpc.NewInternalError(fmt.Sprintf("failed to marshal arguments: %v", err), nil)
	}
	return entry.call(ctx, arguments)
}

type authorizeInput struct {
	Account         string   `json:"account,omitempty" description:"account key, defaults to 'default'"`
	Scopes          []string `json:"scopes,omitempty" description:"OAuth scopes to request"`
	SuccessRedirect string   `json:"successRedirect,omitempty" description:"URL to redirect the browser to after authorization"`
}

type accountInput struct {
	Account string `json:"account,omitempty" description:"account key, defaults to 'default'"`
}

type dateInput struct {
	Account string `json:"account,omitempty" description:"account key, defaults to 'default'"`
	Date    string `json:"date" description:"date in yyyy-MM-dd format, or 'today'"`
}

type heartRateInput struct {
	Account string `json:"account,omitempty" description:"account key, defaults to 'default'"`
	Date    string `json:"date" description:"date in yyyy-MM-dd format, or 'today'"`
	Period  string `json:"period,omitempty" description:"1d, 7d, 30d, 1w or 1m"`
}

func (s *Server) registerTools() error {
	if err := registerTool[authorizeInput](s, "fitbit_authorize", "Start Fitbit account authorization, returns a URL to open in a browser", s.authorizeTool); err != nil {
		return err
	}
	if err := registerTool[accountInput](s, "fitbit_profile", "Fetch the Fitbit user profile", func(ctx context.Context, input *accountInput) (*schema.CallToolResult, *jsonrpc.Error) {
		return asToolResult(s.fitbit.Profile(ctx, accountKey(input.Account)))
	}); err != nil {
		return err
	}
	if err := registerTool[dateInput](s, "fitbit_activity_summary", "Fetch the daily activity summary for a date", func(ctx context.Context, input *dateInput) (*schema.CallToolResult, *jsonrpc.Error) {
		return asToolResult(s.fitbit.ActivitySummary(ctx, accountKey(input.Account), input.Date))
	}); err != nil {
		return err
	}
	if err := registerTool[dateInput](s, "fitbit_sleep_log", "Fetch sleep logs for a date", func(ctx context.Context, input *dateInput) (*schema.CallToolResult, *jsonrpc.Error) {
		return asToolResult(s.fitbit.SleepLog(ctx, accountKey(input.Account), input.Date))
	}); err != nil {
		return err
	}
	return registerTool[heartRateInput](s, "fitbit_heart_rate", "Fetch the heart rate time series for a date", func(ctx context.Context, input *heartRateInput) (*schema.CallToolResult, *jsonrpc.Error) {
		period := input.Period
		if period == "" {
			period = "1d"
		}
		return asToolResult(s.fitbit.HeartRate(ctx, accountKey(input.Account), input.Date, period))
	})
}

func (s *Server) authorizeTool(_ context.Context, input *authorizeInput) (*schema.CallToolResult, *jsonrpc.Error) {
	authURL, _, err := s.auth.StartAuthorization(accountKey(input.Account), input.Scopes, input.SuccessRedirect)
	if err != nil {
		return errorToolResult(err), nil
	}
	return textToolResult(fmt.Sprintf("Open the following URL in a browser to authorize the account: %v", authURL)), nil
}

func accountKey(account string) string {
	if account == "" {
		return store.DefaultAccountKey
	}
	return account
}

// asToolResult renders an API payload as a JSON text element. Errors become
// tool errors rather than protocol errors so the model can react to them.
func asToolResult(payload interface{}, err error) (*schema.CallToolResult, *jsonrpc.Error) {
	if err != nil {
		return errorToolResult(err), nil
	}
	data, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		return nil, jsonrpc.NewInternalError(fmt.Sprintf("failed to marshal result: %v", marshalErr), nil)
	}
	return textToolResult(string(data)), nil
}

func errorToolResult(err error) *schema.CallToolResult {
	message := err.Error()
	if auth.IsKind(err, auth.KindNotAuthorized) {
		message = fmt.Sprintf("%v; run the fitbit_authorize tool first", message)
	}
	isError := true
	result := textToolResult(message)
	result.IsError = &isError
	return result
}

func textToolResult(text string) *schema.CallToolResult {
	return &schema.CallToolResult{
		Content: []schema.CallToolResultContentElem{
			schema.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}
