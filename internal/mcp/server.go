package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"insightboard/internal/services"
)

type Server struct {
	mcpServer *server.MCPServer
	engine    *services.LifecycleService
}

func NewServer(engine *services.LifecycleService) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Insightboard Lifecycle",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		engine: engine,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_visuals",
			mcp.WithDescription("List the visuals in a lifecycle collection"),
			mcp.WithString("collection", mcp.Required(), mcp.Description("One of: generated, experimental, approved")),
		),
		s.handleList,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"promote_visual",
			mcp.WithDescription("Promote a visual into the experimental pool"),
			mcp.WithString("id", mcp.Required(), mcp.Description("The id of the visual")),
			mcp.WithString("question", mcp.Description("Optional question to attach")),
		),
		s.handlePromote,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"approve_visual",
			mcp.WithDescription("Approve a visual with its question"),
			mcp.WithString("id", mcp.Required(), mcp.Description("The id of the visual")),
			mcp.WithString("question", mcp.Required(), mcp.Description("The question the visual answers")),
		),
		s.handleApprove,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"unapprove_visual",
			mcp.WithDescription("Withdraw a visual from the approved collection"),
			mcp.WithString("id", mcp.Required(), mcp.Description("The id of the visual")),
		),
		s.handleUnapprove,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"ignore_visual",
			mcp.WithDescription("Drop a visual from the experimental or generated pool"),
			mcp.WithString("id", mcp.Required(), mcp.Description("The id of the visual")),
		),
		s.handleIgnore,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"validate_question",
			mcp.WithDescription("Validate a candidate question against the upstream data APIs"),
			mcp.WithString("id", mcp.Required(), mcp.Description("The id of the generated visual")),
			mcp.WithString("question", mcp.Required(), mcp.Description("The candidate question")),
		),
		s.handleValidate,
	)
}

func stringArg(request mcp.CallToolRequest, key string) (string, bool) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return "", false
	}
	value, ok := args[key].(string)
	return value, ok
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, ok := stringArg(request, "collection")
	if !ok || collection == "" {
		return mcp.NewToolResultError("Missing required parameter: collection"), nil
	}

	var records interface{}
	var err error
	switch collection {
	case "generated":
		records, err = s.engine.ListGenerated(ctx)
	case "experimental":
		records, err = s.engine.ListExperimental(ctx)
	case "approved":
		records, err = s.engine.ListApproved(ctx)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("Unknown collection %q", collection)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list %s: %v", collection, err)), nil
	}

	jsonBytes, _ := json.Marshal(records)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handlePromote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := stringArg(request, "id")
	if !ok || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}
	question, _ := stringArg(request, "question")

	records, err := s.engine.PromoteToExperimental(ctx, id, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to promote: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(records)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleApprove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := stringArg(request, "id")
	if !ok || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}
	question, ok := stringArg(request, "question")
	if !ok {
		return mcp.NewToolResultError("Missing required parameter: question"), nil
	}

	records, err := s.engine.Approve(ctx, id, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to approve: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(records)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleUnapprove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := stringArg(request, "id")
	if !ok || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}

	records, err := s.engine.Unapprove(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to unapprove: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(records)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleIgnore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := stringArg(request, "id")
	if !ok || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}

	collection, records, err := s.engine.Ignore(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to ignore: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(map[string]interface{}{"collection": collection, "records": records})
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := stringArg(request, "id")
	if !ok || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}
	question, ok := stringArg(request, "question")
	if !ok || question == "" {
		return mcp.NewToolResultError("Missing required parameter: question"), nil
	}

	result, err := s.engine.Validate(ctx, id, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to validate: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// Use SSE server for /mcp/sse and /mcp/message endpoints
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		// Direct POST for tool calls
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// SSE endpoints
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
