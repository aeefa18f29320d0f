// Package mcpserver exposes the read-only tools over the Model Context
// Protocol so desktop assistants can search and read the same files the
// chat agent does. All calls act as one fixed user.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/soyeahso/drivedesk/internal/logging"
	"github.com/soyeahso/drivedesk/internal/tools"
	"github.com/soyeahso/drivedesk/internal/version"
)

// Generic names advertised over MCP. respond is left out: an MCP client
// answers its user itself.
var mcpNames = map[tools.Name]string{
	tools.SearchDrive:    "search",
	tools.ReadSheet:      "read_tabular",
	tools.ReadDoc:        "read_document",
	tools.SummarizeSpend: "summarize_spend",
	tools.SearchBoards:   "search_boards",
	tools.GetBoardItems:  "get_board_items",
}

// Dispatcher is the subset of tools.Dispatcher the server needs.
type Dispatcher interface {
	Definitions() []tools.Definition
	Dispatch(ctx context.Context, userID string, call tools.Call) (tools.Result, error)
}

// Server wraps an MCP server bound to a dispatcher and a user id.
type Server struct {
	dispatcher Dispatcher
	userID     string
	mcp        *server.MCPServer
	log        *logging.Logger
}

// New registers one MCP tool per dispatcher definition.
func New(d Dispatcher, userID string, log *logging.Logger) *Server {
	s := &Server{dispatcher: d, userID: userID, log: log.Sub("mcp")}
	s.mcp = server.NewMCPServer(
		"drivedesk",
		version.Version,
		server.WithToolCapabilities(false),
		server.WithInstructions("Search and read the user's Google Drive files and monday.com boards. Run search first; read tools take a 1-based index into its results."),
		server.WithRecovery(),
	)
	s.mcp.AddTools(s.serverTools()...)
	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.log.Info().Str("user", s.userID).Msg("serving MCP on stdio")
	return server.ServeStdio(s.mcp)
}

func (s *Server) serverTools() []server.ServerTool {
	var out []server.ServerTool
	for _, def := range s.dispatcher.Definitions() {
		name, ok := mcpNames[def.Name]
		if !ok {
			continue
		}
		out = append(out, server.ServerTool{Tool: toolFor(name, def), Handler: s.handle(def.Name)})
	}
	return out
}

func toolFor(name string, def tools.Definition) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(def.Description)}
	for _, p := range def.Params {
		switch p.Type {
		case tools.TypeInteger:
			opts = append(opts, mcp.WithNumber(p.Name, mcp.Description(p.Description), mcp.Required()))
		default:
			opts = append(opts, mcp.WithString(p.Name, mcp.Description(p.Description), mcp.Required()))
		}
	}
	return mcp.NewTool(name, opts...)
}

func (s *Server) handle(name tools.Name) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		if args == nil {
			args = map[string]any{}
		}
		raw, err := json.Marshal(args)
		if err != nil {
			return mcpError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		res, err := s.dispatcher.Dispatch(ctx, s.userID, tools.Call{Name: string(name), Arguments: raw})
		if err != nil {
			s.log.Error().Err(err).Str("tool", string(name)).Msg("tool call failed")
			return mcpError(fmt.Sprintf("%s failed: %v", mcpNames[name], err)), nil
		}
		if !res.OK() {
			return mcpError(res.JSON()), nil
		}
		return mcpText(res.JSON()), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
