package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/faqbot/faq-assistant/internal/core/domain"
	"github.com/faqbot/faq-assistant/internal/core/ports"
)

const (
	serverName    = "faq-assistant"
	toolAskFAQ    = "ask_faq"
	toolReindex   = "reindex_faq"
	defaultSource = "seed"
)

// Server exposes the chat and reindex operations as MCP tools.
type Server struct {
	chat      ports.ChatService
	reindexer ports.Reindexer
	logger    *slog.Logger
	mcp       *server.MCPServer
}

func NewServer(chat ports.ChatService, reindexer ports.Reindexer, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		chat:      chat,
		reindexer: reindexer,
		logger:    logger.With("component", "mcp"),
		mcp:       server.NewMCPServer(serverName, version, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(mcp.NewTool(toolAskFAQ,
		mcp.WithDescription("Answer a question from the FAQ collection visible to a role."),
		mcp.WithString("message", mcp.Required(), mcp.Description("User question")),
		mcp.WithString("role", mcp.Description("Role used to scope the FAQ segments")),
		mcp.WithString("lang", mcp.Description("Answer language, e.g. es")),
	), s.handleAsk)

	if reindexer != nil {
		s.mcp.AddTool(mcp.NewTool(toolReindex,
			mcp.WithDescription("Rebuild the FAQ vector index from the seed file or the database."),
			mcp.WithString("source", mcp.Description("seed or db"), mcp.Enum("seed", "db")),
			mcp.WithBoolean("full", mcp.Description("Ignore since and reindex everything")),
			mcp.WithString("since", mcp.Description("Only records updated at or after this timestamp")),
			mcp.WithNumber("batch_size", mcp.Description("Records per batch")),
		), s.handleReindex)
	}
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves the tools over stdin/stdout until ctx is done.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcp)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.chat.Answer(ctx, domain.ChatRequest{
		Message: message,
		Role:    request.GetString("role", ""),
		Lang:    request.GetString("lang", ""),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "mcp_tool_failed", "tool", toolAskFAQ, "error", err)
		return mcp.NewToolResultError(toolErrorMessage(err)), nil
	}
	return jsonResult(result)
}

func (s *Server) handleReindex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := domain.ParseReindexSource(request.GetString("source", defaultSource))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	since, err := domain.ParseSince(request.GetString("since", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	batchSize := request.GetInt("batch_size", 0)
	if batchSize <= 0 {
		batchSize = 1000
	}

	result, err := s.reindexer.Run(ctx, domain.ReindexRequest{
		Source:    source,
		Full:      request.GetBool("full", true),
		Since:     since,
		BatchSize: batchSize,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "mcp_tool_failed", "tool", toolReindex, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("reindex failed: %v", err)), nil
	}
	return jsonResult(result)
}

func toolErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoleNotMapped):
		return "ROLE_NOT_MAPPED: the role has no FAQ segments"
	case errors.Is(err, domain.ErrNoResultsForScope):
		return "NO_RESULTS_FOR_ROLE: no results for your role or query"
	default:
		return err.Error()
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
