package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/gomemory-mcp/internal/indexer"
	"github.com/dshills/gomemory-mcp/internal/searcher"
	"github.com/dshills/gomemory-mcp/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "gomemory-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Options configures the components the server builds around a repository
type Options struct {
	Logger       *zap.Logger
	DefaultLimit int // Search results when limit is omitted
	Workers      int // Concurrent record loads for search and rebuild
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	repo     storage.Repository
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
	log      *zap.Logger
}

// NewServer creates a new MCP server instance around repo. The server owns
// repo and closes it when Serve returns.
func NewServer(repo storage.Repository, opts Options) (*Server, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	idx := indexer.New(repo, opts.Logger, &indexer.Config{Workers: opts.Workers})
	srch := searcher.New(repo, searcher.Options{
		Logger:       opts.Logger,
		DefaultLimit: opts.DefaultLimit,
		Workers:      opts.Workers,
	})

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		mcp:      mcpServer,
		repo:     repo,
		indexer:  idx,
		searcher: srch,
		log:      opts.Logger.Named("mcp"),
	}

	// Register tools
	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve runs the MCP server on stdio until ctx is cancelled or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.repo.Close() }()

	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.log))

	s.log.Info("serving MCP on stdio", zap.String("name", ServerName), zap.String("version", ServerVersion))
	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(saveKnowledgeTool(), toolHandler(s.handleSaveKnowledge))
	s.mcp.AddTool(searchKnowledgeTool(), toolHandler(s.handleSearchKnowledge))
	s.mcp.AddTool(getKnowledgeTool(), toolHandler(s.handleGetKnowledge))
	s.mcp.AddTool(knowledgeStatusTool(), toolHandler(s.handleKnowledgeStatus))
	s.mcp.AddTool(rebuildIndexTool(), toolHandler(s.handleRebuildIndex))

	return nil
}

// toolHandler reports *MCPError failures as error tool results so the
// client sees the code and data. mcp-go turns any other handler error
// into a JSON-RPC internal error.
func toolHandler(h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := h(ctx, request)
		var mcpErr *MCPError
		if errors.As(err, &mcpErr) {
			return mcpErr.ToolResult(), nil
		}
		return result, err
	}
}
