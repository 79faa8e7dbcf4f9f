package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dshills/gomemory-mcp/internal/indexer"
	"github.com/dshills/gomemory-mcp/internal/searcher"
	"github.com/dshills/gomemory-mcp/internal/storage"
	"github.com/dshills/gomemory-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams     = -32602 // Invalid method parameters
	ErrorCodeInternalError     = -32603 // Internal JSON-RPC error
	ErrorCodeNotFound          = -32001 // No item with the requested id
	ErrorCodeRebuildInProgress = -32002 // Another rebuild is already running
)

// maxReportedErrors caps per-record messages in rebuild responses
const maxReportedErrors = 5

// handleSaveKnowledge handles the save_knowledge tool invocation
func (s *Server) handleSaveKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	title, err := requireString(args, "title")
	if err != nil {
		return nil, err
	}
	content, err := requireString(args, "content")
	if err != nil {
		return nil, err
	}
	tags, err := getStringSlice(args, "tags")
	if err != nil {
		return nil, err
	}

	item, err := s.repo.Save(ctx, types.NewItem{
		Title:       title,
		Content:     content,
		Tags:        tags,
		Scope:       types.Scope(getStringDefault(args, "scope", "")),
		ProjectPath: getStringDefault(args, "project_path", ""),
	})
	if err != nil {
		var ve *types.ValidationError
		if errors.As(err, &ve) {
			return nil, invalidParam(ve.Field, ve.Err.Error())
		}
		s.log.Error("save failed", zap.Error(err))
		return nil, newMCPError(ErrorCodeInternalError, "failed to save knowledge", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"id":      item.ID,
		"title":   item.Title,
		"scope":   item.Scope,
		"tags":    item.Tags,
		"message": fmt.Sprintf("Saved knowledge %q", item.Title),
	}
	if item.ProjectPath != "" {
		response["project_path"] = item.ProjectPath
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchKnowledge handles the search_knowledge tool invocation
func (s *Server) handleSearchKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok {
		return nil, invalidParam("query", "missing or not a string")
	}

	tags, err := getStringSlice(args, "tags")
	if err != nil {
		return nil, err
	}

	scope, err := types.ParseScopeFilter(getStringDefault(args, "scope", ""))
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid scope", map[string]interface{}{
			"param":   "scope",
			"value":   args["scope"],
			"allowed": []string{"all", "global", "project"},
		})
	}

	limit, err := getOptionalInt(args, "limit")
	if err != nil {
		return nil, err
	}
	if limit != nil && *limit < 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must not be negative", map[string]interface{}{
			"param": "limit",
			"value": *limit,
		})
	}

	resp, err := s.searcher.Search(ctx, searcher.Request{
		Query:       query,
		Tags:        tags,
		Scope:       scope,
		ProjectPath: getStringDefault(args, "project_path", ""),
		Limit:       limit,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		entry := map[string]interface{}{
			"rank":       r.Rank,
			"id":         r.Item.ID,
			"title":      r.Item.Title,
			"scope":      r.Item.Scope,
			"tags":       r.Item.Tags,
			"created_at": r.Item.CreatedAt.Format(time.RFC3339),
			"score":      r.Score,
			"preview":    r.Preview,
		}
		if r.Item.ProjectPath != "" {
			entry["project_path"] = r.Item.ProjectPath
		}
		results = append(results, entry)
	}

	response := map[string]interface{}{
		"query":   query,
		"total":   len(results),
		"results": results,
	}
	if len(results) == 0 {
		response["message"] = "No results found"
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetKnowledge handles the get_knowledge tool invocation
func (s *Server) handleGetKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id, err := requireString(args, "id")
	if err != nil {
		return nil, err
	}

	item, err := s.repo.LoadFull(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotFound, "knowledge item not found", map[string]interface{}{
			"id": id,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load knowledge", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"id":         item.ID,
		"title":      item.Title,
		"content":    item.Content,
		"tags":       item.Tags,
		"scope":      item.Scope,
		"created_at": item.CreatedAt.Format(time.RFC3339),
		"updated_at": item.UpdatedAt.Format(time.RFC3339),
	}
	if item.ProjectPath != "" {
		response["project_path"] = item.ProjectPath
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleKnowledgeStatus handles the knowledge_status tool invocation
func (s *Server) handleKnowledgeStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	report, err := s.indexer.Verify(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to verify index", map[string]interface{}{
			"error": err.Error(),
		})
	}

	lastUpdated := ""
	if !stats.LastUpdated.IsZero() {
		lastUpdated = stats.LastUpdated.Format(time.RFC3339)
	}

	response := map[string]interface{}{
		"store": map[string]interface{}{
			"backend":  stats.Backend,
			"location": stats.Location,
		},
		"statistics": map[string]interface{}{
			"indexed_count": stats.IndexedCount,
			"record_count":  stats.RecordCount,
			"last_updated":  lastUpdated,
		},
		"health": map[string]interface{}{
			"healthy":       report.Healthy(),
			"orphaned":      report.Orphaned,
			"dangling":      report.Dangling,
			"unreadable":    report.Unreadable,
			"hash_mismatch": report.HashMismatch,
		},
		"rebuild_in_progress": s.indexer.Rebuilding(),
	}
	if !report.Healthy() {
		response["message"] = "Index does not match stored items. Use rebuild_index to repair it."
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRebuildIndex handles the rebuild_index tool invocation
func (s *Server) handleRebuildIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.indexer.Rebuild(ctx)
	if errors.Is(err, indexer.ErrRebuildInProgress) {
		return nil, newMCPError(ErrorCodeRebuildInProgress, "index rebuild already in progress", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "rebuild failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"rebuilt":          true,
		"records_indexed":  stats.RecordsIndexed,
		"records_skipped":  stats.RecordsSkipped,
		"previous_entries": stats.PreviousEntries,
		"duration_ms":      stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		// Include first few errors
		errorCount := len(stats.ErrorMessages)
		if errorCount > maxReportedErrors {
			response["errors"] = stats.ErrorMessages[:maxReportedErrors]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// invalidParam reports a missing or malformed parameter
func invalidParam(param, reason string) error {
	return newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("invalid %s parameter", param), map[string]interface{}{
		"param":  param,
		"reason": reason,
	})
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// ToolResult renders the error as an error tool result whose text is
// {"error": {"code", "message", "data"}}
func (e *MCPError) ToolResult() *mcp.CallToolResult {
	body := map[string]interface{}{
		"code":    e.Code,
		"message": e.Message,
	}
	if e.Data != nil {
		body["data"] = e.Data
	}
	return mcp.NewToolResultError(formatJSON(map[string]interface{}{"error": body}))
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// requireString extracts a string parameter that must be present
func requireString(args map[string]interface{}, key string) (string, error) {
	val, ok := args[key].(string)
	if !ok {
		return "", invalidParam(key, "missing or not a string")
	}
	return val, nil
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getOptionalInt extracts an integer parameter, returning nil when absent.
// JSON numbers arrive as float64 and must be whole.
func getOptionalInt(args map[string]interface{}, key string) (*int, error) {
	raw, present := args[key]
	if !present || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, invalidParam(key, "must be an integer")
		}
		if v >= math.MaxInt || v < math.MinInt {
			return nil, invalidParam(key, "out of range")
		}
		n := int(v)
		return &n, nil
	case int:
		return &v, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil, invalidParam(key, "must be an integer")
		}
		i := int(n)
		return &i, nil
	default:
		return nil, invalidParam(key, "must be an integer")
	}
}

// getStringSlice extracts an optional array-of-strings parameter
func getStringSlice(args map[string]interface{}, key string) ([]string, error) {
	raw, present := args[key]
	if !present || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			str, ok := elem.(string)
			if !ok {
				return nil, invalidParam(key, "must be an array of strings")
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, invalidParam(key, "must be an array of strings")
	}
}
