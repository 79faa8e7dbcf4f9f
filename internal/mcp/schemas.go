package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// saveKnowledgeTool returns the tool definition for save_knowledge
func saveKnowledgeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "save_knowledge",
		Description: "Save a piece of knowledge (a convention, decision, fix, or fact) so it can be found by later searches",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Short descriptive title",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Full knowledge text",
				},
				"tags": map[string]interface{}{
					"type":        "array",
					"description": "Labels used for filtering (matched case-insensitively)",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"scope": map[string]interface{}{
					"type":        "string",
					"description": "global: visible everywhere; project: tied to project_path",
					"enum":        []string{"global", "project"},
					"default":     "global",
				},
				"project_path": map[string]interface{}{
					"type":        "string",
					"description": "Project the knowledge belongs to (required when scope is project)",
				},
			},
			Required: []string{"title", "content"},
		},
	}
}

// searchKnowledgeTool returns the tool definition for search_knowledge
func searchKnowledgeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_knowledge",
		Description: "Search saved knowledge by keywords, ranked by matches in title, tags, and content",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Keywords to search for",
				},
				"tags": map[string]interface{}{
					"type":        "array",
					"description": "Only return items carrying at least one of these tags",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"scope": map[string]interface{}{
					"type":        "string",
					"description": "Restrict results by scope",
					"enum":        []string{"all", "global", "project"},
					"default":     "all",
				},
				"project_path": map[string]interface{}{
					"type":        "string",
					"description": "With scope project, only return items saved for this exact path",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return",
					"default":     10,
					"minimum":     0,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getKnowledgeTool returns the tool definition for get_knowledge
func getKnowledgeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_knowledge",
		Description: "Fetch the full text of a saved knowledge item by id",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Item id as returned by save_knowledge or search_knowledge",
				},
			},
			Required: []string{"id"},
		},
	}
}

// knowledgeStatusTool returns the tool definition for knowledge_status
func knowledgeStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "knowledge_status",
		Description: "Report store location, item counts, and whether the index matches the stored items",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// rebuildIndexTool returns the tool definition for rebuild_index
func rebuildIndexTool() mcp.Tool {
	return mcp.Tool{
		Name:        "rebuild_index",
		Description: "Regenerate the search index from the stored items, repairing missing or stale entries",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
