// Package mcp implements the Model Context Protocol (MCP) server for gomemory.
//
// The MCP server exposes five tools to AI coding assistants:
//   - save_knowledge: Persist a titled, tagged piece of knowledge
//   - search_knowledge: Keyword search over saved knowledge
//   - get_knowledge: Fetch one item's full content by id
//   - knowledge_status: Store statistics and index health
//   - rebuild_index: Regenerate the index from stored items
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Stdout carries protocol messages only. All logging goes to stderr.
//
// # Basic Usage
//
// The MCP server is typically started via the serve command:
//
//	gomemory serve
//
// # Tool: save_knowledge
//
//	Request:
//	{
//	  "name": "save_knowledge",
//	  "arguments": {
//	    "title": "Naming Conventions",
//	    "content": "Use camelCase for variables",
//	    "tags": ["style"],
//	    "scope": "project",
//	    "project_path": "/src/app"
//	  }
//	}
//
//	Response:
//	{
//	  "id": "2f0c9a4e-...",
//	  "title": "Naming Conventions",
//	  "scope": "project",
//	  "project_path": "/src/app",
//	  "tags": ["style"],
//	  "message": "Saved knowledge \"Naming Conventions\""
//	}
//
// scope defaults to global. A project scope without project_path is
// rejected with an invalid params error and nothing is written.
//
// # Tool: search_knowledge
//
//	Request:
//	{
//	  "name": "search_knowledge",
//	  "arguments": {
//	    "query": "naming",
//	    "tags": ["style", "go"],
//	    "scope": "all",
//	    "limit": 5
//	  }
//	}
//
//	Response:
//	{
//	  "query": "naming",
//	  "total": 1,
//	  "results": [
//	    {
//	      "rank": 1,
//	      "id": "2f0c9a4e-...",
//	      "title": "Naming Conventions",
//	      "scope": "project",
//	      "project_path": "/src/app",
//	      "tags": ["style"],
//	      "created_at": "2026-03-01T12:00:00Z",
//	      "score": 10,
//	      "preview": "Use camelCase for variables"
//	    }
//	  ]
//	}
//
// An empty result set carries "message": "No results found". A query with no
// searchable words returns no results rather than an error.
//
// # Error Handling
//
// Tool failures are returned as error tool results (isError: true) whose
// text is a JSON object carrying the code, message and data:
//
//	{"error": {"code": -32602, "message": "invalid title parameter",
//	           "data": {"param": "title", "reason": "missing or not a string"}}}
//
// Codes:
//
//	-32602  Invalid params (missing title, bad scope, negative limit, ...)
//	-32603  Internal error (storage failure)
//	-32001  Item not found (get_knowledge)
//	-32002  Rebuild already in progress (rebuild_index)
//
// Read-side problems such as a corrupt index or an unreadable item never
// surface as errors: they are logged and treated as absent.
package mcp
