// Package types provides shared type definitions for the gomemory MCP server.
//
// # Core Types
//
// KnowledgeItem is the full record of one saved piece of knowledge:
//
//	item := &types.KnowledgeItem{
//	    ID:      "3f1c...",
//	    Title:   "Naming Conventions",
//	    Content: "Use camelCase for variables",
//	    Tags:    []string{"style"},
//	    Scope:   types.ScopeGlobal,
//	}
//
// IndexEntry is the projection kept in the shared index. Its Content holds only
// the first IndexContentLimit characters, so scoring always loads the full record.
//
// # Scopes
//
// Global items are visible everywhere. Project items carry a ProjectPath and are
// matched against a caller's path by exact string equality.
//
// # Schema Versions
//
// Every persisted document carries a semver SchemaVersion. Documents without one
// decode as the current version; documents from a newer major version are treated
// as unreadable.
package types
