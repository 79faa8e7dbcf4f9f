package searcher

import (
	"strings"

	"github.com/dshills/gomemory-mcp/pkg/types"
)

// Filter decides whether an item is a search candidate
type Filter interface {
	Accept(item *types.KnowledgeItem) bool
}

// ScopeFilter accepts items by scope. ProjectPath only narrows a project
// filter and must match the item's path exactly.
type ScopeFilter struct {
	Scope       types.ScopeFilter
	ProjectPath string
}

// Accept implements Filter
func (f ScopeFilter) Accept(item *types.KnowledgeItem) bool {
	switch f.Scope {
	case types.ScopeFilterAll, "":
		return true
	case types.ScopeFilterGlobal:
		return item.Scope == types.ScopeGlobal
	case types.ScopeFilterProject:
		if item.Scope != types.ScopeProject {
			return false
		}
		return f.ProjectPath == "" || item.ProjectPath == f.ProjectPath
	default:
		return false
	}
}

// TagFilter accepts items carrying at least one of Tags, ignoring case.
// An empty tag list accepts everything.
type TagFilter struct {
	Tags []string
}

// Accept implements Filter
func (f TagFilter) Accept(item *types.KnowledgeItem) bool {
	if len(f.Tags) == 0 {
		return true
	}
	return item.HasAnyTag(f.Tags)
}

// Chain accepts an item only when every filter accepts it
type Chain []Filter

// Accept implements Filter
func (c Chain) Accept(item *types.KnowledgeItem) bool {
	for _, f := range c {
		if !f.Accept(item) {
			return false
		}
	}
	return true
}

// NewChain builds the scope-then-tags filter chain for a request
func NewChain(scope types.ScopeFilter, projectPath string, tags []string) Chain {
	return Chain{
		ScopeFilter{Scope: scope, ProjectPath: projectPath},
		TagFilter{Tags: cleanTags(tags)},
	}
}

// cleanTags drops blank tags so "" never matches an untagged item
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return out
}
