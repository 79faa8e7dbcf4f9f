package types

import (
	"strings"
	"time"
)

// Scope classifies the visibility of a knowledge item
type Scope string

const (
	ScopeGlobal  Scope = "global"  // Visible from every project
	ScopeProject Scope = "project" // Visible only within its project path
)

// ScopeFilter selects which scopes a search considers
type ScopeFilter string

const (
	ScopeFilterAll     ScopeFilter = "all"
	ScopeFilterGlobal  ScopeFilter = "global"
	ScopeFilterProject ScopeFilter = "project"
)

const (
	// IndexContentLimit is the number of characters of content kept in an index entry
	IndexContentLimit = 200
	// PreviewLimit is the number of characters of content shown in a search result
	PreviewLimit = 300
	// PreviewEllipsis marks a truncated preview
	PreviewEllipsis = "..."
)

// ParseScope converts a caller-supplied scope, defaulting to global when empty
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "":
		return ScopeGlobal, nil
	case ScopeGlobal, ScopeProject:
		return Scope(s), nil
	default:
		return "", ErrInvalidScope
	}
}

// ParseScopeFilter converts a caller-supplied scope filter, defaulting to all when empty
func ParseScopeFilter(s string) (ScopeFilter, error) {
	switch ScopeFilter(s) {
	case "":
		return ScopeFilterAll, nil
	case ScopeFilterAll, ScopeFilterGlobal, ScopeFilterProject:
		return ScopeFilter(s), nil
	default:
		return "", ErrInvalidScope
	}
}

// KnowledgeItem is the full persisted record of one saved piece of knowledge.
// Items are immutable once saved, so CreatedAt always equals UpdatedAt.
type KnowledgeItem struct {
	SchemaVersion string    `json:"schema_version,omitempty"`
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Tags          []string  `json:"tags"`
	Scope         Scope     `json:"scope"`
	ProjectPath   string    `json:"project_path,omitempty"`
	ContentHash   string    `json:"content_hash,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IndexEntry is the lightweight projection of a KnowledgeItem kept in the index.
// Content holds at most IndexContentLimit characters of the full content.
type IndexEntry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Tags        []string  `json:"tags"`
	Scope       Scope     `json:"scope"`
	ProjectPath string    `json:"project_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Index maps item ids to their entries
type Index struct {
	SchemaVersion string                `json:"schema_version,omitempty"`
	Entries       map[string]IndexEntry `json:"entries"`
	LastUpdated   time.Time             `json:"last_updated"`
}

// NewIndex returns an empty index at the current schema version
func NewIndex() *Index {
	return &Index{
		SchemaVersion: SchemaVersion,
		Entries:       make(map[string]IndexEntry),
	}
}

// NewItem holds the caller-supplied fields of an item about to be saved
type NewItem struct {
	Title       string
	Content     string
	Tags        []string
	Scope       Scope
	ProjectPath string
}

// Validate checks required fields and applies defaults in place.
// ProjectPath is cleared for global items.
func (n *NewItem) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return &ValidationError{Field: "title", Err: ErrTitleRequired}
	}
	if n.Content == "" {
		return &ValidationError{Field: "content", Err: ErrContentRequired}
	}

	scope, err := ParseScope(string(n.Scope))
	if err != nil {
		return &ValidationError{Field: "scope", Err: err}
	}
	n.Scope = scope

	switch n.Scope {
	case ScopeProject:
		if n.ProjectPath == "" {
			return &ValidationError{Field: "project_path", Err: ErrProjectPathRequired}
		}
	case ScopeGlobal:
		n.ProjectPath = ""
	}

	if n.Tags == nil {
		n.Tags = []string{}
	}
	return nil
}

// ApplyDefaults fills fields that older or hand-edited records may omit
func (k *KnowledgeItem) ApplyDefaults() {
	if k.SchemaVersion == "" {
		k.SchemaVersion = SchemaVersion
	}
	if k.Tags == nil {
		k.Tags = []string{}
	}
	if k.Scope == "" {
		k.Scope = ScopeGlobal
	}
	if k.UpdatedAt.IsZero() {
		k.UpdatedAt = k.CreatedAt
	}
}

// Validate checks a decoded record for structural consistency
func (k *KnowledgeItem) Validate() error {
	if k.ID == "" {
		return ErrMissingID
	}
	if _, err := ParseScope(string(k.Scope)); err != nil {
		return err
	}
	if k.Scope == ScopeProject && k.ProjectPath == "" {
		return ErrProjectPathRequired
	}
	if !CompatibleSchema(k.SchemaVersion) {
		return ErrIncompatibleSchema
	}
	return nil
}

// HasAnyTag reports whether the item carries at least one of the given tags,
// compared case-insensitively
func (k *KnowledgeItem) HasAnyTag(tags []string) bool {
	for _, own := range k.Tags {
		for _, want := range tags {
			if strings.EqualFold(own, want) {
				return true
			}
		}
	}
	return false
}

// ApplyDefaults fills fields that older or hand-edited entries may omit
func (e *IndexEntry) ApplyDefaults() {
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if e.Scope == "" {
		e.Scope = ScopeGlobal
	}
}

// Truncate returns at most n characters of s. Characters are runes, so a
// multi-byte character is never split.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Preview caps content at PreviewLimit characters, appending PreviewEllipsis when cut
func Preview(content string) string {
	short := Truncate(content, PreviewLimit)
	if len(short) < len(content) {
		return short + PreviewEllipsis
	}
	return content
}
