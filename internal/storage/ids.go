package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/gomemory-mcp/pkg/types"
)

// NewID returns a fresh random item id
func NewID() string {
	return uuid.NewString()
}

// ContentHash computes a SHA-256 digest of an item's normalized title and content
func ContentHash(title, content string) string {
	h := sha256.New()
	h.Write([]byte(normalizeText(title)))
	h.Write([]byte{0})
	h.Write([]byte(normalizeText(content)))
	return hex.EncodeToString(h.Sum(nil))
}

// normalizeText folds line endings and trims surrounding whitespace
func normalizeText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}

// EntryFor projects a full record into its index entry
func EntryFor(item *types.KnowledgeItem) types.IndexEntry {
	return types.IndexEntry{
		ID:          item.ID,
		Title:       item.Title,
		Content:     types.Truncate(item.Content, types.IndexContentLimit),
		Tags:        append([]string{}, item.Tags...),
		Scope:       item.Scope,
		ProjectPath: item.ProjectPath,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

// newRecord builds the full record for a validated item
func newRecord(n types.NewItem, now time.Time) *types.KnowledgeItem {
	now = now.UTC()
	return &types.KnowledgeItem{
		SchemaVersion: types.SchemaVersion,
		ID:            NewID(),
		Title:         n.Title,
		Content:       n.Content,
		Tags:          append([]string{}, n.Tags...),
		Scope:         n.Scope,
		ProjectPath:   n.ProjectPath,
		ContentHash:   ContentHash(n.Title, n.Content),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// validID rejects ids that could escape the records directory
func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}
