package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gomemory-mcp/pkg/types"
)

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestContentHash(t *testing.T) {
	base := ContentHash("Title", "line one\nline two")

	assert.Len(t, base, 64)
	assert.Equal(t, base, ContentHash("  Title ", "line one\r\nline two\n"))
	assert.NotEqual(t, base, ContentHash("Title", "line one"))
	// The separator keeps title and content boundaries distinct
	assert.NotEqual(t, ContentHash("ab", "c"), ContentHash("a", "bc"))
}

func TestEntryFor(t *testing.T) {
	item := &types.KnowledgeItem{
		ID:      "id-1",
		Title:   "t",
		Content: strings.Repeat("z", 260),
		Tags:    []string{"x"},
		Scope:   types.ScopeGlobal,
	}

	entry := EntryFor(item)
	assert.Equal(t, "id-1", entry.ID)
	assert.Len(t, entry.Content, types.IndexContentLimit)

	entry.Tags[0] = "changed"
	assert.Equal(t, "x", item.Tags[0])
}

func TestNewRecord(t *testing.T) {
	local := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("EST", -5*3600))
	n := types.NewItem{Title: "t", Content: "c", Tags: []string{}, Scope: types.ScopeGlobal}

	rec := newRecord(n, local)
	assert.Equal(t, time.UTC, rec.CreatedAt.Location())
	assert.True(t, rec.CreatedAt.Equal(local))
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)
	assert.Equal(t, types.SchemaVersion, rec.SchemaVersion)
	assert.NotEmpty(t, rec.ID)
}

func TestValidID(t *testing.T) {
	assert.True(t, validID(NewID()))
	assert.True(t, validID("custom-id_1"))

	for _, id := range []string{"", ".", "..", "a/b", `a\b`, "../x"} {
		assert.False(t, validID(id), "id %q", id)
	}
}

func TestLockFor(t *testing.T) {
	dir := t.TempDir()

	assert.Same(t, LockFor(dir), LockFor(dir+"/"))
	assert.Same(t, LockFor(dir), LockFor(dir+"/sub/.."))
	assert.NotSame(t, LockFor(dir), LockFor(t.TempDir()))
}

func TestRecordCache(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		c, err := newRecordCache(0)
		require.NoError(t, err)
		assert.Nil(t, c)

		c.Add(&types.KnowledgeItem{ID: "a"})
		_, ok := c.Get("a")
		assert.False(t, ok)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		c, err := newRecordCache(2)
		require.NoError(t, err)

		c.Add(&types.KnowledgeItem{ID: "a"})
		c.Add(&types.KnowledgeItem{ID: "b"})
		_, _ = c.Get("a")
		c.Add(&types.KnowledgeItem{ID: "c"})

		_, ok := c.Get("b")
		assert.False(t, ok)
		_, ok = c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 2, c.Len())

		c.Remove("a")
		_, ok = c.Get("a")
		assert.False(t, ok)
	})
}

func TestRecordIDFromPath(t *testing.T) {
	id, ok := recordIDFromPath("/store/items/abc.json")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = recordIDFromPath("/store/items/.abc-123.tmp")
	assert.False(t, ok)
	_, ok = recordIDFromPath("/store/items/.hidden.json")
	assert.False(t, ok)
	_, ok = recordIDFromPath("/store/items/notes.txt")
	assert.False(t, ok)
}
