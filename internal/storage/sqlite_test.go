package storage

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/dshills/gomemory-mcp/pkg/types"
)

type SQLiteStoreSuite struct {
	suite.Suite
	store *SQLiteStore
	ctx   context.Context
}

func (s *SQLiteStoreSuite) SetupTest() {
	store, err := NewSQLiteStore(":memory:", Options{})
	s.Require().NoError(err)
	s.store = store
	s.ctx = context.Background()
}

func (s *SQLiteStoreSuite) TearDownTest() {
	s.NoError(s.store.Close())
}

func (s *SQLiteStoreSuite) TestSaveAndLoad() {
	item, err := s.store.Save(s.ctx, types.NewItem{
		Title:       "Build flags",
		Content:     "Use -tags sqlite_cgo for the cgo driver",
		Tags:        []string{"build", "sqlite"},
		Scope:       types.ScopeProject,
		ProjectPath: "/src/app",
	})
	s.Require().NoError(err)

	loaded, err := s.store.LoadFull(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Equal(item.ID, loaded.ID)
	s.Equal(item.Title, loaded.Title)
	s.Equal(item.Content, loaded.Content)
	s.Equal(item.Tags, loaded.Tags)
	s.Equal(types.ScopeProject, loaded.Scope)
	s.Equal("/src/app", loaded.ProjectPath)
	s.Equal(item.ContentHash, loaded.ContentHash)
	s.True(item.CreatedAt.Equal(loaded.CreatedAt))
}

func (s *SQLiteStoreSuite) TestIndexEntryTruncated() {
	content := strings.Repeat("a", 500)
	_, err := s.store.Save(s.ctx, types.NewItem{Title: "long", Content: content})
	s.Require().NoError(err)

	entries, err := s.store.ListIndexed(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Len(entries[0].Content, types.IndexContentLimit)
	s.Equal([]string{}, entries[0].Tags)
}

func (s *SQLiteStoreSuite) TestValidationHasNoSideEffects() {
	_, err := s.store.Save(s.ctx, types.NewItem{Title: "", Content: "c"})
	s.ErrorIs(err, types.ErrTitleRequired)

	ids, err := s.store.ListRecordIDs(s.ctx)
	s.Require().NoError(err)
	s.Empty(ids)

	entries, err := s.store.ListIndexed(s.ctx)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *SQLiteStoreSuite) TestLoadFull_Missing() {
	_, err := s.store.LoadFull(s.ctx, "nope")
	s.ErrorIs(err, ErrNotFound)
}

func (s *SQLiteStoreSuite) TestLoadFull_CorruptTags() {
	_, err := s.store.db.ExecContext(s.ctx, `
		INSERT INTO items (id, schema_version, title, content, tags, scope, project_path, content_hash, created_at, updated_at)
		VALUES ('bad', '1.0.0', 't', 'c', 'not-json', 'global', '', '', '', '')
	`)
	s.Require().NoError(err)

	_, err = s.store.LoadFull(s.ctx, "bad")
	s.ErrorIs(err, ErrCorrupt)
	_, err = s.store.LoadFresh(s.ctx, "bad")
	s.ErrorIs(err, ErrCorrupt)
}

func (s *SQLiteStoreSuite) TestListIndexed_SkipsCorruptRows() {
	item, err := s.store.Save(s.ctx, types.NewItem{Title: "good", Content: "c"})
	s.Require().NoError(err)

	_, err = s.store.db.ExecContext(s.ctx, `
		INSERT INTO index_entries (id, title, content, tags, scope, project_path, created_at, updated_at)
		VALUES ('bad', 't', 'c', '{', 'global', '', '', '')
	`)
	s.Require().NoError(err)

	entries, err := s.store.ListIndexed(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(item.ID, entries[0].ID)
}

func (s *SQLiteStoreSuite) TestRebuildIndex() {
	item, err := s.store.Save(s.ctx, types.NewItem{Title: "t", Content: "c"})
	s.Require().NoError(err)

	_, err = s.store.db.ExecContext(s.ctx, "DELETE FROM index_entries")
	s.Require().NoError(err)

	err = s.store.RebuildIndex(s.ctx, func(ctx context.Context, ids []string) ([]types.IndexEntry, error) {
		s.Equal([]string{item.ID}, ids)
		full, err := s.store.LoadFull(ctx, ids[0])
		if err != nil {
			return nil, err
		}
		return []types.IndexEntry{EntryFor(full)}, nil
	})
	s.Require().NoError(err)

	stats, err := s.store.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(BackendSQLite, stats.Backend)
	s.Equal(1, stats.IndexedCount)
	s.Equal(1, stats.RecordCount)
	s.False(stats.LastUpdated.IsZero())
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, new(SQLiteStoreSuite))
}

func TestSQLiteStore_ConcurrentSaves(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), SQLiteFileName)
	store, err := NewSQLiteStore(dbPath, Options{})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Save(ctx, types.NewItem{Title: "t", Content: "c"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries, err := store.ListIndexed(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, n)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), SQLiteFileName)
	ctx := context.Background()
	fixed := time.Date(2025, 7, 4, 9, 30, 0, 123456789, time.UTC)

	first, err := NewSQLiteStore(dbPath, Options{Now: func() time.Time { return fixed }})
	require.NoError(t, err)
	item, err := first.Save(ctx, types.NewItem{Title: "persist", Content: "me"})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(dbPath, Options{})
	require.NoError(t, err)
	defer second.Close()

	loaded, err := second.LoadFull(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, fixed, loaded.CreatedAt)
}
