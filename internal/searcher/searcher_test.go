package searcher

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gomemory-mcp/internal/storage"
	"github.com/dshills/gomemory-mcp/pkg/types"
)

// fakeSource serves fixed records and injected load failures
type fakeSource struct {
	items     map[string]*types.KnowledgeItem
	failures  map[string]error
	listCalls atomic.Int32
}

func newFakeSource(items ...*types.KnowledgeItem) *fakeSource {
	f := &fakeSource{
		items:    make(map[string]*types.KnowledgeItem),
		failures: make(map[string]error),
	}
	for _, it := range items {
		f.items[it.ID] = it
	}
	return f
}

func (f *fakeSource) ListIndexed(ctx context.Context) ([]types.IndexEntry, error) {
	f.listCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries := make([]types.IndexEntry, 0, len(f.items)+len(f.failures))
	for _, it := range f.items {
		entries = append(entries, storage.EntryFor(it))
	}
	for id := range f.failures {
		entries = append(entries, types.IndexEntry{ID: id, Title: "broken", Tags: []string{}, Scope: types.ScopeGlobal})
	}
	// Reverse id order so results never inherit index order
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID > entries[j].ID })
	return entries, nil
}

func (f *fakeSource) LoadFull(ctx context.Context, id string) (*types.KnowledgeItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.failures[id]; ok {
		return nil, err
	}
	it, ok := f.items[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return it, nil
}

func knowledge(id, title, content string, tags ...string) *types.KnowledgeItem {
	if tags == nil {
		tags = []string{}
	}
	return &types.KnowledgeItem{ID: id, Title: title, Content: content, Tags: tags, Scope: types.ScopeGlobal}
}

func projectKnowledge(id, path, title string) *types.KnowledgeItem {
	it := knowledge(id, title, "details")
	it.Scope = types.ScopeProject
	it.ProjectPath = path
	return it
}

func intPtr(n int) *int { return &n }

func ids(resp *Response) []string {
	out := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, r.Item.ID)
	}
	return out
}

func TestSearch_RoundTripWithFileStore(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir(), storage.Options{})
	require.NoError(t, err)
	ctx := context.Background()

	saved, err := store.Save(ctx, types.NewItem{
		Title:   "Naming Conventions",
		Content: "Use camelCase for variables",
		Tags:    []string{"style"},
	})
	require.NoError(t, err)
	_, err = store.Save(ctx, types.NewItem{Title: "Unrelated", Content: "Deploy on Fridays"})
	require.NoError(t, err)

	s := New(store, Options{})
	resp, err := s.Search(ctx, Request{Query: "naming"})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	r := resp.Results[0]
	assert.Equal(t, saved.ID, r.Item.ID)
	assert.Equal(t, 1, r.Rank)
	assert.Equal(t, 10, r.Score)
	assert.Equal(t, "Use camelCase for variables", r.Preview)
	assert.Equal(t, 2, resp.Candidates)
	assert.Equal(t, 1, resp.Matched)
}

func TestSearch_TwoSavesBothRetrievable(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir(), storage.Options{})
	require.NoError(t, err)
	ctx := context.Background()

	first, err := store.Save(ctx, types.NewItem{Title: "retry policy", Content: "backoff"})
	require.NoError(t, err)
	second, err := store.Save(ctx, types.NewItem{Title: "retry policy", Content: "backoff"})
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	resp, err := New(store, Options{}).Search(ctx, Request{Query: "retry"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids(resp))
}

func TestSearch_ZeroScoreExcluded(t *testing.T) {
	src := newFakeSource(
		knowledge("a", "database indexes", "btree"),
		knowledge("b", "frontend", "css grid"),
	)

	resp, err := New(src, Options{}).Search(context.Background(), Request{Query: "database"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(resp))
	for _, r := range resp.Results {
		assert.Positive(t, r.Score)
	}
}

func TestSearch_OrderByScoreThenID(t *testing.T) {
	src := newFakeSource(
		knowledge("c", "cache", "x"),
		knowledge("a", "cache", "x"),
		knowledge("b", "cache", "x"),
		knowledge("z", "cache", "cache layer", "cache"),
	)

	resp, err := New(src, Options{}).Search(context.Background(), Request{Query: "cache"})
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "b", "c"}, ids(resp))

	for i, r := range resp.Results {
		assert.Equal(t, i+1, r.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, resp.Results[i-1].Score, r.Score)
		}
	}
}

func TestSearch_Scope(t *testing.T) {
	src := newFakeSource(
		knowledge("g", "logging", "zap"),
		projectKnowledge("pa", "/src/a", "logging"),
		projectKnowledge("pb", "/src/b", "logging"),
	)
	s := New(src, Options{})

	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{"default is all", Request{}, []string{"g", "pa", "pb"}},
		{"all", Request{Scope: types.ScopeFilterAll}, []string{"g", "pa", "pb"}},
		{"global", Request{Scope: types.ScopeFilterGlobal}, []string{"g"}},
		{"project", Request{Scope: types.ScopeFilterProject}, []string{"pa", "pb"}},
		{"project path", Request{Scope: types.ScopeFilterProject, ProjectPath: "/src/b"}, []string{"pb"}},
		{"unknown path", Request{Scope: types.ScopeFilterProject, ProjectPath: "/src/c"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Query = "logging"
			resp, err := s.Search(context.Background(), tt.req)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, ids(resp))
		})
	}
}

func TestSearch_InvalidScope(t *testing.T) {
	_, err := New(newFakeSource(), Options{}).Search(context.Background(), Request{Query: "x", Scope: "team"})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidScope)
	assert.True(t, types.IsValidation(err))
}

func TestSearch_TagsOR(t *testing.T) {
	src := newFakeSource(
		knowledge("a", "config", "x", "Go"),
		knowledge("b", "config", "x", "python"),
		knowledge("c", "config", "x"),
	)
	s := New(src, Options{})

	resp, err := s.Search(context.Background(), Request{Query: "config", Tags: []string{"go", "PYTHON"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(resp))

	resp, err = s.Search(context.Background(), Request{Query: "config", Tags: []string{"rust"}})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSearch_Limit(t *testing.T) {
	items := make([]*types.KnowledgeItem, 0, 15)
	for i := 0; i < 15; i++ {
		items = append(items, knowledge(fmt.Sprintf("id-%02d", i), "limit", "x"))
	}
	s := New(newFakeSource(items...), Options{})

	tests := []struct {
		name  string
		limit *int
		want  int
	}{
		{"default", nil, DefaultLimit},
		{"zero", intPtr(0), 0},
		{"negative", intPtr(-3), 0},
		{"one", intPtr(1), 1},
		{"above matches", intPtr(100), 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := s.Search(context.Background(), Request{Query: "limit", Limit: tt.limit})
			require.NoError(t, err)
			assert.Len(t, resp.Results, tt.want)
			assert.NotNil(t, resp.Results)
		})
	}
}

func TestSearch_ConfiguredDefaultLimit(t *testing.T) {
	items := make([]*types.KnowledgeItem, 0, 5)
	for i := 0; i < 5; i++ {
		items = append(items, knowledge(fmt.Sprintf("id-%d", i), "limit", "x"))
	}

	resp, err := New(newFakeSource(items...), Options{DefaultLimit: 2}).Search(context.Background(), Request{Query: "limit"})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
}

func TestSearch_Preview(t *testing.T) {
	long := strings.Repeat("a", 299) + "é" + "tail"
	exact := strings.Repeat("b", types.PreviewLimit)
	src := newFakeSource(
		knowledge("long", "preview", long),
		knowledge("exact", "preview", exact),
	)

	resp, err := New(src, Options{}).Search(context.Background(), Request{Query: "preview"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	byID := map[string]types.SearchResult{}
	for _, r := range resp.Results {
		byID[r.Item.ID] = r
	}
	assert.Equal(t, strings.Repeat("a", 299)+"é"+types.PreviewEllipsis, byID["long"].Preview)
	assert.Equal(t, exact, byID["exact"].Preview)
	assert.Equal(t, long, byID["long"].Item.Content)
}

func TestSearch_MatchesBeyondIndexTruncation(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir(), storage.Options{})
	require.NoError(t, err)
	ctx := context.Background()

	content := strings.Repeat("filler ", 60) + "needle"
	saved, err := store.Save(ctx, types.NewItem{Title: "haystack", Content: content})
	require.NoError(t, err)

	entries, err := store.ListIndexed(ctx)
	require.NoError(t, err)
	require.NotContains(t, entries[0].Content, "needle")

	resp, err := New(store, Options{}).Search(ctx, Request{Query: "needle"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, saved.ID, resp.Results[0].Item.ID)
}

func TestSearch_EmptyQueryShortCircuits(t *testing.T) {
	src := newFakeSource(knowledge("a", "anything", "x"))
	s := New(src, Options{})

	for _, q := range []string{"", "   ", "?!-"} {
		resp, err := s.Search(context.Background(), Request{Query: q})
		require.NoError(t, err)
		assert.Empty(t, resp.Results)
	}
	assert.Equal(t, int32(0), src.listCalls.Load())
}

func TestSearch_SkipsUnloadableRecords(t *testing.T) {
	src := newFakeSource(knowledge("ok", "broken pipes", "x"))
	src.failures["missing"] = storage.ErrNotFound
	src.failures["corrupt"] = fmt.Errorf("%w: bad json", storage.ErrCorrupt)

	resp, err := New(src, Options{Workers: 1}).Search(context.Background(), Request{Query: "broken"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, ids(resp))
	assert.Equal(t, 3, resp.Candidates)
}

func TestSearch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(newFakeSource(knowledge("a", "x", "y")), Options{}).Search(ctx, Request{Query: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch_Deterministic(t *testing.T) {
	items := make([]*types.KnowledgeItem, 0, 40)
	for i := 0; i < 40; i++ {
		items = append(items, knowledge(fmt.Sprintf("%03d", i), "topic", strings.Repeat("topic ", i%4)))
	}
	s := New(newFakeSource(items...), Options{Workers: 4})

	first, err := s.Search(context.Background(), Request{Query: "topic", Limit: intPtr(40)})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := s.Search(context.Background(), Request{Query: "topic", Limit: intPtr(40)})
		require.NoError(t, err)
		assert.Equal(t, ids(first), ids(again))
	}
}
