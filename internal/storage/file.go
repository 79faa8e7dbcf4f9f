package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/gomemory-mcp/pkg/types"
)

const (
	indexFileName = "index.json"
	itemsDirName  = "items"
	recordExt     = ".json"
)

// FileStore implements Repository with one JSON index document and one JSON
// document per item under a root directory:
//
//	<root>/index.json
//	<root>/items/<id>.json
type FileStore struct {
	root      string
	indexPath string
	itemsDir  string

	mu      *sync.Mutex // shared per root, guards index read-modify-write
	cache   *recordCache
	watcher *recordWatcher
	log     *zap.Logger
	now     func() time.Time
}

// NewFileStore opens (creating if needed) a file-backed repository at root
func NewFileStore(root string, opts Options) (*FileStore, error) {
	opts = opts.withDefaults()

	itemsDir := filepath.Join(root, itemsDirName)
	if err := os.MkdirAll(itemsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	cache, err := newRecordCache(opts.CacheSize)
	if err != nil {
		return nil, err
	}

	s := &FileStore{
		root:      root,
		indexPath: filepath.Join(root, indexFileName),
		itemsDir:  itemsDir,
		mu:        LockFor(root),
		cache:     cache,
		log:       opts.Logger.Named("filestore"),
		now:       opts.Now,
	}

	if opts.Watch && cache != nil {
		w, err := newRecordWatcher(itemsDir, cache, s.log)
		if err != nil {
			// The cache stays correct for writes made by this process
			s.log.Warn("record watcher disabled", zap.Error(err))
		} else {
			s.watcher = w
		}
	}

	return s, nil
}

// Save persists a new item: full record first, then the index entry
func (s *FileStore) Save(ctx context.Context, n types.NewItem) (*types.KnowledgeItem, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	item := newRecord(n, s.now())
	if err := s.writeRecord(item); err != nil {
		return nil, fmt.Errorf("failed to write record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.loadIndex()
	idx.Entries[item.ID] = EntryFor(item)
	if err := s.writeIndex(idx); err != nil {
		s.log.Warn("record saved without index entry", zap.String("id", item.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to update index: %w", err)
	}

	s.cache.Add(item)
	s.log.Debug("saved item", zap.String("id", item.ID), zap.String("scope", string(item.Scope)))
	return item, nil
}

// ListIndexed returns all index entries ordered by id
func (s *FileStore) ListIndexed(ctx context.Context) ([]types.IndexEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sortedEntries(s.loadIndex()), nil
}

// LoadFull returns the full record for id
func (s *FileStore) LoadFull(ctx context.Context, id string) (*types.KnowledgeItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, ErrNotFound
	}
	if item, ok := s.cache.Get(id); ok {
		return item, nil
	}
	return s.readRecord(id)
}

// LoadFresh reads the record file for id even when it is cached, and
// refreshes or evicts the cache entry to match what is on disk
func (s *FileStore) LoadFresh(ctx context.Context, id string) (*types.KnowledgeItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, ErrNotFound
	}
	item, err := s.readRecord(id)
	if err != nil {
		s.cache.Remove(id)
	}
	return item, err
}

// readRecord decodes and validates the record file for id, caching it on success
func (s *FileStore) readRecord(id string) (*types.KnowledgeItem, error) {
	path := s.recordPath(id)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.log.Warn("unreadable record", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var item types.KnowledgeItem
	if err := json.Unmarshal(data, &item); err != nil {
		s.log.Warn("corrupt record", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	item.ApplyDefaults()
	if err := item.Validate(); err != nil {
		s.log.Warn("invalid record", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if item.ID != id {
		s.log.Warn("record id mismatch", zap.String("path", path), zap.String("record_id", item.ID))
		return nil, fmt.Errorf("%w: id mismatch", ErrCorrupt)
	}

	s.cache.Add(&item)
	return &item, nil
}

// ListRecordIDs returns the ids of all record files ordered by id
func (s *FileStore) ListRecordIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.itemsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id, ok := recordIDFromPath(e.Name()); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// RebuildIndex replaces the index with the entries produced by build
func (s *FileStore) RebuildIndex(ctx context.Context, build IndexBuilder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.ListRecordIDs(ctx)
	if err != nil {
		return err
	}
	entries, err := build(ctx, ids)
	if err != nil {
		return err
	}

	idx := types.NewIndex()
	for _, e := range entries {
		idx.Entries[e.ID] = e
	}
	if err := s.writeIndex(idx); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}

// Stats reports index and record counts
func (s *FileStore) Stats(ctx context.Context) (*Stats, error) {
	ids, err := s.ListRecordIDs(ctx)
	if err != nil {
		return nil, err
	}
	idx := s.loadIndex()
	return &Stats{
		Backend:      BackendFile,
		Location:     s.root,
		IndexedCount: len(idx.Entries),
		RecordCount:  len(ids),
		LastUpdated:  idx.LastUpdated,
	}, nil
}

// Close stops the record watcher if one is running
func (s *FileStore) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// loadIndex reads the index document. Missing, unreadable, corrupt or
// incompatible documents all yield an empty index.
func (s *FileStore) loadIndex() *types.Index {
	data, err := os.ReadFile(s.indexPath)
	if errors.Is(err, os.ErrNotExist) {
		return types.NewIndex()
	}
	if err != nil {
		s.log.Warn("unreadable index, starting empty", zap.String("path", s.indexPath), zap.Error(err))
		return types.NewIndex()
	}

	var idx types.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		s.log.Warn("corrupt index, starting empty", zap.String("path", s.indexPath), zap.Error(err))
		return types.NewIndex()
	}
	if !types.CompatibleSchema(idx.SchemaVersion) {
		s.log.Warn("incompatible index schema, starting empty",
			zap.String("path", s.indexPath), zap.String("schema_version", idx.SchemaVersion))
		return types.NewIndex()
	}

	if idx.Entries == nil {
		idx.Entries = make(map[string]types.IndexEntry)
	}
	for id, e := range idx.Entries {
		if e.ID == "" {
			e.ID = id
		}
		e.ApplyDefaults()
		idx.Entries[id] = e
	}
	idx.SchemaVersion = types.SchemaVersion
	return &idx
}

func (s *FileStore) writeIndex(idx *types.Index) error {
	idx.SchemaVersion = types.SchemaVersion
	idx.LastUpdated = s.now().UTC()
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.indexPath, data)
}

func (s *FileStore) writeRecord(item *types.KnowledgeItem) error {
	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.recordPath(item.ID), data)
}

func (s *FileStore) recordPath(id string) string {
	return filepath.Join(s.itemsDir, id+recordExt)
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place, so readers never observe a partial document
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+strings.TrimSuffix(filepath.Base(path), recordExt)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// sortedEntries returns the index entries ordered by id
func sortedEntries(idx *types.Index) []types.IndexEntry {
	out := make([]types.IndexEntry, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
