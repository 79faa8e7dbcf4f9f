package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/gomemory-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a record does not exist or cannot be read
	ErrNotFound = errors.New("not found")
	// ErrCorrupt is returned when a record exists but cannot be decoded.
	// It wraps ErrNotFound so callers that only skip missing records also skip corrupt ones.
	ErrCorrupt = fmt.Errorf("corrupt record: %w", ErrNotFound)
	// ErrUnknownBackend is returned by Open for an unsupported backend name
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Backend names accepted by Open
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Repository owns the shared index and the full per-item records.
//
// Save writes the full record first and the index entry second. If the second
// write fails the record stays on disk without an index entry; RebuildIndex
// repairs that state.
type Repository interface {
	// Save validates item, assigns it a fresh id and persists it
	Save(ctx context.Context, item types.NewItem) (*types.KnowledgeItem, error)

	// ListIndexed returns every index entry ordered by id. A missing or
	// unreadable index yields an empty list, not an error.
	ListIndexed(ctx context.Context) ([]types.IndexEntry, error)

	// LoadFull returns the full record for id, or an error wrapping ErrNotFound
	LoadFull(ctx context.Context, id string) (*types.KnowledgeItem, error)

	// LoadFresh is LoadFull that always reads the backing store, bypassing
	// any record cache. Used where on-disk damage must be seen.
	LoadFresh(ctx context.Context, id string) (*types.KnowledgeItem, error)

	// ListRecordIDs returns the ids of all full records ordered by id
	ListRecordIDs(ctx context.Context) ([]string, error)

	// RebuildIndex replaces the index with the entries returned by build.
	// The index lock is held for the whole call so concurrent saves are not lost.
	RebuildIndex(ctx context.Context, build IndexBuilder) error

	// Stats reports counts for status output
	Stats(ctx context.Context) (*Stats, error)

	Close() error
}

// IndexBuilder produces index entries for the given record ids
type IndexBuilder func(ctx context.Context, recordIDs []string) ([]types.IndexEntry, error)

// Stats describes the current state of a repository
type Stats struct {
	Backend      string
	Location     string
	IndexedCount int
	RecordCount  int
	LastUpdated  time.Time
}

// Options configures a repository
type Options struct {
	Logger    *zap.Logger
	CacheSize int  // Full-record cache entries; 0 disables the cache (file backend)
	Watch     bool // Evict cached records changed outside the process (file backend)
	Now       func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
