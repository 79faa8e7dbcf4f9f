package indexer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/gomemory-mcp/internal/storage"
	"github.com/dshills/gomemory-mcp/pkg/types"
)

// ErrRebuildInProgress is returned when a rebuild is requested while another one runs
var ErrRebuildInProgress = errors.New("index rebuild already in progress")

// Indexer keeps the index consistent with the full records of a repository
type Indexer struct {
	repo    storage.Repository
	log     *zap.Logger
	workers int
	lock    IndexLock
}

// Config contains configuration for the indexer
type Config struct {
	Workers int // Number of concurrent record loads (default: runtime.NumCPU())
}

// Statistics contains statistics about a rebuild
type Statistics struct {
	RecordsIndexed  int
	RecordsSkipped  int
	PreviousEntries int
	Duration        time.Duration
	ErrorMessages   []string
}

// Report describes how the index differs from the stored records
type Report struct {
	IndexedCount int
	RecordCount  int
	Orphaned     []string // Records with no index entry
	Dangling     []string // Index entries with no record
	Unreadable   []string // Records that exist but cannot be loaded
	HashMismatch []string // Records whose content no longer matches content_hash
	Duration     time.Duration
}

// Healthy reports whether the index and records agree
func (r *Report) Healthy() bool {
	return len(r.Orphaned) == 0 && len(r.Dangling) == 0 &&
		len(r.Unreadable) == 0 && len(r.HashMismatch) == 0
}

// New creates a new Indexer instance
func New(repo storage.Repository, logger *zap.Logger, config *Config) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := runtime.NumCPU()
	if config != nil && config.Workers > 0 {
		workers = config.Workers
	}
	return &Indexer{
		repo:    repo,
		log:     logger.Named("indexer"),
		workers: workers,
	}
}

// Rebuild regenerates every index entry from the full records. Records that
// cannot be loaded are left out and reported in ErrorMessages.
func (idx *Indexer) Rebuild(ctx context.Context) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrRebuildInProgress
	}
	defer idx.lock.Release()

	startTime := time.Now()
	stats := &Statistics{ErrorMessages: make([]string, 0)}

	previous, err := idx.repo.ListIndexed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	stats.PreviousEntries = len(previous)

	err = idx.repo.RebuildIndex(ctx, func(ctx context.Context, ids []string) ([]types.IndexEntry, error) {
		loaded, err := idx.loadAll(ctx, ids)
		if err != nil {
			return nil, err
		}

		entries := make([]types.IndexEntry, 0, len(ids))
		for _, l := range loaded {
			if l.err != nil {
				stats.RecordsSkipped++
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", l.id, l.err))
				continue
			}
			entries = append(entries, storage.EntryFor(l.item))
		}
		stats.RecordsIndexed = len(entries)
		return entries, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild index: %w", err)
	}

	stats.Duration = time.Since(startTime)
	idx.log.Info("index rebuilt",
		zap.Int("indexed", stats.RecordsIndexed),
		zap.Int("skipped", stats.RecordsSkipped),
		zap.Int("previous", stats.PreviousEntries),
		zap.Duration("duration", stats.Duration))

	return stats, nil
}

// Rebuilding reports whether a rebuild is running
func (idx *Indexer) Rebuilding() bool {
	return idx.lock.Held()
}

// Verify compares the index with the stored records without changing either
func (idx *Indexer) Verify(ctx context.Context) (*Report, error) {
	startTime := time.Now()

	ids, err := idx.repo.ListRecordIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	entries, err := idx.repo.ListIndexed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	report := &Report{
		IndexedCount: len(entries),
		RecordCount:  len(ids),
		Orphaned:     []string{},
		Dangling:     []string{},
		Unreadable:   []string{},
		HashMismatch: []string{},
	}

	indexed := make(map[string]bool, len(entries))
	for _, e := range entries {
		indexed[e.ID] = true
	}
	recorded := make(map[string]bool, len(ids))
	for _, id := range ids {
		recorded[id] = true
		if !indexed[id] {
			report.Orphaned = append(report.Orphaned, id)
		}
	}
	for _, e := range entries {
		if !recorded[e.ID] {
			report.Dangling = append(report.Dangling, e.ID)
		}
	}

	loaded, err := idx.loadAll(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, l := range loaded {
		switch {
		case l.err != nil:
			report.Unreadable = append(report.Unreadable, l.id)
		case l.item.ContentHash != "" && l.item.ContentHash != storage.ContentHash(l.item.Title, l.item.Content):
			report.HashMismatch = append(report.HashMismatch, l.id)
		}
	}

	sort.Strings(report.Dangling)
	report.Duration = time.Since(startTime)
	return report, nil
}

// loadResult is the outcome of loading one record
type loadResult struct {
	id   string
	item *types.KnowledgeItem
	err  error
}

// loadAll loads every record concurrently. Per-record failures are returned
// in the results; only cancellation fails the whole call. Results keep the
// order of ids.
func (idx *Indexer) loadAll(ctx context.Context, ids []string) ([]loadResult, error) {
	results := make([]loadResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers)

	var failed int32

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			item, err := idx.repo.LoadFresh(gctx, id)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				atomic.AddInt32(&failed, 1)
				idx.log.Warn("record not loadable", zap.String("id", id), zap.Error(err))
			}
			results[i] = loadResult{id: id, item: item, err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("record scan interrupted: %w", err)
	}

	if failed > 0 {
		idx.log.Debug("record scan finished with failures", zap.Int32("failed", failed), zap.Int("total", len(ids)))
	}
	return results, nil
}
