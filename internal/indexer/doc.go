// Package indexer keeps the knowledge index consistent with the full records.
//
// Saving an item writes the full record first and the index entry second.
// If the process dies or the index write fails between the two, the record
// exists but search cannot see it. The indexer detects and repairs that drift.
//
// # Basic Usage
//
//	idx := indexer.New(repo, logger, &indexer.Config{Workers: 8})
//
//	report, err := idx.Verify(ctx)
//	if !report.Healthy() {
//	    stats, err := idx.Rebuild(ctx)
//	    fmt.Printf("Indexed %d records in %v\n", stats.RecordsIndexed, stats.Duration)
//	}
//
// # Verify
//
// Verify is read-only and reports four kinds of drift:
//   - Orphaned: a record with no index entry
//   - Dangling: an index entry with no record
//   - Unreadable: a record that exists but fails to decode or validate
//   - HashMismatch: a record edited by hand so its content no longer matches
//     content_hash
//
// # Rebuild
//
// Rebuild loads every record and replaces the whole index with fresh entries.
// It runs inside the repository's per-root critical section, so concurrent
// saves in the same process wait for it instead of being overwritten.
// Unreadable records are skipped and listed in Statistics.ErrorMessages.
//
// Only one rebuild runs per Indexer at a time. A second call returns
// ErrRebuildInProgress immediately:
//
//	if _, err := idx.Rebuild(ctx); errors.Is(err, indexer.ErrRebuildInProgress) {
//	    // try again later
//	}
//
// # Concurrency
//
// Records are loaded on an errgroup bounded by Config.Workers (default:
// runtime.NumCPU()). A failing record never aborts the scan; only context
// cancellation does.
package indexer
