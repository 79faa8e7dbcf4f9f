// Package storage persists knowledge items and the shared index that lists them.
//
// A Repository owns two artifacts:
//   - Full records: one per item, holding the untruncated content
//   - The index: one shared document mapping item id to a projection whose
//     content is cut to types.IndexContentLimit characters
//
// # Backends
//
// FileStore (default) keeps JSON documents under a root directory:
//
//	<root>/index.json
//	<root>/items/<id>.json
//
// Documents are written to a temp file and renamed into place. Decoded records
// are cached in an LRU cache; with Options.Watch an fsnotify watcher evicts
// records edited outside the process.
//
// SQLiteStore keeps the same two artifacts as the items and index_entries
// tables of <root>/knowledge.db. The driver is selected at build time:
//
//	go build ./...                    # modernc.org/sqlite (pure Go)
//	go build -tags sqlite_cgo ./...   # github.com/mattn/go-sqlite3
//
// # Consistency
//
// Save writes the record, then the index entry. A failure between the two
// leaves a record with no index entry; it is never rolled back. RebuildIndex
// regenerates the index from the records and repairs that state.
//
// Every index read-modify-write runs under LockFor(root), a mutex shared by all
// repositories opened on the same root in this process.
//
// # Failure Policy
//
// Reads never fail the caller for bad data. A missing or corrupt index reads
// as empty. A missing or corrupt record returns an error wrapping ErrNotFound
// (ErrCorrupt for the latter) and is logged at warn level. Write failures are
// returned.
//
// # Basic Usage
//
//	repo, err := storage.Open(storage.BackendFile, "/home/me/.gomemory/knowledge", storage.Options{})
//	if err != nil {
//	    return err
//	}
//	defer repo.Close()
//
//	item, err := repo.Save(ctx, types.NewItem{
//	    Title:   "Naming Conventions",
//	    Content: "Use camelCase for variables",
//	    Tags:    []string{"style"},
//	})
package storage
