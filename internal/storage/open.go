package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// SQLiteFileName is the database file created under the root by the sqlite backend
const SQLiteFileName = "knowledge.db"

// Open creates the repository selected by backend, rooted at root
func Open(backend, root string, opts Options) (Repository, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(root, opts)
	case BackendSQLite:
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(root, SQLiteFileName), opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
