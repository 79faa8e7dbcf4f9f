package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/gomemory-mcp/pkg/types"
)

const lastUpdatedKey = "last_updated"

// SQLiteStore implements Repository on a single SQLite database. The items
// table holds full records and index_entries holds the index projection; save
// still writes them as two separate steps.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   *sync.Mutex
	log  *zap.Logger
	now  func() time.Time
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer; also keeps :memory: on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLiteStore opens (creating if needed) a SQLite-backed repository
func NewSQLiteStore(dbPath string, opts Options) (*SQLiteStore, error) {
	opts = opts.withDefaults()

	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{
		db:   db,
		path: dbPath,
		mu:   LockFor(dbPath),
		log:  opts.Logger.Named("sqlitestore"),
		now:  opts.Now,
	}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Save persists a new item: full record row first, then the index entry
func (s *SQLiteStore) Save(ctx context.Context, n types.NewItem) (*types.KnowledgeItem, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	item := newRecord(n, s.now())
	if err := s.insertItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to write record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.upsertEntry(ctx, s.db, EntryFor(item)); err != nil {
		s.log.Warn("record saved without index entry", zap.String("id", item.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to update index: %w", err)
	}
	if err := s.touchIndex(ctx, s.db); err != nil {
		return nil, fmt.Errorf("failed to update index: %w", err)
	}

	return item, nil
}

func (s *SQLiteStore) insertItem(ctx context.Context, item *types.KnowledgeItem) error {
	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO items (id, schema_version, title, content, tags, scope, project_path,
		                   content_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		item.ID, item.SchemaVersion, item.Title, item.Content, string(tags),
		string(item.Scope), item.ProjectPath, item.ContentHash,
		formatTime(item.CreatedAt), formatTime(item.UpdatedAt))
	return err
}

func (s *SQLiteStore) upsertEntry(ctx context.Context, q querier, e types.IndexEntry) error {
	tags, err := json.Marshal(e.Tags)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO index_entries (id, title, content, tags, scope, project_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			tags = excluded.tags,
			scope = excluded.scope,
			project_path = excluded.project_path,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`
	_, err = q.ExecContext(ctx, query,
		e.ID, e.Title, e.Content, string(tags), string(e.Scope), e.ProjectPath,
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	return err
}

func (s *SQLiteStore) touchIndex(ctx context.Context, q querier) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO index_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, lastUpdatedKey, formatTime(s.now()))
	return err
}

// ListIndexed returns every index entry ordered by id. Rows that fail to
// decode are skipped.
func (s *SQLiteStore) ListIndexed(ctx context.Context) ([]types.IndexEntry, error) {
	query := `
		SELECT id, title, content, tags, scope, project_path, created_at, updated_at
		FROM index_entries
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		s.log.Warn("unreadable index, treating as empty", zap.Error(err))
		return []types.IndexEntry{}, nil
	}
	defer rows.Close()

	entries := make([]types.IndexEntry, 0)
	for rows.Next() {
		var (
			e                    types.IndexEntry
			tags, scope          string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Content, &tags, &scope, &e.ProjectPath, &createdAt, &updatedAt); err != nil {
			s.log.Warn("corrupt index row", zap.Error(err))
			continue
		}
		if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
			s.log.Warn("corrupt index row", zap.String("id", e.ID), zap.Error(err))
			continue
		}
		e.Scope = types.Scope(scope)
		e.CreatedAt = parseTime(createdAt)
		e.UpdatedAt = parseTime(updatedAt)
		e.ApplyDefaults()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		s.log.Warn("index read interrupted", zap.Error(err))
	}
	return entries, nil
}

// LoadFull returns the full record for id
func (s *SQLiteStore) LoadFull(ctx context.Context, id string) (*types.KnowledgeItem, error) {
	query := `
		SELECT id, schema_version, title, content, tags, scope, project_path,
		       content_hash, created_at, updated_at
		FROM items
		WHERE id = ?
	`
	var (
		item                 types.KnowledgeItem
		tags, scope          string
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.SchemaVersion, &item.Title, &item.Content, &tags, &scope,
		&item.ProjectPath, &item.ContentHash, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.log.Warn("unreadable record", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil {
		s.log.Warn("corrupt record", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	item.Scope = types.Scope(scope)
	item.CreatedAt = parseTime(createdAt)
	item.UpdatedAt = parseTime(updatedAt)
	item.ApplyDefaults()
	if err := item.Validate(); err != nil {
		s.log.Warn("invalid record", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &item, nil
}

// LoadFresh is LoadFull; the SQLite backend keeps no record cache
func (s *SQLiteStore) LoadFresh(ctx context.Context, id string) (*types.KnowledgeItem, error) {
	return s.LoadFull(ctx, id)
}

// ListRecordIDs returns the ids of all full records ordered by id
func (s *SQLiteStore) ListRecordIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM items ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan record id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RebuildIndex replaces every index row with the entries produced by build
func (s *SQLiteStore) RebuildIndex(ctx context.Context, build IndexBuilder) error {
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM index_entries"); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	for _, e := range entries {
		if err := s.upsertEntry(ctx, tx, e); err != nil {
			return fmt.Errorf("failed to write index entry %s: %w", e.ID, err)
		}
	}
	if err := s.touchIndex(ctx, tx); err != nil {
		return fmt.Errorf("failed to update index: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Stats reports index and record counts
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Backend: BackendSQLite, Location: s.path}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM index_entries").Scan(&stats.IndexedCount); err != nil {
		return nil, fmt.Errorf("failed to count index entries: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&stats.RecordCount); err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	var lastUpdated string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM index_meta WHERE key = ?", lastUpdatedKey).Scan(&lastUpdated)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to read index metadata: %w", err)
	}
	stats.LastUpdated = parseTime(lastUpdated)

	return stats, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Timestamps are stored as RFC 3339 text so both drivers agree on the format
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
