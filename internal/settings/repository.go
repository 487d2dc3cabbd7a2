package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Repository persists store snapshots by store name.
type Repository interface {
	// Load returns the persisted snapshot for the store.
	// A store that was never saved yields an empty snapshot and no error.
	Load(ctx context.Context, store string) (Snapshot, error)

	// Save replaces the persisted snapshot for the store.
	Save(ctx context.Context, store string, snap Snapshot) error

	// Stores lists the names of all persisted stores.
	Stores(ctx context.Context) ([]string, error)
}

// SQLiteRepository implements Repository using the controller database.
// Each store is one row holding its snapshot in the typed JSON encoding.
// Rows written in the flat form are still read.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open, migrated SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Load retrieves the persisted snapshot for a store.
func (r *SQLiteRepository) Load(ctx context.Context, store string) (Snapshot, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM settings WHERE store = ?`, store,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, nil
		}
		return nil, fmt.Errorf("querying settings %q: %w", store, err)
	}

	snap, err := decodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding settings %q: %w", store, err)
	}
	return snap, nil
}

// Save upserts the snapshot for a store.
func (r *SQLiteRepository) Save(ctx context.Context, store string, snap Snapshot) error {
	payload, err := snap.MarshalTypedJSON()
	if err != nil {
		return fmt.Errorf("encoding settings %q: %w", store, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO settings (store, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(store) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		store, string(payload), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving settings %q: %w", store, err)
	}
	return nil
}

func decodePayload(payload string) (Snapshot, error) {
	if strings.HasPrefix(strings.TrimSpace(payload), "[") {
		return ParseTypedSnapshot([]byte(payload))
	}
	return ParseSnapshot([]byte(payload))
}

// Stores lists all persisted store names in alphabetical order.
func (r *SQLiteRepository) Stores(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT store FROM settings ORDER BY store`)
	if err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning settings row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating settings: %w", err)
	}
	return names, nil
}

// MemoryRepository is an in-memory Repository, used in tests and when no
// database is configured.
type MemoryRepository struct {
	mu    sync.Mutex
	snaps map[string]Snapshot
	saves int
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{snaps: make(map[string]Snapshot)}
}

// Load returns a copy of the stored snapshot.
func (m *MemoryRepository) Load(_ context.Context, store string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append(Snapshot{}, m.snaps[store]...), nil
}

// Save stores a copy of the snapshot.
func (m *MemoryRepository) Save(_ context.Context, store string, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[store] = append(Snapshot{}, snap...)
	m.saves++
	return nil
}

// Stores lists the stored names in unspecified order.
func (m *MemoryRepository) Stores(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.snaps))
	for name := range m.snaps {
		names = append(names, name)
	}
	return names, nil
}

// SaveCount returns how many times Save was called.
func (m *MemoryRepository) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
