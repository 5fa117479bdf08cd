package storage

// sqlite.go: histórico de snapshots de fetch a upstream.
//
// Estrategia:
//   - `snapshots`: una fila por fetch exitoso (operación, clave de cache, JSON).
//   - Cache en memoria del último payload por clave: si un fetch devuelve
//     exactamente lo mismo que el anterior no se reescribe.
//   - Prune automático al arrancar: snapshots > 14d.

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/alejandrodnm/polytoolkit/internal/domain"
	"github.com/alejandrodnm/polytoolkit/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    id         TEXT    PRIMARY KEY,
    operation  TEXT    NOT NULL,
    cache_key  TEXT    NOT NULL,
    items      INTEGER NOT NULL DEFAULT 0,
    payload    BLOB    NOT NULL,
    fetched_at TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snap_fetched ON snapshots(fetched_at DESC);
CREATE INDEX IF NOT EXISTS idx_snap_op      ON snapshots(operation, fetched_at DESC);
`

const (
	retentionSnapshots = 14 * 24 * time.Hour
	defaultRecentLimit = 20

	// Ancho fijo para que el orden lexicográfico coincida con el cronológico.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

var _ ports.SnapshotStore = (*SQLiteStore)(nil)

// SQLiteStore implementa ports.SnapshotStore usando SQLite (pure Go, sin CGo).
type SQLiteStore struct {
	db   *sql.DB
	last map[string][32]byte // cache_key → hash del último payload guardado
	mu   sync.Mutex
}

// NewSQLiteStore abre (o crea) la base de datos en la ruta dada.
// Aplica el schema, limpia snapshots antiguos y precarga la cache.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}

	s := &SQLiteStore{
		db:   db,
		last: make(map[string][32]byte),
	}
	s.pruneOld(context.Background(), time.Now())
	s.warmCache(context.Background())
	return s, nil
}

// SaveSnapshot persiste un snapshot. Un ID repetido se ignora, y un payload
// idéntico al último guardado para la misma clave no se reescribe.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	if snap.ID == "" {
		return fmt.Errorf("storage.SaveSnapshot: empty id")
	}

	sum := sha256.Sum256(snap.Payload)

	s.mu.Lock()
	prev, seen := s.last[snap.CacheKey]
	s.mu.Unlock()
	if seen && bytes.Equal(prev[:], sum[:]) {
		return nil
	}

	fetchedAt := snap.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, operation, cache_key, items, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		snap.ID, snap.Operation, snap.CacheKey, snap.Items, snap.Payload,
		fetchedAt.UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("storage.SaveSnapshot: insert %s: %w", snap.ID, err)
	}

	s.mu.Lock()
	s.last[snap.CacheKey] = sum
	s.mu.Unlock()
	return nil
}

// RecentSnapshots devuelve los últimos snapshots, más recientes primero.
// operation vacío = todas las operaciones.
func (s *SQLiteStore) RecentSnapshots(ctx context.Context, operation string, limit int) ([]domain.Snapshot, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, operation, cache_key, items, payload, fetched_at
		FROM snapshots
		WHERE ? = '' OR operation = ?
		ORDER BY fetched_at DESC, id
		LIMIT ?
	`, operation, operation, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentSnapshots: query: %w", err)
	}
	defer rows.Close()

	var snaps []domain.Snapshot
	for rows.Next() {
		var snap domain.Snapshot
		var fetchedAt string

		if err := rows.Scan(
			&snap.ID,
			&snap.Operation,
			&snap.CacheKey,
			&snap.Items,
			&snap.Payload,
			&fetchedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.RecentSnapshots: scan row: %w", err)
		}

		snap.FetchedAt, _ = time.Parse(timeLayout, fetchedAt)
		snaps = append(snaps, snap)
	}

	return snaps, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// pruneOld elimina snapshots antiguos para mantener la DB ligera.
func (s *SQLiteStore) pruneOld(ctx context.Context, now time.Time) {
	cutoff := now.UTC().Add(-retentionSnapshots).Format(timeLayout)
	s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE fetched_at < ?`, cutoff)
}

// warmCache precarga el hash del último payload por clave, evitando escrituras
// redundantes en el primer fetch tras un reinicio.
func (s *SQLiteStore) warmCache(ctx context.Context) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cache_key, payload FROM snapshots
		ORDER BY fetched_at
	`)
	if err != nil {
		return
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var key string
		var payload []byte
		if rows.Scan(&key, &payload) == nil {
			s.last[key] = sha256.Sum256(payload)
		}
	}
}
