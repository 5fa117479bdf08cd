package ports

import (
	"context"

	"github.com/alejandrodnm/polytoolkit/internal/domain"
)

// SnapshotStore persiste los resultados de cada fetch a upstream.
type SnapshotStore interface {
	// SaveSnapshot persiste un snapshot. Es idempotente por ID.
	SaveSnapshot(ctx context.Context, s domain.Snapshot) error

	// RecentSnapshots devuelve los últimos snapshots, más recientes primero.
	// operation vacío = todas las operaciones.
	RecentSnapshots(ctx context.Context, operation string, limit int) ([]domain.Snapshot, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
