package ports

import (
	"context"

	"github.com/alejandrodnm/polytoolkit/internal/domain"
)

// DataProvider obtiene datos de usuarios y holders de la Data API.
type DataProvider interface {
	// FetchPositions devuelve las posiciones del usuario con size >= minSize.
	FetchPositions(ctx context.Context, user string, minSize float64, limit int) ([]domain.Position, error)

	// FetchHolders devuelve los top holders del mercado, sin rank asignado.
	FetchHolders(ctx context.Context, marketID string, limit int) ([]domain.Holder, error)
}
