package ports

import (
	"context"

	"github.com/alejandrodnm/polytoolkit/internal/domain"
)

// MarketQuery son los parámetros del listado de mercados de Gamma.
// El cliente siempre pide closed=false; no hay forma de pedir mercados cerrados.
type MarketQuery struct {
	Keyword string
	OrderBy domain.RankField
	Limit   int
	Offset  int
}

// MarketProvider obtiene mercados de la Gamma API.
type MarketProvider interface {
	// ListMarkets devuelve los registros del listado, en el orden de upstream y sin validar.
	ListMarkets(ctx context.Context, q MarketQuery) ([]domain.MarketRecord, error)

	// GetMarket devuelve un mercado por ID o *domain.NotFoundError.
	GetMarket(ctx context.Context, id string) (domain.MarketRecord, error)
}
