package toolkit

import (
	"log/slog"
	"time"

	"github.com/alejandrodnm/polytoolkit/internal/domain"
)

// FilterActive valida los registros de upstream y devuelve solo los mercados
// activos en asOf. Los registros malformados se descartan sin error: la calidad
// de los datos de upstream no está bajo nuestro control.
// El orden de entrada se preserva; el ranking es una etapa aparte.
func FilterActive(records []domain.MarketRecord, asOf time.Time) []domain.Market {
	markets := make([]domain.Market, 0, len(records))
	malformed, inactive := 0, 0

	for _, rec := range records {
		m, err := rec.ToMarket()
		if err != nil {
			malformed++
			slog.Debug("dropping malformed market", "err", err)
			continue
		}
		if !m.IsActive(asOf) {
			inactive++
			continue
		}
		markets = append(markets, m)
	}

	if malformed > 0 || inactive > 0 {
		slog.Debug("active filter applied",
			"in", len(records),
			"out", len(markets),
			"malformed", malformed,
			"inactive", inactive,
		)
	}
	return markets
}

// activeAt vuelve a aplicar el invariante de actividad sobre mercados ya
// validados. Se usa al leer del cache: un mercado puede vencer dentro del TTL.
// Devuelve copias profundas; el valor cacheado nunca sale del toolkit.
func activeAt(markets []domain.Market, asOf time.Time) []domain.Market {
	out := make([]domain.Market, 0, len(markets))
	for _, m := range markets {
		if m.IsActive(asOf) {
			out = append(out, m.Clone())
		}
	}
	return out
}
