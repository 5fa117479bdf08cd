package toolkit

import (
	"sort"

	"github.com/alejandrodnm/polytoolkit/internal/domain"
)

// Rank ordena por el campo pedido de forma descendente, desempata por ID
// ascendente y trunca a limit. No modifica el slice de entrada.
func Rank(markets []domain.Market, by domain.RankField, limit int) ([]domain.Market, error) {
	if limit <= 0 {
		return nil, &domain.ValidationError{Field: "limit", Reason: "must be a positive integer"}
	}
	if _, err := by.Value(domain.Market{}); err != nil {
		return nil, err
	}

	ranked := make([]domain.Market, len(markets))
	copy(ranked, markets)

	sort.SliceStable(ranked, func(i, j int) bool {
		vi, _ := by.Value(ranked[i])
		vj, _ := by.Value(ranked[j])
		if vi != vj {
			return vi > vj
		}
		return ranked[i].ID < ranked[j].ID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}
