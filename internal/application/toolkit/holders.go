package toolkit

import (
	"sort"
	"strings"

	"github.com/alejandrodnm/polytoolkit/internal/domain"
)

// RankHolders asigna rank denso 1..n dentro de cada par (mercado, outcome):
// cantidad descendente, empate por user ID ascendente.
// outcome vacío = todos los outcomes; si no, se filtra sin distinguir mayúsculas.
// limit > 0 trunca cada outcome a sus primeros limit holders.
// Los grupos salen en el orden en que aparecen en la entrada.
func RankHolders(holders []domain.Holder, outcome string, limit int) []domain.Holder {
	type groupKey struct{ market, outcome string }

	var order []groupKey
	groups := make(map[groupKey][]domain.Holder)
	for _, h := range holders {
		if outcome != "" && !strings.EqualFold(h.Outcome, outcome) {
			continue
		}
		k := groupKey{market: h.MarketID, outcome: h.Outcome}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], h)
	}

	ranked := make([]domain.Holder, 0, len(holders))
	for _, k := range order {
		g := groups[k]
		sort.SliceStable(g, func(i, j int) bool {
			if g[i].Quantity != g[j].Quantity {
				return g[i].Quantity > g[j].Quantity
			}
			return g[i].UserID < g[j].UserID
		})
		if limit > 0 && len(g) > limit {
			g = g[:limit]
		}
		for i := range g {
			g[i].Rank = i + 1
		}
		ranked = append(ranked, g...)
	}
	return ranked
}
