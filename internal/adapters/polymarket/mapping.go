package polymarket

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/polytoolkit/internal/domain"
)

// mapGammaMarkets convierte los DTOs de Gamma a domain.MarketRecord, en orden.
func mapGammaMarkets(raw []gammaMarket) []domain.MarketRecord {
	records := make([]domain.MarketRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, mapGammaMarket(r))
	}
	return records
}

// mapGammaMarket convierte un gammaMarket a domain.MarketRecord.
// No valida: los campos presentes pero ilegibles se anotan en Problems
// y el filtro de mercados activos descarta el registro.
func mapGammaMarket(g gammaMarket) domain.MarketRecord {
	rec := domain.MarketRecord{
		ID:       strings.TrimSpace(string(g.ID)),
		Question: strings.TrimSpace(g.Question),
		Slug:     g.Slug,
		Tags:     parseTags(g.Tags, g.Category),
	}
	if rec.ID == "" {
		// Algunos endpoints legacy solo devuelven conditionId
		rec.ID = g.ConditionID
	}

	if g.Closed.present {
		if g.Closed.bad {
			rec.Problems = append(rec.Problems, "closed")
		} else {
			closed := g.Closed.value
			rec.Closed = &closed
		}
	}

	if g.CreatedAt != "" {
		if t, err := parseTime(g.CreatedAt); err == nil {
			rec.CreatedAt = &t
		} else {
			rec.Problems = append(rec.Problems, "createdAt")
		}
	}

	// endDate trae hora; endDateIso a veces solo fecha
	end := g.EndDate
	if end == "" {
		end = g.EndDateISO
	}
	if end != "" {
		if t, err := parseTime(end); err == nil {
			rec.EndDate = &t
		} else {
			rec.Problems = append(rec.Problems, "endDate")
		}
	}

	rec.Volume24h = numberField(g.Volume24h, "volume24hr", &rec.Problems)
	liquidity := g.Liquidity
	if !liquidity.present {
		liquidity = g.LiquidityNum
	}
	rec.Liquidity = numberField(liquidity, "liquidity", &rec.Problems)

	outcomes, err := parseOutcomes(g.Outcomes, g.OutcomePrices)
	if err != nil {
		rec.Problems = append(rec.Problems, "outcomes")
	} else {
		rec.Outcomes = outcomes
	}

	return rec
}

// numberField devuelve un puntero al valor, nil si estaba ausente.
func numberField(n flexNumber, name string, problems *[]string) *float64 {
	v, present, err := n.Float64()
	if !present {
		return nil
	}
	if err != nil {
		*problems = append(*problems, name)
		return nil
	}
	return &v
}

// parseOutcomes combina outcomes y outcomePrices en []domain.Outcome.
// Gamma los manda como strings con JSON dentro; se acepta también el array directo.
func parseOutcomes(rawLabels, rawPrices json.RawMessage) ([]domain.Outcome, error) {
	labels, err := decodeStringList(rawLabels)
	if err != nil {
		return nil, fmt.Errorf("outcomes: %w", err)
	}
	prices, err := decodeStringList(rawPrices)
	if err != nil {
		return nil, fmt.Errorf("outcomePrices: %w", err)
	}
	if len(labels) == 0 {
		return nil, nil
	}
	if len(prices) != 0 && len(prices) != len(labels) {
		return nil, fmt.Errorf("%d outcomes but %d prices", len(labels), len(prices))
	}

	outcomes := make([]domain.Outcome, len(labels))
	for i, label := range labels {
		outcomes[i].Label = label
		if len(prices) == 0 {
			continue
		}
		p, err := strconv.ParseFloat(prices[i], 64)
		if err != nil {
			return nil, fmt.Errorf("price %q: %w", prices[i], err)
		}
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("price %q: not finite", prices[i])
		}
		outcomes[i].Probability = p
	}
	return outcomes, nil
}

// decodeStringList acepta `"[\"a\",\"b\"]"`, `["a","b"]` o `[0.5, 0.5]`.
func decodeStringList(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, err
		}
		if strings.TrimSpace(inner) == "" {
			return nil, nil
		}
		raw = json.RawMessage(inner)
	}

	var items []flexString
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = strings.TrimSpace(string(it))
	}
	return out, nil
}

// parseTags acepta tags como objetos {label} o strings; añade category si existe.
func parseTags(raw json.RawMessage, category string) []string {
	var tags []string
	seen := make(map[string]bool)
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			return
		}
		seen[strings.ToLower(t)] = true
		tags = append(tags, t)
	}

	add(category)

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return tags
	}

	var objs []gammaTag
	if err := json.Unmarshal(raw, &objs); err == nil {
		for _, o := range objs {
			if o.Label != "" {
				add(o.Label)
			} else {
				add(o.Slug)
			}
		}
		return tags
	}

	var strs []string
	if err := json.Unmarshal(raw, &strs); err == nil {
		for _, s := range strs {
			add(s)
		}
	}
	return tags
}

// parseTime prueba los formatos que usa Polymarket.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

// mapPositions convierte las posiciones de la Data API. Descarta las que no
// referencian un mercado o tienen size negativo o ilegible.
func mapPositions(raw []dataPosition, user string) []domain.Position {
	positions := make([]domain.Position, 0, len(raw))
	for _, r := range raw {
		size, _, err := r.Size.Float64()
		if err != nil || size < 0 || r.ConditionID == "" {
			slog.Debug("dropping malformed position",
				"user", user,
				"condition_id", r.ConditionID,
				"size", r.Size.raw,
			)
			continue
		}

		owner := r.ProxyWallet
		if owner == "" {
			owner = user
		}
		positions = append(positions, domain.Position{
			UserID:       owner,
			MarketID:     r.ConditionID,
			MarketTitle:  r.Title,
			Outcome:      r.Outcome,
			Size:         size,
			EntryPrice:   floatOrZero(r.AvgPrice),
			CurrentPrice: floatOrZero(r.CurPrice),
			CurrentValue: floatOrZero(r.CurrentValue),
			CashPnL:      floatOrZero(r.CashPnL),
			PercentPnL:   floatOrZero(r.PercentPnL),
		})
	}
	return positions
}

// mapHolders aplana los grupos por token en domain.Holder sin rank.
func mapHolders(groups []dataHolderGroup, marketID string) []domain.Holder {
	var holders []domain.Holder
	for _, g := range groups {
		for _, h := range g.Holders {
			amount, _, err := h.Amount.Float64()
			if err != nil || amount < 0 || h.ProxyWallet == "" {
				slog.Debug("dropping malformed holder",
					"market", marketID,
					"wallet", h.ProxyWallet,
					"amount", h.Amount.raw,
				)
				continue
			}
			name := h.Name
			if name == "" {
				name = h.Pseudonym
			}
			holders = append(holders, domain.Holder{
				MarketID: marketID,
				UserID:   h.ProxyWallet,
				Name:     name,
				Outcome:  outcomeLabel(h.OutcomeIndex),
				Quantity: amount,
			})
		}
	}
	return holders
}

// outcomeLabel traduce el outcomeIndex de la Data API: 0 = Yes, 1 = No.
func outcomeLabel(index int) string {
	switch index {
	case 0:
		return "Yes"
	case 1:
		return "No"
	default:
		return fmt.Sprintf("Outcome %d", index)
	}
}

func floatOrZero(n flexNumber) float64 {
	v, _, err := n.Float64()
	if err != nil {
		return 0
	}
	return v
}
