package domain

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// Market representa un mercado de predicción activo tal como lo ve el toolkit.
// Se construye en cada fetch y nunca se modifica después.
type Market struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Slug      string    `json:"slug,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	EndDate   time.Time `json:"end_date,omitzero"` // zero = sin fecha de cierre
	Closed    bool      `json:"closed"`
	Volume24h float64   `json:"volume_24h"` // USDC, últimas 24h
	Liquidity float64   `json:"liquidity"`  // USDC
	Outcomes  []Outcome `json:"outcomes,omitempty"`
}

// Outcome es un resultado posible con su probabilidad implícita (último precio).
type Outcome struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// IsActive devuelve true si el mercado no está cerrado y su cierre, si existe,
// es estrictamente posterior a asOf.
func (m Market) IsActive(asOf time.Time) bool {
	if m.Closed {
		return false
	}
	return m.EndDate.IsZero() || m.EndDate.After(asOf)
}

// HoursToResolution devuelve las horas hasta el cierre respecto a asOf.
// Devuelve 0 si EndDate no está definido o ya pasó.
func (m Market) HoursToResolution(asOf time.Time) float64 {
	if m.EndDate.IsZero() {
		return 0
	}
	h := m.EndDate.Sub(asOf).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// Probability devuelve la probabilidad implícita del outcome dado (case-insensitive).
func (m Market) Probability(label string) (float64, bool) {
	for _, o := range m.Outcomes {
		if strings.EqualFold(o.Label, label) {
			return o.Probability, true
		}
	}
	return 0, false
}

// RankField es el campo por el que se ordenan los mercados.
type RankField string

const (
	RankByVolume    RankField = "volume"
	RankByLiquidity RankField = "liquidity"
)

// Value devuelve el valor numérico del campo para m.
func (f RankField) Value(m Market) (float64, error) {
	switch f {
	case RankByVolume:
		return m.Volume24h, nil
	case RankByLiquidity:
		return m.Liquidity, nil
	default:
		return 0, &ValidationError{Field: "by", Reason: fmt.Sprintf("unknown rank field %q", string(f))}
	}
}

// MarketRecord es un mercado tal como llega del cliente: ya sin nombres de campo
// de upstream, pero sin validar. Los punteros nil son campos ausentes.
// Solo el filtro de mercados activos lo convierte en Market.
type MarketRecord struct {
	ID        string
	Question  string
	Slug      string
	Tags      []string
	CreatedAt *time.Time
	EndDate   *time.Time
	Closed    *bool
	Volume24h *float64
	Liquidity *float64
	Outcomes  []Outcome
	// Problems lista los campos presentes que no se pudieron interpretar.
	Problems []string
}

// ToMarket valida el registro y construye el Market.
// Volumen y liquidez ausentes valen 0; negativos son un error.
func (r MarketRecord) ToMarket() (Market, error) {
	if len(r.Problems) > 0 {
		return Market{}, fmt.Errorf("market %q: unparseable fields: %s", r.ID, strings.Join(r.Problems, ", "))
	}
	if strings.TrimSpace(r.ID) == "" {
		return Market{}, fmt.Errorf("market record: missing id")
	}
	if strings.TrimSpace(r.Question) == "" {
		return Market{}, fmt.Errorf("market %q: missing question", r.ID)
	}
	if r.Closed == nil {
		return Market{}, fmt.Errorf("market %q: missing closed flag", r.ID)
	}

	m := Market{
		ID:       r.ID,
		Question: r.Question,
		Slug:     r.Slug,
		Tags:     r.Tags,
		Closed:   *r.Closed,
		Outcomes: r.Outcomes,
	}
	if r.CreatedAt != nil {
		m.CreatedAt = *r.CreatedAt
	}
	if r.EndDate != nil {
		m.EndDate = *r.EndDate
	}
	if r.Volume24h != nil {
		if !finite(*r.Volume24h) || *r.Volume24h < 0 {
			return Market{}, fmt.Errorf("market %q: invalid volume %v", r.ID, *r.Volume24h)
		}
		m.Volume24h = *r.Volume24h
	}
	if r.Liquidity != nil {
		if !finite(*r.Liquidity) || *r.Liquidity < 0 {
			return Market{}, fmt.Errorf("market %q: invalid liquidity %v", r.ID, *r.Liquidity)
		}
		m.Liquidity = *r.Liquidity
	}
	for _, o := range m.Outcomes {
		if o.Label == "" || !finite(o.Probability) || o.Probability < 0 || o.Probability > 1 {
			return Market{}, fmt.Errorf("market %q: invalid outcome %+v", r.ID, o)
		}
	}
	return m, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Clone devuelve una copia de m que no comparte Tags ni Outcomes.
func (m Market) Clone() Market {
	m.Tags = slices.Clone(m.Tags)
	m.Outcomes = slices.Clone(m.Outcomes)
	return m
}

// TruncateQuestion devuelve la pregunta truncada a maxLen caracteres.
// Si la pregunta está vacía usa el ID del mercado como fallback.
func TruncateQuestion(question, id string, maxLen int) string {
	q := question
	if q == "" {
		q = id
	}
	r := []rune(q)
	if len(r) > maxLen && maxLen > 3 {
		q = string(r[:maxLen-3]) + "..."
	}
	return q
}
