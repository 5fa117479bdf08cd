package polymarket

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DTOs raw de las APIs de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain se hace en mapping.go.
//
// Gamma no es consistente con los tipos: números como strings JSON, booleanos
// como "true"/"false", IDs numéricos o string. Los tipos flex* toleran todo
// eso sin romper el decode de la lista completa; mapping.go decide qué es válido.

// flexString acepta string o número JSON.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	*f = flexString(strings.TrimSpace(string(data)))
	return nil
}

// flexNumber acepta número JSON o string numérico. null y "" = ausente.
type flexNumber struct {
	raw     string
	present bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := strings.TrimSpace(strings.Trim(string(data), `"`))
	n.raw = s
	n.present = s != ""
	return nil
}

// Float64 devuelve el valor, si estaba presente, y un error si no es un
// número finito ("NaN" e "Inf" los acepta ParseFloat pero no son válidos).
func (n flexNumber) Float64() (v float64, present bool, err error) {
	if !n.present {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(n.raw, 64)
	if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
		return 0, true, fmt.Errorf("non-finite number %q", n.raw)
	}
	return v, true, err
}

// flexBool acepta bool JSON o string ("true"/"false"/"1"/"0"). null = ausente.
type flexBool struct {
	value   bool
	present bool
	bad     bool
}

func (f *flexBool) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	f.present = true
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		f.value = b
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		f.bad = true
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		f.value = true
	case "false", "0":
		f.value = false
	default:
		f.bad = true
	}
	return nil
}

// --- Gamma API ---

// gammaMarket es un mercado de GET /markets y GET /markets/{id}.
type gammaMarket struct {
	ID            flexString      `json:"id"`
	ConditionID   string          `json:"conditionId"`
	Question      string          `json:"question"`
	Slug          string          `json:"slug"`
	Category      string          `json:"category"`
	Tags          json.RawMessage `json:"tags"` // [{"label": ...}] o ["..."]
	CreatedAt     string          `json:"createdAt"`
	EndDate       string          `json:"endDate"`
	EndDateISO    string          `json:"endDateIso"`
	Closed        flexBool        `json:"closed"`
	Volume24h     flexNumber      `json:"volume24hr"`
	Liquidity     flexNumber      `json:"liquidity"`
	LiquidityNum  flexNumber      `json:"liquidityNum"`
	Outcomes      json.RawMessage `json:"outcomes"`      // JSON-encoded: "[\"Yes\",\"No\"]"
	OutcomePrices json.RawMessage `json:"outcomePrices"` // JSON-encoded: "[\"0.5\",\"0.5\"]"
}

// gammaTag es un tag de Gamma en su forma objeto.
type gammaTag struct {
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// --- Data API ---

// dataPosition es un item de GET /positions.
type dataPosition struct {
	ProxyWallet  string     `json:"proxyWallet"`
	Asset        string     `json:"asset"`
	ConditionID  string     `json:"conditionId"`
	Title        string     `json:"title"`
	Outcome      string     `json:"outcome"`
	Size         flexNumber `json:"size"`
	AvgPrice     flexNumber `json:"avgPrice"`
	CurPrice     flexNumber `json:"curPrice"`
	CurrentValue flexNumber `json:"currentValue"`
	CashPnL      flexNumber `json:"cashPnl"`
	PercentPnL   flexNumber `json:"percentPnl"`
}

// dataHolderGroup agrupa los holders de un token (un outcome) en GET /holders.
type dataHolderGroup struct {
	Token   string       `json:"token"`
	Holders []dataHolder `json:"holders"`
}

// dataHolder es un holder individual.
type dataHolder struct {
	ProxyWallet  string     `json:"proxyWallet"`
	Name         string     `json:"name"`
	Pseudonym    string     `json:"pseudonym"`
	Amount       flexNumber `json:"amount"`
	OutcomeIndex int        `json:"outcomeIndex"`
}
