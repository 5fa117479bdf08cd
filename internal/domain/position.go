package domain

// Position es la tenencia de un usuario en un outcome de un mercado.
// MarketID es una referencia, no ownership: upstream es la fuente de verdad.
type Position struct {
	UserID       string  `json:"user_id"`
	MarketID     string  `json:"market_id"`
	MarketTitle  string  `json:"market_title,omitempty"`
	Outcome      string  `json:"outcome"`
	Size         float64 `json:"size"` // shares, >= 0
	EntryPrice   float64 `json:"entry_price"`
	CurrentPrice float64 `json:"current_price"`
	CurrentValue float64 `json:"current_value"` // mark-to-market en USDC
	CashPnL      float64 `json:"cash_pnl"`
	PercentPnL   float64 `json:"percent_pnl"`
}

// TotalValue suma el valor mark-to-market de las posiciones.
func TotalValue(positions []Position) float64 {
	total := 0.0
	for _, p := range positions {
		total += p.CurrentValue
	}
	return total
}

// Holder es una entrada del ranking de top holders de un mercado.
// Rank es 1-based y denso dentro de cada par (MarketID, Outcome).
type Holder struct {
	MarketID string  `json:"market_id"`
	UserID   string  `json:"user_id"`
	Name     string  `json:"name,omitempty"`
	Outcome  string  `json:"outcome"`
	Quantity float64 `json:"quantity"`
	Rank     int     `json:"rank"`
}
