package toolkit

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/polytoolkit/internal/domain"
)

// Defaults de los parámetros opcionales.
const (
	DefaultListLimit    = 20
	DefaultHoldersLimit = 50
)

// Param describe un parámetro de una tool.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // string | integer | number
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
	Description string `json:"description"`
}

// Tool es la ficha que el agente usa para elegir qué operación invocar.
type Tool struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	UseCases    []string `json:"use_cases"`
	Returns     string   `json:"returns"`
	Params      []Param  `json:"params"`
}

var catalogue = []Tool{
	{
		Name:        OpSearchMarkets,
		Description: "Search active Polymarket markets whose question contains a keyword.",
		UseCases: []string{
			"Find markets about a topic (bitcoin, election, AI)",
			"Look up the market behind a news headline",
		},
		Returns: "List of active markets with question, outcomes, probabilities, 24h volume and liquidity.",
		Params: []Param{
			{Name: "query", Type: "string", Required: true, Description: `Search term, e.g. "bitcoin"`},
			{Name: "limit", Type: "integer", Default: DefaultListLimit, Description: "Maximum number of results"},
		},
	},
	{
		Name:        OpTrendingMarkets,
		Description: "Get the active markets with the highest 24h trading volume.",
		UseCases: []string{
			"What is everyone betting on right now",
			"Market sentiment overview",
		},
		Returns: "Active markets sorted by 24h volume, descending.",
		Params: []Param{
			{Name: "limit", Type: "integer", Default: DefaultListLimit, Description: "Number of markets to return"},
		},
	},
	{
		Name:        OpLiquidMarkets,
		Description: "Get the active markets with the deepest liquidity.",
		UseCases: []string{
			"Markets where large orders can be filled",
			"Most reliable probability signals",
		},
		Returns: "Active markets sorted by liquidity, descending.",
		Params: []Param{
			{Name: "limit", Type: "integer", Default: DefaultListLimit, Description: "Number of markets to return"},
		},
	},
	{
		Name:        OpMarketDetails,
		Description: "Get full details of one active market.",
		UseCases: []string{
			"Current probabilities of a known market",
			"Check resolution date and volume of a market",
		},
		Returns: "A single active market, or a not_found error if it does not exist or has closed.",
		Params: []Param{
			{Name: "market_id", Type: "string", Required: true, Description: "Polymarket market ID"},
		},
	},
	{
		Name:        OpUserPositions,
		Description: "Get the open positions of a wallet.",
		UseCases: []string{
			"Portfolio of a known trader",
			"Exposure of a wallet to a market",
		},
		Returns: "Positions with size, entry and current price, value and PnL.",
		Params: []Param{
			{Name: "user_address", Type: "string", Required: true, Description: "Wallet address (0x...)"},
			{Name: "min_value", Type: "number", Default: 0.0, Description: "Minimum position size to include"},
		},
	},
	{
		Name:        OpMarketHolders,
		Description: "Get the top holders of a market, ranked per outcome.",
		UseCases: []string{
			"Who holds the largest Yes position",
			"Concentration of a market",
		},
		Returns: "Holders with outcome, quantity and rank within the outcome.",
		Params: []Param{
			{Name: "market_id", Type: "string", Required: true, Description: "Market condition ID"},
			{Name: "outcome", Type: "string", Default: "", Description: `Only this outcome (e.g. "Yes"); empty for all`},
			{Name: "limit", Type: "integer", Default: DefaultHoldersLimit, Description: "Holders per outcome"},
		},
	},
}

// Tools devuelve una copia del catálogo de tools.
func Tools() []Tool {
	out := make([]Tool, len(catalogue))
	copy(out, catalogue)
	return out
}

// Call invoca una operación por nombre. Los errores de parámetros son
// *domain.ValidationError, igual que en los métodos tipados.
func (t *Toolkit) Call(ctx context.Context, name string, params map[string]any) (any, error) {
	switch name {
	case OpSearchMarkets:
		query, err := stringParam(params, "query", "")
		if err != nil {
			return nil, err
		}
		limit, err := intParam(params, "limit", DefaultListLimit)
		if err != nil {
			return nil, err
		}
		return t.SearchMarkets(ctx, query, limit)

	case OpTrendingMarkets, OpLiquidMarkets:
		limit, err := intParam(params, "limit", DefaultListLimit)
		if err != nil {
			return nil, err
		}
		if name == OpTrendingMarkets {
			return t.TrendingMarkets(ctx, limit)
		}
		return t.LiquidMarkets(ctx, limit)

	case OpMarketDetails:
		id, err := stringParam(params, "market_id", "")
		if err != nil {
			return nil, err
		}
		return t.MarketDetails(ctx, id)

	case OpUserPositions:
		user, err := stringParam(params, "user_address", "")
		if err != nil {
			return nil, err
		}
		minValue, err := floatParam(params, "min_value", 0)
		if err != nil {
			return nil, err
		}
		return t.UserPositions(ctx, user, minValue)

	case OpMarketHolders:
		id, err := stringParam(params, "market_id", "")
		if err != nil {
			return nil, err
		}
		outcome, err := stringParam(params, "outcome", "")
		if err != nil {
			return nil, err
		}
		limit, err := intParam(params, "limit", DefaultHoldersLimit)
		if err != nil {
			return nil, err
		}
		return t.MarketHolders(ctx, id, outcome, limit)
	}

	return nil, &domain.ValidationError{Field: "name", Reason: fmt.Sprintf("unknown tool %q", name)}
}
