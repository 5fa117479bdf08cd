package toolkit_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alejandrodnm/polytoolkit/internal/application/toolkit"
	"github.com/alejandrodnm/polytoolkit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTools_Catalogue(t *testing.T) {
	tools := toolkit.Tools()
	require.Len(t, tools, 6)

	names := make(map[string]toolkit.Tool)
	for _, tool := range tools {
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.NotEmpty(t, tool.Returns, tool.Name)
		names[tool.Name] = tool
	}
	for _, name := range []string{
		toolkit.OpSearchMarkets,
		toolkit.OpTrendingMarkets,
		toolkit.OpLiquidMarkets,
		toolkit.OpMarketDetails,
		toolkit.OpUserPositions,
		toolkit.OpMarketHolders,
	} {
		assert.Contains(t, names, name)
	}

	// Tools devuelve una copia
	tools[0].Name = "changed"
	assert.NotEqual(t, "changed", toolkit.Tools()[0].Name)
}

func TestCall_Defaults(t *testing.T) {
	markets := &mockMarkets{records: []domain.MarketRecord{record("a", "A", 1, 1)}}
	tk, _ := newToolkit(markets, nil)

	got, err := tk.Call(context.Background(), toolkit.OpTrendingMarkets, nil)
	require.NoError(t, err)

	list, ok := got.([]domain.Market)
	require.True(t, ok)
	assert.Len(t, list, 1)
	assert.Equal(t, toolkit.DefaultListLimit*2, markets.queries[0].Limit)
}

func TestCall_NumericCoercion(t *testing.T) {
	markets := &mockMarkets{records: []domain.MarketRecord{
		record("a", "A", 3, 1), record("b", "B", 2, 1), record("c", "C", 1, 1),
	}}
	tk, _ := newToolkit(markets, nil)
	ctx := context.Background()

	for _, limit := range []any{2, 2.0, json.Number("2"), "2", int64(2)} {
		got, err := tk.Call(ctx, toolkit.OpLiquidMarkets, map[string]any{"limit": limit})
		require.NoError(t, err, "%T", limit)
		assert.Len(t, got.([]domain.Market), 2, "%T", limit)
	}
	assert.Equal(t, 1, markets.callCount(), "all forms share one cache key")
}

func TestCall_InvalidParams(t *testing.T) {
	tk, _ := newToolkit(nil, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		tool   string
		params map[string]any
		field  string
	}{
		{"fractional limit", toolkit.OpTrendingMarkets, map[string]any{"limit": 2.5}, "limit"},
		{"text limit", toolkit.OpTrendingMarkets, map[string]any{"limit": "many"}, "limit"},
		{"zero limit", toolkit.OpTrendingMarkets, map[string]any{"limit": 0}, "limit"},
		{"huge limit", toolkit.OpTrendingMarkets, map[string]any{"limit": 1e20}, "limit"},
		{"huge text limit", toolkit.OpTrendingMarkets, map[string]any{"limit": "99999999999999999999"}, "limit"},
		{"missing query", toolkit.OpSearchMarkets, map[string]any{}, "query"},
		{"query not a string", toolkit.OpSearchMarkets, map[string]any{"query": 42}, "query"},
		{"missing market id", toolkit.OpMarketDetails, nil, "market_id"},
		{"bad min value", toolkit.OpUserPositions, map[string]any{"user_address": "0x1", "min_value": "lots"}, "min_value"},
		{"unknown tool", "get_weather", nil, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tk.Call(ctx, tt.tool, tt.params)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestCall_LimitOutOfRange(t *testing.T) {
	tk, _ := newToolkit(nil, nil)

	for _, v := range []any{1e20, -1e20, json.Number("1e20"), "99999999999999999999"} {
		_, err := tk.Call(context.Background(), toolkit.OpTrendingMarkets, map[string]any{"limit": v})
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve, "limit %v", v)
		assert.Equal(t, "limit", ve.Field)
		assert.Contains(t, ve.Reason, "out of range", "limit %v", v)
	}
}

func TestCall_AllOperations(t *testing.T) {
	markets := &mockMarkets{
		records: []domain.MarketRecord{record("a", "bitcoin market", 1, 1)},
		byID:    map[string]domain.MarketRecord{"a": record("a", "bitcoin market", 1, 1)},
	}
	data := &mockData{
		positions: []domain.Position{{UserID: "0x1", MarketID: "a", Size: 3}},
		holders:   []domain.Holder{{MarketID: "a", UserID: "0x1", Outcome: "Yes", Quantity: 3}},
	}
	tk, _ := newToolkit(markets, data)
	ctx := context.Background()

	got, err := tk.Call(ctx, toolkit.OpSearchMarkets, map[string]any{"query": "bitcoin"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = tk.Call(ctx, toolkit.OpMarketDetails, map[string]any{"market_id": "a"})
	require.NoError(t, err)
	assert.IsType(t, domain.Market{}, got)

	got, err = tk.Call(ctx, toolkit.OpUserPositions, map[string]any{"user_address": "0x1", "min_value": 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = tk.Call(ctx, toolkit.OpMarketHolders, map[string]any{"market_id": "a", "outcome": "Yes"})
	require.NoError(t, err)
	holders := got.([]domain.Holder)
	require.Len(t, holders, 1)
	assert.Equal(t, 1, holders[0].Rank)
}
