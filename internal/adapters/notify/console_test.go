package notify_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/polytoolkit/internal/adapters/notify"
	"github.com/alejandrodnm/polytoolkit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeMarket(id, question string, vol, liq float64) domain.Market {
	return domain.Market{
		ID:        id,
		Question:  question,
		Slug:      "slug-" + id,
		EndDate:   time.Now().Add(72 * time.Hour),
		Volume24h: vol,
		Liquidity: liq,
		Outcomes: []domain.Outcome{
			{Label: "Yes", Probability: 0.62},
			{Label: "No", Probability: 0.38},
		},
	}
}

func TestConsole_PrintMarkets(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	c.PrintMarkets([]domain.Market{
		makeMarket("1", "Will BTC hit 100k?", 2_500_000, 40_000),
		makeMarket("2", "Will it rain tomorrow?", 900, 120),
	})

	out := buf.String()
	assert.Contains(t, out, "Will BTC hit 100k?")
	assert.Contains(t, out, "Will it rain tomorrow?")
	assert.Contains(t, out, "$2.50M")
	assert.Contains(t, out, "$40.0K")
	assert.Contains(t, out, "62%")
	assert.Contains(t, out, "2 markets")
}

func TestConsole_PrintMarkets_Empty(t *testing.T) {
	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf).PrintMarkets(nil)
	assert.Contains(t, buf.String(), "no markets found")
}

func TestConsole_LongQuestionTruncated(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	longQ := strings.Repeat("A", 80)
	c.PrintMarkets([]domain.Market{makeMarket("1", longQ, 10, 10)})

	out := buf.String()
	assert.Contains(t, out, "...")
	assert.NotContains(t, out, longQ)
}

func TestConsole_PrintMarket(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	m := makeMarket("42", "Will ETH flip BTC?", 1000, 500)
	m.Tags = []string{"Crypto", "Ethereum"}
	c.PrintMarket(m)

	out := buf.String()
	assert.Contains(t, out, "Will ETH flip BTC?")
	assert.Contains(t, out, "https://polymarket.com/event/slug-42")
	assert.Contains(t, out, "Crypto, Ethereum")
	assert.Contains(t, out, "62.0%")
	assert.Contains(t, out, "38.0%")
}

func TestConsole_PrintPositions_TotalValue(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	c.PrintPositions([]domain.Position{
		{MarketID: "0xa", MarketTitle: "Market A", Outcome: "Yes", Size: 100, CurrentValue: 60, CashPnL: 10},
		{MarketID: "0xb", MarketTitle: "Market B", Outcome: "No", Size: 50, CurrentValue: 40, CashPnL: -5},
	})

	out := buf.String()
	assert.Contains(t, out, "Market A")
	assert.Contains(t, out, "-$5.00")
	assert.Contains(t, out, "total value $100.00")
}

func TestConsole_PrintHolders(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	c.PrintHolders([]domain.Holder{
		{MarketID: "0xm", UserID: "0x1234567890abcdef1234", Outcome: "Yes", Quantity: 1500, Rank: 1},
		{MarketID: "0xm", UserID: "0xbeef", Name: "whale", Outcome: "No", Quantity: 900, Rank: 1},
	})

	out := buf.String()
	assert.Contains(t, out, "0x1234...1234")
	assert.Contains(t, out, "whale")
	assert.Contains(t, out, "1500.00")
}

func TestConsole_Render(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	require.NoError(t, c.Render([]domain.Snapshot{{
		ID: "s1", Operation: "get_trending_markets", CacheKey: "get_trending_markets?by=volume&limit=5",
		Items: 5, Payload: []byte("[]"), FetchedAt: time.Now(),
	}}))
	assert.Contains(t, buf.String(), "get_trending_markets")

	err := c.Render(42)
	assert.Error(t, err)
}
