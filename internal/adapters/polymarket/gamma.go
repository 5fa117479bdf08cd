package polymarket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/alejandrodnm/polytoolkit/internal/domain"
	"github.com/alejandrodnm/polytoolkit/internal/ports"
)

const (
	gammaMarketsPath = "/markets"
	gammaMaxLimit    = 500
)

var _ ports.MarketProvider = (*Client)(nil)

// gammaOrderFields traduce el campo de ranking al nombre que entiende Gamma.
var gammaOrderFields = map[domain.RankField]string{
	domain.RankByVolume:    "volume24hr",
	domain.RankByLiquidity: "liquidity",
}

// ListMarkets consulta GET /markets siempre con closed=false.
// El filtrado client-side sigue siendo obligatorio: Gamma a veces devuelve
// mercados ya vencidos que aún no marcó como cerrados.
func (c *Client) ListMarkets(ctx context.Context, q ports.MarketQuery) ([]domain.MarketRecord, error) {
	limit := q.Limit
	if limit <= 0 || limit > gammaMaxLimit {
		limit = gammaMaxLimit
	}

	params := url.Values{}
	params.Set("closed", "false")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(max(q.Offset, 0)))
	if field, ok := gammaOrderFields[q.OrderBy]; ok {
		params.Set("order", field)
		params.Set("ascending", "false")
	}
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		params.Set("search_term", kw)
	}

	var resp []gammaMarket
	if err := c.get(ctx, GammaAPI, gammaMarketsPath, params, &resp); err != nil {
		return nil, fmt.Errorf("gamma.ListMarkets: %w", err)
	}

	slog.Debug("gamma markets fetched",
		"count", len(resp),
		"order", q.OrderBy,
		"keyword", q.Keyword,
	)
	return mapGammaMarkets(resp), nil
}

// GetMarket consulta GET /markets/{id}. 404 o un objeto vacío → *domain.NotFoundError.
func (c *Client) GetMarket(ctx context.Context, id string) (domain.MarketRecord, error) {
	path := gammaMarketsPath + "/" + url.PathEscape(id)

	var resp gammaMarket
	if err := c.get(ctx, GammaAPI, path, nil, &resp); err != nil {
		var upstream *domain.UpstreamError
		if errors.As(err, &upstream) && upstream.StatusCode == http.StatusNotFound {
			return domain.MarketRecord{}, &domain.NotFoundError{Resource: "market", ID: id}
		}
		return domain.MarketRecord{}, fmt.Errorf("gamma.GetMarket %s: %w", id, err)
	}

	rec := mapGammaMarket(resp)
	if rec.ID == "" {
		return domain.MarketRecord{}, &domain.NotFoundError{Resource: "market", ID: id}
	}
	return rec, nil
}
