package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/polytoolkit/internal/domain"
	"github.com/alejandrodnm/polytoolkit/internal/ports"
)

const (
	dataPositionsPath = "/positions"
	dataHoldersPath   = "/holders"
	dataMaxLimit      = 500
)

var _ ports.DataProvider = (*Client)(nil)

// FetchPositions obtiene las posiciones de un usuario (wallet) desde la Data API.
func (c *Client) FetchPositions(ctx context.Context, user string, minSize float64, limit int) ([]domain.Position, error) {
	if limit <= 0 || limit > dataMaxLimit {
		limit = dataMaxLimit
	}

	params := url.Values{}
	params.Set("user", user)
	params.Set("sizeThreshold", strconv.FormatFloat(minSize, 'f', -1, 64))
	params.Set("limit", strconv.Itoa(limit))

	var resp []dataPosition
	if err := c.get(ctx, DataAPI, dataPositionsPath, params, &resp); err != nil {
		return nil, fmt.Errorf("data-api.FetchPositions: %w", err)
	}

	positions := mapPositions(resp, user)
	slog.Debug("positions fetched",
		"user", user,
		"raw", len(resp),
		"kept", len(positions),
	)
	return positions, nil
}

// FetchHolders obtiene los top holders de un mercado (condition id), por outcome.
func (c *Client) FetchHolders(ctx context.Context, marketID string, limit int) ([]domain.Holder, error) {
	if limit <= 0 || limit > dataMaxLimit {
		limit = dataMaxLimit
	}

	params := url.Values{}
	params.Set("market", marketID)
	params.Set("limit", strconv.Itoa(limit))

	var resp []dataHolderGroup
	if err := c.get(ctx, DataAPI, dataHoldersPath, params, &resp); err != nil {
		return nil, fmt.Errorf("data-api.FetchHolders: %w", err)
	}

	holders := mapHolders(resp, marketID)
	slog.Debug("holders fetched",
		"market", marketID,
		"tokens", len(resp),
		"holders", len(holders),
	)
	return holders, nil
}
