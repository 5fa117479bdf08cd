package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/alejandrodnm/polytoolkit/internal/cache"
	"github.com/alejandrodnm/polytoolkit/internal/domain"
	"github.com/alejandrodnm/polytoolkit/internal/ports"
)

// Nombres de operación; también son nombres de tool y prefijos de clave de cache.
const (
	OpSearchMarkets   = "search_markets"
	OpTrendingMarkets = "get_trending_markets"
	OpLiquidMarkets   = "get_liquid_markets"
	OpMarketDetails   = "get_market_details"
	OpUserPositions   = "get_user_positions"
	OpMarketHolders   = "get_market_holders"
)

// Config agrupa los parámetros ajustables del toolkit.
type Config struct {
	CacheTTL time.Duration
	// SearchFetchLimit: cuántos mercados abiertos se piden a Gamma antes del
	// match por keyword client-side.
	SearchFetchLimit int
	// RankFetchFactor multiplica el limit pedido en trending/liquid para que
	// sobrevivan suficientes mercados al filtro de activos.
	RankFetchFactor int
	// PositionsFetchLimit: tope de posiciones pedidas por usuario.
	PositionsFetchLimit int
}

// DefaultConfig devuelve los defaults: TTL de 5 minutos, 100 mercados por búsqueda.
func DefaultConfig() Config {
	return Config{
		CacheTTL:            300 * time.Second,
		SearchFetchLimit:    100,
		RankFetchFactor:     2,
		PositionsFetchLimit: 500,
	}
}

// Toolkit es la fachada que invoca la capa del agente. Todas las operaciones
// siguen el mismo camino: validar → cache → fetch (single-flight) → filtrar → rankear → cache.
type Toolkit struct {
	cfg      Config
	markets  ports.MarketProvider
	data     ports.DataProvider
	cache    *cache.TTL
	now      func() time.Time
	recorder ports.SnapshotStore
	flights  singleflight.Group
}

// Option configura un Toolkit.
type Option func(*Toolkit)

// WithClock inyecta el reloj del filtro de activos y del cache.
func WithClock(now func() time.Time) Option {
	return func(t *Toolkit) {
		if now != nil {
			t.now = now
		}
	}
}

// WithCache inyecta un cache ya construido (los tests lo inspeccionan).
func WithCache(c *cache.TTL) Option {
	return func(t *Toolkit) { t.cache = c }
}

// WithRecorder persiste cada fetch exitoso a upstream como snapshot.
func WithRecorder(s ports.SnapshotStore) Option {
	return func(t *Toolkit) { t.recorder = s }
}

// New construye un Toolkit. Si no se inyecta, el cache se crea aquí y vive lo
// mismo que el Toolkit.
func New(cfg Config, markets ports.MarketProvider, data ports.DataProvider, opts ...Option) *Toolkit {
	def := DefaultConfig()
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.SearchFetchLimit <= 0 {
		cfg.SearchFetchLimit = def.SearchFetchLimit
	}
	if cfg.RankFetchFactor <= 0 {
		cfg.RankFetchFactor = def.RankFetchFactor
	}
	if cfg.PositionsFetchLimit <= 0 {
		cfg.PositionsFetchLimit = def.PositionsFetchLimit
	}

	t := &Toolkit{
		cfg:     cfg,
		markets: markets,
		data:    data,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.cache == nil {
		t.cache = cache.New(cache.WithClock(t.now))
	}
	return t
}

// SearchMarkets devuelve hasta limit mercados activos cuya pregunta contiene
// query (case-insensitive), en el orden de volumen de upstream.
func (t *Toolkit) SearchMarkets(ctx context.Context, query string, limit int) ([]domain.Market, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &domain.ValidationError{Field: "query", Reason: "must not be empty"}
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	key := cache.KeyFor(OpSearchMarkets, map[string]any{"query": needle, "limit": limit})

	markets, err := load(ctx, t, OpSearchMarkets, key, func(ctx context.Context) ([]domain.Market, error) {
		records, err := t.markets.ListMarkets(ctx, ports.MarketQuery{
			Keyword: query,
			OrderBy: domain.RankByVolume,
			Limit:   t.cfg.SearchFetchLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("toolkit.SearchMarkets: %w", err)
		}

		matched := matchQuestion(FilterActive(records, t.now()), needle)
		if len(matched) > limit {
			matched = matched[:limit]
		}
		return matched, nil
	})
	if err != nil {
		return nil, err
	}
	return activeAt(markets, t.now()), nil
}

// TrendingMarkets devuelve los limit mercados activos con más volumen 24h.
func (t *Toolkit) TrendingMarkets(ctx context.Context, limit int) ([]domain.Market, error) {
	return t.ranked(ctx, OpTrendingMarkets, domain.RankByVolume, limit)
}

// LiquidMarkets devuelve los limit mercados activos con más liquidez.
func (t *Toolkit) LiquidMarkets(ctx context.Context, limit int) ([]domain.Market, error) {
	return t.ranked(ctx, OpLiquidMarkets, domain.RankByLiquidity, limit)
}

func (t *Toolkit) ranked(ctx context.Context, op string, by domain.RankField, limit int) ([]domain.Market, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}

	key := cache.KeyFor(op, map[string]any{"by": by, "limit": limit})

	markets, err := load(ctx, t, op, key, func(ctx context.Context) ([]domain.Market, error) {
		records, err := t.markets.ListMarkets(ctx, ports.MarketQuery{
			OrderBy: by,
			Limit:   limit * t.cfg.RankFetchFactor,
		})
		if err != nil {
			return nil, fmt.Errorf("toolkit.%s: %w", op, err)
		}
		return Rank(FilterActive(records, t.now()), by, limit)
	})
	if err != nil {
		return nil, err
	}
	return activeAt(markets, t.now()), nil
}

// MarketDetails devuelve un mercado activo por ID. Si upstream no lo conoce o
// ya no está activo → *domain.NotFoundError.
func (t *Toolkit) MarketDetails(ctx context.Context, id string) (domain.Market, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Market{}, &domain.ValidationError{Field: "market_id", Reason: "is required"}
	}

	key := cache.KeyFor(OpMarketDetails, map[string]any{"market_id": id})

	m, err := load(ctx, t, OpMarketDetails, key, func(ctx context.Context) (domain.Market, error) {
		rec, err := t.markets.GetMarket(ctx, id)
		if err != nil {
			return domain.Market{}, fmt.Errorf("toolkit.MarketDetails: %w", err)
		}
		active := FilterActive([]domain.MarketRecord{rec}, t.now())
		if len(active) == 0 {
			return domain.Market{}, &domain.NotFoundError{Resource: "active market", ID: id}
		}
		return active[0], nil
	})
	if err != nil {
		return domain.Market{}, err
	}
	if !m.IsActive(t.now()) {
		return domain.Market{}, &domain.NotFoundError{Resource: "active market", ID: id}
	}
	return m.Clone(), nil
}

// UserPositions devuelve las posiciones de una wallet con size >= minSize.
// Son datos del usuario: no aplica el filtro de ciclo de vida ni el ranking.
func (t *Toolkit) UserPositions(ctx context.Context, user string, minSize float64) ([]domain.Position, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, &domain.ValidationError{Field: "user_address", Reason: "is required"}
	}
	if minSize < 0 {
		return nil, &domain.ValidationError{Field: "min_value", Reason: "must not be negative"}
	}

	key := cache.KeyFor(OpUserPositions, map[string]any{"user_address": strings.ToLower(user), "min_value": minSize})

	positions, err := load(ctx, t, OpUserPositions, key, func(ctx context.Context) ([]domain.Position, error) {
		ps, err := t.data.FetchPositions(ctx, user, minSize, t.cfg.PositionsFetchLimit)
		if err != nil {
			return nil, fmt.Errorf("toolkit.UserPositions: %w", err)
		}
		return ps, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(positions), nil
}

// MarketHolders devuelve los top holders de un mercado rankeados por outcome.
// outcome filtra a uno solo ("" = todos); limit aplica por outcome.
func (t *Toolkit) MarketHolders(ctx context.Context, marketID, outcome string, limit int) ([]domain.Holder, error) {
	marketID = strings.TrimSpace(marketID)
	if marketID == "" {
		return nil, &domain.ValidationError{Field: "market_id", Reason: "is required"}
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	outcome = strings.TrimSpace(outcome)

	key := cache.KeyFor(OpMarketHolders, map[string]any{
		"market_id": marketID,
		"outcome":   strings.ToLower(outcome),
		"limit":     limit,
	})

	holders, err := load(ctx, t, OpMarketHolders, key, func(ctx context.Context) ([]domain.Holder, error) {
		hs, err := t.data.FetchHolders(ctx, marketID, limit)
		if err != nil {
			return nil, fmt.Errorf("toolkit.MarketHolders: %w", err)
		}
		return RankHolders(hs, outcome, limit), nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(holders), nil
}

// load devuelve el valor cacheado para key o ejecuta fetch una sola vez por
// clave entre callers concurrentes. El fetch compartido no hereda la
// cancelación de ningún caller: quien cancela solo deja de esperar.
// Los errores nunca se cachean.
func load[T any](ctx context.Context, t *Toolkit, op, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	if v, ok := t.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			slog.Debug("cache hit", "op", op, "key", key)
			return typed, nil
		}
	}

	ch := t.flights.DoChan(key, func() (any, error) {
		// Otro flight pudo haber llenado la entrada mientras esperábamos.
		if v, ok := t.cache.Get(key); ok {
			return v, nil
		}

		callID := uuid.NewString()
		start := time.Now()
		fetchCtx := context.WithoutCancel(ctx)

		v, err := fetch(fetchCtx)
		if err != nil {
			slog.Debug("upstream fetch failed",
				"op", op,
				"call_id", callID,
				"kind", domain.Kind(err),
				"err", err,
			)
			return nil, err
		}

		t.cache.Put(key, v, t.cfg.CacheTTL)
		t.record(fetchCtx, callID, op, key, v)

		slog.Debug("cache miss filled",
			"op", op,
			"key", key,
			"call_id", callID,
			"items", itemCount(v),
			"duration", time.Since(start).Round(time.Millisecond),
		)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		typed, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("toolkit: value for %q has type %T", key, res.Val)
		}
		return typed, nil
	}
}

// record persiste un snapshot de un fetch fresco. Los fallos solo se loguean.
func (t *Toolkit) record(ctx context.Context, id, op, key string, v any) {
	if t.recorder == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Warn("snapshot encode failed", "op", op, "err", err)
		return
	}
	snap := domain.Snapshot{
		ID:        id,
		Operation: op,
		CacheKey:  key,
		Items:     itemCount(v),
		Payload:   payload,
		FetchedAt: t.now().UTC(),
	}
	if err := t.recorder.SaveSnapshot(ctx, snap); err != nil {
		slog.Warn("snapshot store error", "op", op, "err", err)
	}
}

func validateLimit(limit int) error {
	if limit <= 0 {
		return &domain.ValidationError{Field: "limit", Reason: "must be a positive integer"}
	}
	return nil
}

// matchQuestion conserva los mercados cuya pregunta contiene needle (ya en minúsculas).
func matchQuestion(markets []domain.Market, needle string) []domain.Market {
	out := make([]domain.Market, 0, len(markets))
	for _, m := range markets {
		if strings.Contains(strings.ToLower(m.Question), needle) {
			out = append(out, m)
		}
	}
	return out
}

func itemCount(v any) int {
	switch t := v.(type) {
	case []domain.Market:
		return len(t)
	case []domain.Position:
		return len(t)
	case []domain.Holder:
		return len(t)
	case domain.Market:
		return 1
	default:
		return 0
	}
}
