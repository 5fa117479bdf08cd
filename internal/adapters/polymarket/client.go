package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/polytoolkit/internal/domain"
)

const (
	defaultGammaBase = "https://gamma-api.polymarket.com"
	defaultDataBase  = "https://data-api.polymarket.com"

	defaultTimeout = 30 * time.Second

	// Rate limits al 60% de los límites reales documentados.
	// Gamma /markets: 300/10s → 180/10s → 18/s
	gammaRatePerSec = 18
	// Data API: 200/10s → 120/10s → 12/s
	dataRatePerSec = 12

	maxErrorBody = 256
)

// API identifica cuál de las dos APIs públicas de Polymarket se consulta.
type API int

const (
	GammaAPI API = iota
	DataAPI
)

func (a API) String() string {
	if a == DataAPI {
		return "data"
	}
	return "gamma"
}

// Client es el HTTP client de Polymarket con timeout por request, rate limiting y retries.
// No cachea nada: el cache vive en el toolkit.
type Client struct {
	http         *http.Client
	gammaBase    string
	dataBase     string
	timeout      time.Duration
	retry        RetryPolicy
	gammaLimiter *rate.Limiter
	dataLimiter  *rate.Limiter
}

// Option configura un Client.
type Option func(*Client)

// WithTimeout fija el presupuesto de tiempo de cada request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetryPolicy reemplaza la política de reintentos.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithHTTPClient reemplaza el *http.Client (tests, transports custom).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimits fija las requests/segundo permitidas contra cada API. <= 0 = sin límite.
func WithRateLimits(gammaPerSec, dataPerSec float64) Option {
	return func(c *Client) {
		c.gammaLimiter = newLimiter(gammaPerSec, 10)
		c.dataLimiter = newLimiter(dataPerSec, 5)
	}
}

// NewClient crea un Client con los base URLs dados.
// Si gammaBase o dataBase están vacíos, usa los URLs de producción.
func NewClient(gammaBase, dataBase string, opts ...Option) *Client {
	if gammaBase == "" {
		gammaBase = defaultGammaBase
	}
	if dataBase == "" {
		dataBase = defaultDataBase
	}
	c := &Client{
		// Sin Timeout global: el presupuesto se aplica por intento vía context.
		http:         &http.Client{},
		gammaBase:    strings.TrimRight(gammaBase, "/"),
		dataBase:     strings.TrimRight(dataBase, "/"),
		timeout:      defaultTimeout,
		retry:        DefaultRetryPolicy(),
		gammaLimiter: rate.NewLimiter(gammaRatePerSec, 10),
		dataLimiter:  rate.NewLimiter(dataRatePerSec, 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newLimiter(perSec float64, burst int) *rate.Limiter {
	if perSec <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(perSec), burst)
}

// Fetch hace un GET a path en la API indicada y devuelve el JSON crudo.
// Errores: *domain.NetworkError, *domain.TimeoutError, *domain.UpstreamError,
// o el error del contexto si el caller abandonó la llamada.
func (c *Client) Fetch(ctx context.Context, api API, path string, params url.Values) (json.RawMessage, error) {
	base, limiter := c.gammaBase, c.gammaLimiter
	if api == DataAPI {
		base, limiter = c.dataBase, c.dataLimiter
	}

	endpoint := api.String() + path
	u := base + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return c.doWithRetry(ctx, limiter, endpoint, u)
}

// get hace Fetch y decodifica el JSON en out.
func (c *Client) get(ctx context.Context, api API, path string, params url.Values, out any) error {
	body, err := c.Fetch(ctx, api, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s%s: %v", domain.ErrMalformedResponse, api, path, err)
	}
	return nil
}

// doWithRetry ejecuta intentos acotados por la RetryPolicy. Cada intento se
// clasifica como terminal o reintentable; nunca se reintenta un timeout ni un 4xx.
func (c *Client) doWithRetry(ctx context.Context, limiter *rate.Limiter, endpoint, rawURL string) ([]byte, error) {
	attempts := c.retry.attempts()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		body, err := c.do(ctx, endpoint, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !c.retry.shouldRetry(err) || attempt == attempts {
			break
		}

		slog.Warn("upstream request failed, retrying",
			"endpoint", endpoint,
			"attempt", attempt,
			"max_attempts", attempts,
			"err", err,
		)
		if !c.sleep(ctx, attempt) {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// do ejecuta un único intento con su propio presupuesto de tiempo.
func (c *Client) do(ctx context.Context, endpoint, rawURL string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classify(ctx, reqCtx, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.classify(ctx, reqCtx, endpoint, err)
	}

	if resp.StatusCode >= 400 {
		return nil, &domain.UpstreamError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(body),
		}
	}
	return body, nil
}

// classify convierte un error de transporte en el error de dominio que corresponde.
func (c *Client) classify(ctx, reqCtx context.Context, endpoint string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return &domain.TimeoutError{Endpoint: endpoint, Timeout: c.timeout}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &domain.TimeoutError{Endpoint: endpoint, Timeout: c.timeout}
	}
	return &domain.NetworkError{Endpoint: endpoint, Err: err}
}

// sleep espera con backoff exponencial respetando el contexto.
// Devuelve false si el contexto se canceló durante la espera.
func (c *Client) sleep(ctx context.Context, attempt int) bool {
	wait := c.retry.wait(attempt)
	if wait <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func truncateBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
