package polymarket

import (
	"errors"
	"time"

	"github.com/alejandrodnm/polytoolkit/internal/domain"
)

// RetryPolicy define cuántas veces y ante qué errores se repite una lectura.
// Solo aplica a GETs (idempotentes).
type RetryPolicy struct {
	// MaxAttempts es el total de intentos, incluido el primero. < 1 se trata como 1.
	MaxAttempts int
	// Backoff es la espera antes del segundo intento; se duplica en cada reintento.
	Backoff time.Duration
	// Retryable decide si un error clasificado merece otro intento.
	Retryable func(error) bool
}

// DefaultRetryPolicy: 2 intentos, solo para fallos de red y 5xx.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 2,
		Backoff:     250 * time.Millisecond,
		Retryable:   IsTransient,
	}
}

// IsTransient devuelve true para NetworkError y UpstreamError 5xx.
// Timeouts (presupuesto ya gastado) y 4xx son terminales.
func IsTransient(err error) bool {
	var network *domain.NetworkError
	if errors.As(err, &network) {
		return true
	}
	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Transient()
	}
	return false
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p RetryPolicy) shouldRetry(err error) bool {
	if p.Retryable == nil {
		return IsTransient(err)
	}
	return p.Retryable(err)
}

// wait devuelve la espera antes del intento attempt+1 (attempt es 1-based).
func (p RetryPolicy) wait(attempt int) time.Duration {
	if p.Backoff <= 0 {
		return 0
	}
	return p.Backoff << (attempt - 1)
}
