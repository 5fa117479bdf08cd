package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrMalformedResponse indica que upstream respondió 2xx con un body que no se puede decodificar.
var ErrMalformedResponse = errors.New("malformed upstream response")

// ValidationError: el caller pasó un parámetro ausente o inválido. Nunca se reintenta.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError: la petición era válida pero el identificador no tiene registro.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// NetworkError es un fallo transitorio de transporte (conexión rechazada, reset, DNS...).
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error on %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError: el presupuesto de tiempo de la request se agotó. No se reintenta.
type TimeoutError struct {
	Endpoint string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.Endpoint, e.Timeout)
}

// UpstreamError: la API respondió con status de error.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream %s returned %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("upstream %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Transient devuelve true para 5xx.
func (e *UpstreamError) Transient() bool {
	return e.StatusCode >= 500
}

// Error kinds estables para el agente y los logs.
const (
	KindValidation = "validation"
	KindNotFound   = "not_found"
	KindNetwork    = "network"
	KindTimeout    = "timeout"
	KindUpstream   = "upstream"
	KindCanceled   = "canceled"
	KindInternal   = "internal"
)

// Kind clasifica err en una de las clases Kind*. Devuelve "" si err es nil.
func Kind(err error) string {
	if err == nil {
		return ""
	}

	var (
		validation *ValidationError
		notFound   *NotFoundError
		timeout    *TimeoutError
		network    *NetworkError
		upstream   *UpstreamError
	)
	switch {
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &timeout):
		return KindTimeout
	case errors.As(err, &network):
		return KindNetwork
	case errors.As(err, &upstream), errors.Is(err, ErrMalformedResponse):
		return KindUpstream
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}
