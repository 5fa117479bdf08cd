// Package cache implementa el cache TTL en memoria que comparten todas las
// operaciones del toolkit.
//
// Expiración lazy: una entrada vencida se trata como ausente en Get, no hay
// sweep en background. El espacio de claves es pequeño (seis operaciones ×
// combinaciones acotadas de parámetros), así que el crecimiento sin límite
// durante la vida del proceso es aceptado; Purge existe para quien quiera barrer.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value      any
	insertedAt time.Time
	ttl        time.Duration
}

func (e entry) validAt(now time.Time) bool {
	return now.Before(e.insertedAt.Add(e.ttl))
}

// TTL es un store key→(value, expiry) seguro para uso concurrente.
// Los valores se reemplazan enteros, nunca se mutan in place.
type TTL struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// Option configura un TTL.
type Option func(*TTL)

// WithClock inyecta el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(c *TTL) {
		if now != nil {
			c.now = now
		}
	}
}

// New crea un cache vacío.
func New(opts ...Option) *TTL {
	c := &TTL{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get devuelve el valor si existe una entrada válida (now < insertedAt + ttl).
func (c *TTL) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !e.validAt(c.now()) {
		return nil, false
	}
	return e.value, true
}

// Put guarda value bajo key. Sobrescribe incondicionalmente: gana el último writer.
func (c *TTL) Put(key string, value any, ttl time.Duration) {
	e := entry{value: value, insertedAt: c.now(), ttl: ttl}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

// Len devuelve el número de entradas almacenadas, vencidas incluidas.
func (c *TTL) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge elimina las entradas vencidas y devuelve cuántas borró.
func (c *TTL) Purge() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if !e.validAt(now) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}
