package domain

import "time"

// Snapshot es el resultado de un fetch a upstream tal como se persiste en el histórico.
type Snapshot struct {
	ID        string
	Operation string
	CacheKey  string
	Items     int
	Payload   []byte // JSON del resultado
	FetchedAt time.Time
}
