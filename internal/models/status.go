package models

import "time"

// ConnectionStatus holds the router's connection status payload. The shape of
// the payload is firmware-specific, so it is carried as decoded JSON.
type ConnectionStatus struct {
	Payload   map[string]any
	FetchedAt time.Time
}
