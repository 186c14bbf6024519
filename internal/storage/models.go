package storage

import "time"

// Item is one client-readable value, scoped to a browser namespace.
type Item struct {
	Namespace string
	Key       string
	Value     string
	UpdatedAt time.Time
}
