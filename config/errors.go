package config

import "fmt"

var (
	// ErrNotFound is returned when no agent is registered under the requested
	// logical path in the current snapshot.
	ErrNotFound = fmt.Errorf("agent not found")
)
