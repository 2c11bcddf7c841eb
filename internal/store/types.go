package store

import "time"

// Call is one finished remote call, as recorded in the call log.
type Call struct {
	ID         int64
	Kind       string // load_catalog or get_recommendations
	SteamID    string
	Outcome    string // succeeded, failed, stale or rejected
	Message    string
	ItemCount  int
	ElapsedMS  int64
	Detail     map[string]string
	RecordedAt time.Time
}

// Storage defines the interface for persistence
type Storage interface {
	// Call log
	RecordCall(call *Call) error
	ListCalls(limit int) ([]*Call, error)
	ListCallsFor(steamID string, limit int) ([]*Call, error)

	// Configuration Management
	SetConfig(key, value string) error
	GetConfig(key string) (string, error)
	ConfigKeys() ([]string, error)

	Close() error
}
