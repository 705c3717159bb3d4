package backend

import (
	"context"

	"pitaka/internal/store"
)

// CleanupFunc releases the resources held by a backend
type CleanupFunc func() error

// BackendResult contains the store and its optional cleanup function
type BackendResult struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend opens the store selected by config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// AppName is the root of every per-user namespace
	AppName string

	// SQLite specific
	SQLiteDBPath string

	// MongoDB specific
	MongoURI      string
	MongoDatabase string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MongoBackend  BackendType = "mongo"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MongoBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
