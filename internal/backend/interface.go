// Package backend builds the storage and event plumbing selected by
// configuration.
package backend

import (
	"context"

	"fintrack/internal/ledger"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instances and their cleanup
type BackendResult struct {
	Store storage.Store
	// Publisher is nil when event publishing is disabled.
	Publisher ledger.Publisher
	// Ready checks the store is reachable.
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// JournalResult is the journal the sync worker writes to
type JournalResult struct {
	Journal sheets.JournalWriter
	Kind    string
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	CreateJournal(ctx context.Context, config Config) (*JournalResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific
	DataDirectory string

	// Postgres specific
	DatabaseURL string

	// Event publishing, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets journal, optional
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// BackendType represents the type of storage backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	MemoryBackend   BackendType = "memory"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
