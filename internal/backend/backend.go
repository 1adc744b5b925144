package backend

import (
	"github.com/vinimacar/EcoFin/internal/budget"
	"github.com/vinimacar/EcoFin/internal/categories"
	"github.com/vinimacar/EcoFin/internal/ledger"
)

// Type selects which persistence backend the application runs on.
type Type string

const (
	MemoryBackend Type = "memory"
	SQLiteBackend Type = "sqlite"
	SheetsBackend Type = "sheets"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, SheetsBackend:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{MemoryBackend, SQLiteBackend, SheetsBackend}
}

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result bundles the persistence ports a backend provides. The ports may
// all be served by one implementation (sqlite, memory) or composed from
// several (sheets stores transactions remotely but keeps categories and
// alert state in a local snapshot).
type Result struct {
	Transactions ledger.Repository
	Categories   categories.CustomStore
	AlertState   budget.StateStore
	Cleanup      CleanupFunc
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific; empty means no persistence at all.
	SnapshotPath string

	// Google Sheets specific
	GoogleSpreadsheetID string
	GoogleSheetName     string
}
