package backend

import (
	"context"
	"fmt"

	"github.com/vinimacar/EcoFin/internal/backend/memory"
	"github.com/vinimacar/EcoFin/internal/backend/sheets"
	"github.com/vinimacar/EcoFin/internal/log"
	"github.com/vinimacar/EcoFin/internal/storage"
)

// Validate validates the backend configuration.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
		if c.GoogleSheetName == "" {
			return fmt.Errorf("Google Sheet name is required for sheets backend")
		}
	case MemoryBackend:
		// Snapshot path is optional.
	}

	return nil
}

// New constructs the persistence ports for the configured backend type.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger = logger.WithComponent(log.ComponentBackend)

	switch cfg.Type {
	case SQLiteBackend:
		return newSQLite(cfg, logger)
	case SheetsBackend:
		return newSheets(ctx, cfg, logger)
	case MemoryBackend:
		return newMemory(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

func newSQLite(cfg Config, logger *log.Logger) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	logger.Info("initialized sqlite backend", log.FieldBackend, SQLiteBackend.String(), "db_path", cfg.SQLiteDBPath)

	return &Result{
		Transactions: repo,
		Categories:   repo,
		AlertState:   repo,
		Cleanup:      repo.Close,
	}, nil
}

func newMemory(cfg Config, logger *log.Logger) (*Result, error) {
	var store *memory.Store
	if cfg.SnapshotPath != "" {
		var err error
		store, err = memory.NewFromFile(cfg.SnapshotPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load snapshot: %w", err)
		}
	} else {
		store = memory.New()
	}

	logger.Info("initialized memory backend", log.FieldBackend, MemoryBackend.String(), "snapshot_path", cfg.SnapshotPath)

	return &Result{
		Transactions: store,
		Categories:   store,
		AlertState:   store,
		Cleanup:      nil,
	}, nil
}

// newSheets keeps transactions in the spreadsheet but categories and
// alert state in a local snapshot next to the process.
func newSheets(ctx context.Context, cfg Config, logger *log.Logger) (*Result, error) {
	cli, err := sheets.NewFromEnv(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	local := memory.New()
	if cfg.SnapshotPath != "" {
		local, err = memory.NewFromFile(cfg.SnapshotPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load snapshot: %w", err)
		}
	}

	logger.Info("initialized sheets backend",
		log.FieldBackend, SheetsBackend.String(),
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet_name", cfg.GoogleSheetName)

	return &Result{
		Transactions: cli,
		Categories:   local,
		AlertState:   local,
		Cleanup:      nil,
	}, nil
}
