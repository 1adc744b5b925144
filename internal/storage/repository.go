// Package storage persists the ledger in SQLite, the durable counterpart
// of demo mode's JSON snapshot.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vinimacar/EcoFin/internal/core"

	_ "modernc.org/sqlite"
)

const lastAlertKey = "last_alert_at"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadAll implements ledger.Repository.
func (r *SQLiteRepository) LoadAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tx_type, amount_cents, category, description, tx_date, created_at
		FROM transactions
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			txn                    core.Transaction
			typ, txDate, createdAt string
		)
		if err := rows.Scan(&txn.ID, &typ, &txn.Amount.Cents, &txn.Category,
			&txn.Description, &txDate, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txn.Type = core.TransactionType(typ)

		day, err := time.Parse("2006-01-02", txDate)
		if err != nil {
			return nil, fmt.Errorf("parse tx_date %q: %w", txDate, err)
		}
		txn.Date = core.Date{Time: day}

		created, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		txn.CreatedAt = created

		out = append(out, txn)
	}
	return out, rows.Err()
}

// SaveAll implements ledger.Repository. The ledger writes through the full
// collection on every mutation, so the save replaces the table in one
// transaction.
func (r *SQLiteRepository) SaveAll(ctx context.Context, txns []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (id, tx_type, amount_cents, category, description, tx_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, txn := range txns {
		_, err := stmt.ExecContext(ctx,
			txn.ID,
			string(txn.Type),
			txn.Amount.Cents,
			txn.Category,
			txn.Description,
			txn.Date.Format("2006-01-02"),
			txn.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", txn.ID, err)
		}
	}

	return tx.Commit()
}

// LoadCustom implements categories.CustomStore.
func (r *SQLiteRepository) LoadCustom(ctx context.Context) (map[core.TransactionType][]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tx_type, category_key, name, icon
		FROM custom_categories
		ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("query custom categories: %w", err)
	}
	defer rows.Close()

	out := make(map[core.TransactionType][]core.Category)
	for rows.Next() {
		var (
			typ string
			cat core.Category
		)
		if err := rows.Scan(&typ, &cat.Key, &cat.Name, &cat.Icon); err != nil {
			return nil, fmt.Errorf("scan custom category: %w", err)
		}
		out[core.TransactionType(typ)] = append(out[core.TransactionType(typ)], cat)
	}
	return out, rows.Err()
}

// SaveCustom implements categories.CustomStore.
func (r *SQLiteRepository) SaveCustom(ctx context.Context, custom map[core.TransactionType][]core.Category) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM custom_categories`); err != nil {
		return fmt.Errorf("clear custom categories: %w", err)
	}
	for typ, cats := range custom {
		for _, cat := range cats {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO custom_categories (tx_type, category_key, name, icon)
				VALUES (?, ?, ?, ?)`,
				string(typ), cat.Key, cat.Name, cat.Icon)
			if err != nil {
				return fmt.Errorf("insert custom category %s: %w", cat.Key, err)
			}
		}
	}

	return tx.Commit()
}

// LastAlertAt implements budget.StateStore. A missing row means no alert
// was ever emitted.
func (r *SQLiteRepository) LastAlertAt(ctx context.Context) (time.Time, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT state_value FROM app_state WHERE state_key = ?`, lastAlertKey).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query alert state: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse alert state %q: %w", value, err)
	}
	return t, nil
}

// SetLastAlertAt implements budget.StateStore.
func (r *SQLiteRepository) SetLastAlertAt(ctx context.Context, t time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO app_state (state_key, state_value) VALUES (?, ?)
		ON CONFLICT (state_key) DO UPDATE SET state_value = excluded.state_value`,
		lastAlertKey, t.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save alert state: %w", err)
	}
	return nil
}
