// Package memory is the default "demo mode" backend: the ledger lives in
// process memory with an optional JSON snapshot file, the browser
// local-storage analog of the original client.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vinimacar/EcoFin/internal/core"
)

// Store implements the transaction repository, custom-category store and
// alert-state store over one JSON snapshot file. An empty path disables
// the snapshot and keeps everything in memory only.
type Store struct {
	mu   sync.Mutex
	path string

	txns        []core.Transaction
	custom      map[core.TransactionType][]core.Category
	lastAlertAt time.Time
}

// snapshot is the on-disk JSON shape.
type snapshot struct {
	Transactions []transactionJSON                       `json:"transactions"`
	Custom       map[core.TransactionType][]categoryJSON `json:"custom_categories"`
	LastAlertAt  time.Time                               `json:"last_alert_at"`
}

type transactionJSON struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

type categoryJSON struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// New creates an in-memory-only store.
func New() *Store {
	return &Store{custom: make(map[core.TransactionType][]core.Category)}
}

// NewFromFile loads the snapshot at path if it exists. A missing file is a
// fresh start, not an error.
func NewFromFile(path string) (*Store, error) {
	s := New()
	s.path = path

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	for _, t := range snap.Transactions {
		txn, err := fromJSON(t)
		if err != nil {
			return nil, fmt.Errorf("decode transaction %s: %w", t.ID, err)
		}
		s.txns = append(s.txns, txn)
	}
	for typ, cats := range snap.Custom {
		for _, c := range cats {
			s.custom[typ] = append(s.custom[typ], core.Category{Key: c.Key, Name: c.Name, Icon: c.Icon})
		}
	}
	s.lastAlertAt = snap.LastAlertAt
	return s, nil
}

// LoadAll implements ledger.Repository.
func (s *Store) LoadAll(context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.txns...), nil
}

// SaveAll implements ledger.Repository with a full write-through snapshot.
func (s *Store) SaveAll(_ context.Context, txns []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns = append([]core.Transaction(nil), txns...)
	return s.flushLocked()
}

// LoadCustom implements categories.CustomStore.
func (s *Store) LoadCustom(context.Context) (map[core.TransactionType][]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[core.TransactionType][]core.Category, len(s.custom))
	for typ, cats := range s.custom {
		out[typ] = append([]core.Category(nil), cats...)
	}
	return out, nil
}

// SaveCustom implements categories.CustomStore.
func (s *Store) SaveCustom(_ context.Context, custom map[core.TransactionType][]core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.custom = make(map[core.TransactionType][]core.Category, len(custom))
	for typ, cats := range custom {
		s.custom[typ] = append([]core.Category(nil), cats...)
	}
	return s.flushLocked()
}

// LastAlertAt implements budget.StateStore.
func (s *Store) LastAlertAt(context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAlertAt, nil
}

// SetLastAlertAt implements budget.StateStore.
func (s *Store) SetLastAlertAt(_ context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAlertAt = t
	return s.flushLocked()
}

// flushLocked writes the snapshot file. Caller holds the mutex.
func (s *Store) flushLocked() error {
	if s.path == "" {
		return nil
	}

	snap := snapshot{
		Custom:      make(map[core.TransactionType][]categoryJSON, len(s.custom)),
		LastAlertAt: s.lastAlertAt,
	}
	for _, t := range s.txns {
		snap.Transactions = append(snap.Transactions, toJSON(t))
	}
	for typ, cats := range s.custom {
		for _, c := range cats {
			snap.Custom[typ] = append(snap.Custom[typ], categoryJSON{Key: c.Key, Name: c.Name, Icon: c.Icon})
		}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	// Write to a sibling temp file first so a crash mid-write cannot
	// truncate the only copy of the ledger.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func toJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		Type:        string(t.Type),
		AmountCents: t.Amount.Cents,
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date.Format("2006-01-02"),
		CreatedAt:   t.CreatedAt,
	}
}

func fromJSON(t transactionJSON) (core.Transaction, error) {
	day, err := time.Parse("2006-01-02", t.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", t.Date, err)
	}
	return core.Transaction{
		ID:          t.ID,
		Type:        core.TransactionType(t.Type),
		Amount:      core.Money{Cents: t.AmountCents},
		Category:    t.Category,
		Description: t.Description,
		Date:        core.Date{Time: day},
		CreatedAt:   t.CreatedAt,
	}, nil
}
