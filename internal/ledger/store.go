// Package ledger owns the canonical transaction collection. All reads and
// writes go through the Store, which keeps its in-memory list and the
// persistence backend consistent after every mutation and fans the updated
// snapshot out to registered subscribers.
package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vinimacar/EcoFin/internal/core"
	"github.com/vinimacar/EcoFin/internal/log"
)

// Repository is the persistence boundary the store writes through. A
// backend that cannot load or save surfaces the failure; the store keeps
// serving from its in-memory copy.
type Repository interface {
	LoadAll(ctx context.Context) ([]core.Transaction, error)
	SaveAll(ctx context.Context, txns []core.Transaction) error
}

// Filter narrows List results. Zero-value fields are ignored; From/To form
// an inclusive date range.
type Filter struct {
	Type     core.TransactionType
	Category string
	From     core.Date
	To       core.Date
}

// Patch carries the fields an Update replaces. Nil fields keep the current
// value. Amount is a positive magnitude; the sign is reapplied from the
// effective type.
type Patch struct {
	Type        *core.TransactionType
	Amount      *core.Money
	Category    *string
	Description *string
	Date        *core.Date
}

// Store is the single source of truth for the transaction ledger.
// Mutations are serialized by an internal mutex so two overlapping calls
// can never interleave against the same collection.
type Store struct {
	mu       sync.Mutex
	repo     Repository
	logger   *log.Logger
	notifier *Notifier
	txns     []core.Transaction

	now   func() time.Time
	newID func() string
}

// Option customizes a Store; used by tests to pin the clock and id source.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDSource overrides the transaction id generator.
func WithIDSource(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// NewStore loads the current collection from the repository. A load
// failure is not fatal: the store starts empty, logs a warning and keeps
// operating in-memory-only until the backend recovers on a later save.
func NewStore(ctx context.Context, repo Repository, logger *log.Logger, opts ...Option) *Store {
	s := &Store{
		repo:     repo,
		logger:   logger.WithComponent(log.ComponentLedger),
		notifier: NewNotifier(logger),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	txns, err := repo.LoadAll(ctx)
	if err != nil {
		s.logger.Warn("Backend unavailable, starting with empty ledger", "error", err)
	} else {
		s.txns = txns
	}
	return s
}

// Subscribe registers a callback invoked with the full transaction list
// after every mutation. There is no initial delivery; use List for the
// first snapshot.
func (s *Store) Subscribe(fn Subscriber) *Subscription {
	return s.notifier.Subscribe(fn)
}

// Add validates the draft, assigns id and creation timestamp, normalizes
// the sign and appends the record. One persistence write and one fan-out
// per call. Validation failures leave the ledger untouched; persistence
// failures keep the in-memory mutation and surface a PersistenceError.
func (s *Store) Add(ctx context.Context, draft core.TransactionDraft) (core.Transaction, error) {
	now := s.now()
	if err := draft.Validate(now); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txn := core.Transaction{
		ID:          s.newID(),
		Type:        draft.Type,
		Amount:      draft.SignedAmount(),
		Category:    draft.Category,
		Description: draft.Description,
		Date:        draft.Date.Truncated(),
		CreatedAt:   now,
	}
	s.txns = append(s.txns, txn)

	s.logger.InfoContext(ctx, "Transaction added",
		log.FieldTransactionID, txn.ID,
		log.FieldTransactionType, string(txn.Type),
		log.FieldAmountCents, txn.Amount.Cents,
		log.FieldCategory, txn.Category)

	return txn, s.commit(ctx, "add")
}

// Update merges the patch into the stored record, re-validating changed
// fields under the same rules as Add. Returns NotFoundError when the id is
// absent.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return core.Transaction{}, &core.NotFoundError{ID: id}
	}

	current := s.txns[idx]
	draft := core.TransactionDraft{
		Type:        current.Type,
		Amount:      current.Amount.Magnitude(),
		Category:    current.Category,
		Description: current.Description,
		Date:        current.Date,
	}
	if patch.Type != nil {
		draft.Type = *patch.Type
	}
	if patch.Amount != nil {
		draft.Amount = *patch.Amount
	}
	if patch.Category != nil {
		draft.Category = *patch.Category
	}
	if patch.Description != nil {
		draft.Description = *patch.Description
	}
	if patch.Date != nil {
		draft.Date = *patch.Date
	}
	if err := draft.Validate(s.now()); err != nil {
		return core.Transaction{}, err
	}

	updated := core.Transaction{
		ID:          current.ID,
		Type:        draft.Type,
		Amount:      draft.SignedAmount(),
		Category:    draft.Category,
		Description: draft.Description,
		Date:        draft.Date.Truncated(),
		CreatedAt:   current.CreatedAt,
	}
	s.txns[idx] = updated

	s.logger.InfoContext(ctx, "Transaction updated", log.FieldTransactionID, id)
	return updated, s.commit(ctx, "update")
}

// Remove deletes the record. Removing an absent id is an error, not a
// no-op: stricter behavior keeps tests honest.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return &core.NotFoundError{ID: id}
	}
	s.txns = append(s.txns[:idx], s.txns[idx+1:]...)

	s.logger.InfoContext(ctx, "Transaction removed", log.FieldTransactionID, id)
	return s.commit(ctx, "remove")
}

// Clear wipes the whole ledger with a single persist and a single fan-out.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.txns = nil
	s.logger.InfoContext(ctx, "Ledger cleared")
	return s.commit(ctx, "clear")
}

// GetByID returns the record for id, or NotFoundError.
func (s *Store) GetByID(id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return core.Transaction{}, &core.NotFoundError{ID: id}
	}
	return s.txns[idx], nil
}

// List returns the filtered transactions sorted by date descending, ties
// broken by insertion order. The returned slice is the caller's to keep.
func (s *Store) List(filter Filter) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Transaction, 0, len(s.txns))
	for _, t := range s.txns {
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		if !filter.From.IsZero() && t.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && t.Date.After(filter.To) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].Date.Before(out[i].Date)
	})
	return out
}

// Count returns the number of transactions in the ledger.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txns)
}

// commit persists the full collection then notifies subscribers, in that
// order, exactly once per mutation. Caller holds the mutex. A failed save
// degrades to in-memory-only operation: the mutation stands, subscribers
// still hear about it and the error is surfaced to the caller.
func (s *Store) commit(ctx context.Context, op string) error {
	snapshot := make([]core.Transaction, len(s.txns))
	copy(snapshot, s.txns)

	var saveErr error
	if err := s.repo.SaveAll(ctx, snapshot); err != nil {
		s.logger.WarnContext(ctx, "Backend save failed, serving from memory",
			log.FieldOperation, op, log.FieldError, err)
		saveErr = &core.PersistenceError{Op: op, Err: err}
	}

	s.notifier.Publish(snapshot)
	return saveErr
}

func (s *Store) indexOf(id string) int {
	for i, t := range s.txns {
		if t.ID == id {
			return i
		}
	}
	return -1
}
