package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/vinimacar/EcoFin/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ecofin.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestTransactionsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	want := []core.Transaction{
		{
			ID: "t1", Type: core.Income, Amount: core.Money{Cents: 500000},
			Category: "salary", Description: "Salário mensal",
			Date:      core.NewDate(2025, 3, 1),
			CreatedAt: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			ID: "t2", Type: core.Expense, Amount: core.Money{Cents: -80000},
			Category: "food", Description: "Supermercado",
			Date:      core.NewDate(2025, 3, 5),
			CreatedAt: time.Date(2025, 3, 5, 18, 15, 0, 0, time.UTC),
		},
	}

	if err := repo.SaveAll(ctx, want); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	got, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("loaded %d transactions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Amount != want[i].Amount ||
			got[i].Category != want[i].Category || !got[i].CreatedAt.Equal(want[i].CreatedAt) {
			t.Errorf("transaction %d = %+v, want %+v", i, got[i], want[i])
		}
		if !got[i].Date.Equal(want[i].Date.Time) {
			t.Errorf("transaction %d date = %v, want %v", i, got[i].Date, want[i].Date)
		}
	}

	// A second save replaces, never appends.
	if err := repo.SaveAll(ctx, want[:1]); err != nil {
		t.Fatalf("SaveAll (replace): %v", err)
	}
	got, _ = repo.LoadAll(ctx)
	if len(got) != 1 {
		t.Errorf("after replace loaded %d, want 1", len(got))
	}
}

func TestCustomCategoriesRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	want := map[core.TransactionType][]core.Category{
		core.Expense: {{Key: "pets", Name: "Animais", Icon: "fas fa-tag"}},
		core.Income:  {{Key: "royalties", Name: "Royalties", Icon: "fas fa-tag"}},
	}
	if err := repo.SaveCustom(ctx, want); err != nil {
		t.Fatalf("SaveCustom: %v", err)
	}
	got, err := repo.LoadCustom(ctx)
	if err != nil {
		t.Fatalf("LoadCustom: %v", err)
	}
	if len(got[core.Expense]) != 1 || got[core.Expense][0].Name != "Animais" {
		t.Errorf("custom expense categories = %+v", got[core.Expense])
	}
	if len(got[core.Income]) != 1 || got[core.Income][0].Key != "royalties" {
		t.Errorf("custom income categories = %+v", got[core.Income])
	}
}

func TestAlertStateRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Fresh database: zero time, no error.
	last, err := repo.LastAlertAt(ctx)
	if err != nil {
		t.Fatalf("LastAlertAt (fresh): %v", err)
	}
	if !last.IsZero() {
		t.Errorf("fresh LastAlertAt = %v, want zero", last)
	}

	at := time.Date(2025, 3, 10, 8, 45, 0, 0, time.UTC)
	if err := repo.SetLastAlertAt(ctx, at); err != nil {
		t.Fatalf("SetLastAlertAt: %v", err)
	}
	last, err = repo.LastAlertAt(ctx)
	if err != nil {
		t.Fatalf("LastAlertAt: %v", err)
	}
	if !last.Equal(at) {
		t.Errorf("LastAlertAt = %v, want %v", last, at)
	}

	// Upsert, not insert-only.
	later := at.Add(48 * time.Hour)
	if err := repo.SetLastAlertAt(ctx, later); err != nil {
		t.Fatalf("SetLastAlertAt (update): %v", err)
	}
	last, _ = repo.LastAlertAt(ctx)
	if !last.Equal(later) {
		t.Errorf("updated LastAlertAt = %v, want %v", last, later)
	}
}
