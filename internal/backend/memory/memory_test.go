package memory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/vinimacar/EcoFin/internal/core"
)

func sampleTxns() []core.Transaction {
	return []core.Transaction{
		{
			ID: "a", Type: core.Income, Amount: core.Money{Cents: 500000},
			Category: "salary", Description: "Salário", Date: core.NewDate(2025, 3, 1),
			CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			ID: "b", Type: core.Expense, Amount: core.Money{Cents: -80000},
			Category: "food", Description: "Supermercado", Date: core.NewDate(2025, 3, 5),
			CreatedAt: time.Date(2025, 3, 5, 18, 0, 0, 0, time.UTC),
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "ecofin.json")
	ctx := context.Background()

	s, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile (fresh): %v", err)
	}
	if err := s.SaveAll(ctx, sampleTxns()); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	if err := s.SaveCustom(ctx, map[core.TransactionType][]core.Category{
		core.Expense: {{Key: "pets", Name: "Animais"}},
	}); err != nil {
		t.Fatalf("SaveCustom: %v", err)
	}
	alertAt := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	if err := s.SetLastAlertAt(ctx, alertAt); err != nil {
		t.Fatalf("SetLastAlertAt: %v", err)
	}

	// Reopen and verify everything survived.
	reopened, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile (reopen): %v", err)
	}
	txns, err := reopened.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("loaded %d transactions, want 2", len(txns))
	}
	if txns[1].Amount.Cents != -80000 || txns[1].Category != "food" {
		t.Errorf("loaded transaction = %+v", txns[1])
	}
	if !txns[0].Date.Equal(core.NewDate(2025, 3, 1).Time) {
		t.Errorf("date lost precision: %v", txns[0].Date)
	}

	custom, err := reopened.LoadCustom(ctx)
	if err != nil {
		t.Fatalf("LoadCustom: %v", err)
	}
	if len(custom[core.Expense]) != 1 || custom[core.Expense][0].Key != "pets" {
		t.Errorf("custom categories = %+v", custom)
	}

	last, err := reopened.LastAlertAt(ctx)
	if err != nil {
		t.Fatalf("LastAlertAt: %v", err)
	}
	if !last.Equal(alertAt) {
		t.Errorf("lastAlertAt = %v, want %v", last, alertAt)
	}
}

func TestInMemoryOnly(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.SaveAll(ctx, sampleTxns()); err != nil {
		t.Fatalf("SaveAll without snapshot path: %v", err)
	}
	txns, _ := s.LoadAll(ctx)
	if len(txns) != 2 {
		t.Errorf("loaded %d, want 2", len(txns))
	}
}

func TestSeedDemo(t *testing.T) {
	s := New()
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	s.SeedDemo(now)

	txns, _ := s.LoadAll(context.Background())
	if len(txns) == 0 {
		t.Fatal("SeedDemo left the store empty")
	}
	for _, txn := range txns {
		if txn.Date.After(core.Date{Time: now}) {
			t.Errorf("demo transaction %s dated in the future: %v", txn.Description, txn.Date)
		}
		if txn.Type == core.Expense && txn.Amount.Cents >= 0 {
			t.Errorf("demo expense %s has non-negative amount", txn.Description)
		}
	}

	// Seeding twice must not duplicate.
	before := len(txns)
	s.SeedDemo(now)
	txns, _ = s.LoadAll(context.Background())
	if len(txns) != before {
		t.Error("SeedDemo reseeded a non-empty store")
	}
}
