package sheets

import (
	"testing"
)

func TestParseRow(t *testing.T) {
	tests := []struct {
		name   string
		cols   []string
		wantOK bool
		cents  int64
	}{
		{
			name:   "valid expense row",
			cols:   []string{"abc-1", "expense", "-80050", "food", "Supermercado", "2025-03-05", "2025-03-05T18:15:00Z"},
			wantOK: true,
			cents:  -80050,
		},
		{
			name:   "valid income row",
			cols:   []string{"abc-2", "income", "500000", "salary", "Salário", "2025-03-01", "2025-03-01T09:00:00Z"},
			wantOK: true,
			cents:  500000,
		},
		{
			name:   "missing columns",
			cols:   []string{"abc-3", "income", "100"},
			wantOK: false,
		},
		{
			name:   "unknown type",
			cols:   []string{"abc-4", "transfer", "100", "food", "x", "2025-03-05", "2025-03-05T18:15:00Z"},
			wantOK: false,
		},
		{
			name:   "non-numeric amount",
			cols:   []string{"abc-5", "expense", "R$ 12,34", "food", "x", "2025-03-05", "2025-03-05T18:15:00Z"},
			wantOK: false,
		},
		{
			name:   "bad date",
			cols:   []string{"abc-6", "expense", "-100", "food", "x", "05/03/2025", "2025-03-05T18:15:00Z"},
			wantOK: false,
		},
		{
			name:   "empty id",
			cols:   []string{"", "expense", "-100", "food", "x", "2025-03-05", "2025-03-05T18:15:00Z"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn, ok := parseRow(tt.cols)
			if ok != tt.wantOK {
				t.Fatalf("parseRow ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && txn.Amount.Cents != tt.cents {
				t.Errorf("amount = %d cents, want %d", txn.Amount.Cents, tt.cents)
			}
		})
	}
}

func TestParseRowCreatedAtFallsBackToDate(t *testing.T) {
	cols := []string{"abc-7", "expense", "-100", "food", "x", "2025-03-05", "not-a-timestamp"}
	txn, ok := parseRow(cols)
	if !ok {
		t.Fatal("parseRow rejected row with unparseable created_at")
	}
	if txn.CreatedAt.Year() != 2025 || txn.CreatedAt.Month() != 3 || txn.CreatedAt.Day() != 5 {
		t.Errorf("created_at fallback = %v, want transaction date", txn.CreatedAt)
	}
}
