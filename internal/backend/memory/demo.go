package memory

import (
	"time"

	"github.com/google/uuid"

	"github.com/vinimacar/EcoFin/internal/core"
)

// SeedDemo loads a small, plausible month of data into an empty store so
// demo mode has something to show. Dates are anchored relative to now.
// A store that already holds transactions is left alone.
func (s *Store) SeedDemo(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.txns) > 0 {
		return
	}

	day := func(offset int) core.Date {
		d := now.AddDate(0, 0, -offset)
		return core.NewDate(d.Year(), int(d.Month()), d.Day())
	}
	add := func(typ core.TransactionType, cents int64, category, description string, date core.Date) {
		amount := core.Money{Cents: cents}
		if typ == core.Expense {
			amount = amount.Neg()
		}
		s.txns = append(s.txns, core.Transaction{
			ID:          uuid.NewString(),
			Type:        typ,
			Amount:      amount,
			Category:    category,
			Description: description,
			Date:        date,
			CreatedAt:   now,
		})
	}

	add(core.Income, 500000, "salary", "Salário mensal", day(25))
	add(core.Income, 150000, "freelance", "Projeto web", day(12))
	add(core.Expense, 120000, "rent", "Aluguel", day(24))
	add(core.Expense, 80000, "food", "Supermercado", day(20))
	add(core.Expense, 30000, "transport", "Combustível", day(15))
	add(core.Expense, 15000, "entertainment", "Cinema e streaming", day(8))
	add(core.Expense, 22000, "health", "Farmácia", day(5))
	add(core.Expense, 9500, "food", "Restaurante", day(2))
}
