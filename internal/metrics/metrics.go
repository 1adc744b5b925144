// Package metrics derives summary statistics from ledger snapshots.
//
// Every function is a pure transformation over the transaction list it is
// given: no caching, no hidden state, recomputed from scratch on each call.
// Collection sizes are personal-finance scale, so correctness wins over
// cleverness here.
package metrics

import (
	"time"

	"github.com/vinimacar/EcoFin/internal/core"
)

// DefaultTopCategories is how many categories Summarize ranks in the
// snapshot. Individual consumers ask CategoryBreakdown + TopN for other
// cut-offs.
const DefaultTopCategories = 5

// Window is an inclusive date range used to scope aggregation. A zero From
// or To leaves that side unbounded.
type Window struct {
	From core.Date
	To   core.Date
}

// MonthWindow returns the window covering one calendar month.
func MonthWindow(year, month int) Window {
	first := core.NewDate(year, month, 1)
	last := core.Date{Time: first.Time.AddDate(0, 1, -1)}
	return Window{From: first, To: last}
}

// CurrentMonthWindow returns the window for the calendar month containing now.
func CurrentMonthWindow(now time.Time) Window {
	return MonthWindow(now.Year(), int(now.Month()))
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d core.Date) bool {
	if !w.From.IsZero() && d.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && d.After(w.To) {
		return false
	}
	return true
}

// Summarize computes the metrics snapshot for the transactions inside the
// window. Empty input yields the all-zero snapshot, never an error.
func Summarize(txns []core.Transaction, w Window) core.MetricsSnapshot {
	var s core.MetricsSnapshot
	for _, t := range txns {
		if !w.Contains(t.Date) {
			continue
		}
		s.TransactionCount++
		if t.Amount.Cents >= 0 {
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		} else {
			s.TotalExpenses = s.TotalExpenses.Add(t.Amount.Magnitude())
		}
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpenses)
	s.TopCategories = TopN(CategoryBreakdown(txns, core.Expense, w), DefaultTopCategories)
	return s
}

// CategoryBreakdown groups the windowed transactions of one type by
// category, sums absolute amounts and ranks them descending. Ties keep the
// order in which the categories were first encountered.
func CategoryBreakdown(txns []core.Transaction, typ core.TransactionType, w Window) []core.CategoryAmount {
	totals := make(map[string]int64)
	var order []string
	for _, t := range txns {
		if core.TypeOf(t.Amount) != typ || !w.Contains(t.Date) {
			continue
		}
		if _, seen := totals[t.Category]; !seen {
			order = append(order, t.Category)
		}
		totals[t.Category] += t.Amount.Magnitude().Cents
	}

	out := make([]core.CategoryAmount, 0, len(order))
	for _, cat := range order {
		out = append(out, core.CategoryAmount{Category: cat, Amount: core.Money{Cents: totals[cat]}})
	}
	// Insertion sort keeps the first-encountered order stable on ties.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Amount.Cents > out[j-1].Amount.Cents; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// TopN truncates a ranked breakdown to its first n entries.
func TopN(breakdown []core.CategoryAmount, n int) []core.CategoryAmount {
	if n < 0 {
		n = 0
	}
	if len(breakdown) > n {
		breakdown = breakdown[:n]
	}
	return breakdown
}

// DailySeries produces exactly days entries ending at today, oldest first.
// Days with no transactions carry zero values; the sequence has no gaps.
func DailySeries(txns []core.Transaction, days int, today core.Date) []core.DailyPoint {
	if days <= 0 {
		return nil
	}
	today = today.Truncated()
	start := core.Date{Time: today.AddDate(0, 0, -(days - 1))}

	series := make([]core.DailyPoint, days)
	index := make(map[core.Date]int, days)
	for i := range series {
		d := core.Date{Time: start.AddDate(0, 0, i)}
		series[i].Date = d
		index[d] = i
	}

	for _, t := range txns {
		i, ok := index[t.Date.Truncated()]
		if !ok {
			continue
		}
		if t.Amount.Cents >= 0 {
			series[i].Income = series[i].Income.Add(t.Amount)
		} else {
			series[i].Expenses = series[i].Expenses.Add(t.Amount.Magnitude())
		}
	}
	return series
}

// MonthlySeries produces exactly months entries, the oldest of the last
// months calendar months first, gap-free and zero-filled.
func MonthlySeries(txns []core.Transaction, months int, today core.Date) []core.MonthlyPoint {
	if months <= 0 {
		return nil
	}
	first := time.Date(today.Year(), time.Month(today.Month()), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, -(months - 1), 0)

	series := make([]core.MonthlyPoint, months)
	index := make(map[[2]int]int, months)
	for i := range series {
		m := first.AddDate(0, i, 0)
		series[i].Year = m.Year()
		series[i].Month = int(m.Month())
		index[[2]int{m.Year(), int(m.Month())}] = i
	}

	for _, t := range txns {
		i, ok := index[[2]int{t.Date.Year(), t.Date.Month()}]
		if !ok {
			continue
		}
		if t.Amount.Cents >= 0 {
			series[i].Income = series[i].Income.Add(t.Amount)
		} else {
			series[i].Expenses = series[i].Expenses.Add(t.Amount.Magnitude())
		}
	}
	for i := range series {
		series[i].Balance = series[i].Income.Sub(series[i].Expenses)
	}
	return series
}

// ExpenseRatio returns expenses over income for the snapshot. Income of
// zero yields 0 rather than an infinity.
func ExpenseRatio(s core.MetricsSnapshot) float64 {
	if s.TotalIncome.Cents <= 0 {
		return 0
	}
	return float64(s.TotalExpenses.Cents) / float64(s.TotalIncome.Cents)
}
