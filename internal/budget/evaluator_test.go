package budget

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinimacar/EcoFin/internal/core"
	"github.com/vinimacar/EcoFin/internal/log"
)

type memState struct {
	last time.Time
	sets int
}

func (m *memState) LastAlertAt(context.Context) (time.Time, error) { return m.last, nil }
func (m *memState) SetLastAlertAt(_ context.Context, t time.Time) error {
	m.last = t
	m.sets++
	return nil
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func snapshot(expenseCents int64) core.MetricsSnapshot {
	return core.MetricsSnapshot{TotalExpenses: core.Money{Cents: expenseCents}}
}

func TestEvaluateThresholds(t *testing.T) {
	limit := core.Money{Cents: 100000} // R$ 1000

	tests := []struct {
		name     string
		expenses int64
		want     Severity
	}{
		{"below warning", 79999, ""},
		{"warning at 85%", 85000, Warning},
		{"warning boundary 80%", 80000, Warning},
		{"danger at 96%", 96000, Danger},
		{"danger boundary 95%", 95000, Danger},
		{"over limit", 120000, Danger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEvaluator(context.Background(), Config{}, &memState{}, quietLogger())
			got := e.Evaluate(context.Background(), snapshot(tt.expenses), limit)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Severity)
			assert.InDelta(t, float64(tt.expenses)/100000, got.Ratio, 1e-9)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestEvaluateDisabledLimit(t *testing.T) {
	e := NewEvaluator(context.Background(), Config{}, &memState{}, quietLogger())
	assert.Nil(t, e.Evaluate(context.Background(), snapshot(999999), core.Money{}))
	assert.Nil(t, e.Evaluate(context.Background(), snapshot(999999), core.Money{Cents: -1}))
}

func TestCooldownSuppressesRepeats(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	state := &memState{}
	e := NewEvaluator(context.Background(), Config{}, state, quietLogger(), WithClock(clock))
	limit := core.Money{Cents: 100000}

	first := e.Evaluate(context.Background(), snapshot(96000), limit)
	require.NotNil(t, first)
	assert.Equal(t, Danger, first.Severity)

	// One minute later: suppressed, even though severity is unchanged.
	now = now.Add(time.Minute)
	assert.Nil(t, e.Evaluate(context.Background(), snapshot(96000), limit))

	// Severity change inside the window is suppressed too.
	now = now.Add(time.Minute)
	assert.Nil(t, e.Evaluate(context.Background(), snapshot(85000), limit))

	// Past the cooldown the evaluator speaks again.
	now = now.Add(25 * time.Hour)
	second := e.Evaluate(context.Background(), snapshot(96000), limit)
	require.NotNil(t, second)
	assert.Equal(t, 2, state.sets, "every emission persists the timestamp")
}

func TestCooldownSurvivesRestart(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	state := &memState{last: now.Add(-time.Hour)}
	e := NewEvaluator(context.Background(), Config{}, state, quietLogger(),
		WithClock(func() time.Time { return now }))

	// The previous session alerted an hour ago; still inside 24h.
	assert.Nil(t, e.Evaluate(context.Background(), snapshot(96000), core.Money{Cents: 100000}))
}

func TestEvaluateSpendingSpike(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	e := NewEvaluator(context.Background(), Config{}, &memState{}, quietLogger(),
		WithClock(func() time.Time { return now }))

	expense := func(cents int64, d core.Date) core.Transaction {
		return core.Transaction{
			ID: d.Format("2006-01-02"), Type: core.Expense,
			Amount: core.Money{Cents: -cents}, Category: "alimentacao",
			Description: "x", Date: d,
		}
	}

	// Previous month: 40000 cents total, weekly average 10000.
	txns := []core.Transaction{
		expense(10000, core.NewDate(2025, 2, 3)),
		expense(10000, core.NewDate(2025, 2, 10)),
		expense(10000, core.NewDate(2025, 2, 17)),
		expense(10000, core.NewDate(2025, 2, 24)),
		// This week: 20000, twice the average.
		expense(12000, core.NewDate(2025, 3, 12)),
		expense(8000, core.NewDate(2025, 3, 14)),
	}

	sig := e.EvaluateSpending(context.Background(), txns)
	require.NotNil(t, sig)
	assert.Equal(t, Warning, sig.Severity)

	// No history means no baseline, never a divide-by-zero alert.
	quiet := NewEvaluator(context.Background(), Config{}, &memState{}, quietLogger(),
		WithClock(func() time.Time { return now }))
	assert.Nil(t, quiet.EvaluateSpending(context.Background(), txns[4:]))
}
