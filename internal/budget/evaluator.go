// Package budget decides whether and when the monthly spending limit
// deserves an alert. It never renders anything: the signal goes to an
// external consumer (HTTP payload, AMQP queue, worker) that owns display.
package budget

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/vinimacar/EcoFin/internal/core"
	"github.com/vinimacar/EcoFin/internal/log"
	"github.com/vinimacar/EcoFin/internal/metrics"
)

const (
	Warning Severity = "warning"
	Danger  Severity = "danger"

	// DefaultWarningThreshold and DefaultDangerThreshold are fractions of
	// the monthly limit.
	DefaultWarningThreshold = 0.80
	DefaultDangerThreshold  = 0.95

	// DefaultCooldown suppresses repeat alerts so a burst of mutations in
	// one session does not turn into an alert storm.
	DefaultCooldown = 24 * time.Hour

	// spendingSpikeFactor flags a week that runs this much above the
	// previous month's weekly average.
	spendingSpikeFactor = 1.5
)

// Severity classifies an alert signal.
type Severity string

// AlertSignal is what the evaluator hands to the external consumer.
type AlertSignal struct {
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Ratio    float64   `json:"ratio"`
	At       time.Time `json:"at"`
}

// StateStore persists the last emission timestamp so the cooldown survives
// a restart.
type StateStore interface {
	LastAlertAt(ctx context.Context) (time.Time, error)
	SetLastAlertAt(ctx context.Context, t time.Time) error
}

// Config tunes the evaluator. Zero thresholds and cooldown fall back to the
// defaults above.
type Config struct {
	WarningThreshold float64
	DangerThreshold  float64
	Cooldown         time.Duration
}

// Evaluator compares aggregated metrics against the configured monthly
// limit. Its only state is the last alert timestamp backing the cooldown.
type Evaluator struct {
	mu          sync.Mutex
	cfg         Config
	state       StateStore
	logger      *log.Logger
	now         func() time.Time
	lastAlertAt time.Time
}

// Option customizes an Evaluator.
type Option func(*Evaluator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// NewEvaluator loads the persisted cooldown state. A state load failure
// only resets the cooldown; it never blocks evaluation.
func NewEvaluator(ctx context.Context, cfg Config, state StateStore, logger *log.Logger, opts ...Option) *Evaluator {
	if cfg.WarningThreshold <= 0 {
		cfg.WarningThreshold = DefaultWarningThreshold
	}
	if cfg.DangerThreshold <= 0 {
		cfg.DangerThreshold = DefaultDangerThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}

	e := &Evaluator{
		cfg:    cfg,
		state:  state,
		logger: logger.WithComponent(log.ComponentBudget),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	if state != nil {
		last, err := state.LastAlertAt(ctx)
		if err != nil {
			e.logger.Warn("Could not load alert state, cooldown resets", log.FieldError, err)
		} else {
			e.lastAlertAt = last
		}
	}
	return e
}

// Evaluate inspects the snapshot against the monthly limit. A limit of
// zero or less disables budget alerts entirely. The cooldown gate applies
// to the returned signal: inside the window the result is nil regardless
// of severity.
func (e *Evaluator) Evaluate(ctx context.Context, m core.MetricsSnapshot, monthlyLimit core.Money) *AlertSignal {
	if monthlyLimit.Cents <= 0 {
		return nil
	}

	ratio := float64(m.TotalExpenses.Cents) / float64(monthlyLimit.Cents)
	var severity Severity
	switch {
	case ratio >= e.cfg.DangerThreshold:
		severity = Danger
	case ratio >= e.cfg.WarningThreshold:
		severity = Warning
	default:
		return nil
	}

	msg := fmt.Sprintf("Você já usou %d%% do seu limite mensal de %s.",
		int(math.Round(ratio*100)), monthlyLimit.Format())
	return e.emit(ctx, severity, msg, ratio)
}

// EvaluateSpending flags a spending spike: the last seven days of expenses
// measured against the previous calendar month's weekly average. Shares the
// same cooldown gate as Evaluate.
func (e *Evaluator) EvaluateSpending(ctx context.Context, txns []core.Transaction) *AlertSignal {
	now := e.now()
	today := core.Date{Time: now}.Truncated()

	week := metrics.Window{
		From: core.Date{Time: today.AddDate(0, 0, -6)},
		To:   today,
	}
	weekly := metrics.Summarize(txns, week).TotalExpenses

	prev := now.AddDate(0, -1, 0)
	lastMonth := metrics.Summarize(txns, metrics.MonthWindow(prev.Year(), int(prev.Month()))).TotalExpenses
	avgWeekly := lastMonth.Cents / 4
	if avgWeekly <= 0 {
		return nil
	}

	ratio := float64(weekly.Cents) / float64(avgWeekly)
	if ratio < spendingSpikeFactor {
		return nil
	}

	msg := fmt.Sprintf("Seus gastos desta semana estão %d%% acima da média.",
		int(math.Round((ratio-1)*100)))
	return e.emit(ctx, Warning, msg, ratio)
}

// emit applies the cooldown and persists the emission timestamp.
func (e *Evaluator) emit(ctx context.Context, severity Severity, msg string, ratio float64) *AlertSignal {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if !e.lastAlertAt.IsZero() && now.Sub(e.lastAlertAt) < e.cfg.Cooldown {
		e.logger.DebugContext(ctx, "Alert suppressed by cooldown",
			log.FieldSeverity, string(severity), log.FieldRatio, ratio)
		return nil
	}

	e.lastAlertAt = now
	if e.state != nil {
		if err := e.state.SetLastAlertAt(ctx, now); err != nil {
			e.logger.Warn("Could not persist alert state", log.FieldError, err)
		}
	}

	e.logger.InfoContext(ctx, "Budget alert emitted",
		log.FieldSeverity, string(severity), log.FieldRatio, ratio)
	return &AlertSignal{Severity: severity, Message: msg, Ratio: ratio, At: now}
}
