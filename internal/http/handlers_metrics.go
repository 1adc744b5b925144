package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vinimacar/EcoFin/internal/core"
	"github.com/vinimacar/EcoFin/internal/ledger"
	"github.com/vinimacar/EcoFin/internal/metrics"
)

type categoryAmountResponse struct {
	Category    string `json:"category"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
}

type summaryResponse struct {
	Year             int                      `json:"year"`
	Month            int                      `json:"month"`
	TotalIncome      int64                    `json:"total_income_cents"`
	TotalExpenses    int64                    `json:"total_expenses_cents"`
	Balance          int64                    `json:"balance_cents"`
	BalanceFormatted string                   `json:"balance"`
	TransactionCount int                      `json:"transaction_count"`
	TopCategories    []categoryAmountResponse `json:"top_categories"`
}

type dailyPointResponse struct {
	Date     string `json:"date"`
	Income   int64  `json:"income_cents"`
	Expenses int64  `json:"expenses_cents"`
}

type monthlyPointResponse struct {
	Year     int   `json:"year"`
	Month    int   `json:"month"`
	Income   int64 `json:"income_cents"`
	Expenses int64 `json:"expenses_cents"`
	Balance  int64 `json:"balance_cents"`
}

type budgetStatusResponse struct {
	Enabled    bool    `json:"enabled"`
	LimitCents int64   `json:"limit_cents"`
	SpentCents int64   `json:"spent_cents"`
	Ratio      float64 `json:"ratio"`
	Exceeded   bool    `json:"exceeded"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year := queryInt(r, "year", now.Year())
	month := queryInt(r, "month", int(now.Month()))
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "invalid month, expected 1-12")
		return
	}

	key := strconv.Itoa(year) + "-" + strconv.Itoa(month)
	snapshot, found := s.summaryCache.Get(key)
	if !found {
		snapshot = metrics.Summarize(s.store.List(ledger.Filter{}), metrics.MonthWindow(year, month))
		s.summaryCache.Set(key, snapshot)
	}

	writeJSON(w, http.StatusOK, s.toSummaryResponse(snapshot, year, month))
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	typ := core.Expense
	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		typ = core.TransactionType(v)
		if typ != core.Income && typ != core.Expense {
			writeError(w, http.StatusBadRequest, errInvalidType.Error())
			return
		}
	}
	now := time.Now()
	year := queryInt(r, "year", now.Year())
	month := queryInt(r, "month", int(now.Month()))
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "invalid month, expected 1-12")
		return
	}
	top := queryInt(r, "top", 0)

	breakdown := metrics.CategoryBreakdown(s.store.List(ledger.Filter{}), typ, metrics.MonthWindow(year, month))
	if top > 0 {
		breakdown = metrics.TopN(breakdown, top)
	}

	out := make([]categoryAmountResponse, 0, len(breakdown))
	for _, ca := range breakdown {
		out = append(out, s.toCategoryAmount(ca))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDailySeries(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30)
	if days < 1 || days > 366 {
		writeError(w, http.StatusBadRequest, "invalid days, expected 1-366")
		return
	}

	key := strconv.Itoa(days)
	series, found := s.dailyCache.Get(key)
	if !found {
		now := time.Now()
		today := core.NewDate(now.Year(), int(now.Month()), now.Day())
		series = metrics.DailySeries(s.store.List(ledger.Filter{}), days, today)
		s.dailyCache.Set(key, series)
	}

	out := make([]dailyPointResponse, 0, len(series))
	for _, p := range series {
		out = append(out, dailyPointResponse{
			Date:     p.Date.Format(dateLayout),
			Income:   p.Income.Cents,
			Expenses: p.Expenses.Cents,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMonthlySeries(w http.ResponseWriter, r *http.Request) {
	months := queryInt(r, "months", 6)
	if months < 1 || months > 60 {
		writeError(w, http.StatusBadRequest, "invalid months, expected 1-60")
		return
	}

	key := strconv.Itoa(months)
	series, found := s.monthlyCache.Get(key)
	if !found {
		now := time.Now()
		today := core.NewDate(now.Year(), int(now.Month()), now.Day())
		series = metrics.MonthlySeries(s.store.List(ledger.Filter{}), months, today)
		s.monthlyCache.Set(key, series)
	}

	out := make([]monthlyPointResponse, 0, len(series))
	for _, p := range series {
		out = append(out, monthlyPointResponse{
			Year:     p.Year,
			Month:    p.Month,
			Income:   p.Income.Cents,
			Expenses: p.Expenses.Cents,
			Balance:  p.Balance.Cents,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	resp := budgetStatusResponse{Enabled: s.limit.Cents > 0, LimitCents: s.limit.Cents}

	if resp.Enabled {
		snapshot := metrics.Summarize(s.store.List(ledger.Filter{}), metrics.CurrentMonthWindow(time.Now()))
		spent := snapshot.TotalExpenses.Magnitude()
		resp.SpentCents = spent.Cents
		resp.Ratio = float64(spent.Cents) / float64(s.limit.Cents)
		resp.Exceeded = spent.Cents > s.limit.Cents
	}

	writeJSON(w, http.StatusOK, resp)
}

// toCategoryAmount enriches a breakdown entry with display name and icon.
func (s *Server) toCategoryAmount(ca core.CategoryAmount) categoryAmountResponse {
	resolved := s.registry.Resolve(ca.Category)
	return categoryAmountResponse{
		Category:    ca.Category,
		Name:        resolved.Name,
		Icon:        resolved.Icon,
		AmountCents: ca.Amount.Cents,
		Amount:      ca.Amount.Format(),
	}
}

func (s *Server) toSummaryResponse(m core.MetricsSnapshot, year, month int) summaryResponse {
	resp := summaryResponse{
		Year:             year,
		Month:            month,
		TotalIncome:      m.TotalIncome.Cents,
		TotalExpenses:    m.TotalExpenses.Cents,
		Balance:          m.Balance.Cents,
		BalanceFormatted: m.Balance.Format(),
		TransactionCount: m.TransactionCount,
		TopCategories:    make([]categoryAmountResponse, 0, len(m.TopCategories)),
	}
	for _, ca := range m.TopCategories {
		resp.TopCategories = append(resp.TopCategories, s.toCategoryAmount(ca))
	}
	return resp
}
