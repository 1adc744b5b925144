package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vinimacar/EcoFin/internal/backend/memory"
	"github.com/vinimacar/EcoFin/internal/categories"
	"github.com/vinimacar/EcoFin/internal/core"
	"github.com/vinimacar/EcoFin/internal/ledger"
	"github.com/vinimacar/EcoFin/internal/log"
)

func quietLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func newTestServer(t *testing.T, limitCents int64) *Server {
	t.Helper()
	ctx := context.Background()
	logger := quietLogger()
	store := memory.New()

	s := NewServer(Config{
		Addr:         ":0",
		MonthlyLimit: core.Money{Cents: limitCents},
	},
		ledger.NewStore(ctx, store, logger),
		categories.NewRegistry(ctx, store, logger),
		logger)
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	})
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func today() string {
	return time.Now().Format(dateLayout)
}

func createTransaction(t *testing.T, s *Server, typ, amount, category, description string) transactionResponse {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/v1/transactions", transactionRequest{
		Type: typ, Amount: amount, Category: category, Description: description, Date: today(),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
	}
	return decode[mutationResponse](t, rec).Transaction
}

func TestCreateAndGetTransaction(t *testing.T) {
	s := newTestServer(t, 0)

	created := createTransaction(t, s, "expense", "800,50", "food", "Supermercado")
	if created.AmountCents != -80050 {
		t.Errorf("amount = %d cents, want -80050", created.AmountCents)
	}
	if created.Amount != "-R$ 800,50" {
		t.Errorf("formatted amount = %q", created.Amount)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/v1/transactions/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get returned %d", rec.Code)
	}
	got := decode[transactionResponse](t, rec)
	if got.ID != created.ID || got.Description != "Supermercado" {
		t.Errorf("got = %+v", got)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	s := newTestServer(t, 0)

	tests := []struct {
		name string
		req  transactionRequest
		want int
	}{
		{
			name: "zero amount",
			req:  transactionRequest{Type: "expense", Amount: "0", Category: "food", Description: "x", Date: today()},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "missing category",
			req:  transactionRequest{Type: "expense", Amount: "10", Description: "x", Date: today()},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "future date",
			req: transactionRequest{Type: "expense", Amount: "10", Category: "food", Description: "x",
				Date: time.Now().AddDate(0, 0, 2).Format(dateLayout)},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "bad date format",
			req:  transactionRequest{Type: "expense", Amount: "10", Category: "food", Description: "x", Date: "05/03/2025"},
			want: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/api/v1/transactions", tt.req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	if count := len(s.store.List(ledger.Filter{})); count != 0 {
		t.Errorf("rejected requests left %d transactions behind", count)
	}
}

func TestListTransactionsFilters(t *testing.T) {
	s := newTestServer(t, 0)

	createTransaction(t, s, "income", "5000", "salary", "Salário")
	createTransaction(t, s, "expense", "800", "food", "Supermercado")
	createTransaction(t, s, "expense", "120", "transport", "Combustível")

	rec := doJSON(t, s, http.MethodGet, "/api/v1/transactions?type=expense", nil)
	if got := decode[[]transactionResponse](t, rec); len(got) != 2 {
		t.Errorf("type filter returned %d transactions, want 2", len(got))
	}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/transactions?category=salary", nil)
	if got := decode[[]transactionResponse](t, rec); len(got) != 1 {
		t.Errorf("category filter returned %d transactions, want 1", len(got))
	}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/transactions?type=transfer", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad type filter returned %d, want 400", rec.Code)
	}
}

func TestUpdateTransaction(t *testing.T) {
	s := newTestServer(t, 0)
	created := createTransaction(t, s, "expense", "800", "food", "Supermercado")

	amount := "950,25"
	description := "Supermercado do mês"
	rec := doJSON(t, s, http.MethodPut, "/api/v1/transactions/"+created.ID, transactionPatch{
		Amount: &amount, Description: &description,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update returned %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[mutationResponse](t, rec).Transaction
	if got.AmountCents != -95025 {
		t.Errorf("amount after update = %d, want -95025", got.AmountCents)
	}
	if got.Description != description {
		t.Errorf("description = %q", got.Description)
	}
	if got.Category != "food" {
		t.Errorf("category should be untouched, got %q", got.Category)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/v1/transactions/missing", transactionPatch{Description: &description})
	if rec.Code != http.StatusNotFound {
		t.Errorf("update missing id returned %d, want 404", rec.Code)
	}
}

func TestDeleteTransaction(t *testing.T) {
	s := newTestServer(t, 0)
	created := createTransaction(t, s, "expense", "800", "food", "Supermercado")

	rec := doJSON(t, s, http.MethodDelete, "/api/v1/transactions/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete returned %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/transactions/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete returned %d, want 404", rec.Code)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/transactions/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("double delete returned %d, want 404", rec.Code)
	}
}

func TestSummaryReflectsMutations(t *testing.T) {
	s := newTestServer(t, 0)

	createTransaction(t, s, "income", "5000", "salary", "Salário")
	createTransaction(t, s, "expense", "800", "food", "Supermercado")

	rec := doJSON(t, s, http.MethodGet, "/api/v1/summary", nil)
	got := decode[summaryResponse](t, rec)
	if got.TotalIncome != 500000 || got.TotalExpenses != 80000 || got.Balance != 420000 {
		t.Errorf("summary = %+v", got)
	}
	if got.TransactionCount != 2 {
		t.Errorf("transaction count = %d, want 2", got.TransactionCount)
	}

	// The cached summary must be invalidated by the next mutation.
	createTransaction(t, s, "expense", "1200", "rent", "Aluguel")
	rec = doJSON(t, s, http.MethodGet, "/api/v1/summary", nil)
	got = decode[summaryResponse](t, rec)
	if got.TotalExpenses != 200000 {
		t.Errorf("summary after mutation = %+v, cache not invalidated?", got)
	}
}

func TestSummaryTopCategoriesResolved(t *testing.T) {
	s := newTestServer(t, 0)
	createTransaction(t, s, "expense", "800", "food", "Supermercado")

	rec := doJSON(t, s, http.MethodGet, "/api/v1/summary", nil)
	got := decode[summaryResponse](t, rec)
	if len(got.TopCategories) != 1 {
		t.Fatalf("top categories = %+v", got.TopCategories)
	}
	if got.TopCategories[0].Name != "Alimentação" || got.TopCategories[0].Icon != "fas fa-utensils" {
		t.Errorf("category not resolved: %+v", got.TopCategories[0])
	}
}

func TestBreakdownTopN(t *testing.T) {
	s := newTestServer(t, 0)
	createTransaction(t, s, "expense", "800", "food", "Supermercado")
	createTransaction(t, s, "expense", "300", "transport", "Combustível")
	createTransaction(t, s, "expense", "100", "health", "Farmácia")

	rec := doJSON(t, s, http.MethodGet, "/api/v1/breakdown?type=expense&top=2", nil)
	got := decode[[]categoryAmountResponse](t, rec)
	if len(got) != 2 {
		t.Fatalf("breakdown returned %d entries, want 2", len(got))
	}
	if got[0].Category != "food" || got[1].Category != "transport" {
		t.Errorf("breakdown order = %+v", got)
	}
}

func TestDailySeriesShape(t *testing.T) {
	s := newTestServer(t, 0)
	createTransaction(t, s, "expense", "800", "food", "Supermercado")

	rec := doJSON(t, s, http.MethodGet, "/api/v1/series/daily?days=30", nil)
	got := decode[[]dailyPointResponse](t, rec)
	if len(got) != 30 {
		t.Fatalf("daily series has %d points, want 30", len(got))
	}
	last := got[len(got)-1]
	if last.Date != today() {
		t.Errorf("last point date = %s, want %s", last.Date, today())
	}
	if last.Expenses != 80000 {
		t.Errorf("last point expenses = %d, want 80000", last.Expenses)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/series/daily?days=1000", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("oversized days returned %d, want 400", rec.Code)
	}
}

func TestMonthlySeriesShape(t *testing.T) {
	s := newTestServer(t, 0)
	createTransaction(t, s, "income", "5000", "salary", "Salário")

	rec := doJSON(t, s, http.MethodGet, "/api/v1/series/monthly?months=6", nil)
	got := decode[[]monthlyPointResponse](t, rec)
	if len(got) != 6 {
		t.Fatalf("monthly series has %d points, want 6", len(got))
	}
	now := time.Now()
	last := got[len(got)-1]
	if last.Year != now.Year() || last.Month != int(now.Month()) {
		t.Errorf("last point = %d-%d, want current month", last.Year, last.Month)
	}
	if last.Income != 500000 {
		t.Errorf("last point income = %d, want 500000", last.Income)
	}
}

func TestBudgetStatus(t *testing.T) {
	s := newTestServer(t, 100000) // R$ 1.000,00 monthly limit
	createTransaction(t, s, "expense", "850", "food", "Supermercado")

	rec := doJSON(t, s, http.MethodGet, "/api/v1/budget/status", nil)
	got := decode[budgetStatusResponse](t, rec)
	if !got.Enabled {
		t.Fatal("budget should be enabled")
	}
	if got.SpentCents != 85000 {
		t.Errorf("spent = %d, want 85000", got.SpentCents)
	}
	if got.Ratio != 0.85 {
		t.Errorf("ratio = %v, want 0.85", got.Ratio)
	}
	if got.Exceeded {
		t.Error("limit not exceeded yet")
	}
}

func TestBudgetStatusDisabled(t *testing.T) {
	s := newTestServer(t, 0)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/budget/status", nil)
	got := decode[budgetStatusResponse](t, rec)
	if got.Enabled {
		t.Error("budget should be disabled without a limit")
	}
}

func TestCategoriesEndpoints(t *testing.T) {
	s := newTestServer(t, 0)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/categories?type=expense", nil)
	builtins := decode[[]categoryResponse](t, rec)
	if len(builtins) != 9 {
		t.Fatalf("expense builtins = %d, want 9", len(builtins))
	}

	rec = doJSON(t, s, http.MethodPost, "/api/v1/categories", addCategoryRequest{
		Type: "expense", Key: "pets", Name: "Animais",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add category returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/categories?type=expense", nil)
	if got := decode[[]categoryResponse](t, rec); len(got) != 10 {
		t.Errorf("after add, categories = %d, want 10", len(got))
	}

	// Duplicate key is rejected.
	rec = doJSON(t, s, http.MethodPost, "/api/v1/categories", addCategoryRequest{
		Type: "expense", Key: "pets", Name: "Animais",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("duplicate add returned %d, want 422", rec.Code)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/categories/expense/pets", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("remove category returned %d, want 204", rec.Code)
	}

	// Builtins cannot be removed.
	rec = doJSON(t, s, http.MethodDelete, "/api/v1/categories/expense/food", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("remove builtin returned %d, want 422", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, 0)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s returned %d", path, rec.Code)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < requestsPerMinute; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request over the limit should be denied")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("other clients are not affected")
	}
}

func TestClearTransactions(t *testing.T) {
	s := newTestServer(t, 0)
	for i := 0; i < 3; i++ {
		createTransaction(t, s, "expense", fmt.Sprintf("%d00", i+1), "food", "Compra")
	}

	rec := doJSON(t, s, http.MethodDelete, "/api/v1/transactions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear returned %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/transactions", nil)
	if got := decode[[]transactionResponse](t, rec); len(got) != 0 {
		t.Errorf("after clear, %d transactions remain", len(got))
	}
}
