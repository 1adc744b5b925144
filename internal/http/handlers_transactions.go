package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/vinimacar/EcoFin/internal/core"
	"github.com/vinimacar/EcoFin/internal/ledger"
	"github.com/vinimacar/EcoFin/internal/log"
)

const maxBodyBytes = 1 << 20

// transactionRequest is the create payload. Amount is a positive decimal
// magnitude ("800,50" or "800.50"); the sign follows the type.
type transactionRequest struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// transactionPatch carries only the fields the client wants to change.
type transactionPatch struct {
	Type        *string `json:"type"`
	Amount      *string `json:"amount"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(strings.TrimSpace(req.Amount))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount: "+err.Error())
		return
	}

	date := core.NewDate(time.Now().Year(), int(time.Now().Month()), time.Now().Day())
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := time.Parse(dateLayout, strings.TrimSpace(req.Date))
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid date, expected YYYY-MM-DD")
			return
		}
		date = core.Date{Time: parsed}
	}

	draft := core.TransactionDraft{
		Type:        core.TransactionType(strings.TrimSpace(req.Type)),
		Amount:      core.Money{Cents: cents},
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		Date:        date,
	}

	txn, err := s.store.Add(r.Context(), draft)
	if err != nil && !isPersistence(err) {
		writeStoreError(w, err)
		return
	}
	if err != nil {
		s.logger.WarnContext(r.Context(), "transaction applied without persistence",
			log.FieldTransactionID, txn.ID, log.FieldError, err)
	}

	writeJSON(w, http.StatusCreated, mutationResponse{
		Transaction: toTransactionResponse(txn),
		Persisted:   err == nil,
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txns := s.store.List(filter)
	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := s.store.GetByID(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(txn))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionPatch
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch, err := patchFromRequest(req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	txn, err := s.store.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil && !isPersistence(err) {
		writeStoreError(w, err)
		return
	}
	if err != nil {
		s.logger.WarnContext(r.Context(), "transaction updated without persistence",
			log.FieldTransactionID, txn.ID, log.FieldError, err)
	}

	writeJSON(w, http.StatusOK, mutationResponse{
		Transaction: toTransactionResponse(txn),
		Persisted:   err == nil,
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	err := s.store.Remove(r.Context(), r.PathValue("id"))
	if err != nil && !isPersistence(err) {
		writeStoreError(w, err)
		return
	}
	if err != nil {
		s.logger.WarnContext(r.Context(), "transaction removed without persistence",
			log.FieldTransactionID, r.PathValue("id"), log.FieldError, err)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"persisted": err == nil})
}

func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	err := s.store.Clear(r.Context())
	if err != nil && !isPersistence(err) {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"persisted": err == nil})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func filterFromQuery(r *http.Request) (ledger.Filter, error) {
	var filter ledger.Filter

	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		typ := core.TransactionType(v)
		if typ != core.Income && typ != core.Expense {
			return filter, errInvalidType
		}
		filter.Type = typ
	}
	filter.Category = strings.TrimSpace(r.URL.Query().Get("category"))

	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			return filter, errInvalidDateRange
		}
		filter.From = core.Date{Time: parsed}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			return filter, errInvalidDateRange
		}
		filter.To = core.Date{Time: parsed}
	}

	return filter, nil
}

func patchFromRequest(req transactionPatch) (ledger.Patch, error) {
	var patch ledger.Patch

	if req.Type != nil {
		typ := core.TransactionType(strings.TrimSpace(*req.Type))
		patch.Type = &typ
	}
	if req.Amount != nil {
		cents, err := core.ParseDecimalToCents(strings.TrimSpace(*req.Amount))
		if err != nil {
			return patch, err
		}
		patch.Amount = &core.Money{Cents: cents}
	}
	if req.Category != nil {
		category := sanitizeInput(*req.Category)
		patch.Category = &category
	}
	if req.Description != nil {
		description := sanitizeInput(*req.Description)
		patch.Description = &description
	}
	if req.Date != nil {
		parsed, err := time.Parse(dateLayout, strings.TrimSpace(*req.Date))
		if err != nil {
			return patch, errInvalidDateRange
		}
		date := core.Date{Time: parsed}
		patch.Date = &date
	}

	return patch, nil
}
