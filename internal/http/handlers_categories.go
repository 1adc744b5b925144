package http

import (
	"net/http"
	"strings"

	"github.com/vinimacar/EcoFin/internal/core"
)

type categoryResponse struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Icon    string `json:"icon"`
	Builtin bool   `json:"builtin"`
}

type addCategoryRequest struct {
	Type string `json:"type"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{Key: c.Key, Name: c.Name, Icon: c.Icon, Builtin: c.Builtin}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	typ := core.TransactionType(strings.TrimSpace(r.URL.Query().Get("type")))
	if typ != core.Income && typ != core.Expense {
		writeError(w, http.StatusBadRequest, errInvalidType.Error())
		return
	}

	all := s.registry.All(typ)
	out := make([]categoryResponse, 0, len(all))
	for _, c := range all {
		out = append(out, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req addCategoryRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	typ := core.TransactionType(strings.TrimSpace(req.Type))
	if typ != core.Income && typ != core.Expense {
		writeError(w, http.StatusBadRequest, errInvalidType.Error())
		return
	}

	category, err := s.registry.AddCustom(r.Context(), typ, sanitizeInput(req.Key), sanitizeInput(req.Name))
	if err != nil && !isPersistence(err) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toCategoryResponse(category))
}

func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	typ := core.TransactionType(r.PathValue("type"))
	if typ != core.Income && typ != core.Expense {
		writeError(w, http.StatusBadRequest, errInvalidType.Error())
		return
	}

	err := s.registry.RemoveCustom(r.Context(), typ, r.PathValue("key"))
	if err != nil && !isPersistence(err) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
