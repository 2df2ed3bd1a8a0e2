// Package handler contains the HTTP handlers. Handlers parse requests, call
// the service layer, and write responses — no business rules live here.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tahsin/medistock/internal/apperror"
	"github.com/tahsin/medistock/internal/model"
	"github.com/tahsin/medistock/internal/repository"
	"github.com/tahsin/medistock/internal/service"
)

// MedicineHandler serves the inventory CRUD API.
type MedicineHandler struct {
	svc    *service.MedicineService
	logger *slog.Logger
}

// NewMedicineHandler creates a MedicineHandler.
func NewMedicineHandler(svc *service.MedicineService, logger *slog.Logger) *MedicineHandler {
	return &MedicineHandler{svc: svc, logger: logger}
}

// HandleList returns a page of medicines.
//
// HTTP: GET /api/medicines?search=&sort=&page=&pageSize=
// sort: name_asc | name_desc | price_asc | price_desc
func (h *MedicineHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := repository.ListOptions{
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
	}
	// Bad numbers fall through as zero; the service clamps them.
	opts.Page, _ = strconv.Atoi(q.Get("page"))
	opts.PageSize, _ = strconv.Atoi(q.Get("pageSize"))

	page, err := h.svc.List(r.Context(), opts)
	if err != nil {
		h.logger.Error("listing medicines failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleGetByID returns a single medicine.
//
// HTTP: GET /api/medicines/{id}
func (h *MedicineHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	med, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, med)
}

// HandleCreate adds a medicine.
//
// HTTP: POST /api/medicines
func (h *MedicineHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var med model.Medicine
	if err := json.NewDecoder(r.Body).Decode(&med); err != nil {
		writeError(w, apperror.ValidationFailed("body", "request body must be valid JSON"))
		return
	}

	if err := h.svc.Create(r.Context(), &med); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, med)
}

// HandleUpdate rewrites an existing medicine.
//
// HTTP: PUT /api/medicines/{id}
func (h *MedicineHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var med model.Medicine
	if err := json.NewDecoder(r.Body).Decode(&med); err != nil {
		writeError(w, apperror.ValidationFailed("body", "request body must be valid JSON"))
		return
	}
	med.ID = chi.URLParam(r, "id")

	if err := h.svc.Update(r.Context(), &med); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, med)
}

// HandleDelete removes a medicine.
//
// HTTP: DELETE /api/medicines/{id}
func (h *MedicineHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
