package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/tahsin/medistock/internal/apperror"
	"github.com/tahsin/medistock/internal/handler"
	"github.com/tahsin/medistock/internal/model"
	"github.com/tahsin/medistock/internal/repository"
	"github.com/tahsin/medistock/internal/service"
)

// stubMedicineRepo is an in-memory repository for handler testing — no
// database, no HTTP middleware, just routing and JSON translation.
type stubMedicineRepo struct {
	items map[string]*model.Medicine
}

func newStubMedicineRepo() *stubMedicineRepo {
	return &stubMedicineRepo{items: map[string]*model.Medicine{}}
}

func (s *stubMedicineRepo) Create(ctx context.Context, med *model.Medicine) error {
	med.ID = "med-1"
	med.CreatedOn = time.Now()
	copied := *med
	s.items[med.ID] = &copied
	return nil
}

func (s *stubMedicineRepo) GetByID(ctx context.Context, id string) (*model.Medicine, error) {
	m, ok := s.items[id]
	if !ok {
		return nil, apperror.NotFound("medicine", id)
	}
	copied := *m
	return &copied, nil
}

func (s *stubMedicineRepo) List(ctx context.Context, opts repository.ListOptions) ([]model.Medicine, int, error) {
	items := []model.Medicine{}
	for _, m := range s.items {
		items = append(items, *m)
	}
	return items, len(items), nil
}

func (s *stubMedicineRepo) Update(ctx context.Context, med *model.Medicine) error {
	if _, ok := s.items[med.ID]; !ok {
		return apperror.NotFound("medicine", med.ID)
	}
	copied := *med
	s.items[med.ID] = &copied
	return nil
}

func (s *stubMedicineRepo) Delete(ctx context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return apperror.NotFound("medicine", id)
	}
	delete(s.items, id)
	return nil
}

// newMedicineRouter mounts the handler on a real chi router so URL
// parameters resolve the same way they do in production.
func newMedicineRouter(repo *stubMedicineRepo) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.NewMedicineHandler(service.NewMedicineService(repo, logger), logger)

	r := chi.NewRouter()
	r.Get("/api/medicines", h.HandleList)
	r.Post("/api/medicines", h.HandleCreate)
	r.Get("/api/medicines/{id}", h.HandleGetByID)
	r.Put("/api/medicines/{id}", h.HandleUpdate)
	r.Delete("/api/medicines/{id}", h.HandleDelete)
	return r
}

func TestMedicineHandler_Create(t *testing.T) {
	t.Run("valid medicine", func(t *testing.T) {
		r := newMedicineRouter(newStubMedicineRepo())

		body := `{"name":"Paracetamol","company":"Acme Pharma","price":4.5,"stock":100,"expiryDate":"2027-06-01T00:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/api/medicines", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var created model.Medicine
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
		assert.Equal(t, "med-1", created.ID)
		assert.Equal(t, "Paracetamol", created.Name)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		r := newMedicineRouter(newStubMedicineRepo())

		req := httptest.NewRequest(http.MethodPost, "/api/medicines", bytes.NewBufferString(`{"name":`))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		r := newMedicineRouter(newStubMedicineRepo())

		body := `{"name":"","company":"Acme Pharma","price":4.5,"stock":100,"expiryDate":"2027-06-01T00:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/api/medicines", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var errRes handler.ErrorResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&errRes))
		assert.Equal(t, "validation_error", errRes.Error)
	})
}

func TestMedicineHandler_GetByID(t *testing.T) {
	repo := newStubMedicineRepo()
	repo.items["med-1"] = &model.Medicine{ID: "med-1", Name: "Paracetamol", Company: "Acme Pharma"}
	r := newMedicineRouter(repo)

	t.Run("found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/medicines/med-1", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("missing", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/medicines/nope", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)

		var errRes handler.ErrorResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&errRes))
		assert.Equal(t, "not_found", errRes.Error)
	})
}

func TestMedicineHandler_Update(t *testing.T) {
	repo := newStubMedicineRepo()
	repo.items["med-1"] = &model.Medicine{ID: "med-1", Name: "Paracetamol", Company: "Acme Pharma"}
	r := newMedicineRouter(repo)

	// The path parameter wins over any ID in the body.
	body := `{"id":"something-else","name":"Paracetamol 500","company":"Acme Pharma","price":5,"stock":80,"expiryDate":"2027-06-01T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPut, "/api/medicines/med-1", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Paracetamol 500", repo.items["med-1"].Name)
}

func TestMedicineHandler_Delete(t *testing.T) {
	repo := newStubMedicineRepo()
	repo.items["med-1"] = &model.Medicine{ID: "med-1", Name: "Paracetamol", Company: "Acme Pharma"}
	r := newMedicineRouter(repo)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/medicines/med-1", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/medicines/med-1", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMedicineHandler_List(t *testing.T) {
	repo := newStubMedicineRepo()
	repo.items["med-1"] = &model.Medicine{ID: "med-1", Name: "Paracetamol", Company: "Acme Pharma"}
	r := newMedicineRouter(repo)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/medicines?page=1&pageSize=10", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var page service.MedicinePage
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&page))
	assert.Equal(t, 1, page.Total)
	assert.Len(t, page.Items, 1)
}
