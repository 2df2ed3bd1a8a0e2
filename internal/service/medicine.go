package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/tahsin/medistock/internal/apperror"
	"github.com/tahsin/medistock/internal/model"
	"github.com/tahsin/medistock/internal/repository"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// earliestExpiry is the floor the original schema put on expiry dates.
var earliestExpiry = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// MedicineService holds the inventory business rules: validation on writes,
// option normalization on reads. It knows nothing about HTTP.
type MedicineService struct {
	medicines repository.MedicineRepository
	logger    *slog.Logger
}

// NewMedicineService creates a MedicineService.
func NewMedicineService(medicines repository.MedicineRepository, logger *slog.Logger) *MedicineService {
	return &MedicineService{medicines: medicines, logger: logger}
}

// MedicinePage is one page of listing results.
type MedicinePage struct {
	Items      []model.Medicine `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}

// List returns a page of medicines. Page and page size are clamped to sane
// values rather than rejected, so sloppy query strings still work.
func (s *MedicineService) List(ctx context.Context, opts repository.ListOptions) (*MedicinePage, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 {
		opts.PageSize = defaultPageSize
	}
	if opts.PageSize > maxPageSize {
		opts.PageSize = maxPageSize
	}

	items, total, err := s.medicines.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("service/medicine: listing: %w", err)
	}

	return &MedicinePage{
		Items:      items,
		Total:      total,
		Page:       opts.Page,
		PageSize:   opts.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(opts.PageSize))),
	}, nil
}

// Get returns one medicine by ID.
func (s *MedicineService) Get(ctx context.Context, id string) (*model.Medicine, error) {
	med, err := s.medicines.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/medicine: fetching %s: %w", id, err)
	}
	return med, nil
}

// Create validates and stores a new medicine.
func (s *MedicineService) Create(ctx context.Context, med *model.Medicine) error {
	if err := validateMedicine(med); err != nil {
		return err
	}
	if err := s.medicines.Create(ctx, med); err != nil {
		return fmt.Errorf("service/medicine: creating %q: %w", med.Name, err)
	}
	s.logger.Info("medicine created", slog.String("id", med.ID), slog.String("name", med.Name))
	return nil
}

// Update validates and rewrites an existing medicine.
func (s *MedicineService) Update(ctx context.Context, med *model.Medicine) error {
	if med.ID == "" {
		return apperror.ValidationFailed("id", "medicine ID is required")
	}
	if err := validateMedicine(med); err != nil {
		return err
	}
	if err := s.medicines.Update(ctx, med); err != nil {
		return fmt.Errorf("service/medicine: updating %s: %w", med.ID, err)
	}
	return nil
}

// Delete removes a medicine by ID.
func (s *MedicineService) Delete(ctx context.Context, id string) error {
	if err := s.medicines.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/medicine: deleting %s: %w", id, err)
	}
	s.logger.Info("medicine deleted", slog.String("id", id))
	return nil
}

// validateMedicine applies the field rules the original form enforced.
func validateMedicine(med *model.Medicine) error {
	if med.Name == "" {
		return apperror.ValidationFailed("name", "medicine name is required")
	}
	if len(med.Name) > 100 {
		return apperror.ValidationFailed("name", "medicine name must be 100 characters or fewer")
	}
	if med.Company == "" {
		return apperror.ValidationFailed("company", "company name is required")
	}
	if len(med.Company) > 100 {
		return apperror.ValidationFailed("company", "company name must be 100 characters or fewer")
	}
	if med.Price < 0 {
		return apperror.ValidationFailed("price", "price must be a positive value")
	}
	if med.Stock < 0 {
		return apperror.ValidationFailed("stock", "stock must be a non-negative number")
	}
	if med.ExpiryDate.Before(earliestExpiry) {
		return apperror.ValidationFailed("expiryDate", "expiry date must be after 2020-01-01")
	}
	// decimal(10,2) in the original schema — keep prices at cent precision
	med.Price = math.Round(med.Price*100) / 100
	return nil
}
