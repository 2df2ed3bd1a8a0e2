package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/tahsin/medistock/internal/apperror"
	"github.com/tahsin/medistock/internal/model"
	"github.com/tahsin/medistock/internal/repository"
)

// compile-time check that *MedicineStore implements repository.MedicineRepository
var _ repository.MedicineRepository = (*MedicineStore)(nil)

// MedicineStore implements repository.MedicineRepository over the shared pool.
type MedicineStore struct {
	conn *sql.DB
}

// NewMedicineStore creates a MedicineStore backed by db.
func NewMedicineStore(db *DB) *MedicineStore {
	return &MedicineStore{conn: db.conn}
}

// Create inserts a new medicine, assigning ID and created_on.
func (s *MedicineStore) Create(ctx context.Context, med *model.Medicine) error {
	med.ID = xid.New().String()
	med.CreatedOn = time.Now()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO medicines (id, name, company, price, expiry_date, stock, created_on)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		med.ID,
		med.Name,
		med.Company,
		med.Price,
		med.ExpiryDate,
		med.Stock,
		med.CreatedOn,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting medicine %q: %w", med.Name, err)
	}
	return nil
}

// GetByID retrieves a single medicine.
// Returns apperror.ErrNotFound if it doesn't exist.
func (s *MedicineStore) GetByID(ctx context.Context, id string) (*model.Medicine, error) {
	var m model.Medicine
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, name, company, price, expiry_date, stock, created_on
		 FROM medicines WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.Company, &m.Price, &m.ExpiryDate, &m.Stock, &m.CreatedOn)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("medicine", id)
		}
		return nil, fmt.Errorf("sqlite: getting medicine %s: %w", id, err)
	}
	return &m, nil
}

// List returns one page of medicines plus the total match count.
//
// Search matches name or company as a substring. Sort accepts
// name_asc/name_desc/price_asc/price_desc; anything else falls back to
// insertion order. The ORDER BY clause is chosen from a fixed set — user
// input never reaches the SQL text.
func (s *MedicineStore) List(ctx context.Context, opts repository.ListOptions) ([]model.Medicine, int, error) {
	where := ""
	args := []any{}
	if opts.Search != "" {
		where = `WHERE name LIKE ? OR company LIKE ?`
		pattern := "%" + opts.Search + "%"
		args = append(args, pattern, pattern)
	}

	var total int
	if err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM medicines `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting medicines: %w", err)
	}

	order := "ORDER BY created_on, id"
	switch opts.Sort {
	case "name_asc":
		order = "ORDER BY name ASC"
	case "name_desc":
		order = "ORDER BY name DESC"
	case "price_asc":
		order = "ORDER BY price ASC"
	case "price_desc":
		order = "ORDER BY price DESC"
	}

	limit := opts.PageSize
	offset := (opts.Page - 1) * opts.PageSize
	args = append(args, limit, offset)

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, company, price, expiry_date, stock, created_on
		 FROM medicines `+where+` `+order+` LIMIT ? OFFSET ?`, args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing medicines: %w", err)
	}
	defer rows.Close()

	meds := []model.Medicine{}
	for rows.Next() {
		var m model.Medicine
		if err := rows.Scan(&m.ID, &m.Name, &m.Company, &m.Price, &m.ExpiryDate, &m.Stock, &m.CreatedOn); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning medicine row: %w", err)
		}
		meds = append(meds, m)
	}
	return meds, total, rows.Err()
}

// Update rewrites an existing medicine.
// Returns apperror.ErrNotFound if the row doesn't exist.
func (s *MedicineStore) Update(ctx context.Context, med *model.Medicine) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE medicines SET name = ?, company = ?, price = ?, expiry_date = ?, stock = ?
		 WHERE id = ?`,
		med.Name,
		med.Company,
		med.Price,
		med.ExpiryDate,
		med.Stock,
		med.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating medicine %s: %w", med.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sqlite: updating medicine: %w", apperror.NotFound("medicine", med.ID))
	}
	return nil
}

// Delete removes a medicine.
// Returns apperror.ErrNotFound if the row doesn't exist.
func (s *MedicineStore) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM medicines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting medicine %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sqlite: deleting medicine: %w", apperror.NotFound("medicine", id))
	}
	return nil
}
