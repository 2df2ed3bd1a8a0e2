package model

import "time"

// Medicine is one inventory item.
//
// Price uses float64 rather than a decimal type; the original schema used
// decimal(10,2) and values are rounded to cents at the service layer.
type Medicine struct {
	ID         string    `json:"id"         db:"id"`
	Name       string    `json:"name"       db:"name"`
	Company    string    `json:"company"    db:"company"`
	Price      float64   `json:"price"      db:"price"`
	ExpiryDate time.Time `json:"expiryDate" db:"expiry_date"`
	Stock      int       `json:"stock"      db:"stock"`
	CreatedOn  time.Time `json:"createdOn"  db:"created_on"`
}
