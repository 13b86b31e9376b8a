// Package domain holds the property listing model.
package domain

import "estate_crm_backend/internal/entity"

// Status is the market status of a listing.
type Status string

const (
	StatusAvailable  Status = "available"
	StatusUnderOffer Status = "under_offer"
	StatusSold       Status = "sold"
	StatusWithdrawn  Status = "withdrawn"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusUnderOffer, StatusSold, StatusWithdrawn:
		return true
	}
	return false
}

// Property is a listing an agent markets.
type Property struct {
	entity.Meta
	Title      string  `json:"title"`
	Address    string  `json:"address"`
	City       string  `json:"city"`
	PostalCode string  `json:"postalCode"`
	Price      float64 `json:"price"`
	Status     Status  `json:"status"`
}
