// Package entity provides a generic, access-scoped repository shared by every
// CRM record type. Each concrete repository describes its table with a Table
// and gets listing, scoped reads, versioned writes, events and audit for free.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Meta is embedded in every persisted record.
type Meta struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenantId"`
	OwnerID   uuid.UUID `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	// Version is bumped on every write and checked on update and delete.
	Version int64 `json:"version"`

	// storedOwner is the owner last read from or written to the database.
	storedOwner uuid.UUID
}

// GetMeta returns m. Embedding Meta makes a record satisfy Record.
func (m *Meta) GetMeta() *Meta { return m }

// Record is any type that embeds Meta.
type Record interface {
	GetMeta() *Meta
}
