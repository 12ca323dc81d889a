package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CollectionStatus represents whether a collection still accepts bids.
type CollectionStatus string

const (
	CollectionStatusOpen   CollectionStatus = "open"
	CollectionStatusClosed CollectionStatus = "closed"
)

// CanTransitionTo reports whether a collection may move from s to next.
// Closing is one-way.
func (s CollectionStatus) CanTransitionTo(next CollectionStatus) bool {
	return s == CollectionStatusOpen && next == CollectionStatusClosed
}

// Valid reports whether s is a known collection status.
func (s CollectionStatus) Valid() bool {
	return s == CollectionStatusOpen || s == CollectionStatusClosed
}

// Collection represents a listed lot of hardware available for bidding.
type Collection struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	Name         string           `json:"name" gorm:"size:255;not null"`
	Descriptions *string          `json:"descriptions,omitempty" gorm:"type:text"`
	Price        decimal.Decimal  `json:"price" gorm:"type:decimal(20,2);not null"`
	Stocks       int              `json:"stocks" gorm:"not null"`
	Status       CollectionStatus `json:"status" gorm:"type:varchar(20);not null;default:'open';index"`
	OwnerID      uint             `json:"ownerId" gorm:"not null;index"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`

	// Relations
	Owner User `json:"-" gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// IsOpen reports whether the collection still accepts bids.
func (c *Collection) IsOpen() bool {
	return c.Status == CollectionStatusOpen
}

// CollectionUpdate carries the mutable fields of a collection. Nil fields are left untouched.
type CollectionUpdate struct {
	Name         *string
	Descriptions *string
	Price        *decimal.Decimal
	Stocks       *int
	Status       *CollectionStatus
}

// CollectionWithOwner is a collection joined with its owner's display fields.
type CollectionWithOwner struct {
	Collection
	OwnerName  string `json:"ownerName"`
	OwnerEmail string `json:"ownerEmail"`
}
