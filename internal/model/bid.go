package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BidStatus represents the lifecycle state of a bid.
type BidStatus string

const (
	BidStatusPending   BidStatus = "pending"
	BidStatusAccepted  BidStatus = "accepted"
	BidStatusRejected  BidStatus = "rejected"
	BidStatusCancelled BidStatus = "cancelled"
)

// bidTransitions lists the statuses reachable from each status.
// Only pending bids move; the other three are terminal.
var bidTransitions = map[BidStatus][]BidStatus{
	BidStatusPending:   {BidStatusAccepted, BidStatusRejected, BidStatusCancelled},
	BidStatusAccepted:  {},
	BidStatusRejected:  {},
	BidStatusCancelled: {},
}

// Valid reports whether s is a known bid status.
func (s BidStatus) Valid() bool {
	_, ok := bidTransitions[s]
	return ok
}

// IsTerminal reports whether no further transition is allowed from s.
func (s BidStatus) IsTerminal() bool {
	return len(bidTransitions[s]) == 0
}

// CanTransitionTo reports whether a bid may move from s to next.
func (s BidStatus) CanTransitionTo(next BidStatus) bool {
	for _, allowed := range bidTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Predecessors returns every status from which s is reachable.
func (s BidStatus) Predecessors() []BidStatus {
	var from []BidStatus
	for prev, targets := range bidTransitions {
		for _, t := range targets {
			if t == s {
				from = append(from, prev)
			}
		}
	}
	return from
}

// Bid represents an offer by a user to buy a collection at a given price.
type Bid struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	Price        decimal.Decimal `json:"price" gorm:"type:decimal(20,2);not null"`
	CollectionID uint            `json:"collectionId" gorm:"not null;index"`
	UserID       uint            `json:"userId" gorm:"not null;index"`
	Status       BidStatus       `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`

	// Relations
	Collection Collection `json:"-" gorm:"foreignKey:CollectionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	User       User       `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// BidUpdate carries the mutable fields of a bid. Nil fields are left untouched.
type BidUpdate struct {
	Price  *decimal.Decimal
	Status *BidStatus
}

// BidWithDetails is a bid joined with the bidder's and the collection's display fields.
type BidWithDetails struct {
	Bid
	UserName         string           `json:"userName"`
	UserEmail        string           `json:"userEmail"`
	CollectionName   string           `json:"collectionName"`
	CollectionStatus CollectionStatus `json:"collectionStatus"`
}
