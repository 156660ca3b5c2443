package credit

import (
	"errors"
	"time"
)

type Package struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreditAmount int       `json:"credit_amount"`
	Price        float64   `json:"price"`
	CreatedAt    time.Time `json:"createdAt"`
}

// A Purchase snapshots credits and price at buy time, so later package edits
// or deletions never change what a user already owns.
type Purchase struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	CreditPackageID  string    `json:"creditPackageId"`
	PackageName      string    `json:"name,omitempty"`
	PurchasedCredits int       `json:"purchased_credits"`
	PricePaid        float64   `json:"price_paid"`
	PurchaseAt       time.Time `json:"purchase_at"`
}

var (
	ErrPackageNotFound = errors.New("credit package not found")
	ErrDuplicateName   = errors.New("credit package name already exists")
)

// Price is a pointer so min=0 still fires on a missing field, and a float so
// fractional prices survive the trip into the NUMERIC(10,2) column.
type CreatePackageRequest struct {
	Name         string   `json:"name" binding:"required,min=1,max=50"`
	CreditAmount *int     `json:"credit_amount" binding:"required,min=0"`
	Price        *float64 `json:"price" binding:"required,min=0"`
}
