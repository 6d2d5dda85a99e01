package property

import (
	"errors"
	"strings"

	"github.com/setusher/PenthouseProtocol/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ListingStatus is the occupancy status of a listed property
type ListingStatus string

const (
	ListingStatusAvailable ListingStatus = "available"
	ListingStatusRented    ListingStatus = "rented"
)

// IsValid checks if the status is valid
func (s ListingStatus) IsValid() bool {
	return s == ListingStatusAvailable || s == ListingStatusRented
}

var (
	ErrListingNotFound     = errors.New("property: listing not found")
	ErrListingNotAvailable = errors.New("property: listing is not available")
	ErrInvalidLeasePeriod  = errors.New("property: lease must end after it starts")
	ErrTokenIssueFailed    = errors.New("property: share token could not be issued")
)

// Listing is a tokenized property. Investors buy share tokens of it and a
// single tenant at a time may rent it.
type Listing struct {
	shared.BaseAggregateRoot
	OwnerUserID    string
	OwnerAccountID string
	TokenID        string
	Name           string
	Symbol         string
	Description    string
	ImageURL       string
	UnitPrice      decimal.Decimal // settlement units per share token
	RentalPrice    decimal.Decimal // settlement units per rental period
	TotalSupply    int64
	Status         ListingStatus
	TenantUserID   string
	EscrowBalance  int64 // smallest settlement denomination
}

// ValidateTerms checks the commercial terms of a listing. It runs before a
// share token is minted so that a rejected listing never leaves a token behind.
func ValidateTerms(name string, unitPrice, rentalPrice decimal.Decimal, totalSupply int64) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "listing needs a name")
	}
	if !unitPrice.IsPositive() || !rentalPrice.IsPositive() {
		return shared.NewDomainError(shared.CodeInvalidInput, "prices must be positive")
	}
	if totalSupply <= 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "total supply must be positive")
	}
	return nil
}

// NewListing creates an available listing with an empty escrow.
func NewListing(ownerUserID, ownerAccountID, tokenID, name, symbol string, unitPrice, rentalPrice decimal.Decimal, totalSupply int64) (*Listing, error) {
	if strings.TrimSpace(tokenID) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "listing needs a token id")
	}
	if err := ValidateTerms(name, unitPrice, rentalPrice, totalSupply); err != nil {
		return nil, err
	}

	return &Listing{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerUserID:       ownerUserID,
		OwnerAccountID:    ownerAccountID,
		TokenID:           tokenID,
		Name:              name,
		Symbol:            symbol,
		UnitPrice:         unitPrice,
		RentalPrice:       rentalPrice,
		TotalSupply:       totalSupply,
		Status:            ListingStatusAvailable,
	}, nil
}

// IsAvailable reports whether the listing can be rented
func (l *Listing) IsAvailable() bool {
	return l.Status == ListingStatusAvailable
}

// CorrelationID is the identifier payments for this listing are tagged with.
func (l *Listing) CorrelationID() string {
	return l.ID.String()
}
