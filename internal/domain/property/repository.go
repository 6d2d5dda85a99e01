package property

import (
	"context"

	"github.com/google/uuid"
)

// ListingFilter selects listings for the catalog. An empty Status matches all.
type ListingFilter struct {
	Status   ListingStatus
	Search   string
	Page     int
	PageSize int
}

// ListingRepository is the registry store for listings.
type ListingRepository interface {
	// FindByID returns ErrListingNotFound when no listing has the id.
	FindByID(ctx context.Context, id uuid.UUID) (*Listing, error)

	// Create inserts a new listing. Existing rows are never rewritten here:
	// escrow and occupancy only change through IncrementEscrow and MarkRented.
	Create(ctx context.Context, listing *Listing) error

	// FindAll returns one page of listings matching filter, newest first.
	FindAll(ctx context.Context, filter ListingFilter) ([]Listing, error)

	// Count returns the number of listings matching filter, ignoring pagination.
	Count(ctx context.Context, filter ListingFilter) (int64, error)

	// IncrementEscrow atomically adds amount to the escrow balance.
	IncrementEscrow(ctx context.Context, id uuid.UUID, amount int64) error

	// MarkRented flips an available listing to rented for tenantUserID, but only
	// if it is still available at expectedVersion. It returns
	// ErrListingNotAvailable when the listing was rented meanwhile and
	// shared.ErrConcurrencyConflict when it changed in some other way.
	MarkRented(ctx context.Context, id uuid.UUID, tenantUserID string, expectedVersion int) error
}

// LeaseRepository is the registry store for leases.
type LeaseRepository interface {
	Create(ctx context.Context, lease *Lease) error
	FindByListing(ctx context.Context, listingID uuid.UUID) ([]Lease, error)
}

// ShareToken describes the fungible token minted for a new listing.
type ShareToken struct {
	Name   string
	Symbol string
	Supply int64
}

// TokenIssuer mints share tokens on the ledger, held by the treasury.
type TokenIssuer interface {
	// IssueShareToken returns the ledger ID of the new token.
	IssueShareToken(ctx context.Context, token ShareToken) (string, error)
}
