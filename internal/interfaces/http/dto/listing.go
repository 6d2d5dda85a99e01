package dto

import (
	"time"

	"github.com/setusher/PenthouseProtocol/internal/domain/property"
	"github.com/setusher/PenthouseProtocol/internal/domain/settlement"
	"github.com/shopspring/decimal"
)

// CreateListingRequest is the body of POST /listings. Prices are in
// settlement units; the share token is minted with TotalSupply units.
type CreateListingRequest struct {
	Name           string          `json:"name" binding:"required,max=100"`
	Symbol         string          `json:"symbol" binding:"required,alphanum,max=32"`
	Description    string          `json:"description" binding:"max=2000"`
	ImageURL       string          `json:"image_url" binding:"omitempty,url,max=500"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	RentalPrice    decimal.Decimal `json:"rental_price"`
	TotalSupply    int64           `json:"total_supply" binding:"required,min=1"`
	OwnerAccountID string          `json:"owner_account_id" binding:"required,ledger_account"`
}

// ListListingsQuery holds the query parameters of GET /listings
type ListListingsQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=available rented"`
	Search   string `form:"search" binding:"max=100"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListingResponse is the API view of a listing. Escrow is reported in
// settlement units.
type ListingResponse struct {
	ID             string          `json:"id"`
	OwnerUserID    string          `json:"owner_user_id"`
	OwnerAccountID string          `json:"owner_account_id"`
	TokenID        string          `json:"token_id"`
	Name           string          `json:"name"`
	Symbol         string          `json:"symbol"`
	Description    string          `json:"description,omitempty"`
	ImageURL       string          `json:"image_url,omitempty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	RentalPrice    decimal.Decimal `json:"rental_price"`
	TotalSupply    int64           `json:"total_supply"`
	Status         string          `json:"status"`
	TenantUserID   string          `json:"tenant_user_id,omitempty"`
	EscrowBalance  decimal.Decimal `json:"escrow_balance"`
	Version        int             `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// LeaseResponse is the API view of a lease
type LeaseResponse struct {
	ID               string    `json:"id"`
	TenantUserID     string    `json:"tenant_user_id"`
	TenantAccountID  string    `json:"tenant_account_id"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	FirstPaymentTxID string    `json:"first_payment_tx_id"`
	PaymentVerified  bool      `json:"payment_verified"`
	CreatedAt        time.Time `json:"created_at"`
}

// ListingDetailResponse is a listing with its leases, newest first
type ListingDetailResponse struct {
	ListingResponse
	Leases []LeaseResponse `json:"leases"`
}

// NewListingResponse converts a listing. decimals is the settlement token's
// decimal places, used to express the escrow in settlement units.
func NewListingResponse(l *property.Listing, decimals int32) ListingResponse {
	return ListingResponse{
		ID:             l.ID.String(),
		OwnerUserID:    l.OwnerUserID,
		OwnerAccountID: l.OwnerAccountID,
		TokenID:        l.TokenID,
		Name:           l.Name,
		Symbol:         l.Symbol,
		Description:    l.Description,
		ImageURL:       l.ImageURL,
		UnitPrice:      l.UnitPrice,
		RentalPrice:    l.RentalPrice,
		TotalSupply:    l.TotalSupply,
		Status:         string(l.Status),
		TenantUserID:   l.TenantUserID,
		EscrowBalance:  settlement.FromSmallestUnit(l.EscrowBalance, decimals),
		Version:        l.Version,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

// NewListingResponses converts a page of listings
func NewListingResponses(listings []property.Listing, decimals int32) []ListingResponse {
	out := make([]ListingResponse, 0, len(listings))
	for i := range listings {
		out = append(out, NewListingResponse(&listings[i], decimals))
	}
	return out
}

// NewListingDetailResponse converts a listing and its leases
func NewListingDetailResponse(l *property.Listing, leases []property.Lease, decimals int32) ListingDetailResponse {
	resp := ListingDetailResponse{
		ListingResponse: NewListingResponse(l, decimals),
		Leases:          make([]LeaseResponse, 0, len(leases)),
	}
	for _, lease := range leases {
		resp.Leases = append(resp.Leases, LeaseResponse{
			ID:               lease.ID.String(),
			TenantUserID:     lease.TenantUserID,
			TenantAccountID:  lease.TenantAccountID,
			StartDate:        lease.StartDate,
			EndDate:          lease.EndDate,
			FirstPaymentTxID: lease.FirstPaymentTxID,
			PaymentVerified:  lease.PaymentVerified,
			CreatedAt:        lease.CreatedAt,
		})
	}
	return resp
}
