package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/setusher/PenthouseProtocol/internal/domain/property"
	"github.com/setusher/PenthouseProtocol/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Config holds the collaborators of the listing catalog
type Config struct {
	Listings property.ListingRepository
	Leases   property.LeaseRepository
	Issuer   property.TokenIssuer
	Logger   *zap.Logger
}

// Service lists properties and creates new listings backed by a freshly
// minted share token.
type Service struct {
	listings property.ListingRepository
	leases   property.LeaseRepository
	issuer   property.TokenIssuer
	logger   *zap.Logger
}

// NewService creates a new catalog service
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		listings: cfg.Listings,
		leases:   cfg.Leases,
		issuer:   cfg.Issuer,
		logger:   logger.Named("catalog"),
	}
}

// CreateListingRequest describes a property to list
type CreateListingRequest struct {
	OwnerUserID    string
	OwnerAccountID string
	Name           string
	Symbol         string
	Description    string
	ImageURL       string
	UnitPrice      decimal.Decimal
	RentalPrice    decimal.Decimal
	TotalSupply    int64
}

// ListFilter selects a page of listings
type ListFilter struct {
	Status   string
	Search   string
	Page     int
	PageSize int
}

// ListResult is one page of listings with the total match count
type ListResult struct {
	Listings []property.Listing
	Total    int64
	Page     int
	PageSize int
}

// Create mints the share token of a new listing and stores the listing.
// Terms are validated first; a listing that fails validation never mints.
func (s *Service) Create(ctx context.Context, req CreateListingRequest) (*property.Listing, error) {
	if err := property.ValidateTerms(req.Name, req.UnitPrice, req.RentalPrice, req.TotalSupply); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Symbol) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "listing needs a token symbol")
	}

	tokenID, err := s.issuer.IssueShareToken(ctx, property.ShareToken{
		Name:   req.Name,
		Symbol: req.Symbol,
		Supply: req.TotalSupply,
	})
	if err != nil {
		return nil, err
	}

	listing, err := property.NewListing(req.OwnerUserID, req.OwnerAccountID, tokenID, req.Name, req.Symbol,
		req.UnitPrice, req.RentalPrice, req.TotalSupply)
	if err != nil {
		return nil, err
	}
	listing.Description = req.Description
	listing.ImageURL = req.ImageURL

	if err := s.listings.Create(ctx, listing); err != nil {
		s.logger.Error("share token minted but listing not stored",
			zap.String("token_id", tokenID),
			zap.String("owner_user_id", req.OwnerUserID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("store listing: %w", err)
	}

	s.logger.Info("listing created",
		zap.String("listing_id", listing.ID.String()),
		zap.String("token_id", tokenID),
		zap.Int64("total_supply", listing.TotalSupply),
	)
	return listing, nil
}

// List returns one page of listings, newest first
func (s *Service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	domainFilter := property.ListingFilter{
		Search:   strings.TrimSpace(filter.Search),
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
	if filter.Status != "" {
		status := property.ListingStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "unknown listing status "+filter.Status)
		}
		domainFilter.Status = status
	}

	listings, err := s.listings.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	total, err := s.listings.Count(ctx, domainFilter)
	if err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}

	return &ListResult{
		Listings: listings,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// Get returns a listing with its leases, newest first
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*property.Listing, []property.Lease, error) {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	leases, err := s.leases.FindByListing(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list leases: %w", err)
	}
	return listing, leases, nil
}
