package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/setusher/PenthouseProtocol/internal/application/catalog"
	"github.com/setusher/PenthouseProtocol/internal/domain/property"
	"github.com/setusher/PenthouseProtocol/internal/interfaces/http/dto"
	"github.com/setusher/PenthouseProtocol/internal/interfaces/http/middleware"
)

// Catalog lists and creates listings
type Catalog interface {
	Create(ctx context.Context, req catalog.CreateListingRequest) (*property.Listing, error)
	List(ctx context.Context, filter catalog.ListFilter) (*catalog.ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*property.Listing, []property.Lease, error)
}

// ListingHandler handles the listing catalog endpoints
type ListingHandler struct {
	BaseHandler
	catalog  Catalog
	decimals int32
}

// NewListingHandler creates a new ListingHandler. decimals is the settlement
// token's decimal places, used to report escrow balances.
func NewListingHandler(svc Catalog, decimals int32) *ListingHandler {
	return &ListingHandler{catalog: svc, decimals: decimals}
}

// List godoc
// GET /api/v1/listings
func (h *ListingHandler) List(c *gin.Context) {
	var query dto.ListListingsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.catalog.List(c.Request.Context(), catalog.ListFilter{
		Status:   query.Status,
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, dto.NewListingResponses(result.Listings, h.decimals), result.Total, result.Page, result.PageSize)
}

// Create godoc
// POST /api/v1/listings
// Mints the share token and lists the property for the caller.
func (h *ListingHandler) Create(c *gin.Context) {
	callerID := middleware.GetCallerID(c)
	if callerID == "" {
		h.Unauthorized(c, "Authentication required")
		return
	}
	var req dto.CreateListingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	listing, err := h.catalog.Create(c.Request.Context(), catalog.CreateListingRequest{
		OwnerUserID:    callerID,
		OwnerAccountID: req.OwnerAccountID,
		Name:           req.Name,
		Symbol:         req.Symbol,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		UnitPrice:      req.UnitPrice,
		RentalPrice:    req.RentalPrice,
		TotalSupply:    req.TotalSupply,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewListingResponse(listing, h.decimals))
}

// Get godoc
// GET /api/v1/listings/:id
func (h *ListingHandler) Get(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid listing ID")
		return
	}

	listing, leases, err := h.catalog.Get(c.Request.Context(), uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewListingDetailResponse(listing, leases, h.decimals))
}
