package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/setusher/PenthouseProtocol/internal/domain/property"
	"github.com/setusher/PenthouseProtocol/internal/domain/shared"
	"github.com/setusher/PenthouseProtocol/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormListingRepository implements property.ListingRepository using GORM
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// FindByID finds a listing by ID
func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Listing, error) {
	var model models.ListingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, property.ErrListingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new listing
func (r *GormListingRepository) Create(ctx context.Context, listing *property.Listing) error {
	return r.db.WithContext(ctx).Create(models.ListingModelFromDomain(listing)).Error
}

// FindAll returns one page of listings, newest first
func (r *GormListingRepository) FindAll(ctx context.Context, filter property.ListingFilter) ([]property.Listing, error) {
	var rows []models.ListingModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ListingModel{}), filter).
		Order("created_at DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	listings := make([]property.Listing, len(rows))
	for i := range rows {
		listings[i] = *rows[i].ToDomain()
	}
	return listings, nil
}

// Count counts listings matching filter
func (r *GormListingRepository) Count(ctx context.Context, filter property.ListingFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.ListingModel{}), filter).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options without pagination
func (r *GormListingRepository) applyFilter(query *gorm.DB, filter property.ListingFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(symbol) LIKE ?", pattern, pattern)
	}
	return query
}

// IncrementEscrow adds amount to the escrow balance in a single UPDATE.
// The version is left untouched: escrow increments commute and must not
// invalidate a concurrent status flip.
func (r *GormListingRepository) IncrementEscrow(ctx context.Context, id uuid.UUID, amount int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.ListingModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"escrow_balance": gorm.Expr("escrow_balance + ?", amount),
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("increment escrow: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return property.ErrListingNotFound
	}
	return nil
}

// MarkRented flips the listing to rented with a compare-and-swap on status and version.
func (r *GormListingRepository) MarkRented(ctx context.Context, id uuid.UUID, tenantUserID string, expectedVersion int) error {
	result := r.db.WithContext(ctx).
		Model(&models.ListingModel{}).
		Where("id = ? AND status = ? AND version = ?", id, property.ListingStatusAvailable, expectedVersion).
		Updates(map[string]any{
			"status":         property.ListingStatusRented,
			"tenant_user_id": tenantUserID,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("mark listing rented: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	// Lost the swap. Tell a competing rental apart from any other change.
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !current.IsAvailable() {
		return property.ErrListingNotAvailable
	}
	return shared.NewDomainError(shared.CodeConcurrentModification, "The listing has been modified by another request")
}
