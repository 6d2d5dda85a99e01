package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/setusher/PenthouseProtocol/internal/domain/property"
	"github.com/setusher/PenthouseProtocol/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLeaseRepository implements property.LeaseRepository using GORM
type GormLeaseRepository struct {
	db *gorm.DB
}

// NewGormLeaseRepository creates a new GormLeaseRepository
func NewGormLeaseRepository(db *gorm.DB) *GormLeaseRepository {
	return &GormLeaseRepository{db: db}
}

// Create inserts a lease
func (r *GormLeaseRepository) Create(ctx context.Context, lease *property.Lease) error {
	return r.db.WithContext(ctx).Create(models.LeaseModelFromDomain(lease)).Error
}

// FindByListing returns the leases of a listing, newest first
func (r *GormLeaseRepository) FindByListing(ctx context.Context, listingID uuid.UUID) ([]property.Lease, error) {
	var rows []models.LeaseModel
	if err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	leases := make([]property.Lease, len(rows))
	for i := range rows {
		leases[i] = *rows[i].ToDomain()
	}
	return leases, nil
}
