package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/setusher/PenthouseProtocol/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormEligibilityChecker reads the identity-verification flag of a user profile.
// Users without a profile are not eligible.
type GormEligibilityChecker struct {
	db *gorm.DB
}

// NewGormEligibilityChecker creates a new GormEligibilityChecker
func NewGormEligibilityChecker(db *gorm.DB) *GormEligibilityChecker {
	return &GormEligibilityChecker{db: db}
}

// IsEligible implements settlement.EligibilityChecker
func (c *GormEligibilityChecker) IsEligible(ctx context.Context, userID string) (bool, error) {
	var profile models.UserProfileModel
	err := c.db.WithContext(ctx).
		Select("id", "kyc_verified").
		First(&profile, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("read user profile: %w", err)
	}
	return profile.KYCVerified, nil
}
