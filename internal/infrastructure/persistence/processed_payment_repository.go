package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/setusher/PenthouseProtocol/internal/domain/settlement"
	"github.com/setusher/PenthouseProtocol/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProcessedPaymentRepository is the database-backed idempotency ledger.
// Reservation is a single INSERT ... ON CONFLICT DO NOTHING on the
// transaction ID primary key, so the database picks exactly one winner.
type GormProcessedPaymentRepository struct {
	db *gorm.DB
}

// NewGormProcessedPaymentRepository creates a new GormProcessedPaymentRepository
func NewGormProcessedPaymentRepository(db *gorm.DB) *GormProcessedPaymentRepository {
	return &GormProcessedPaymentRepository{db: db}
}

// Reserve inserts the record unless its transaction ID already exists
func (r *GormProcessedPaymentRepository) Reserve(ctx context.Context, record settlement.ProcessedPayment) (settlement.ReserveResult, error) {
	if record.TransactionID == "" {
		return 0, errors.New("processed payment: empty transaction id")
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(models.ProcessedPaymentModelFromDomain(record))
	if result.Error != nil {
		return 0, fmt.Errorf("reserve processed payment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return settlement.AlreadyReserved, nil
	}
	return settlement.Reserved, nil
}

// Lookup returns the record for txID, or nil if the payment is unconsumed
func (r *GormProcessedPaymentRepository) Lookup(ctx context.Context, txID string) (*settlement.ProcessedPayment, error) {
	var model models.ProcessedPaymentModel
	if err := r.db.WithContext(ctx).First(&model, "transaction_id = ?", txID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup processed payment: %w", err)
	}
	return model.ToDomain(), nil
}

// ListByCorrelation returns every payment consumed for a business entity
func (r *GormProcessedPaymentRepository) ListByCorrelation(ctx context.Context, correlationID string) ([]settlement.ProcessedPayment, error) {
	var rows []models.ProcessedPaymentModel
	if err := r.db.WithContext(ctx).
		Where("correlation_id = ?", correlationID).
		Order("processed_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]settlement.ProcessedPayment, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}
