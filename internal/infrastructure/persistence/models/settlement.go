package models

import (
	"time"

	"github.com/setusher/PenthouseProtocol/internal/domain/settlement"
)

// ProcessedPaymentModel is the idempotency record of a consumed ledger
// transaction. The transaction ID is the primary key so the database enforces
// at most one row per payment.
type ProcessedPaymentModel struct {
	TransactionID string             `gorm:"type:varchar(96);primaryKey"`
	ProcessedAt   time.Time          `gorm:"not null;index"`
	Sender        string             `gorm:"type:varchar(64);not null;index"`
	Amount        int64              `gorm:"not null"`
	AssetType     string             `gorm:"type:varchar(64);not null"`
	Purpose       settlement.Purpose `gorm:"type:varchar(20);not null"`
	CorrelationID string             `gorm:"type:varchar(128);not null;index"`
	Verified      bool               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProcessedPaymentModel) TableName() string {
	return "processed_payments"
}

// ToDomain converts the persistence model to a domain ProcessedPayment
func (m *ProcessedPaymentModel) ToDomain() *settlement.ProcessedPayment {
	return &settlement.ProcessedPayment{
		TransactionID: m.TransactionID,
		ProcessedAt:   m.ProcessedAt,
		Sender:        m.Sender,
		Amount:        m.Amount,
		AssetType:     m.AssetType,
		Purpose:       m.Purpose,
		CorrelationID: m.CorrelationID,
		Verified:      m.Verified,
	}
}

// ProcessedPaymentModelFromDomain creates a persistence model from a domain ProcessedPayment
func ProcessedPaymentModelFromDomain(p settlement.ProcessedPayment) *ProcessedPaymentModel {
	return &ProcessedPaymentModel{
		TransactionID: p.TransactionID,
		ProcessedAt:   p.ProcessedAt,
		Sender:        p.Sender,
		Amount:        p.Amount,
		AssetType:     p.AssetType,
		Purpose:       p.Purpose,
		CorrelationID: p.CorrelationID,
		Verified:      p.Verified,
	}
}
