package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/setusher/PenthouseProtocol/internal/domain/property"
	"github.com/shopspring/decimal"
)

// ListingModel is the persistence model for the Listing aggregate root.
type ListingModel struct {
	AggregateModel
	OwnerUserID    string                 `gorm:"type:varchar(128);not null;index"`
	OwnerAccountID string                 `gorm:"type:varchar(64)"`
	TokenID        string                 `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name           string                 `gorm:"type:varchar(200);not null"`
	Symbol         string                 `gorm:"type:varchar(32)"`
	Description    string                 `gorm:"type:text"`
	ImageURL       string                 `gorm:"type:varchar(500)"`
	UnitPrice      decimal.Decimal        `gorm:"type:decimal(20,6);not null"`
	RentalPrice    decimal.Decimal        `gorm:"type:decimal(20,6);not null"`
	TotalSupply    int64                  `gorm:"not null"`
	Status         property.ListingStatus `gorm:"type:varchar(20);not null;default:'available';index"`
	TenantUserID   string                 `gorm:"type:varchar(128)"`
	EscrowBalance  int64                  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ListingModel) TableName() string {
	return "listings"
}

// ToDomain converts the persistence model to a domain Listing
func (m *ListingModel) ToDomain() *property.Listing {
	return &property.Listing{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OwnerUserID:       m.OwnerUserID,
		OwnerAccountID:    m.OwnerAccountID,
		TokenID:           m.TokenID,
		Name:              m.Name,
		Symbol:            m.Symbol,
		Description:       m.Description,
		ImageURL:          m.ImageURL,
		UnitPrice:         m.UnitPrice,
		RentalPrice:       m.RentalPrice,
		TotalSupply:       m.TotalSupply,
		Status:            m.Status,
		TenantUserID:      m.TenantUserID,
		EscrowBalance:     m.EscrowBalance,
	}
}

// ListingModelFromDomain creates a persistence model from a domain Listing
func ListingModelFromDomain(l *property.Listing) *ListingModel {
	m := &ListingModel{
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
		Status:         l.Status,
		TenantUserID:   l.TenantUserID,
		EscrowBalance:  l.EscrowBalance,
	}
	m.FromDomainAggregateRoot(l.BaseAggregateRoot)
	return m
}

// LeaseModel is the persistence model for the Lease entity.
type LeaseModel struct {
	BaseModel
	ListingID        uuid.UUID `gorm:"type:uuid;not null;index"`
	TenantUserID     string    `gorm:"type:varchar(128);not null;index"`
	TenantAccountID  string    `gorm:"type:varchar(64);not null"`
	StartDate        time.Time `gorm:"not null"`
	EndDate          time.Time `gorm:"not null"`
	FirstPaymentTxID string    `gorm:"type:varchar(96);not null;uniqueIndex"`
	PaymentVerified  bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (LeaseModel) TableName() string {
	return "leases"
}

// ToDomain converts the persistence model to a domain Lease
func (m *LeaseModel) ToDomain() *property.Lease {
	return &property.Lease{
		BaseEntity:       m.BaseModel.ToDomain(),
		ListingID:        m.ListingID,
		TenantUserID:     m.TenantUserID,
		TenantAccountID:  m.TenantAccountID,
		StartDate:        m.StartDate,
		EndDate:          m.EndDate,
		FirstPaymentTxID: m.FirstPaymentTxID,
		PaymentVerified:  m.PaymentVerified,
	}
}

// LeaseModelFromDomain creates a persistence model from a domain Lease
func LeaseModelFromDomain(l *property.Lease) *LeaseModel {
	m := &LeaseModel{
		ListingID:        l.ListingID,
		TenantUserID:     l.TenantUserID,
		TenantAccountID:  l.TenantAccountID,
		StartDate:        l.StartDate,
		EndDate:          l.EndDate,
		FirstPaymentTxID: l.FirstPaymentTxID,
		PaymentVerified:  l.PaymentVerified,
	}
	m.FromDomainBaseEntity(l.BaseEntity)
	return m
}

// UserProfileModel holds the identity-verification state of a user. User IDs
// are issued by the identity provider, not generated here.
type UserProfileModel struct {
	ID          string    `gorm:"type:varchar(128);primaryKey"`
	AccountID   string    `gorm:"type:varchar(64)"`
	KYCVerified bool      `gorm:"column:kyc_verified;not null;default:false"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserProfileModel) TableName() string {
	return "user_profiles"
}
