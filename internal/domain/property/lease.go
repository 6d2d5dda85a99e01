package property

import (
	"time"

	"github.com/google/uuid"
	"github.com/setusher/PenthouseProtocol/internal/domain/shared"
)

// Lease records that a tenant rented a listing for a period, paid by a
// verified ledger transfer.
type Lease struct {
	shared.BaseEntity
	ListingID        uuid.UUID
	TenantUserID     string
	TenantAccountID  string
	StartDate        time.Time
	EndDate          time.Time
	FirstPaymentTxID string
	PaymentVerified  bool
}

// NewLease creates a lease backed by the verified first payment.
func NewLease(listingID uuid.UUID, tenantUserID, tenantAccountID string, start, end time.Time, paymentTxID string) (*Lease, error) {
	if !end.After(start) {
		return nil, ErrInvalidLeasePeriod
	}
	return &Lease{
		BaseEntity:       shared.NewBaseEntity(),
		ListingID:        listingID,
		TenantUserID:     tenantUserID,
		TenantAccountID:  tenantAccountID,
		StartDate:        start,
		EndDate:          end,
		FirstPaymentTxID: paymentTxID,
		PaymentVerified:  paymentTxID != "",
	}, nil
}

// Duration returns the length of the lease
func (l *Lease) Duration() time.Duration {
	return l.EndDate.Sub(l.StartDate)
}
