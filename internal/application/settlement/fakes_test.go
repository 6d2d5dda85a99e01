package settlement

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/setusher/PenthouseProtocol/internal/domain/property"
	"github.com/setusher/PenthouseProtocol/internal/domain/settlement"
	"github.com/setusher/PenthouseProtocol/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

const (
	treasury   = "0.0.1001"
	payer      = "0.0.2002"
	otherPayer = "0.0.3003"
	usdc       = "0.0.456858"
	shareToken = "0.0.9001"
	caller     = "user-1"
)

type fakeEligibility struct {
	allowed map[string]bool
	err     error
}

func (f *fakeEligibility) IsEligible(_ context.Context, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.allowed[userID], nil
}

type fakeListings struct {
	mu        sync.Mutex
	listings  map[uuid.UUID]property.Listing
	findErr   error
	escrowErr error

	// beforeMarkRented runs before the conditional flip, outside the lock.
	beforeMarkRented func()
}

func newFakeListings(ls ...*property.Listing) *fakeListings {
	f := &fakeListings{listings: map[uuid.UUID]property.Listing{}}
	for _, l := range ls {
		f.listings[l.ID] = *l
	}
	return f
}

func (f *fakeListings) FindByID(_ context.Context, id uuid.UUID) (*property.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	l, ok := f.listings[id]
	if !ok {
		return nil, property.ErrListingNotFound
	}
	return &l, nil
}

func (f *fakeListings) Create(_ context.Context, l *property.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.listings[l.ID]; ok {
		return errors.New("duplicate listing")
	}
	f.listings[l.ID] = *l
	return nil
}

func (f *fakeListings) FindAll(_ context.Context, _ property.ListingFilter) ([]property.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]property.Listing, 0, len(f.listings))
	for _, l := range f.listings {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeListings) Count(_ context.Context, _ property.ListingFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.listings)), nil
}

func (f *fakeListings) IncrementEscrow(_ context.Context, id uuid.UUID, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.escrowErr != nil {
		return f.escrowErr
	}
	l, ok := f.listings[id]
	if !ok {
		return property.ErrListingNotFound
	}
	l.EscrowBalance += amount
	f.listings[id] = l
	return nil
}

func (f *fakeListings) MarkRented(_ context.Context, id uuid.UUID, tenantUserID string, expectedVersion int) error {
	if f.beforeMarkRented != nil {
		f.beforeMarkRented()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return property.ErrListingNotFound
	}
	if l.Status != property.ListingStatusAvailable {
		return property.ErrListingNotAvailable
	}
	if l.Version != expectedVersion {
		return shared.ErrConcurrencyConflict
	}
	l.Status = property.ListingStatusRented
	l.TenantUserID = tenantUserID
	l.Bump()
	f.listings[id] = l
	return nil
}

// put overwrites the stored listing, standing in for an out-of-band change.
func (f *fakeListings) put(l *property.Listing) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings[l.ID] = *l
}

func (f *fakeListings) get(id uuid.UUID) property.Listing {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listings[id]
}

func (f *fakeListings) bumpVersion(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := f.listings[id]
	l.Bump()
	f.listings[id] = l
}

type fakeLeases struct {
	mu        sync.Mutex
	leases    []property.Lease
	createErr error
}

func (f *fakeLeases) Create(_ context.Context, lease *property.Lease) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.leases = append(f.leases, *lease)
	return nil
}

func (f *fakeLeases) FindByListing(_ context.Context, listingID uuid.UUID) ([]property.Lease, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []property.Lease
	for _, l := range f.leases {
		if l.ListingID == listingID {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeReader struct {
	mu        sync.Mutex
	transfers []settlement.ObservedTransfer
	err       error
	calls     int
}

func (f *fakeReader) FetchRecentTransfers(_ context.Context, _, _ string, limit int) ([]settlement.ObservedTransfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := append([]settlement.ObservedTransfer(nil), f.transfers...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// observe prepends a transfer, keeping the window newest first.
func (f *fakeReader) observe(t settlement.ObservedTransfer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transfers = append([]settlement.ObservedTransfer{t}, f.transfers...)
}

type fakeBalance struct {
	balances map[string]int64
}

func (f *fakeBalance) BalanceOf(_ context.Context, assetID string) int64 {
	return f.balances[assetID]
}

type mockTransfers struct {
	mock.Mock
}

func (m *mockTransfers) Transfer(ctx context.Context, assetID string, amount int64, from, to string) bool {
	return m.Called(assetID, amount, from, to).Bool(0)
}

// racingLedger simulates a concurrent settlement reserving the matched
// transfer between lookup and reserve.
type racingLedger struct {
	settlement.IdempotencyLedger
}

func (r racingLedger) Lookup(context.Context, string) (*settlement.ProcessedPayment, error) {
	return nil, nil
}

func (r racingLedger) Reserve(ctx context.Context, record settlement.ProcessedPayment) (settlement.ReserveResult, error) {
	competitor := record
	competitor.CorrelationID = "someone-else"
	if _, err := r.IdempotencyLedger.Reserve(ctx, competitor); err != nil {
		return 0, err
	}
	return r.IdempotencyLedger.Reserve(ctx, record)
}

type failingLedger struct {
	settlement.IdempotencyLedger
}

func (failingLedger) Reserve(context.Context, settlement.ProcessedPayment) (settlement.ReserveResult, error) {
	return 0, errors.New("redis: connection refused")
}

type recordedOutcome struct {
	workflow string
	reason   string
	refund   bool
}

type fakeMetrics struct {
	mu       sync.Mutex
	outcomes []recordedOutcome
}

func (f *fakeMetrics) ObserveSettlement(workflow, reason string, needsRemediation bool, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, recordedOutcome{workflow, reason, needsRemediation})
}

func payment(txID, from string, amount int64, at time.Time) settlement.ObservedTransfer {
	return settlement.ObservedTransfer{
		TransactionID: txID,
		Timestamp:     at,
		Legs: []settlement.TransferLeg{
			{Account: from, Amount: -amount},
			{Account: treasury, Amount: amount},
		},
	}
}
