package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/setusher/PenthouseProtocol/internal/domain/property"
	"github.com/setusher/PenthouseProtocol/internal/domain/settlement"
	"github.com/setusher/PenthouseProtocol/internal/domain/shared"
	"github.com/setusher/PenthouseProtocol/internal/infrastructure/logger"
	"github.com/setusher/PenthouseProtocol/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MetricsRecorder receives one observation per finished settlement
type MetricsRecorder interface {
	ObserveSettlement(workflow, reason string, needsRemediation bool, elapsed time.Duration)
}

// Config wires the collaborators of the settlement Service
type Config struct {
	Eligibility settlement.EligibilityChecker
	Listings    property.ListingRepository
	Leases      property.LeaseRepository
	Ledger      settlement.IdempotencyLedger
	Reader      settlement.TransferReader
	Balance     settlement.BalanceOracle
	Transfers   settlement.AssetTransferClient

	TreasuryAccount   string
	SettlementTokenID string
	Decimals          int32
	Window            int
	Timeout           time.Duration

	Logger  *zap.Logger
	Metrics MetricsRecorder
}

// Service settles investments and rentals against payments observed on the ledger.
// It holds no per-request state; concurrent calls are safe and rely on the
// idempotency ledger and the conditional registry writes for exclusion.
type Service struct {
	eligibility settlement.EligibilityChecker
	listings    property.ListingRepository
	leases      property.LeaseRepository
	ledger      settlement.IdempotencyLedger
	reader      settlement.TransferReader
	balance     settlement.BalanceOracle
	transfers   settlement.AssetTransferClient
	matcher     *settlement.Matcher

	treasury string
	tokenID  string
	decimals int32
	window   int
	timeout  time.Duration

	logger  *zap.Logger
	metrics MetricsRecorder
}

// NewService creates a settlement Service
func NewService(cfg Config) *Service {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	window := cfg.Window
	if window <= 0 {
		window = 10
	}
	decimals := cfg.Decimals
	if decimals == 0 {
		decimals = settlement.DefaultSettlementDecimals
	}

	return &Service{
		eligibility: cfg.Eligibility,
		listings:    cfg.Listings,
		leases:      cfg.Leases,
		ledger:      cfg.Ledger,
		reader:      cfg.Reader,
		balance:     cfg.Balance,
		transfers:   cfg.Transfers,
		matcher:     settlement.NewMatcher(cfg.TreasuryAccount, cfg.Ledger),
		treasury:    cfg.TreasuryAccount,
		tokenID:     cfg.SettlementTokenID,
		decimals:    decimals,
		window:      window,
		timeout:     cfg.Timeout,
		logger:      log.Named("settlement"),
		metrics:     cfg.Metrics,
	}
}

// InvestmentRequest asks to buy Units share tokens of a listing
type InvestmentRequest struct {
	ListingID    uuid.UUID
	Units        int64
	PayerAccount string
	CallerID     string
}

// RentalRequest asks to rent a listing for one period
type RentalRequest struct {
	ListingID    uuid.UUID
	LeaseStart   time.Time
	LeaseEnd     time.Time
	PayerAccount string
	CallerID     string
}

// run carries the state of one settlement through the pipeline
type run struct {
	listing *property.Listing
	outcome *settlement.Outcome
	payer   string
	caller  string
	units   int64
	start   time.Time
	end     time.Time
}

// workflow holds the steps in which investment and rental differ.
// The shared pipeline is eligibility, listing read, precheck, amount,
// match, reserve, then confirm, move and commit.
type workflow struct {
	purpose  settlement.Purpose
	method   string
	precheck func(ctx context.Context, r *run) error
	amount   func(r *run) (int64, error)
	confirm  func(ctx context.Context, r *run) error
	move     func(ctx context.Context, r *run) error
	commit   func(ctx context.Context, r *run) error
}

// SettleInvestment moves Units share tokens to the payer once a matching
// payment has been observed and reserved, then credits the listing escrow.
// The returned Outcome is never nil; on failure err is a *settlement.Error.
func (s *Service) SettleInvestment(ctx context.Context, req InvestmentRequest) (*settlement.Outcome, error) {
	r := &run{
		outcome: settlement.NewOutcome(settlement.PurposeInvestment, req.ListingID.String(), req.PayerAccount),
		payer:   req.PayerAccount,
		caller:  req.CallerID,
		units:   req.Units,
	}
	r.outcome.Units = req.Units

	if req.Units <= 0 {
		return s.reject(ctx, r, settlement.Errorf(settlement.KindInvalidRequest, "units must be at least 1, got %d", req.Units))
	}
	return s.execute(ctx, req.ListingID, r, s.investment())
}

// SettleRental rents an available listing to the caller once a payment of one
// rental period has been observed and reserved, then records the lease and
// credits the listing escrow.
// The returned Outcome is never nil; on failure err is a *settlement.Error.
func (s *Service) SettleRental(ctx context.Context, req RentalRequest) (*settlement.Outcome, error) {
	r := &run{
		outcome: settlement.NewOutcome(settlement.PurposeRent, req.ListingID.String(), req.PayerAccount),
		payer:   req.PayerAccount,
		caller:  req.CallerID,
		start:   req.LeaseStart,
		end:     req.LeaseEnd,
	}

	if !req.LeaseEnd.After(req.LeaseStart) {
		return s.reject(ctx, r, settlement.Wrap(settlement.KindInvalidRequest, "lease must end after it starts", property.ErrInvalidLeasePeriod))
	}
	return s.execute(ctx, req.ListingID, r, s.rental())
}

func (s *Service) investment() workflow {
	return workflow{
		purpose: settlement.PurposeInvestment,
		method:  "invest",
		amount: func(r *run) (int64, error) {
			return settlement.ToSmallestUnit(r.units, r.listing.UnitPrice, s.decimals)
		},
		confirm: func(ctx context.Context, r *run) error {
			supply := s.balance.BalanceOf(ctx, r.listing.TokenID)
			if r.units > supply {
				return settlement.Errorf(settlement.KindInsufficientSupply,
					"requested %d units of %s, treasury holds %d", r.units, r.listing.TokenID, supply)
			}
			return nil
		},
		move: func(ctx context.Context, r *run) error {
			if !s.transfers.Transfer(ctx, r.listing.TokenID, r.units, s.treasury, r.payer) {
				return settlement.Errorf(settlement.KindTransferFailed,
					"transfer of %d units of %s to %s failed", r.units, r.listing.TokenID, r.payer)
			}
			r.outcome.AssetMoved = true
			return nil
		},
		commit: func(ctx context.Context, r *run) error {
			if err := s.listings.IncrementEscrow(ctx, r.listing.ID, r.outcome.Amount); err != nil {
				return settlement.Wrap(settlement.KindBookkeepingFailed, "credit escrow", err)
			}
			return nil
		},
	}
}

func (s *Service) rental() workflow {
	return workflow{
		purpose: settlement.PurposeRent,
		method:  "rent",
		precheck: func(_ context.Context, r *run) error {
			if !r.listing.IsAvailable() {
				return settlement.ErrAlreadyRented
			}
			return nil
		},
		amount: func(r *run) (int64, error) {
			return settlement.ToSmallestUnit(1, r.listing.RentalPrice, s.decimals)
		},
		confirm: func(ctx context.Context, r *run) error {
			current, err := s.listings.FindByID(ctx, r.listing.ID)
			if err != nil {
				return listingReadError(err)
			}
			if !current.IsAvailable() {
				return settlement.ErrAlreadyRented
			}
			r.listing = current
			return nil
		},
		move: func(ctx context.Context, r *run) error {
			err := s.listings.MarkRented(ctx, r.listing.ID, r.caller, r.listing.Version)
			switch {
			case err == nil:
				r.outcome.AssetMoved = true
				return nil
			case errors.Is(err, property.ErrListingNotAvailable):
				return settlement.Wrap(settlement.KindAlreadyRented, "listing was rented concurrently", err)
			case errors.Is(err, shared.ErrConcurrencyConflict):
				return settlement.Wrap(settlement.KindRegistryWriteConflict, "listing changed during rental", err)
			case errors.Is(err, property.ErrListingNotFound):
				return settlement.Wrap(settlement.KindAssetNotFound, "listing disappeared during rental", err)
			default:
				return settlement.Wrap(settlement.KindStoreUnavailable, "mark listing rented", err)
			}
		},
		commit: func(ctx context.Context, r *run) error {
			lease, err := property.NewLease(r.listing.ID, r.caller, r.payer, r.start, r.end, r.outcome.PaymentTxID)
			if err != nil {
				return settlement.Wrap(settlement.KindBookkeepingFailed, "build lease", err)
			}
			if err := s.leases.Create(ctx, lease); err != nil {
				return settlement.Wrap(settlement.KindBookkeepingFailed, "create lease", err)
			}
			r.outcome.LeaseID = lease.ID.String()
			if err := s.listings.IncrementEscrow(ctx, r.listing.ID, r.outcome.Amount); err != nil {
				return settlement.Wrap(settlement.KindBookkeepingFailed, "credit escrow", err)
			}
			return nil
		},
	}
}

func (s *Service) execute(ctx context.Context, listingID uuid.UUID, r *run, wf workflow) (*settlement.Outcome, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	ctx = logger.WithListingID(ctx, listingID.String())
	ctx = logger.WithPayerAccount(ctx, r.payer)

	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", wf.method)
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrWorkflow, string(wf.purpose),
		telemetry.SpanAttrListingID, listingID.String(),
		telemetry.SpanAttrPayer, r.payer,
		telemetry.SpanAttrCallerID, r.caller,
	)

	began := time.Now()
	err := s.pipeline(ctx, listingID, r, wf)
	if err != nil {
		err = r.outcome.Fail(err)
		telemetry.RecordError(span, err)
	} else {
		telemetry.SetOK(span)
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrState, string(r.outcome.State),
		telemetry.SpanAttrPaymentTxID, r.outcome.PaymentTxID,
	)
	s.finish(ctx, r.outcome, time.Since(began))

	return r.outcome, err
}

func (s *Service) pipeline(ctx context.Context, listingID uuid.UUID, r *run, wf workflow) error {
	span := telemetry.SpanFromContext(ctx)

	if r.payer == "" || r.caller == "" {
		return settlement.NewError(settlement.KindInvalidRequest, "payer account and caller are required")
	}

	eligible, err := s.eligibility.IsEligible(ctx, r.caller)
	if err != nil {
		return settlement.Wrap(settlement.KindIneligible, "eligibility could not be confirmed", err)
	}
	if !eligible {
		return settlement.ErrIneligible
	}
	r.outcome.Advance(settlement.StateEligible)

	r.listing, err = s.listings.FindByID(ctx, listingID)
	if err != nil {
		return listingReadError(err)
	}
	if wf.precheck != nil {
		if err := wf.precheck(ctx, r); err != nil {
			return err
		}
	}

	amount, err := wf.amount(r)
	if err != nil {
		return settlement.Wrap(settlement.KindInvalidRequest, "compute expected payment", err)
	}
	r.outcome.Amount = amount
	expected := settlement.ExpectedPayment{
		Payer:         r.payer,
		Amount:        amount,
		Purpose:       wf.purpose,
		CorrelationID: r.listing.CorrelationID(),
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrAmount, amount)

	window, err := s.reader.FetchRecentTransfers(ctx, s.treasury, s.tokenID, s.window)
	if err != nil {
		if _, ok := settlement.KindOf(err); ok {
			return err
		}
		return settlement.Wrap(settlement.KindLedgerUnavailable, "fetch recent transfers", err)
	}

	txID, err := s.matcher.Match(ctx, expected, window)
	if err != nil {
		return err
	}

	result, err := s.ledger.Reserve(ctx, settlement.NewProcessedPayment(txID, expected, s.tokenID))
	if err != nil {
		return settlement.Wrap(settlement.KindStoreUnavailable, "reserve payment", err)
	}
	if result != settlement.Reserved {
		return settlement.Wrap(settlement.KindPaymentAlreadyConsumed, txID, settlement.ErrPaymentAlreadyConsumed)
	}
	r.outcome.PaymentTxID = txID
	r.outcome.Advance(settlement.StatePaymentMatched)
	telemetry.AddEvent(span, "payment_reserved", telemetry.SpanAttrPaymentTxID, txID)

	if err := wf.confirm(ctx, r); err != nil {
		return err
	}
	r.outcome.Advance(settlement.StateAvailabilityConfirmed)

	if err := wf.move(ctx, r); err != nil {
		return err
	}
	r.outcome.Advance(settlement.StateAssetMoved)

	if err := wf.commit(ctx, r); err != nil {
		return err
	}
	r.outcome.Advance(settlement.StateCommitted)
	return nil
}

// reject fails a request that never entered the pipeline.
func (s *Service) reject(ctx context.Context, r *run, err error) (*settlement.Outcome, error) {
	err = r.outcome.Fail(err)
	s.finish(ctx, r.outcome, 0)
	return r.outcome, err
}

func (s *Service) finish(ctx context.Context, o *settlement.Outcome, elapsed time.Duration) {
	log := logger.WithLogger(ctx, s.logger).With(
		zap.String("workflow", string(o.Workflow)),
		zap.String("correlation_id", o.CorrelationID),
		zap.String("state", string(o.State)),
		zap.String("payment_tx_id", o.PaymentTxID),
		zap.Int64("amount", o.Amount),
		zap.Duration("elapsed", elapsed),
	)

	reason := telemetry.OutcomeCommitted
	if o.Committed() {
		log.Info("settlement committed", zap.String("lease_id", o.LeaseID))
	} else {
		reason = string(o.Reason)
		fields := []zap.Field{
			zap.String("reason", reason),
			zap.String("last_reached", string(o.LastReached)),
			zap.Bool("needs_refund", o.NeedsRefund),
			zap.Bool("asset_moved", o.AssetMoved),
			zap.Error(o.Err),
		}
		if o.Reason.RequiresRemediation() || o.NeedsRefund {
			log.Error("settlement failed, manual remediation required", fields...)
		} else {
			log.Warn("settlement failed", fields...)
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveSettlement(string(o.Workflow), reason, o.NeedsRefund, elapsed)
	}
}

func listingReadError(err error) error {
	if errors.Is(err, property.ErrListingNotFound) {
		return settlement.Wrap(settlement.KindAssetNotFound, "listing not found", err)
	}
	return settlement.Wrap(settlement.KindStoreUnavailable, "read listing", err)
}
