package settlement

// State is a step of the settlement state machine:
// Eligible → PaymentMatched → AvailabilityConfirmed → AssetMoved → Committed,
// with Failed reachable from every step.
type State string

const (
	StatePending               State = "pending"
	StateEligible              State = "eligible"
	StatePaymentMatched        State = "payment_matched"
	StateAvailabilityConfirmed State = "availability_confirmed"
	StateAssetMoved            State = "asset_moved"
	StateCommitted             State = "committed"
	StateFailed                State = "failed"
)

// IsTerminal reports whether no further transition is possible
func (s State) IsTerminal() bool {
	return s == StateCommitted || s == StateFailed
}

// Outcome is the result of one settlement run. It is not persisted; the
// registry records reflect it.
type Outcome struct {
	Workflow      Purpose
	CorrelationID string
	Payer         string
	State         State

	// LastReached is the last successful state before a failure.
	LastReached State
	Reason      Kind
	Err         error

	PaymentTxID string
	Amount      int64
	Units       int64
	AssetMoved  bool
	LeaseID     string

	// NeedsRefund is set when the run failed after its payment was consumed.
	NeedsRefund bool
}

// NewOutcome starts an outcome in the pending state.
func NewOutcome(workflow Purpose, correlationID, payer string) *Outcome {
	return &Outcome{
		Workflow:      workflow,
		CorrelationID: correlationID,
		Payer:         payer,
		State:         StatePending,
		LastReached:   StatePending,
	}
}

// Advance moves the outcome to the next successful state.
func (o *Outcome) Advance(state State) {
	o.State = state
	o.LastReached = state
}

// Fail moves the outcome to Failed and records the reason carried by err.
// It returns the settlement error so callers can return it directly.
func (o *Outcome) Fail(err error) error {
	se := asSettlementError(err)
	o.State = StateFailed
	o.Reason = se.Kind
	o.Err = se
	o.NeedsRefund = o.PaymentTxID != ""
	return se
}

// Committed reports whether the settlement completed.
func (o *Outcome) Committed() bool {
	return o.State == StateCommitted
}

func asSettlementError(err error) *Error {
	if err == nil {
		return NewError(KindBookkeepingFailed, "failure without cause")
	}
	if se, ok := err.(*Error); ok {
		return se
	}
	if kind, ok := KindOf(err); ok {
		return Wrap(kind, string(kind), err)
	}
	return Wrap(KindBookkeepingFailed, "unclassified failure", err)
}
