package settlement

import (
	"errors"
	"fmt"
)

// Kind classifies why a settlement attempt failed. The set is closed: every
// failure that crosses into the orchestrator is converted into one of these.
type Kind string

const (
	KindIneligible             Kind = "INELIGIBLE"
	KindAssetNotFound          Kind = "ASSET_NOT_FOUND"
	KindAlreadyRented          Kind = "ALREADY_RENTED"
	KindPaymentNotFound        Kind = "PAYMENT_NOT_FOUND"
	KindPaymentAlreadyConsumed Kind = "PAYMENT_ALREADY_CONSUMED"
	KindInsufficientSupply     Kind = "INSUFFICIENT_SUPPLY"
	KindTransferFailed         Kind = "TRANSFER_FAILED"
	KindLedgerUnavailable      Kind = "LEDGER_UNAVAILABLE"
	KindRegistryWriteConflict  Kind = "REGISTRY_WRITE_CONFLICT"
	KindStoreUnavailable       Kind = "STORE_UNAVAILABLE"
	KindBookkeepingFailed      Kind = "BOOKKEEPING_FAILED"
	KindInvalidRequest         Kind = "INVALID_REQUEST"
)

// Kinds lists every failure kind, in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindIneligible,
		KindAssetNotFound,
		KindAlreadyRented,
		KindPaymentNotFound,
		KindPaymentAlreadyConsumed,
		KindInsufficientSupply,
		KindTransferFailed,
		KindLedgerUnavailable,
		KindRegistryWriteConflict,
		KindStoreUnavailable,
		KindBookkeepingFailed,
		KindInvalidRequest,
	}
}

// Retryable reports whether the same request may succeed if issued again later.
func (k Kind) Retryable() bool {
	switch k {
	case KindPaymentNotFound, KindLedgerUnavailable, KindStoreUnavailable:
		return true
	default:
		return false
	}
}

// RequiresRemediation reports whether the payment was consumed without the
// business action completing, so an operator has to refund or compensate.
func (k Kind) RequiresRemediation() bool {
	switch k {
	case KindInsufficientSupply, KindTransferFailed, KindBookkeepingFailed:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	return string(k)
}

// Error is the tagged error returned by the settlement engine.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// NewError creates a settlement error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a settlement error of the given kind that keeps cause in its chain.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Errorf creates a settlement error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("settlement: %s: %v", msg, e.Err)
	}
	return "settlement: " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any settlement error of the same kind, so callers can compare
// against the package sentinels with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extracts the failure kind from err. The second result is false when
// err carries no settlement error.
func KindOf(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}

// Sentinels for errors.Is comparisons.
var (
	ErrIneligible             = NewError(KindIneligible, "caller has not passed identity verification")
	ErrAssetNotFound          = NewError(KindAssetNotFound, "listing not found")
	ErrAlreadyRented          = NewError(KindAlreadyRented, "listing is not available for rent")
	ErrPaymentNotFound        = NewError(KindPaymentNotFound, "no matching unconsumed payment observed")
	ErrPaymentAlreadyConsumed = NewError(KindPaymentAlreadyConsumed, "payment was consumed by another settlement")
	ErrInsufficientSupply     = NewError(KindInsufficientSupply, "treasury holds fewer units than requested")
	ErrTransferFailed         = NewError(KindTransferFailed, "asset transfer failed")
	ErrLedgerUnavailable      = NewError(KindLedgerUnavailable, "ledger mirror unavailable")
	ErrRegistryWriteConflict  = NewError(KindRegistryWriteConflict, "registry record changed concurrently")
	ErrStoreUnavailable       = NewError(KindStoreUnavailable, "store unavailable")
	ErrBookkeepingFailed      = NewError(KindBookkeepingFailed, "bookkeeping update failed")
	ErrInvalidRequest         = NewError(KindInvalidRequest, "invalid settlement request")
)
