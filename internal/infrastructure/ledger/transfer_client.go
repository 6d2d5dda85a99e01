package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/setusher/PenthouseProtocol/internal/domain/settlement"
	"go.uber.org/zap"
)

// ErrTransferRejected is returned by a Submitter when the ledger reached
// consensus on the transaction but did not apply it.
var ErrTransferRejected = errors.New("ledger: transfer rejected")

// Submitter signs and submits a token transfer and waits for its receipt.
// It returns the submitted transaction ID.
type Submitter interface {
	SubmitTokenTransfer(tokenID, from, to string, amount int64) (string, error)
}

// TransferClient implements settlement.AssetTransferClient on top of a Submitter.
// Every failure, including a panic inside the submitter or an expired
// context, is logged and reported as false.
type TransferClient struct {
	submitter Submitter
	timeout   time.Duration
	logger    *zap.Logger
}

// TransferClientConfig configures a TransferClient
type TransferClientConfig struct {
	Submitter Submitter
	Timeout   time.Duration
	Logger    *zap.Logger
}

// NewTransferClient creates a transfer client
func NewTransferClient(cfg TransferClientConfig) *TransferClient {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferClient{
		submitter: cfg.Submitter,
		timeout:   cfg.Timeout,
		logger:    logger.Named("asset_transfer"),
	}
}

type submitResult struct {
	id  string
	err error
}

// Transfer implements settlement.AssetTransferClient
func (c *TransferClient) Transfer(ctx context.Context, assetID string, amount int64, fromTreasury, toAccount string) bool {
	fields := []zap.Field{
		zap.String("asset_id", assetID),
		zap.Int64("amount", amount),
		zap.String("from", fromTreasury),
		zap.String("to", toAccount),
	}

	if amount <= 0 {
		c.logger.Error("refusing non-positive asset transfer", fields...)
		return false
	}
	if c.submitter == nil {
		c.logger.Error("asset transfer has no submitter", fields...)
		return false
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	done := make(chan submitResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- submitResult{err: fmt.Errorf("submitter panic: %v", r)}
			}
		}()
		txID, err := c.submitter.SubmitTokenTransfer(assetID, fromTreasury, toAccount, amount)
		done <- submitResult{id: txID, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			c.logger.Error("asset transfer failed", append(fields, zap.String("transaction_id", res.id), zap.Error(res.err))...)
			return false
		}
		c.logger.Info("asset transfer confirmed", append(fields, zap.String("transaction_id", res.id))...)
		return true
	case <-ctx.Done():
		// The submission may still land; operators reconcile from the ledger.
		c.logger.Error("asset transfer outcome unknown, context done", append(fields, zap.Error(ctx.Err()))...)
		return false
	}
}

var _ settlement.AssetTransferClient = (*TransferClient)(nil)
