package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/setusher/PenthouseProtocol/internal/domain/property"
	"go.uber.org/zap"
)

// Minter creates share tokens held by the treasury
type Minter interface {
	CreateToken(name, symbol string, supply int64) (string, error)
}

// TokenMinter implements property.TokenIssuer on top of a Minter. Every
// failure is reported as property.ErrTokenIssueFailed.
type TokenMinter struct {
	minter  Minter
	timeout time.Duration
	logger  *zap.Logger
}

// TokenMinterConfig configures a TokenMinter
type TokenMinterConfig struct {
	Minter  Minter
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewTokenMinter creates a token minter
func NewTokenMinter(cfg TokenMinterConfig) *TokenMinter {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenMinter{
		minter:  cfg.Minter,
		timeout: cfg.Timeout,
		logger:  logger.Named("token_minter"),
	}
}

// IssueShareToken implements property.TokenIssuer
func (m *TokenMinter) IssueShareToken(ctx context.Context, token property.ShareToken) (string, error) {
	fields := []zap.Field{
		zap.String("name", token.Name),
		zap.String("symbol", token.Symbol),
		zap.Int64("supply", token.Supply),
	}
	if m.minter == nil {
		return "", fmt.Errorf("%w: no ledger operator configured", property.ErrTokenIssueFailed)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	done := make(chan submitResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- submitResult{err: fmt.Errorf("minter panic: %v", r)}
			}
		}()
		tokenID, err := m.minter.CreateToken(token.Name, token.Symbol, token.Supply)
		done <- submitResult{id: tokenID, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			m.logger.Error("share token mint failed", append(fields, zap.Error(res.err))...)
			return "", fmt.Errorf("%w: %v", property.ErrTokenIssueFailed, res.err)
		}
		m.logger.Info("share token minted", append(fields, zap.String("token_id", res.id))...)
		return res.id, nil
	case <-ctx.Done():
		// The token may still be created; operators reconcile from the ledger.
		m.logger.Error("share token mint outcome unknown, context done", append(fields, zap.Error(ctx.Err()))...)
		return "", fmt.Errorf("%w: %v", property.ErrTokenIssueFailed, ctx.Err())
	}
}

var (
	_ property.TokenIssuer = (*TokenMinter)(nil)
	_ Minter               = (*HederaSubmitter)(nil)
	_ Submitter            = (*HederaSubmitter)(nil)
)
