package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/setusher/PenthouseProtocol/internal/domain/settlement"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const maxMirrorBodySize = 4 << 20

// ErrMirrorStatus is returned when the mirror node answers with a non-2xx status
var ErrMirrorStatus = errors.New("ledger: unexpected mirror status")

// BreakerConfig configures the circuit breaker guarding the mirror node
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// MirrorConfig configures the mirror node client
type MirrorConfig struct {
	BaseURL           string
	TreasuryAccountID string
	Timeout           time.Duration
	Breaker           BreakerConfig
}

// MirrorClient reads transfers and balances from the ledger's mirror node REST API.
// Every call goes through a circuit breaker; an open breaker is reported as
// ledger unavailability without touching the network.
type MirrorClient struct {
	baseURL    string
	treasury   string
	timeout    time.Duration
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	logger     *zap.Logger
	onState    func(name string, state gobreaker.State)
}

// MirrorOption configures a MirrorClient
type MirrorOption func(*MirrorClient)

// WithHTTPClient sets the HTTP client used for mirror calls
func WithHTTPClient(c *http.Client) MirrorOption {
	return func(m *MirrorClient) {
		m.httpClient = c
	}
}

// WithMirrorLogger sets the logger
func WithMirrorLogger(l *zap.Logger) MirrorOption {
	return func(m *MirrorClient) {
		m.logger = l
	}
}

// WithBreakerStateListener registers a callback for circuit breaker transitions
func WithBreakerStateListener(fn func(name string, state gobreaker.State)) MirrorOption {
	return func(m *MirrorClient) {
		m.onState = fn
	}
}

// NewMirrorClient creates a mirror node client
func NewMirrorClient(cfg MirrorConfig, opts ...MirrorOption) *MirrorClient {
	m := &MirrorClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		treasury:   cfg.TreasuryAccountID,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("mirror")

	threshold := cfg.Breaker.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	m.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ledger-mirror",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if m.onState != nil {
				m.onState(name, to)
			}
		},
	})

	return m
}

// FetchRecentTransfers implements settlement.TransferReader
func (m *MirrorClient) FetchRecentTransfers(ctx context.Context, treasuryAccount, assetID string, limit int) ([]settlement.ObservedTransfer, error) {
	if limit <= 0 {
		limit = 10
	}

	q := url.Values{}
	q.Set("account.id", treasuryAccount)
	q.Set("token.id", assetID)
	q.Set("transactiontype", "CRYPTOTRANSFER")
	q.Set("result", "success")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("order", "desc")

	var body transactionsResponse
	if err := m.getJSON(ctx, "/api/v1/transactions", q, &body); err != nil {
		return nil, settlement.Wrap(settlement.KindLedgerUnavailable, "fetch recent transfers", err)
	}

	transfers := make([]settlement.ObservedTransfer, 0, len(body.Transactions))
	for i, raw := range body.Transactions {
		var tx mirrorTransaction
		if err := json.Unmarshal(raw, &tx); err != nil {
			m.logger.Warn("dropping malformed mirror transaction",
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		observed, err := normalizeTransaction(tx, assetID)
		if err != nil {
			m.logger.Warn("dropping malformed mirror transaction",
				zap.String("transaction_id", tx.TransactionID),
				zap.String("consensus_timestamp", tx.ConsensusTimestamp),
				zap.Error(err),
			)
			continue
		}
		transfers = append(transfers, observed)
	}

	sort.SliceStable(transfers, func(i, j int) bool {
		return transfers[i].Timestamp.After(transfers[j].Timestamp)
	})
	if len(transfers) > limit {
		transfers = transfers[:limit]
	}
	return transfers, nil
}

// BalanceOf implements settlement.BalanceOracle. Failures read as zero supply.
func (m *MirrorClient) BalanceOf(ctx context.Context, assetID string) int64 {
	q := url.Values{}
	q.Set("token.id", assetID)

	var body tokenBalancesResponse
	path := "/api/v1/accounts/" + url.PathEscape(m.treasury) + "/tokens"
	if err := m.getJSON(ctx, path, q, &body); err != nil {
		m.logger.Error("failed to read treasury balance",
			zap.String("asset_id", assetID),
			zap.String("treasury", m.treasury),
			zap.Error(err),
		)
		return 0
	}

	for _, tok := range body.Tokens {
		if tok.TokenID != assetID {
			continue
		}
		if tok.Balance < 0 {
			m.logger.Error("mirror reported negative balance",
				zap.String("asset_id", assetID),
				zap.Int64("balance", tok.Balance),
			)
			return 0
		}
		return tok.Balance
	}
	return 0
}

// State returns the current circuit breaker state
func (m *MirrorClient) State() gobreaker.State {
	return m.cb.State()
}

func (m *MirrorClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	endpoint := m.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	_, err := m.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := m.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxMirrorBodySize))
			return nil, fmt.Errorf("%w: %d from %s", ErrMirrorStatus, resp.StatusCode, path)
		}

		if err := json.NewDecoder(io.LimitReader(resp.Body, maxMirrorBodySize)).Decode(out); err != nil {
			return nil, fmt.Errorf("decode mirror response: %w", err)
		}
		return nil, nil
	})
	return err
}

// normalizeTransaction keeps the legs of assetID and rejects records that
// cannot be trusted as match candidates.
func normalizeTransaction(tx mirrorTransaction, assetID string) (settlement.ObservedTransfer, error) {
	if tx.TransactionID == "" {
		return settlement.ObservedTransfer{}, errors.New("missing transaction_id")
	}
	if tx.Result != "" && !strings.EqualFold(tx.Result, "SUCCESS") {
		return settlement.ObservedTransfer{}, fmt.Errorf("result %s", tx.Result)
	}
	ts, err := parseConsensusTimestamp(tx.ConsensusTimestamp)
	if err != nil {
		return settlement.ObservedTransfer{}, err
	}

	legs := make([]settlement.TransferLeg, 0, len(tx.TokenTransfers))
	for _, tt := range tx.TokenTransfers {
		if tt.TokenID != "" && tt.TokenID != assetID {
			continue
		}
		if tt.Account == "" || tt.Amount == nil {
			return settlement.ObservedTransfer{}, errors.New("token transfer without account or amount")
		}
		legs = append(legs, settlement.TransferLeg{Account: tt.Account, Amount: *tt.Amount})
	}
	if len(legs) == 0 {
		return settlement.ObservedTransfer{}, fmt.Errorf("no %s transfers", assetID)
	}

	return settlement.ObservedTransfer{
		TransactionID: tx.TransactionID,
		Timestamp:     ts,
		Legs:          legs,
	}, nil
}

var (
	_ settlement.TransferReader = (*MirrorClient)(nil)
	_ settlement.BalanceOracle  = (*MirrorClient)(nil)
)
