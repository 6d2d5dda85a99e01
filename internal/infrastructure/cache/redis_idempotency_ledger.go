package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/setusher/PenthouseProtocol/internal/domain/settlement"
)

const defaultLedgerKeyPrefix = "settlement:processed:"

// RedisIdempotencyLedger implements settlement.IdempotencyLedger using Redis.
// Records are written with SETNX and no TTL: a consumed payment stays consumed.
// Suitable for deployments where several instances share one Redis.
type RedisIdempotencyLedger struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisIdempotencyLedger connects to Redis and creates a ledger
func NewRedisIdempotencyLedger(cfg RedisConfig, keyPrefix string) (*RedisIdempotencyLedger, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisIdempotencyLedgerWithClient(client, keyPrefix), nil
}

// NewRedisIdempotencyLedgerWithClient creates a ledger with an existing Redis client
func NewRedisIdempotencyLedgerWithClient(client *redis.Client, keyPrefix string) *RedisIdempotencyLedger {
	if keyPrefix == "" {
		keyPrefix = defaultLedgerKeyPrefix
	}
	return &RedisIdempotencyLedger{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// redisRecord is the JSON document stored under each key
type redisRecord struct {
	ProcessedAt   time.Time          `json:"processedAt"`
	Sender        string             `json:"sender"`
	Amount        int64              `json:"amount"`
	Type          string             `json:"type"`
	Purpose       settlement.Purpose `json:"purpose"`
	CorrelationID string             `json:"correlationId"`
	Verified      bool               `json:"verified"`
}

// Reserve stores the record with SETNX. Redis runs commands one at a time,
// so exactly one of any number of concurrent callers sees the key created.
func (l *RedisIdempotencyLedger) Reserve(ctx context.Context, record settlement.ProcessedPayment) (settlement.ReserveResult, error) {
	if record.TransactionID == "" {
		return 0, errors.New("redis ledger: empty transaction id")
	}

	payload, err := json.Marshal(redisRecord{
		ProcessedAt:   record.ProcessedAt,
		Sender:        record.Sender,
		Amount:        record.Amount,
		Type:          record.AssetType,
		Purpose:       record.Purpose,
		CorrelationID: record.CorrelationID,
		Verified:      record.Verified,
	})
	if err != nil {
		return 0, fmt.Errorf("redis ledger: encode record: %w", err)
	}

	created, err := l.client.SetNX(ctx, l.keyPrefix+record.TransactionID, payload, 0).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ledger: reserve: %w", err)
	}
	if !created {
		return settlement.AlreadyReserved, nil
	}
	return settlement.Reserved, nil
}

// Lookup returns the record for txID, or nil if the payment is unconsumed
func (l *RedisIdempotencyLedger) Lookup(ctx context.Context, txID string) (*settlement.ProcessedPayment, error) {
	raw, err := l.client.Get(ctx, l.keyPrefix+txID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis ledger: lookup: %w", err)
	}

	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("redis ledger: decode record %s: %w", txID, err)
	}
	return &settlement.ProcessedPayment{
		TransactionID: txID,
		ProcessedAt:   rec.ProcessedAt,
		Sender:        rec.Sender,
		Amount:        rec.Amount,
		AssetType:     rec.Type,
		Purpose:       rec.Purpose,
		CorrelationID: rec.CorrelationID,
		Verified:      rec.Verified,
	}, nil
}

// Close closes the Redis client
func (l *RedisIdempotencyLedger) Close() error {
	return l.client.Close()
}

var _ settlement.IdempotencyLedger = (*RedisIdempotencyLedger)(nil)
