//go:build integration

package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/setusher/PenthouseProtocol/internal/domain/property"
	"github.com/setusher/PenthouseProtocol/internal/domain/settlement"
	"github.com/setusher/PenthouseProtocol/internal/infrastructure/migration"
	"github.com/setusher/PenthouseProtocol/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresTestDB starts a postgres container and applies the embedded
// schema migrations to it.
func newPostgresTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("settlement_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	m, err := migration.New(sqlDB, migrations.FS, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Up())

	version, dirty, err := m.Version()
	require.NoError(t, err)
	require.False(t, dirty)
	require.NotZero(t, version)

	return db
}

func TestPostgres_ProcessedPaymentReservedOnce(t *testing.T) {
	db := newPostgresTestDB(t)
	repo := NewGormProcessedPaymentRepository(db)
	ctx := context.Background()

	record := testProcessedPayment("0.0.1001@1700000000.000000001")

	const callers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		reserved int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := repo.Reserve(ctx, record)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if result == settlement.Reserved {
				mu.Lock()
				reserved++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, reserved)

	found, err := repo.Lookup(ctx, record.TransactionID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, record.CorrelationID, found.CorrelationID)

	history, err := repo.ListByCorrelation(ctx, record.CorrelationID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestPostgres_MarkRentedSingleWinner(t *testing.T) {
	db := newPostgresTestDB(t)
	repo := NewGormListingRepository(db)
	ctx := context.Background()

	listing := createTestListing(t, repo)

	const renters = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  int
		rejected int
	)
	for i := 0; i < renters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.MarkRented(ctx, listing.ID, uuid.NewString(), listing.Version)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, property.ErrListingNotAvailable):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, renters-1, rejected)
}

func TestPostgres_IncrementEscrowIsAdditive(t *testing.T) {
	db := newPostgresTestDB(t)
	repo := NewGormListingRepository(db)
	ctx := context.Background()

	listing := createTestListing(t, repo)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.IncrementEscrow(ctx, listing.ID, 250))
		}()
	}
	wg.Wait()

	found, err := repo.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), found.EscrowBalance)
}
