package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/setusher/PenthouseProtocol/internal/domain/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var testListingID = uuid.MustParse("6f1c2d3e-4a5b-4c6d-8e7f-9a0b1c2d3e4f")

func testProcessedPayment(txID string) settlement.ProcessedPayment {
	return settlement.NewProcessedPayment(txID, settlement.ExpectedPayment{
		Payer:         "0.0.2002",
		Amount:        10_000_000,
		Purpose:       settlement.PurposeInvestment,
		CorrelationID: "listing-1",
	}, "0.0.429274")
}

func TestGormProcessedPaymentRepository_Reserve(t *testing.T) {
	db := setupRegistryTestDB(t)
	repo := NewGormProcessedPaymentRepository(db)
	ctx := context.Background()

	t.Run("first reservation wins", func(t *testing.T) {
		result, err := repo.Reserve(ctx, testProcessedPayment("0.0.2002@1700000000.000000001"))
		require.NoError(t, err)
		assert.Equal(t, settlement.Reserved, result)

		again, err := repo.Reserve(ctx, testProcessedPayment("0.0.2002@1700000000.000000001"))
		require.NoError(t, err)
		assert.Equal(t, settlement.AlreadyReserved, again)
	})

	t.Run("record is stored as reserved", func(t *testing.T) {
		record := testProcessedPayment("0.0.2002@1700000000.000000002")
		_, err := repo.Reserve(ctx, record)
		require.NoError(t, err)

		found, err := repo.Lookup(ctx, record.TransactionID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, record.Sender, found.Sender)
		assert.Equal(t, record.Amount, found.Amount)
		assert.Equal(t, settlement.PurposeInvestment, found.Purpose)
		assert.Equal(t, "listing-1", found.CorrelationID)
		assert.Equal(t, "0.0.429274", found.AssetType)
		assert.True(t, found.Verified)
	})

	t.Run("lookup of unconsumed payment", func(t *testing.T) {
		found, err := repo.Lookup(ctx, "never-seen")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("empty transaction id", func(t *testing.T) {
		_, err := repo.Reserve(ctx, settlement.ProcessedPayment{})
		assert.Error(t, err)
	})

	t.Run("concurrent reservations have exactly one winner", func(t *testing.T) {
		const callers = 25
		txID := "0.0.2002@1700000000.000000099"

		var wg sync.WaitGroup
		results := make(chan settlement.ReserveResult, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				result, err := repo.Reserve(ctx, testProcessedPayment(txID))
				assert.NoError(t, err)
				results <- result
			}()
		}
		wg.Wait()
		close(results)

		counts := map[settlement.ReserveResult]int{}
		for r := range results {
			counts[r]++
		}
		assert.Equal(t, 1, counts[settlement.Reserved])
		assert.Equal(t, callers-1, counts[settlement.AlreadyReserved])
	})

	t.Run("list by correlation", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, err := repo.Reserve(ctx, settlement.NewProcessedPayment(fmt.Sprintf("corr-tx-%d", i), settlement.ExpectedPayment{
				Payer: "0.0.3003", Amount: 1, Purpose: settlement.PurposeRent, CorrelationID: "listing-corr",
			}, "0.0.429274"))
			require.NoError(t, err)
		}

		records, err := repo.ListByCorrelation(ctx, "listing-corr")
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})
}

func newMockPaymentRepo(t *testing.T) (*GormProcessedPaymentRepository, *GormListingRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewGormProcessedPaymentRepository(gormDB), NewGormListingRepository(gormDB), mock, mockDB
}

// The guarantees rest on the exact statements sent to Postgres.
func TestConditionalWrites_SQLShape(t *testing.T) {
	t.Run("reserve is insert on conflict do nothing", func(t *testing.T) {
		repo, _, mock, mockDB := newMockPaymentRepo(t)
		defer mockDB.Close()

		mock.ExpectExec(`INSERT INTO "processed_payments" .* ON CONFLICT DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		result, err := repo.Reserve(context.Background(), testProcessedPayment("tx-1"))
		require.NoError(t, err)
		assert.Equal(t, settlement.AlreadyReserved, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reserve surfaces driver errors", func(t *testing.T) {
		repo, _, mock, mockDB := newMockPaymentRepo(t)
		defer mockDB.Close()

		mock.ExpectExec(`INSERT INTO "processed_payments"`).
			WillReturnError(sql.ErrConnDone)

		_, err := repo.Reserve(context.Background(), testProcessedPayment("tx-1"))
		assert.ErrorIs(t, err, sql.ErrConnDone)
	})

	t.Run("escrow increment is a single update", func(t *testing.T) {
		_, listings, mock, mockDB := newMockPaymentRepo(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "listings" SET "escrow_balance"=escrow_balance \+ \$1,.* WHERE id = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := listings.IncrementEscrow(context.Background(), testListingID, 500)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rental flip is conditional on status and version", func(t *testing.T) {
		_, listings, mock, mockDB := newMockPaymentRepo(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "listings" SET .* WHERE id = \$\d+ AND status = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := listings.MarkRented(context.Background(), testListingID, "tenant-1", 3)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
