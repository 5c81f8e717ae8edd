package codes

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aliyevk/codedesk-backend/pkg/db/models"
	"github.com/aliyevk/codedesk-backend/pkg/enums"
)

func newRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.CodeRecord{}))
	require.NoError(t, conn.Exec("DELETE FROM code_records").Error)
	return conn
}

func seedRecord(t *testing.T, repo Repository, userID, batchID int64, code string, status enums.CodeStatus, price *decimal.Decimal) {
	t.Helper()
	require.NoError(t, repo.Append(context.Background(), []models.CodeRecord{{
		UserID:   userID,
		Handle:   "seller",
		Code:     code,
		CodeType: "X",
		BatchID:  batchID,
		Status:   status,
		Price:    price,
	}}))
}

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestRepository_SetPriceForBatchSkipsPriced(t *testing.T) {
	repo := NewRepository(newRepoDB(t), time.Second)
	ctx := context.Background()

	seedRecord(t, repo, 42, 100, "AAAAA", enums.CodeStatusPending, nil)
	seedRecord(t, repo, 42, 100, "BBBBB", enums.CodeStatusPending, dec("7.50"))

	updated, err := repo.SetPriceForBatch(ctx, 42, 100, decimal.RequireFromString("10"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	rows, err := repo.ListByBatch(ctx, 42, 100)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.NotNil(t, row.Price)
		switch row.Code {
		case "AAAAA":
			assert.True(t, row.Price.Equal(decimal.RequireFromString("10")))
		case "BBBBB":
			assert.True(t, row.Price.Equal(decimal.RequireFromString("7.50")), "priced row must not be overwritten")
		}
	}
}

func TestRepository_SetPriceForAllUnpriced(t *testing.T) {
	repo := NewRepository(newRepoDB(t), time.Second)
	ctx := context.Background()

	seedRecord(t, repo, 42, 100, "AAAAA", enums.CodeStatusPending, nil)
	seedRecord(t, repo, 42, 200, "BBBBB", enums.CodeStatusListed, nil)
	seedRecord(t, repo, 42, 200, "CCCCC", enums.CodeStatusListed, dec("5"))
	seedRecord(t, repo, 7, 300, "DDDDD", enums.CodeStatusPending, nil)

	updated, err := repo.SetPriceForAllUnpriced(ctx, 42, decimal.RequireFromString("3"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	other, err := repo.ListByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Nil(t, other[0].Price, "other users must be untouched")
}

func TestRepository_MarkPendingListed(t *testing.T) {
	repo := NewRepository(newRepoDB(t), time.Second)
	ctx := context.Background()

	seedRecord(t, repo, 42, 100, "AAAAA", enums.CodeStatusPending, nil)
	seedRecord(t, repo, 42, 100, "BBBBB", enums.CodeStatusPaid, dec("5"))

	updated, err := repo.MarkPendingListed(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	rows, err := repo.ListByUser(ctx, 42)
	require.NoError(t, err)
	for _, row := range rows {
		if row.Code == "AAAAA" {
			assert.Equal(t, enums.CodeStatusListed, row.Status)
		}
		if row.Code == "BBBBB" {
			assert.Equal(t, enums.CodeStatusPaid, row.Status, "paid rows are final")
		}
	}
}

func TestRepository_ListPayable(t *testing.T) {
	repo := NewRepository(newRepoDB(t), time.Second)
	ctx := context.Background()

	seedRecord(t, repo, 42, 100, "AAAAA", enums.CodeStatusListed, dec("10"))
	seedRecord(t, repo, 42, 100, "BBBBB", enums.CodeStatusListed, nil)
	seedRecord(t, repo, 42, 200, "CCCCC", enums.CodeStatusProcessed, dec("4"))
	seedRecord(t, repo, 42, 200, "DDDDD", enums.CodeStatusPaid, dec("6"))
	seedRecord(t, repo, 42, 300, "EEEEE", enums.CodeStatusPending, dec("9"))

	rows, err := repo.ListPayable(ctx, 42)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	codes := []string{rows[0].Code, rows[1].Code}
	assert.ElementsMatch(t, []string{"AAAAA", "CCCCC"}, codes)
}

func TestRepository_DeleteBatch(t *testing.T) {
	repo := NewRepository(newRepoDB(t), time.Second)
	ctx := context.Background()

	seedRecord(t, repo, 42, 100, "AAAAA", enums.CodeStatusPending, nil)
	seedRecord(t, repo, 42, 200, "BBBBB", enums.CodeStatusPending, nil)

	deleted, err := repo.DeleteBatch(ctx, 42, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	rows, err := repo.ListByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "BBBBB", rows[0].Code)

	// Deleting again reports nothing to do, not an error.
	deleted, err = repo.DeleteBatch(ctx, 42, 100)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestRepository_UpdateStatusAcceptsFreeText(t *testing.T) {
	repo := NewRepository(newRepoDB(t), time.Second)
	ctx := context.Background()

	seedRecord(t, repo, 42, 100, "AAAAA", enums.CodeStatusListed, dec("5"))

	updated, err := repo.UpdateStatusForBatch(ctx, 42, 100, enums.NormalizeCodeStatus("scamcheck"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	rows, err := repo.ListByBatch(ctx, 42, 100)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.CodeStatus("Scamcheck"), rows[0].Status)
}

func TestRepository_DeleteByUser(t *testing.T) {
	repo := NewRepository(newRepoDB(t), time.Second)
	ctx := context.Background()

	seedRecord(t, repo, 42, 100, "AAAAA", enums.CodeStatusPending, nil)
	seedRecord(t, repo, 42, 200, "BBBBB", enums.CodeStatusPaid, dec("5"))
	seedRecord(t, repo, 7, 300, "CCCCC", enums.CodeStatusPending, nil)

	deleted, err := repo.DeleteByUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	rows, err := repo.ListByUser(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, rows)

	others, err := repo.ListByUser(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, others, 1)
}
