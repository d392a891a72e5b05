package persistence

import (
	"context"
	"testing"

	"github.com/brokerage/backend/internal/domain/deal"
	"github.com/brokerage/backend/internal/domain/shared"
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupSplitTestDB creates an in-memory SQLite database for testing
func setupSplitTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE commission_splits (
			id TEXT PRIMARY KEY,
			deal_id TEXT NOT NULL,
			broker_id TEXT NOT NULL,
			broker_name TEXT NOT NULL,
			origination_percent TEXT NOT NULL,
			site_percent TEXT NOT NULL,
			deal_percent TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error
	require.NoError(t, err)

	return db
}

func mustSplit(t *testing.T, dealID uuid.UUID, brokerName string, origination, site, dealPct float64) *deal.CommissionSplit {
	t.Helper()
	s, err := deal.NewCommissionSplit(
		dealID,
		uuid.New(),
		brokerName,
		valueobject.NewPercentFromFloat(origination),
		valueobject.NewPercentFromFloat(site),
		valueobject.NewPercentFromFloat(dealPct),
	)
	require.NoError(t, err)
	return s
}

func TestGormCommissionSplitRepository_SaveAndFindByDeal(t *testing.T) {
	db := setupSplitTestDB(t)
	repo := NewGormCommissionSplitRepository(db)
	ctx := context.Background()
	dealID := uuid.New()

	require.NoError(t, repo.Save(ctx, mustSplit(t, dealID, "Smith", 100, 0, 50)))
	require.NoError(t, repo.Save(ctx, mustSplit(t, dealID, "Jones", 0, 100, 50)))
	require.NoError(t, repo.Save(ctx, mustSplit(t, uuid.New(), "Other", 100, 100, 100)))

	splits, err := repo.FindByDeal(ctx, dealID)
	require.NoError(t, err)
	require.Len(t, splits, 2)

	// ordered by broker name
	assert.Equal(t, "Jones", splits[0].BrokerName)
	assert.Equal(t, "Smith", splits[1].BrokerName)
	assert.Equal(t, "100%", splits[0].SitePercent.String())
	assert.Equal(t, "50%", splits[0].DealPercent.String())
}

func TestGormCommissionSplitRepository_ReplaceForDeal(t *testing.T) {
	db := setupSplitTestDB(t)
	repo := NewGormCommissionSplitRepository(db)
	ctx := context.Background()
	dealID := uuid.New()

	require.NoError(t, repo.Save(ctx, mustSplit(t, dealID, "Smith", 100, 0, 50)))
	require.NoError(t, repo.Save(ctx, mustSplit(t, dealID, "Jones", 0, 100, 50)))

	replacement := mustSplit(t, dealID, "Brown", 100, 100, 100)
	require.NoError(t, repo.ReplaceForDeal(ctx, dealID, []deal.CommissionSplit{*replacement}))

	splits, err := repo.FindByDeal(ctx, dealID)
	require.NoError(t, err)
	require.Len(t, splits, 1)
	assert.Equal(t, "Brown", splits[0].BrokerName)
}

func TestGormCommissionSplitRepository_ReplaceForDeal_EmptyClears(t *testing.T) {
	db := setupSplitTestDB(t)
	repo := NewGormCommissionSplitRepository(db)
	ctx := context.Background()
	dealID := uuid.New()

	require.NoError(t, repo.Save(ctx, mustSplit(t, dealID, "Smith", 100, 0, 50)))

	require.NoError(t, repo.ReplaceForDeal(ctx, dealID, nil))

	splits, err := repo.FindByDeal(ctx, dealID)
	require.NoError(t, err)
	assert.Empty(t, splits)
}

func TestGormCommissionSplitRepository_FindByBroker(t *testing.T) {
	db := setupSplitTestDB(t)
	repo := NewGormCommissionSplitRepository(db)
	ctx := context.Background()

	s := mustSplit(t, uuid.New(), "Smith", 100, 0, 50)
	require.NoError(t, repo.Save(ctx, s))
	require.NoError(t, repo.Save(ctx, mustSplit(t, uuid.New(), "Jones", 0, 100, 50)))

	splits, err := repo.FindByBroker(ctx, s.BrokerID)
	require.NoError(t, err)
	require.Len(t, splits, 1)
	assert.Equal(t, s.DealID, splits[0].DealID)
}

func TestGormCommissionSplitRepository_Delete(t *testing.T) {
	db := setupSplitTestDB(t)
	repo := NewGormCommissionSplitRepository(db)
	ctx := context.Background()

	s := mustSplit(t, uuid.New(), "Smith", 100, 0, 50)
	require.NoError(t, repo.Save(ctx, s))

	require.NoError(t, repo.Delete(ctx, s.ID))

	found, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	err = repo.Delete(ctx, s.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
