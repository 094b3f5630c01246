package service

import (
	"context"
	"testing"
	"time"

	"github.com/dushixiang/tradenote/internal/config"
	"github.com/dushixiang/tradenote/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.JournalEntry{},
		&models.BalanceSnapshot{},
		&models.Cashflow{},
	))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Journal: config.JournalConf{StartingBalance: 10000},
	}
}

func seedEntry(t *testing.T, db *gorm.DB, date time.Time, notes string) {
	t.Helper()
	entry := models.JournalEntry{
		ID:    ulid.Make().String(),
		Date:  date,
		Notes: datatypes.JSON(notes),
	}
	require.NoError(t, db.Create(&entry).Error)
}

// 到期日2024-01-19的credit期权，之后还有一个空白交易日
func seedCreditOptionJournal(t *testing.T, db *gorm.DB) {
	t.Helper()
	notes := `{"entries":[{"symbol":"SPY","kind":"option","side":"short","premiumSide":"credit","price":1.5,"quantity":1,"expiry":"2024-01-19"}]}`
	seedEntry(t, db, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), notes)
	seedEntry(t, db, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), `{}`)
}

func TestAnalyticsExplicitAsOfIsNotOverridden(t *testing.T) {
	// 显式截止日早于到期日时，credit期权必须保持未平仓
	db := newTestDB(t)
	svc := NewAnalyticsService(db, zap.NewNop(), testConfig())
	ctx := context.Background()
	seedCreditOptionJournal(t, db)

	asOf := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	positions, err := svc.Positions(ctx, asOf)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "SPY", positions[0].Symbol)

	bundle, err := svc.Stats(ctx, asOf)
	require.NoError(t, err)
	assert.True(t, bundle.AsOf.Equal(asOf))
	assert.Len(t, bundle.OpenPositions, 1)
}

func TestAnalyticsAsOfDefaultsToLastEntryDate(t *testing.T) {
	// 未指定截止日时取最后交易日，已到期的credit期权被合成平仓
	db := newTestDB(t)
	svc := NewAnalyticsService(db, zap.NewNop(), testConfig())
	ctx := context.Background()
	seedCreditOptionJournal(t, db)

	positions, err := svc.Positions(ctx, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, positions)

	bundle, err := svc.Stats(ctx, time.Time{})
	require.NoError(t, err)
	assert.True(t, bundle.AsOf.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
}
