package rating

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mystor/storefront/internal/models"
)

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.Review{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func seedReviews(t *testing.T, db *gorm.DB, productID uint, ratings ...int) {
	t.Helper()
	for i, r := range ratings {
		require.NoError(t, db.Create(&models.Review{
			ProductID:  productID,
			CustomerID: uint(i + 1),
			Rating:     r,
		}).Error)
	}
}

func TestAverage(t *testing.T) {
	db := initTestDB(t)
	agg := &Aggregator{DB: db}
	ctx := context.Background()

	seedReviews(t, db, 1, 5, 5, 5, 1)

	avg, err := agg.Average(ctx, 1)
	require.NoError(t, err)
	require.InDelta(t, 4.0, avg, 1e-9)
}

func TestAverageNoReviewsIsZero(t *testing.T) {
	db := initTestDB(t)
	agg := &Aggregator{DB: db}

	avg, err := agg.Average(context.Background(), 42)
	require.NoError(t, err)
	require.Zero(t, avg)

	s, err := agg.Summary(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, Summary{}, s)
}

func TestSummary(t *testing.T) {
	db := initTestDB(t)
	agg := &Aggregator{DB: db}

	seedReviews(t, db, 7, 3, 4)

	s, err := agg.Summary(context.Background(), 7)
	require.NoError(t, err)
	require.InDelta(t, 3.5, s.AverageRating, 1e-9)
	require.EqualValues(t, 2, s.ReviewCount)
}

func TestSummariesMatchesSummary(t *testing.T) {
	db := initTestDB(t)
	agg := &Aggregator{DB: db}
	ctx := context.Background()

	seedReviews(t, db, 1, 5, 5, 5, 1)
	seedReviews(t, db, 2, 2)

	out, err := agg.Summaries(ctx, []uint{1, 2, 3})
	require.NoError(t, err)
	require.Len(t, out, 3)

	for _, id := range []uint{1, 2, 3} {
		want, err := agg.Summary(ctx, id)
		require.NoError(t, err)
		require.Equal(t, want, out[id], "product %d", id)
	}
	require.Equal(t, Summary{}, out[3])
}

func TestSummariesEmptyInput(t *testing.T) {
	db := initTestDB(t)
	agg := &Aggregator{DB: db}

	out, err := agg.Summaries(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, out)
}
