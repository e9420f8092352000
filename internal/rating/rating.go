package rating

import (
	"context"

	"gorm.io/gorm"

	"github.com/mystor/storefront/internal/models"
)

type Summary struct {
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}

// Aggregator derives rating summaries from raw review rows. Pure reads, no
// caching: a product with zero reviews rates exactly 0.0.
type Aggregator struct {
	DB *gorm.DB
}

func (a *Aggregator) Average(ctx context.Context, productID uint) (float64, error) {
	var avg float64
	err := a.DB.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ?", productID).
		Select("COALESCE(AVG(rating), 0)").
		Scan(&avg).Error
	if err != nil {
		return 0, err
	}
	return avg, nil
}

func (a *Aggregator) Count(ctx context.Context, productID uint) (int64, error) {
	var n int64
	err := a.DB.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ?", productID).
		Count(&n).Error
	return n, err
}

func (a *Aggregator) Summary(ctx context.Context, productID uint) (Summary, error) {
	avg, err := a.Average(ctx, productID)
	if err != nil {
		return Summary{}, err
	}
	n, err := a.Count(ctx, productID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{AverageRating: avg, ReviewCount: n}, nil
}

// Summaries batches the per-product aggregation in one GROUP BY; products
// without reviews come back as zero-valued summaries so the result matches
// calling Summary per id.
func (a *Aggregator) Summaries(ctx context.Context, productIDs []uint) (map[uint]Summary, error) {
	out := make(map[uint]Summary, len(productIDs))
	for _, id := range productIDs {
		out[id] = Summary{}
	}
	if len(productIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		ProductID     uint
		AverageRating float64
		ReviewCount   int64
	}
	err := a.DB.WithContext(ctx).
		Model(&models.Review{}).
		Select("product_id, AVG(rating) AS average_rating, COUNT(*) AS review_count").
		Where("product_id IN ?", productIDs).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		out[r.ProductID] = Summary{AverageRating: r.AverageRating, ReviewCount: r.ReviewCount}
	}
	return out, nil
}
