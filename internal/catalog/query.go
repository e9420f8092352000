package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/mystor/storefront/internal/models"
	"github.com/mystor/storefront/internal/rating"
	"github.com/mystor/storefront/internal/util"
)

// PageSize is fixed for the storefront listing.
const PageSize = 3

var ErrNotFound = errors.New("not found")

type SortMode string

const (
	SortNewest    SortMode = "newest"
	SortPriceAsc  SortMode = "price_asc"
	SortPriceDesc SortMode = "price_desc"
	SortRating    SortMode = "rating"
)

// ParseSort maps a raw sort parameter to a mode. Empty, whitespace and
// unrecognized values all fall back to newest.
func ParseSort(raw string) SortMode {
	switch SortMode(strings.TrimSpace(raw)) {
	case SortPriceAsc:
		return SortPriceAsc
	case SortPriceDesc:
		return SortPriceDesc
	case SortRating:
		return SortRating
	default:
		return SortNewest
	}
}

// Query describes one listing request. It is transient: parsed from query
// parameters, echoed back in the result.
type Query struct {
	CategoryID *uint
	Text       string
	Sort       SortMode
	Page       int
}

type Page struct {
	Products   []models.Product `json:"products"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	Total      int              `json:"total"`
	Category   *models.Category `json:"category,omitempty"`
	SearchText string           `json:"search_query,omitempty"`
	Sort       SortMode         `json:"sort"`
}

// Engine composes the listing pipeline: filter, then search, then sort, then
// paginate. The order is fixed — search narrows the set before sorting, and
// sort-by-rating needs the aggregated column which only exists after the set
// is known.
type Engine struct {
	DB     *gorm.DB
	Rating *rating.Aggregator
}

func (e *Engine) List(ctx context.Context, q Query) (*Page, error) {
	tx := e.DB.WithContext(ctx).Model(&models.Product{}).Preload("Category")

	// Filter: exact category match only; a child category does not satisfy a
	// query for its parent.
	var category *models.Category
	if q.CategoryID != nil {
		var cat models.Category
		err := e.DB.WithContext(ctx).First(&cat, *q.CategoryID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %d: %w", *q.CategoryID, ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		category = &cat
		tx = tx.Where("products.category_id = ?", cat.ID)
	}

	// Search: case-insensitive substring over name, description and the
	// category's name, de-duplicated.
	text := strings.TrimSpace(q.Text)
	if text != "" {
		p := "%" + strings.ToLower(text) + "%"
		tx = tx.
			Joins("LEFT JOIN categories ON categories.id = products.category_id").
			Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ? OR LOWER(categories.name) LIKE ?", p, p, p).
			Distinct("products.*")
	}

	var items []models.Product
	if err := tx.Order("products.id ASC").Find(&items).Error; err != nil {
		return nil, err
	}

	if err := e.sortProducts(ctx, items, q.Sort); err != nil {
		return nil, err
	}

	page, totalPages := util.ClampPage(q.Page, PageSize, len(items))
	start := (page - 1) * PageSize
	end := start + PageSize
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	return &Page{
		Products:   items[start:end],
		Page:       page,
		TotalPages: totalPages,
		Total:      len(items),
		Category:   category,
		SearchText: text,
		Sort:       q.Sort,
	}, nil
}

func (e *Engine) sortProducts(ctx context.Context, items []models.Product, mode SortMode) error {
	switch mode {
	case SortPriceAsc:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Price.Cmp(items[j].Price) < 0
		})
	case SortPriceDesc:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Price.Cmp(items[j].Price) > 0
		})
	case SortRating:
		ids := make([]uint, len(items))
		for i, p := range items {
			ids[i] = p.ID
		}
		summaries, err := e.Rating.Summaries(ctx, ids)
		if err != nil {
			return err
		}
		sort.SliceStable(items, func(i, j int) bool {
			ri := summaries[items[i].ID].AverageRating
			rj := summaries[items[j].ID].AverageRating
			if ri != rj {
				return ri > rj
			}
			return items[i].ID > items[j].ID
		})
	default:
		// newest: identifier order is the creation-order proxy
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].ID > items[j].ID
		})
	}
	return nil
}
