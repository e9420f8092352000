package catalog

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mystor/storefront/internal/models"
	"github.com/mystor/storefront/internal/rating"
)

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.Category{}, &models.Product{}, &models.Review{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func newEngine(db *gorm.DB) *Engine {
	return &Engine{DB: db, Rating: &rating.Aggregator{DB: db}}
}

func seedCategory(t *testing.T, db *gorm.DB, name string) models.Category {
	t.Helper()
	cat := models.Category{Name: name}
	require.NoError(t, db.Create(&cat).Error)
	return cat
}

func seedProduct(t *testing.T, db *gorm.DB, name, desc string, price string, catID uint) models.Product {
	t.Helper()
	p := models.Product{
		Name:        name,
		Description: desc,
		Price:       decimal.RequireFromString(price),
		CategoryID:  catID,
		IsAvailable: true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func ids(page *Page) []uint {
	out := make([]uint, len(page.Products))
	for i, p := range page.Products {
		out[i] = p.ID
	}
	return out
}

func TestParseSort(t *testing.T) {
	require.Equal(t, SortPriceAsc, ParseSort("price_asc"))
	require.Equal(t, SortPriceDesc, ParseSort(" price_desc "))
	require.Equal(t, SortRating, ParseSort("rating"))
	require.Equal(t, SortNewest, ParseSort(""))
	require.Equal(t, SortNewest, ParseSort("   "))
	require.Equal(t, SortNewest, ParseSort("cheapest"))
	require.Equal(t, SortNewest, ParseSort("PRICE_ASC"))
}

func TestListPagination(t *testing.T) {
	db := initTestDB(t)
	cat := seedCategory(t, db, "Shoes")
	for i := 0; i < 7; i++ {
		seedProduct(t, db, "p", "d", "10.00", cat.ID)
	}
	eng := newEngine(db)
	ctx := context.Background()

	p1, err := eng.List(ctx, Query{Page: 1})
	require.NoError(t, err)
	require.Len(t, p1.Products, 3)
	require.Equal(t, 1, p1.Page)
	require.Equal(t, 3, p1.TotalPages)
	require.Equal(t, 7, p1.Total)

	p3, err := eng.List(ctx, Query{Page: 3})
	require.NoError(t, err)
	require.Len(t, p3.Products, 1)

	// out-of-range pages clamp to the last page instead of erroring
	p99, err := eng.List(ctx, Query{Page: 99})
	require.NoError(t, err)
	require.Equal(t, 3, p99.Page)
	require.Equal(t, p3.Products, p99.Products)

	p0, err := eng.List(ctx, Query{Page: 0})
	require.NoError(t, err)
	require.Equal(t, 1, p0.Page)
}

func TestListEmptyCatalog(t *testing.T) {
	db := initTestDB(t)
	eng := newEngine(db)

	page, err := eng.List(context.Background(), Query{Page: 1})
	require.NoError(t, err)
	require.Empty(t, page.Products)
	require.Equal(t, 1, page.Page)
	require.Equal(t, 1, page.TotalPages)
	require.Zero(t, page.Total)
}

func TestListUnknownCategory(t *testing.T) {
	db := initTestDB(t)
	eng := newEngine(db)

	missing := uint(404)
	_, err := eng.List(context.Background(), Query{CategoryID: &missing, Page: 1})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListCategoryFilterIsExact(t *testing.T) {
	db := initTestDB(t)
	parent := seedCategory(t, db, "Clothing")
	child := models.Category{Name: "Shirts", ParentID: &parent.ID}
	require.NoError(t, db.Create(&child).Error)

	inParent := seedProduct(t, db, "coat", "d", "50.00", parent.ID)
	seedProduct(t, db, "shirt", "d", "20.00", child.ID)

	eng := newEngine(db)
	page, err := eng.List(context.Background(), Query{CategoryID: &parent.ID, Page: 1})
	require.NoError(t, err)
	require.Equal(t, []uint{inParent.ID}, ids(page))
	require.NotNil(t, page.Category)
	require.Equal(t, "Clothing", page.Category.Name)
}

func TestListSearchMatchesCategoryName(t *testing.T) {
	db := initTestDB(t)
	shoes := seedCategory(t, db, "Shoes")
	books := seedCategory(t, db, "Books")
	sneaker := seedProduct(t, db, "Runner", "light", "80.00", shoes.ID)
	seedProduct(t, db, "Novel", "long", "15.00", books.ID)

	eng := newEngine(db)
	page, err := eng.List(context.Background(), Query{Text: "shoe", Page: 1})
	require.NoError(t, err)
	require.Equal(t, []uint{sneaker.ID}, ids(page))
	require.Equal(t, "shoe", page.SearchText)
}

func TestListSearchCaseInsensitive(t *testing.T) {
	db := initTestDB(t)
	cat := seedCategory(t, db, "Misc")
	p := seedProduct(t, db, "Gradient Lamp", "warm light", "30.00", cat.ID)
	seedProduct(t, db, "Chair", "wooden", "45.00", cat.ID)

	eng := newEngine(db)
	for _, text := range []string{"LAMP", "lamp", "  lamp  ", "warm LIGHT"} {
		page, err := eng.List(context.Background(), Query{Text: text, Page: 1})
		require.NoError(t, err)
		require.Equal(t, []uint{p.ID}, ids(page), "query %q", text)
	}
}

func TestListFilterAndSearchCompose(t *testing.T) {
	db := initTestDB(t)
	shoes := seedCategory(t, db, "Shoes")
	books := seedCategory(t, db, "Books")
	match := seedProduct(t, db, "Red Runner", "d", "80.00", shoes.ID)
	seedProduct(t, db, "Blue Runner", "d", "70.00", shoes.ID)
	seedProduct(t, db, "Red Novel", "d", "15.00", books.ID)

	eng := newEngine(db)
	page, err := eng.List(context.Background(), Query{CategoryID: &shoes.ID, Text: "red", Page: 1})
	require.NoError(t, err)
	require.Equal(t, []uint{match.ID}, ids(page))
}

func TestListSortByPrice(t *testing.T) {
	db := initTestDB(t)
	cat := seedCategory(t, db, "Shoes")
	a := seedProduct(t, db, "A", "d", "30.00", cat.ID)
	b := seedProduct(t, db, "B", "d", "10.00", cat.ID)
	c := seedProduct(t, db, "C", "d", "20.00", cat.ID)

	eng := newEngine(db)
	ctx := context.Background()

	asc, err := eng.List(ctx, Query{Sort: SortPriceAsc, Page: 1})
	require.NoError(t, err)
	require.Equal(t, []uint{b.ID, c.ID, a.ID}, ids(asc))

	desc, err := eng.List(ctx, Query{Sort: SortPriceDesc, Page: 1})
	require.NoError(t, err)
	require.Equal(t, []uint{a.ID, c.ID, b.ID}, ids(desc))
}

func TestListCategoryPriceDescExcludesOthers(t *testing.T) {
	db := initTestDB(t)
	shoes := seedCategory(t, db, "Shoes")
	books := seedCategory(t, db, "Books")
	a := seedProduct(t, db, "A", "d", "40.00", shoes.ID)
	b := seedProduct(t, db, "B", "d", "90.00", shoes.ID)
	seedProduct(t, db, "C", "d", "999.00", books.ID)

	eng := newEngine(db)
	page, err := eng.List(context.Background(), Query{CategoryID: &shoes.ID, Sort: SortPriceDesc, Page: 1})
	require.NoError(t, err)
	require.Equal(t, []uint{b.ID, a.ID}, ids(page))
}

func TestListSortByRating(t *testing.T) {
	db := initTestDB(t)
	cat := seedCategory(t, db, "Shoes")
	low := seedProduct(t, db, "low", "d", "10.00", cat.ID)
	high := seedProduct(t, db, "high", "d", "10.00", cat.ID)
	unrated := seedProduct(t, db, "unrated", "d", "10.00", cat.ID)

	require.NoError(t, db.Create(&models.Review{ProductID: low.ID, CustomerID: 1, Rating: 2}).Error)
	require.NoError(t, db.Create(&models.Review{ProductID: high.ID, CustomerID: 1, Rating: 5}).Error)

	eng := newEngine(db)
	page, err := eng.List(context.Background(), Query{Sort: SortRating, Page: 1})
	require.NoError(t, err)
	require.Equal(t, []uint{high.ID, low.ID, unrated.ID}, ids(page))
}

func TestListSortByRatingTieBreaksByNewest(t *testing.T) {
	db := initTestDB(t)
	cat := seedCategory(t, db, "Shoes")
	older := seedProduct(t, db, "older", "d", "10.00", cat.ID)
	newer := seedProduct(t, db, "newer", "d", "10.00", cat.ID)

	require.NoError(t, db.Create(&models.Review{ProductID: older.ID, CustomerID: 1, Rating: 4}).Error)
	require.NoError(t, db.Create(&models.Review{ProductID: newer.ID, CustomerID: 2, Rating: 4}).Error)

	eng := newEngine(db)
	page, err := eng.List(context.Background(), Query{Sort: SortRating, Page: 1})
	require.NoError(t, err)
	require.Equal(t, []uint{newer.ID, older.ID}, ids(page))
}

func TestListDefaultSortIsNewest(t *testing.T) {
	db := initTestDB(t)
	cat := seedCategory(t, db, "Shoes")
	first := seedProduct(t, db, "first", "d", "10.00", cat.ID)
	second := seedProduct(t, db, "second", "d", "10.00", cat.ID)

	eng := newEngine(db)
	page, err := eng.List(context.Background(), Query{Sort: ParseSort("bogus"), Page: 1})
	require.NoError(t, err)
	require.Equal(t, []uint{second.ID, first.ID}, ids(page))
	require.Equal(t, SortNewest, page.Sort)
}
