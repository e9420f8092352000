package wishlist

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	cartstore "github.com/mystor/storefront/internal/cart"
	"github.com/mystor/storefront/internal/models"
	"github.com/mystor/storefront/internal/session"
	"github.com/mystor/storefront/internal/transport"
	wishlistsvc "github.com/mystor/storefront/internal/wishlist"
)

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.Category{}, &models.Product{}, &models.WishlistItem{}, &models.Cart{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func newWishlistHandler(db *gorm.DB) *WishlistHandler {
	return &WishlistHandler{
		Service: &wishlistsvc.Service{DB: db, Cart: cartstore.NewStore(db)},
	}
}

func seedProduct(t *testing.T, db *gorm.DB, name string) models.Product {
	t.Helper()
	cat := models.Category{Name: "cat_" + name}
	require.NoError(t, db.Create(&cat).Error)
	p := models.Product{
		Name:        name,
		Description: "d",
		Price:       decimal.NewFromInt(10),
		CategoryID:  cat.ID,
		IsAvailable: true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func doJSONRequest(t *testing.T, method, path string, body any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	return rec, c
}

func asUser(c echo.Context, id uint) {
	c.Set("user_id", id)
}

func TestToggle(t *testing.T) {
	db := initTestDB(t)
	p := seedProduct(t, db, "test_name")
	h := newWishlistHandler(db)

	rec, c := doJSONRequest(t, http.MethodPost, "/wishlist", map[string]any{"product_id": p.ID})
	asUser(c, 1)
	require.NoError(t, h.Toggle(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp transport.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "added", resp.Status)

	rec, c = doJSONRequest(t, http.MethodPost, "/wishlist", map[string]any{"product_id": p.ID})
	asUser(c, 1)
	require.NoError(t, h.Toggle(c))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "exists", resp.Status)
}

func TestToggleUnknownProduct(t *testing.T) {
	db := initTestDB(t)
	h := newWishlistHandler(db)

	rec, c := doJSONRequest(t, http.MethodPost, "/wishlist", map[string]any{"product_id": 999})
	asUser(c, 1)
	require.NoError(t, h.Toggle(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleInvalidProductID(t *testing.T) {
	db := initTestDB(t)
	h := newWishlistHandler(db)

	rec, c := doJSONRequest(t, http.MethodPost, "/wishlist", map[string]any{"product_id": "abc"})
	asUser(c, 1)
	require.NoError(t, h.Toggle(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToggleUnauthorized(t *testing.T) {
	db := initTestDB(t)
	h := newWishlistHandler(db)

	rec, c := doJSONRequest(t, http.MethodPost, "/wishlist", map[string]any{"product_id": 1})
	require.NoError(t, h.Toggle(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRemove(t *testing.T) {
	db := initTestDB(t)
	p := seedProduct(t, db, "test_name")
	h := newWishlistHandler(db)

	_, c := doJSONRequest(t, http.MethodPost, "/wishlist", map[string]any{"product_id": p.ID})
	asUser(c, 1)
	require.NoError(t, h.Toggle(c))

	rec, c := doJSONRequest(t, http.MethodDelete, "/wishlist", map[string]any{"product_id": p.ID})
	asUser(c, 1)
	require.NoError(t, h.Remove(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// removing a product that is not wishlisted is still a success
	rec, c = doJSONRequest(t, http.MethodDelete, "/wishlist", map[string]any{"product_id": p.ID})
	asUser(c, 1)
	require.NoError(t, h.Remove(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetWishlist(t *testing.T) {
	db := initTestDB(t)
	p1 := seedProduct(t, db, "first")
	p2 := seedProduct(t, db, "second")
	h := newWishlistHandler(db)

	for _, id := range []uint{p1.ID, p2.ID} {
		_, c := doJSONRequest(t, http.MethodPost, "/wishlist", map[string]any{"product_id": id})
		asUser(c, 1)
		require.NoError(t, h.Toggle(c))
	}

	rec, c := doJSONRequest(t, http.MethodGet, "/wishlist", nil)
	asUser(c, 1)
	require.NoError(t, h.GetWishlist(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []models.WishlistItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 2)
}

func TestMoveToCart(t *testing.T) {
	db := initTestDB(t)
	p1 := seedProduct(t, db, "first")
	p2 := seedProduct(t, db, "second")
	h := newWishlistHandler(db)

	for _, id := range []uint{p1.ID, p2.ID} {
		_, c := doJSONRequest(t, http.MethodPost, "/wishlist", map[string]any{"product_id": id})
		asUser(c, 1)
		require.NoError(t, h.Toggle(c))
	}

	ck := &http.Cookie{Name: session.CookieName, Value: "s1", Path: "/"}
	rec, c := doJSONRequest(t, http.MethodPost, "/wishlist/move-to-cart", nil, ck)
	asUser(c, 1)
	require.NoError(t, h.MoveToCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp transport.CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "success", resp.Status)
	require.Equal(t, 2, resp.TotalItems)

	// wishlist is empty, cart holds the items
	items, err := h.Service.List(c.Request().Context(), 1)
	require.NoError(t, err)
	require.Empty(t, items)

	ct, err := h.Service.Cart.Get(c.Request().Context(), "s1")
	require.NoError(t, err)
	require.Equal(t, 2, ct.ItemCount())

	// a second call has nothing left to move
	rec, c = doJSONRequest(t, http.MethodPost, "/wishlist/move-to-cart", nil, ck)
	asUser(c, 1)
	require.NoError(t, h.MoveToCart(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.TotalItems)
}
