package wishlist

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	cartstore "github.com/mystor/storefront/internal/cart"
	"github.com/mystor/storefront/internal/logging"
	authmw "github.com/mystor/storefront/internal/middleware/auth"
	"github.com/mystor/storefront/internal/mykafka"
	"github.com/mystor/storefront/internal/session"
	"github.com/mystor/storefront/internal/transport"
	wishlistsvc "github.com/mystor/storefront/internal/wishlist"
)

type WishlistHandler struct {
	Service  *wishlistsvc.Service
	Producer *mykafka.Producer
}

func (h *WishlistHandler) GetWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.list")

	userID, ok := authmw.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, transport.Response{Status: "error", Message: "unauthorized"})
	}

	items, err := h.Service.List(ctx, userID)
	if err != nil {
		l.Error("get_wishlist_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.Response{Status: "error", Message: "internal error"})
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Toggle adds the product on first call and reports "exists" on repeats.
// Both outcomes are 200: the client treats the wishlist heart as a switch,
// not as an operation that can conflict.
func (h *WishlistHandler) Toggle(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.toggle")

	userID, ok := authmw.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, transport.Response{Status: "error", Message: "unauthorized"})
	}

	productID, err := h.bindProductID(c)
	if err != nil {
		l.Warn("wishlist_toggle_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, transport.Response{Status: "error", Message: "invalid product_id"})
	}

	added, err := h.Service.Toggle(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, wishlistsvc.ErrNotFound) {
			l.Warn("wishlist_toggle_error", "status", 404, "error", err)
			return c.JSON(http.StatusNotFound, transport.Response{Status: "error", Message: "product not found"})
		}
		l.Error("wishlist_toggle_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.Response{Status: "error", Message: "internal error"})
	}

	if added {
		h.publish(c, userID, map[string]any{
			"type":      "wishlist_item_added",
			"userID":    userID,
			"productID": productID,
		})
		return c.JSON(http.StatusOK, transport.Response{Status: "added", Message: "product added to wishlist"})
	}
	return c.JSON(http.StatusOK, transport.Response{Status: "exists", Message: "product already in wishlist"})
}

func (h *WishlistHandler) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.remove")

	userID, ok := authmw.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, transport.Response{Status: "error", Message: "unauthorized"})
	}

	productID, err := h.bindProductID(c)
	if err != nil {
		l.Warn("wishlist_remove_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, transport.Response{Status: "error", Message: "invalid product_id"})
	}

	removed, err := h.Service.Remove(ctx, userID, productID)
	if err != nil {
		l.Error("wishlist_remove_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.Response{Status: "error", Message: "internal error"})
	}

	if removed {
		h.publish(c, userID, map[string]any{
			"type":      "wishlist_item_removed",
			"userID":    userID,
			"productID": productID,
		})
	}
	return c.JSON(http.StatusOK, transport.Response{Status: "success", Message: "product removed from wishlist"})
}

// MoveToCart folds every wishlist entry into the session cart and then
// clears the wishlist. Products deleted since they were saved are skipped.
func (h *WishlistHandler) MoveToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.move_to_cart")

	userID, ok := authmw.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, transport.Response{Status: "error", Message: "unauthorized"})
	}

	sessionID := session.Ensure(c)

	moved, totalItems, err := h.Service.MoveToCart(ctx, userID, sessionID)
	if err != nil {
		l.Error("wishlist_move_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.Response{Status: "error", Message: "internal error"})
	}

	if moved > 0 {
		h.publish(c, userID, map[string]any{
			"type":   "wishlist_moved_to_cart",
			"userID": userID,
			"moved":  moved,
		})
	}

	l.Info("wishlist_move_success", "moved", moved, "total_items", totalItems)
	return c.JSON(http.StatusOK, transport.CartResponse{
		Status:     "success",
		Message:    "wishlist moved to cart",
		TotalItems: totalItems,
	})
}

func (h *WishlistHandler) bindProductID(c echo.Context) (uint, error) {
	var req struct {
		ProductID any `json:"product_id"`
	}
	if err := c.Bind(&req); err != nil {
		return 0, err
	}
	key, err := cartstore.CanonicalKey(req.ProductID)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(key, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func (h *WishlistHandler) publish(c echo.Context, userID uint, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	key := strconv.FormatUint(uint64(userID), 10)
	if err := h.Producer.PublishEvent(ctx, "wishlist_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka_publish_error", "error", err)
	}
}
