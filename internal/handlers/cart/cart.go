package cart

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	cartstore "github.com/mystor/storefront/internal/cart"
	"github.com/mystor/storefront/internal/logging"
	"github.com/mystor/storefront/internal/models"
	"github.com/mystor/storefront/internal/mykafka"
	"github.com/mystor/storefront/internal/session"
	"github.com/mystor/storefront/internal/transport"
)

type CartHandler struct {
	DB       *gorm.DB
	Store    *cartstore.Store
	Producer *mykafka.Producer
}

// GetCart renders the session cart as priced lines. Entries whose product
// has since been deleted are skipped, matching what the store would do on the
// next mutation.
func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	sessionID, ok := session.Current(c)
	if !ok {
		return c.JSON(http.StatusOK, transport.CartSummary{
			Items:      []transport.CartLine{},
			TotalPrice: decimal.Zero,
		})
	}

	ct, err := h.Store.Get(ctx, sessionID)
	if err != nil {
		l.Error("get_cart_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.Response{Status: "error", Message: "internal error"})
	}

	summary, err := h.summarize(ctx, ct)
	if err != nil {
		l.Error("get_cart_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.Response{Status: "error", Message: "internal error"})
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req struct {
		ProductID any  `json:"product_id"`
		Quantity  *int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, transport.Response{Status: "error", Message: "invalid body"})
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	sessionID := session.Ensure(c)

	ct, err := h.Store.AddItem(ctx, sessionID, req.ProductID, quantity)
	if err != nil {
		return h.cartError(c, l, "add_to_cart_error", err)
	}

	h.publish(c, sessionID, map[string]any{
		"type":      "cart_item_added",
		"sessionID": sessionID,
		"productID": req.ProductID,
		"quantity":  quantity,
	})

	l.Info("add_to_cart_success", "total_items", ct.ItemCount())
	return c.JSON(http.StatusOK, transport.CartResponse{
		Status:     "success",
		Message:    "product added to cart",
		TotalItems: ct.ItemCount(),
	})
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	var req struct {
		ProductID any `json:"product_id"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("remove_from_cart_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, transport.Response{Status: "error", Message: "invalid body"})
	}

	sessionID, ok := session.Current(c)
	if !ok {
		return c.JSON(http.StatusOK, transport.CartResponse{
			Status:  "success",
			Message: "product removed from cart",
		})
	}

	ct, removed, err := h.Store.RemoveItem(ctx, sessionID, req.ProductID)
	if err != nil {
		return h.cartError(c, l, "remove_from_cart_error", err)
	}

	if removed {
		h.publish(c, sessionID, map[string]any{
			"type":      "cart_item_removed",
			"sessionID": sessionID,
			"productID": req.ProductID,
		})
	}

	return c.JSON(http.StatusOK, transport.CartResponse{
		Status:     "success",
		Message:    "product removed from cart",
		TotalItems: ct.ItemCount(),
	})
}

func (h *CartHandler) cartError(c echo.Context, l *slog.Logger, op string, err error) error {
	switch {
	case errors.Is(err, cartstore.ErrValidation):
		l.Warn(op, "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, transport.Response{Status: "error", Message: err.Error()})
	case errors.Is(err, cartstore.ErrNotFound):
		l.Warn(op, "status", 404, "error", err)
		return c.JSON(http.StatusNotFound, transport.Response{Status: "error", Message: "product not found"})
	default:
		l.Error(op, "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.Response{Status: "error", Message: "internal error"})
	}
}

func (h *CartHandler) summarize(ctx context.Context, ct cartstore.Cart) (*transport.CartSummary, error) {
	ids := make([]uint, 0, len(ct))
	for key := range ct {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}

	var products []models.Product
	if len(ids) > 0 {
		if err := h.DB.WithContext(ctx).Preload("Category").Where("id IN ?", ids).Find(&products).Error; err != nil {
			return nil, err
		}
	}

	summary := &transport.CartSummary{Items: []transport.CartLine{}, TotalPrice: decimal.Zero}
	for _, p := range products {
		key := strconv.FormatUint(uint64(p.ID), 10)
		qty := ct[key]
		if qty < 1 {
			continue
		}
		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(qty)))
		summary.Items = append(summary.Items, transport.CartLine{
			Product:  p,
			Quantity: qty,
			Total:    lineTotal,
		})
		summary.TotalPrice = summary.TotalPrice.Add(lineTotal)
		summary.TotalItems += qty
	}
	return summary, nil
}

func (h *CartHandler) publish(c echo.Context, key string, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka_publish_error", "error", err)
	}
}
