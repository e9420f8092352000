package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mystor/storefront/internal/logging"
	authmw "github.com/mystor/storefront/internal/middleware/auth"
	"github.com/mystor/storefront/internal/models"
	"github.com/mystor/storefront/internal/transport"
)

type ReviewHandler struct {
	DB *gorm.DB
}

// AddReview records a star rating for a product. One review per
// (product, customer) pair: a second submission is rejected, not merged.
func (h *ReviewHandler) AddReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.add")

	userID, ok := authmw.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, transport.Response{Status: "error", Message: "unauthorized"})
	}

	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, transport.Response{Status: "error", Message: "invalid product id"})
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, transport.Response{Status: "error", Message: "invalid body"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, transport.Response{Status: "error", Message: "rating must be between 1 and 5"})
	}

	var product models.Product
	if err := h.DB.WithContext(ctx).Select("id").First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, transport.Response{Status: "error", Message: "product not found"})
		}
		l.Error("add_review_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.Response{Status: "error", Message: "internal error"})
	}

	customer, err := h.customerFor(c, userID)
	if err != nil {
		l.Error("add_review_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.Response{Status: "error", Message: "internal error"})
	}

	var existing models.Review
	err = h.DB.WithContext(ctx).
		Where("product_id = ? AND customer_id = ?", product.ID, customer.ID).
		First(&existing).Error
	if err == nil {
		return c.JSON(http.StatusConflict, transport.Response{Status: "error", Message: "product already reviewed"})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("add_review_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.Response{Status: "error", Message: "internal error"})
	}

	review := models.Review{
		ProductID:  product.ID,
		CustomerID: customer.ID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	if err := h.DB.WithContext(ctx).Create(&review).Error; err != nil {
		l.Error("add_review_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.Response{Status: "error", Message: "internal error"})
	}

	l.Info("add_review_success", "product_id", product.ID, "rating", req.Rating)
	return c.JSON(http.StatusCreated, review)
}

// customerFor resolves the profile row for a user, creating a minimal one if
// registration predates explicit profile creation.
func (h *ReviewHandler) customerFor(c echo.Context, userID uint) (*models.Customer, error) {
	ctx := c.Request().Context()

	var user models.User
	if err := h.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}

	customer := models.Customer{UserID: &user.ID, Name: user.Username}
	if err := h.DB.WithContext(ctx).
		Where(models.Customer{UserID: &user.ID}).
		FirstOrCreate(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}
