package wishlist

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mystor/storefront/internal/cart"
	"github.com/mystor/storefront/internal/models"
)

var ErrNotFound = errors.New("not found")

// Service owns the per-user wishlist and its one cross-component operation:
// folding the wishlist into the session cart.
type Service struct {
	DB   *gorm.DB
	Cart *cart.Store
}

func (s *Service) List(ctx context.Context, userID uint) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := s.DB.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// Toggle inserts the pair unless it is already present. The second return is
// true when a new entry was added, false when the pair already existed (a
// benign status, not an error).
func (s *Service) Toggle(ctx context.Context, userID, productID uint) (bool, error) {
	var p models.Product
	err := s.DB.WithContext(ctx).Select("id").First(&p, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}
	if err != nil {
		return false, err
	}

	var existing models.WishlistItem
	err = s.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	item := models.WishlistItem{UserID: userID, ProductID: productID}
	if err := s.DB.WithContext(ctx).Create(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Remove deletes the pair; absent is a no-op. The bool reports whether a row
// was actually removed.
func (s *Service) Remove(ctx context.Context, userID, productID uint) (bool, error) {
	res := s.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{})
	return res.RowsAffected > 0, res.Error
}

// MoveToCart folds every wishlist entry into the session cart at quantity 1
// (additive with existing entries), then clears the wishlist. Best effort:
// folds already applied are not rolled back if the clear fails, and a repeat
// call is a no-op because the wishlist is empty after the first one. Entries
// whose product no longer exists are dropped without being folded.
func (s *Service) MoveToCart(ctx context.Context, userID uint, sessionID string) (moved int, totalItems int, err error) {
	var items []models.WishlistItem
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&items).Error; err != nil {
		return 0, 0, err
	}

	for _, it := range items {
		_, err := s.Cart.AddItem(ctx, sessionID, it.ProductID, 1)
		if err != nil {
			if errors.Is(err, cart.ErrNotFound) {
				continue
			}
			return moved, 0, err
		}
		moved++
	}

	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.WishlistItem{}).Error; err != nil {
		return moved, 0, fmt.Errorf("wishlist clear after fold: %w", err)
	}

	ct, err := s.Cart.Get(ctx, sessionID)
	if err != nil {
		return moved, 0, err
	}
	return moved, ct.ItemCount(), nil
}
