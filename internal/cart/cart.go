package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mystor/storefront/internal/models"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

// Cart maps canonical product keys to quantities.
type Cart map[string]int

func (ct Cart) ItemCount() int {
	total := 0
	for _, q := range ct {
		total += q
	}
	return total
}

// CanonicalKey normalizes a product identifier token to its canonical string
// form. Callers hand identifiers over as JSON numbers, numeric strings or
// plain ints; without one canonical key the same product would occupy two
// cart entries under different representations.
func CanonicalKey(token any) (string, error) {
	switch v := token.(type) {
	case string:
		s := strings.TrimSpace(v)
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return "", fmt.Errorf("product id %q is not numeric: %w", v, ErrValidation)
		}
		return strconv.FormatUint(n, 10), nil
	case float64:
		if v < 0 || v != math.Trunc(v) {
			return "", fmt.Errorf("product id %v is not a positive integer: %w", v, ErrValidation)
		}
		return strconv.FormatUint(uint64(v), 10), nil
	case json.Number:
		return CanonicalKey(v.String())
	case int:
		if v < 0 {
			return "", fmt.Errorf("product id %d is negative: %w", v, ErrValidation)
		}
		return strconv.FormatUint(uint64(v), 10), nil
	case int64:
		if v < 0 {
			return "", fmt.Errorf("product id %d is negative: %w", v, ErrValidation)
		}
		return strconv.FormatUint(uint64(v), 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case nil:
		return "", fmt.Errorf("product id is required: %w", ErrValidation)
	default:
		return "", fmt.Errorf("product id has unsupported type %T: %w", token, ErrValidation)
	}
}

// Store persists one cart row per session. Reads and read-modify-writes for
// the same session are serialized through a per-session mutex; different
// sessions never contend.
type Store struct {
	DB *gorm.DB

	locks sync.Map // session id -> *sync.Mutex
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) lock(sessionID string) func() {
	v, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Get returns the cart for a session, empty if none exists.
func (s *Store) Get(ctx context.Context, sessionID string) (Cart, error) {
	var row models.Cart
	err := s.DB.WithContext(ctx).Where("session_id = ?", sessionID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Cart{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeItems(row.Items), nil
}

// AddItem folds quantity into the session's entry for the product, creating
// the cart row lazily. The product must exist and quantity must be at least 1;
// validation failures leave the cart untouched. The updated row is written
// before AddItem returns so a Get within the same request observes it.
func (s *Store) AddItem(ctx context.Context, sessionID string, productID any, quantity int) (Cart, error) {
	key, err := CanonicalKey(productID)
	if err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrValidation)
	}
	if err := s.productExists(ctx, key); err != nil {
		return nil, err
	}

	unlock := s.lock(sessionID)
	defer unlock()

	row, err := s.loadOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	items := decodeItems(row.Items)
	items[key] += quantity

	if err := s.flush(ctx, row, items); err != nil {
		return nil, err
	}
	return items, nil
}

// RemoveItem deletes the entry for the product. A missing entry or a missing
// cart is a no-op, not an error; the second return reports whether anything
// was removed.
func (s *Store) RemoveItem(ctx context.Context, sessionID string, productID any) (Cart, bool, error) {
	key, err := CanonicalKey(productID)
	if err != nil {
		return nil, false, err
	}

	unlock := s.lock(sessionID)
	defer unlock()

	var row models.Cart
	err = s.DB.WithContext(ctx).Where("session_id = ?", sessionID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Cart{}, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	items := decodeItems(row.Items)
	if _, ok := items[key]; !ok {
		return items, false, nil
	}
	delete(items, key)

	if err := s.flush(ctx, &row, items); err != nil {
		return nil, false, err
	}
	return items, true, nil
}

func (s *Store) productExists(ctx context.Context, key string) error {
	id, _ := strconv.ParseUint(key, 10, 64)
	var p models.Product
	err := s.DB.WithContext(ctx).Select("id").First(&p, uint(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("product %s: %w", key, ErrNotFound)
	}
	return err
}

// loadOrCreate is idempotent: two near-simultaneous first requests for the
// same session race on the unique session_id index and the loser re-reads
// the winner's row.
func (s *Store) loadOrCreate(ctx context.Context, sessionID string) (*models.Cart, error) {
	var row models.Cart
	err := s.DB.WithContext(ctx).Where(models.Cart{SessionID: sessionID}).FirstOrCreate(&row).Error
	if err != nil {
		if ferr := s.DB.WithContext(ctx).Where("session_id = ?", sessionID).First(&row).Error; ferr != nil {
			return nil, err
		}
	}
	return &row, nil
}

func (s *Store) flush(ctx context.Context, row *models.Cart, items Cart) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	row.Items = data
	row.UpdatedAt = time.Now().UTC()
	return s.DB.WithContext(ctx).Save(row).Error
}

// decodeItems tolerates legacy blobs whose keys were written under mixed
// representations ("7" vs "007"): every key is re-normalized and duplicate
// canonical keys merge by summing.
func decodeItems(raw []byte) Cart {
	items := Cart{}
	if len(raw) == 0 {
		return items
	}

	var stored map[string]int
	if err := json.Unmarshal(raw, &stored); err != nil {
		return items
	}
	for k, q := range stored {
		if q <= 0 {
			continue
		}
		key, err := CanonicalKey(k)
		if err != nil {
			continue
		}
		items[key] += q
	}
	return items
}
