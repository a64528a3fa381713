package guestcart

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

const keyPrefix = "guestcart:"

// Store keeps unauthenticated carts in Redis under a random token with a TTL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// NewToken mints the opaque cart token handed to the guest client.
func NewToken() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}

// Get returns the guest cart, or an empty one when the token is unknown.
func (s *Store) Get(ctx context.Context, token string) ([]models.GuestCartItem, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return []models.GuestCartItem{}, nil
	}
	if err != nil {
		return nil, err
	}

	var items []models.GuestCartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Save stores the guest cart and refreshes its TTL.
func (s *Store) Save(ctx context.Context, token string, items []models.GuestCartItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, keyPrefix+token, raw, s.ttl).Err()
}

// Delete discards the guest cart, typically after a merge.
func (s *Store) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, keyPrefix+token).Err()
}

// AddItem upserts one line into the guest cart: an existing
// productId/size/color line gets its quantity bumped.
func AddItem(items []models.GuestCartItem, item models.GuestCartItem) []models.GuestCartItem {
	for i := range items {
		if items[i].ProductID == item.ProductID && items[i].Size == item.Size && items[i].Color == item.Color {
			items[i].Quantity += item.Quantity
			return items
		}
	}
	return append(items, item)
}

// MergeItems folds a guest cart into a backend cart. Matching
// productId/size/color lines sum their quantities; new lines are appended
// with an empty line id for the caller to fill. Guest lines with an invalid
// product id are skipped.
func MergeItems(existing []models.CartItem, guest []models.GuestCartItem) []models.CartItem {
	merged := make([]models.CartItem, len(existing))
	copy(merged, existing)

guest:
	for _, g := range guest {
		if g.Quantity <= 0 {
			continue
		}
		productID, err := primitive.ObjectIDFromHex(g.ProductID)
		if err != nil {
			continue
		}

		for i := range merged {
			if merged[i].ProductID == productID && merged[i].Size == g.Size && merged[i].Color == g.Color {
				merged[i].Quantity += g.Quantity
				continue guest
			}
		}

		merged = append(merged, models.CartItem{
			ProductID: productID,
			Name:      g.Name,
			Price:     g.Price,
			Image:     g.Image,
			Size:      g.Size,
			Color:     g.Color,
			Quantity:  g.Quantity,
		})
	}
	return merged
}
