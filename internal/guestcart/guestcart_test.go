package guestcart

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func TestNewTokenIsUnique(t *testing.T) {
	first, err := NewToken()
	require.NoError(t, err)
	require.Len(t, first, 32)

	second, err := NewToken()
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestAddItemBumpsMatchingLine(t *testing.T) {
	productID := primitive.NewObjectID().Hex()
	items := []models.GuestCartItem{
		{ProductID: productID, Name: "Linen Shirt", Size: "M", Quantity: 1},
	}

	items = AddItem(items, models.GuestCartItem{ProductID: productID, Name: "Linen Shirt", Size: "M", Quantity: 2})
	require.Len(t, items, 1)
	require.Equal(t, 3, items[0].Quantity)

	// A different size is a separate line.
	items = AddItem(items, models.GuestCartItem{ProductID: productID, Name: "Linen Shirt", Size: "L", Quantity: 1})
	require.Len(t, items, 2)
}

func TestMergeItemsSumsQuantities(t *testing.T) {
	shared := primitive.NewObjectID()
	onlyGuest := primitive.NewObjectID()

	existing := []models.CartItem{
		{ID: "line-1", ProductID: shared, Name: "Linen Shirt", Size: "M", Quantity: 2},
	}
	guest := []models.GuestCartItem{
		{ProductID: shared.Hex(), Name: "Linen Shirt", Size: "M", Quantity: 1},
		{ProductID: onlyGuest.Hex(), Name: "Wool Socks", Quantity: 3},
	}

	merged := MergeItems(existing, guest)
	require.Len(t, merged, 2)

	require.Equal(t, "line-1", merged[0].ID)
	require.Equal(t, 3, merged[0].Quantity)

	require.Empty(t, merged[1].ID)
	require.Equal(t, onlyGuest, merged[1].ProductID)
	require.Equal(t, 3, merged[1].Quantity)
}

func TestMergeItemsSkipsInvalidGuestLines(t *testing.T) {
	existing := []models.CartItem{
		{ID: "line-1", ProductID: primitive.NewObjectID(), Quantity: 1},
	}
	guest := []models.GuestCartItem{
		{ProductID: "not-a-hex-id", Quantity: 2},
		{ProductID: primitive.NewObjectID().Hex(), Quantity: 0},
	}

	merged := MergeItems(existing, guest)
	require.Len(t, merged, 1)
}

func TestMergeItemsDoesNotMutateInput(t *testing.T) {
	productID := primitive.NewObjectID()
	existing := []models.CartItem{
		{ID: "line-1", ProductID: productID, Quantity: 1},
	}
	guest := []models.GuestCartItem{
		{ProductID: productID.Hex(), Quantity: 5},
	}

	_ = MergeItems(existing, guest)
	require.Equal(t, 1, existing[0].Quantity)
}
