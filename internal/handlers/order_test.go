package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func validCheckout() createOrderRequest {
	return createOrderRequest{
		Items: []orderItemRequest{
			{ProductID: primitive.NewObjectID().Hex(), Name: "Linen Shirt", Price: 49.90, Quantity: 2, Size: "M"},
		},
		Shipping: &orderShippingRequest{Title: "Home", Detail: "12 Elm Street"},
		Payment:  &orderPaymentRequest{Method: models.PaymentPrepayment, CardNumber: "4242 4242 4242 4242"},
		Totals:   &orderTotalsRequest{Subtotal: 99.80, Shipping: 5, Total: 104.80},
	}
}

func TestBuildOrderPrepayment(t *testing.T) {
	order, err := buildOrderFromRequest(validCheckout())
	require.NoError(t, err)

	require.Equal(t, models.StatusPending, order.Status)
	require.Equal(t, models.PaymentStatusPaid, order.Payment.Status)
	require.Equal(t, "4242", order.Payment.CardLast4)
	require.Equal(t, int64(1), order.Version)
	require.Nil(t, order.Refund)
	require.Len(t, order.Items, 1)
	require.Equal(t, 2, order.Items[0].Quantity)
}

func TestBuildOrderCashOnDelivery(t *testing.T) {
	req := validCheckout()
	req.Payment = &orderPaymentRequest{Method: models.PaymentCOD}

	order, err := buildOrderFromRequest(req)
	require.NoError(t, err)

	require.Equal(t, models.PaymentStatusPending, order.Payment.Status)
	require.Empty(t, order.Payment.CardLast4)
}

func TestBuildOrderRejectsBadPayloads(t *testing.T) {
	t.Run("empty items", func(t *testing.T) {
		req := validCheckout()
		req.Items = nil
		_, err := buildOrderFromRequest(req)
		require.Error(t, err)
	})

	t.Run("unknown payment method", func(t *testing.T) {
		req := validCheckout()
		req.Payment.Method = "wire"
		_, err := buildOrderFromRequest(req)
		require.Error(t, err)
	})

	t.Run("negative total", func(t *testing.T) {
		req := validCheckout()
		req.Totals.Total = -1
		_, err := buildOrderFromRequest(req)
		require.Error(t, err)
	})

	t.Run("zero quantity", func(t *testing.T) {
		req := validCheckout()
		req.Items[0].Quantity = 0
		_, err := buildOrderFromRequest(req)
		require.Error(t, err)
	})

	t.Run("bad product id", func(t *testing.T) {
		req := validCheckout()
		req.Items[0].ProductID = "not-a-hex-id"
		_, err := buildOrderFromRequest(req)
		require.Error(t, err)
	})
}

func TestCardLast4(t *testing.T) {
	require.Equal(t, "4242", cardLast4("4242 4242 4242 4242"))
	require.Equal(t, "1111", cardLast4("4111-1111-1111-1111"))
	require.Equal(t, "", cardLast4("123"))
	require.Equal(t, "", cardLast4(""))
}

func TestNewOrderNumberShape(t *testing.T) {
	first, err := newOrderNumber()
	require.NoError(t, err)
	require.Regexp(t, `^ORD-\d+-[0-9A-F]{8}$`, first)

	second, err := newOrderNumber()
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
