package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storefront/internal/models"
)

func TestCanTransitionStaff(t *testing.T) {
	cases := []struct {
		name    string
		current string
		next    string
		wantErr error
	}{
		{"pending to processing", models.StatusPending, models.StatusProcessing, nil},
		{"processing to shipped", models.StatusProcessing, models.StatusShipped, nil},
		{"shipped to delivered", models.StatusShipped, models.StatusDelivered, nil},
		{"pending to cancelled", models.StatusPending, models.StatusCancelled, nil},
		{"processing to cancelled", models.StatusProcessing, models.StatusCancelled, nil},
		{"shipped to cancelled", models.StatusShipped, models.StatusCancelled, nil},
		{"no skipping to shipped", models.StatusPending, models.StatusShipped, errInvalidTransition},
		{"no skipping to delivered", models.StatusPending, models.StatusDelivered, errInvalidTransition},
		{"no going backwards", models.StatusShipped, models.StatusProcessing, errInvalidTransition},
		{"delivered is final", models.StatusDelivered, models.StatusCancelled, errFinalStatus},
		{"cancelled is final", models.StatusCancelled, models.StatusPending, errFinalStatus},
		{"unknown next status", models.StatusPending, "refunded", errInvalidStatus},
		{"same status is a no-op", models.StatusProcessing, models.StatusProcessing, nil},
		{"same final status is a no-op", models.StatusDelivered, models.StatusDelivered, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := canTransition(tc.current, tc.next, true)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestCanTransitionOwner(t *testing.T) {
	// Owners may only cancel, and only before delivery.
	for _, current := range []string{models.StatusPending, models.StatusProcessing, models.StatusShipped} {
		require.NoError(t, canTransition(current, models.StatusCancelled, false), current)
	}

	require.ErrorIs(t, canTransition(models.StatusDelivered, models.StatusCancelled, false), errFinalStatus)
	require.ErrorIs(t, canTransition(models.StatusPending, models.StatusProcessing, false), errInvalidTransition)
	require.ErrorIs(t, canTransition(models.StatusProcessing, models.StatusShipped, false), errInvalidTransition)
	require.ErrorIs(t, canTransition(models.StatusShipped, models.StatusDelivered, false), errInvalidTransition)
}

func TestRefundForPrepaidOrder(t *testing.T) {
	now := time.Now()
	order := models.Order{
		Payment: models.OrderPayment{Method: models.PaymentPrepayment, Status: models.PaymentStatusPaid},
		Totals:  models.OrderTotals{Subtotal: 90, Shipping: 10, Total: 100},
	}

	refund := refundFor(order, now)
	require.NotNil(t, refund)
	require.Equal(t, 100.0, refund.Amount)
	require.Equal(t, models.RefundPending, refund.Status)
	require.Equal(t, refundEstimate, refund.EstimatedDays)
	require.Equal(t, now, refund.RequestedAt)
	require.Nil(t, refund.ProcessedAt)
}

func TestRefundForCODOrder(t *testing.T) {
	order := models.Order{
		Payment: models.OrderPayment{Method: models.PaymentCOD, Status: models.PaymentStatusPending},
		Totals:  models.OrderTotals{Total: 50},
	}

	require.Nil(t, refundFor(order, time.Now()))
}
