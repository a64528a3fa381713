package handlers

import (
	"errors"
	"time"

	"storefront/internal/models"
)

// refundEstimate is what the payment provider quotes for prepaid refunds.
const refundEstimate = "3-5 business days"

var (
	errInvalidStatus     = errors.New("unknown order status")
	errFinalStatus       = errors.New("order is in a final status")
	errInvalidTransition = errors.New("transition not allowed")
)

var validStatuses = map[string]bool{
	models.StatusPending:    true,
	models.StatusProcessing: true,
	models.StatusShipped:    true,
	models.StatusDelivered:  true,
	models.StatusCancelled:  true,
}

var finalStatuses = map[string]bool{
	models.StatusDelivered: true,
	models.StatusCancelled: true,
}

// The single transition table. Role only decides which column applies; the
// guard itself applies to every caller, owner and staff alike.
var ownerTransitions = map[string][]string{
	models.StatusPending:    {models.StatusCancelled},
	models.StatusProcessing: {models.StatusCancelled},
	models.StatusShipped:    {models.StatusCancelled},
}

var staffTransitions = map[string][]string{
	models.StatusPending:    {models.StatusProcessing, models.StatusCancelled},
	models.StatusProcessing: {models.StatusShipped, models.StatusCancelled},
	models.StatusShipped:    {models.StatusDelivered, models.StatusCancelled},
}

// canTransition validates a status change. A same-status update is a no-op
// and allowed.
func canTransition(current, next string, staff bool) error {
	if !validStatuses[next] {
		return errInvalidStatus
	}
	if current == next {
		return nil
	}
	if finalStatuses[current] {
		return errFinalStatus
	}

	table := ownerTransitions
	if staff {
		table = staffTransitions
	}
	for _, allowed := range table[current] {
		if allowed == next {
			return nil
		}
	}
	return errInvalidTransition
}

// refundFor returns the refund to attach when an order is cancelled: present
// only for prepaid orders, for the full total.
func refundFor(order models.Order, now time.Time) *models.OrderRefund {
	if order.Payment.Method != models.PaymentPrepayment {
		return nil
	}
	return &models.OrderRefund{
		Amount:        order.Totals.Total,
		Status:        models.RefundPending,
		RequestedAt:   now,
		EstimatedDays: refundEstimate,
	}
}
