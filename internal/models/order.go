package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses. pending → processing → shipped → delivered, with cancelled
// reachable from pending/processing/shipped. delivered and cancelled are final.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Payment methods and payment states.
const (
	PaymentPrepayment = "prepayment"
	PaymentCOD        = "cod"

	PaymentStatusPaid     = "paid"
	PaymentStatusPending  = "pending"
	PaymentStatusRefunded = "refunded"
)

// Refund states.
const (
	RefundPending   = "pending"
	RefundProcessed = "processed"
)

// OrderItem is a denormalized snapshot of a product line at checkout time.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
	Size      string             `bson:"size,omitempty" json:"size,omitempty"`
	Color     string             `bson:"color,omitempty" json:"color,omitempty"`
}

// OrderShipping is the address snapshot the order ships to.
type OrderShipping struct {
	Title  string `bson:"title" json:"title"`
	Detail string `bson:"detail" json:"detail"`
	Note   string `bson:"note,omitempty" json:"note,omitempty"`
}

// OrderPayment carries the payment method and its settlement state. Card
// numbers are reduced to the last four digits before anything is stored.
type OrderPayment struct {
	Method    string `bson:"method" json:"method"`
	CardLast4 string `bson:"cardLast4,omitempty" json:"cardLast4,omitempty"`
	Status    string `bson:"status" json:"status"`
}

// OrderTotals are computed at checkout and stored verbatim.
type OrderTotals struct {
	Subtotal float64 `bson:"subtotal" json:"subtotal"`
	Discount float64 `bson:"discount" json:"discount"`
	Shipping float64 `bson:"shipping" json:"shipping"`
	Tax      float64 `bson:"tax" json:"tax"`
	Total    float64 `bson:"total" json:"total"`
}

// OrderRefund exists only on cancelled prepaid orders.
type OrderRefund struct {
	Amount        float64    `bson:"amount" json:"amount"`
	Status        string     `bson:"status" json:"status"`
	RequestedAt   time.Time  `bson:"requestedAt" json:"requestedAt"`
	ProcessedAt   *time.Time `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
	EstimatedDays string     `bson:"estimatedDays" json:"estimatedDays"`
}

// Order defines the persisted order document. Version guards concurrent status
// updates: mutations filter on it and bump it.
type Order struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber string             `bson:"orderNumber" json:"orderNumber"`
	OwnerID     primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	Items       []OrderItem        `bson:"items" json:"items"`
	Shipping    OrderShipping      `bson:"shipping" json:"shipping"`
	Payment     OrderPayment       `bson:"payment" json:"payment"`
	Totals      OrderTotals        `bson:"totals" json:"totals"`
	Status      string             `bson:"status" json:"status"`
	Refund      *OrderRefund       `bson:"refund,omitempty" json:"refund,omitempty"`
	Version     int64              `bson:"version" json:"version"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
