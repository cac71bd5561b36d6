package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is an order's position in its delivery lifecycle.
type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "pending"
	OrderStatusReadyForDelivery OrderStatus = "ready_for_delivery"
	OrderStatusCompleted        OrderStatus = "completed"
	OrderStatusCancelled        OrderStatus = "cancelled"
)

// orderTransitions encodes the one-way progression
// pending -> ready_for_delivery -> completed. Cancellation is reachable from
// either non-terminal state and is absorbing; completed is terminal. There is
// no path backwards.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:          {OrderStatusReadyForDelivery, OrderStatusCancelled},
	OrderStatusReadyForDelivery: {OrderStatusCompleted, OrderStatusCancelled},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusReadyForDelivery, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status may advance to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// Order is a buyer's purchase of a single posting. TotalPrice is computed
// from the posting's price at creation time and never recomputed.
type Order struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BuyerID    primitive.ObjectID `bson:"buyerId" json:"buyerId"`
	PostingID  primitive.ObjectID `bson:"postingId" json:"postingId"`
	Status     OrderStatus        `bson:"status" json:"status"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	TotalPrice float64            `bson:"totalPrice" json:"totalPrice"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// OrderPostingSummary is the posting subset joined into order listings.
type OrderPostingSummary struct {
	ID     primitive.ObjectID `json:"id"`
	Title  string             `json:"title"`
	Price  float64            `json:"price"`
	Images []string           `json:"images,omitempty"`
}

// OrderWithDetails carries joined posting and buyer identity for listings.
type OrderWithDetails struct {
	Order
	Posting *OrderPostingSummary `json:"posting,omitempty"`
	Buyer   *BuyerSummary        `json:"buyer,omitempty"`
}
