package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Feedback is a buyer's rating of a completed order, at most one per order.
// SellerID is denormalized from the order's posting so the seller's aggregate
// rating can be recomputed with a single aggregation.
type Feedback struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID   primitive.ObjectID `bson:"orderId" json:"orderId"`
	SellerID  primitive.ObjectID `bson:"sellerId" json:"sellerId"`
	BuyerID   primitive.ObjectID `bson:"buyerId" json:"buyerId"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
