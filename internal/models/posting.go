package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Posting is a seller's product listing. SellerID is set at creation and
// never changes. Deleting a posting flips Active to false; documents are
// never removed.
type Posting struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SellerID    primitive.ObjectID `bson:"sellerId" json:"sellerId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	Category    string             `bson:"category" json:"category"`
	Images      []string           `bson:"images" json:"images"`
	Active      bool               `bson:"active" json:"active"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// PostingWithSeller carries the seller identity joined into list and get
// responses.
type PostingWithSeller struct {
	Posting
	Seller *SellerSummary `json:"seller,omitempty"`
}
