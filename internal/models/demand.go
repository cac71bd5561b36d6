package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DemandStatus is a demand's lifecycle state. Active demands accept seller
// responses; fulfilled and cancelled are both terminal.
type DemandStatus string

const (
	DemandStatusActive    DemandStatus = "active"
	DemandStatusFulfilled DemandStatus = "fulfilled"
	DemandStatusCancelled DemandStatus = "cancelled"
)

// Valid reports whether s is a known demand status.
func (s DemandStatus) Valid() bool {
	switch s {
	case DemandStatusActive, DemandStatusFulfilled, DemandStatusCancelled:
		return true
	}
	return false
}

// Coordinates is a delivery location point.
type Coordinates struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// DemandResponse is a seller's reply to a demand. Responses are immutable
// once added and a demand holds at most one per seller.
type DemandResponse struct {
	SellerID    primitive.ObjectID `bson:"sellerId" json:"sellerId"`
	Message     string             `bson:"message" json:"message"`
	Price       *float64           `bson:"price,omitempty" json:"price,omitempty"`
	ContactInfo string             `bson:"contactInfo,omitempty" json:"contactInfo,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`

	// Seller is joined into responses for the owning buyer's views.
	Seller *SellerSummary `bson:"-" json:"seller,omitempty"`
}

// Demand is a buyer's request for a product, open to seller responses while
// active. Only the owning buyer may change its status.
type Demand struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BuyerID          primitive.ObjectID `bson:"buyerId" json:"buyerId"`
	ProductType      string             `bson:"productType" json:"productType"`
	ProductName      string             `bson:"productName" json:"productName"`
	Quantity         string             `bson:"quantity" json:"quantity"`
	DeliveryDate     string             `bson:"deliveryDate" json:"deliveryDate"`
	DeliveryLocation string             `bson:"deliveryLocation" json:"deliveryLocation"`
	Coordinates      Coordinates        `bson:"coordinates" json:"coordinates"`
	Status           DemandStatus       `bson:"status" json:"status"`
	Responses        []DemandResponse   `bson:"responses" json:"responses"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`

	// Buyer is joined into list and get responses.
	Buyer *BuyerSummary `bson:"-" json:"buyer,omitempty"`
}

// HasResponseFrom reports whether the seller already responded.
func (d *Demand) HasResponseFrom(sellerID primitive.ObjectID) bool {
	for _, r := range d.Responses {
		if r.SellerID == sellerID {
			return true
		}
	}
	return false
}
