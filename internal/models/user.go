// Package models defines the marketplace's persisted document shapes and the
// shared error taxonomy.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserType distinguishes the two sides of the marketplace.
type UserType string

const (
	UserTypeBuyer  UserType = "buyer"
	UserTypeSeller UserType = "seller"
)

// Valid reports whether t is a known user type.
func (t UserType) Valid() bool {
	return t == UserTypeBuyer || t == UserTypeSeller
}

// BuyerProfile holds buyer-specific account fields.
type BuyerProfile struct {
	PreferredCategories []string `bson:"preferredCategories" json:"preferredCategories"`
	DeliveryAddress     string   `bson:"deliveryAddress" json:"deliveryAddress"`
}

// SellerProfile holds seller-specific account fields. Rating is the mean of
// all feedback left on the seller's completed orders and is recomputed when
// feedback is created.
type SellerProfile struct {
	BusinessName        string  `bson:"businessName" json:"businessName"`
	BusinessType        string  `bson:"businessType" json:"businessType"`
	BusinessDescription string  `bson:"businessDescription" json:"businessDescription"`
	BusinessImage       string  `bson:"businessImage" json:"businessImage"`
	BusinessLicense     string  `bson:"businessLicense" json:"businessLicense"`
	BankAccount         string  `bson:"bankAccount" json:"bankAccount"`
	ContactInfo         string  `bson:"contactInfo" json:"contactInfo"`
	Rating              float64 `bson:"rating" json:"rating"`
}

// User is an account document. Phone is the unique login key. The password
// hash never leaves the server. Accounts are deactivated, never hard-deleted.
type User struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name          string               `bson:"name" json:"name"`
	Phone         string               `bson:"phone" json:"phone"`
	PasswordHash  string               `bson:"passwordHash" json:"-"`
	UserType      UserType             `bson:"userType" json:"userType"`
	ProfileImage  string               `bson:"profileImage" json:"profileImage"`
	Address       string               `bson:"address" json:"address"`
	BuyerProfile  *BuyerProfile        `bson:"buyerProfile,omitempty" json:"buyerProfile,omitempty"`
	SellerProfile *SellerProfile       `bson:"sellerProfile,omitempty" json:"sellerProfile,omitempty"`
	Favorites     []primitive.ObjectID `bson:"favorites,omitempty" json:"-"`
	IsActive      bool                 `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
}

// PublicUser is the client-facing projection of a User.
type PublicUser struct {
	ID            primitive.ObjectID `json:"id"`
	Name          string             `json:"name"`
	Phone         string             `json:"phone"`
	UserType      UserType           `json:"userType"`
	ProfileImage  string             `json:"profileImage"`
	Address       string             `json:"address"`
	BuyerProfile  *BuyerProfile      `json:"buyerProfile,omitempty"`
	SellerProfile *SellerProfile     `json:"sellerProfile,omitempty"`
}

// Public returns the basic projection without role sub-profiles, as returned
// by registration.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Name:         u.Name,
		Phone:        u.Phone,
		UserType:     u.UserType,
		ProfileImage: u.ProfileImage,
		Address:      u.Address,
	}
}

// PublicWithProfile returns the projection including the role-specific
// sub-profile, as returned by login.
func (u *User) PublicWithProfile() PublicUser {
	p := u.Public()
	switch u.UserType {
	case UserTypeBuyer:
		p.BuyerProfile = u.BuyerProfile
	case UserTypeSeller:
		p.SellerProfile = u.SellerProfile
	}
	return p
}

// SellerSummary is the seller identity joined into postings, seller orders
// and demand responses.
type SellerSummary struct {
	ID           primitive.ObjectID `json:"id"`
	Name         string             `json:"name"`
	Phone        string             `json:"phone,omitempty"`
	BusinessName string             `json:"businessName,omitempty"`
	ContactInfo  string             `json:"contactInfo,omitempty"`
	Rating       float64            `json:"rating"`
}

// SellerSummaryOf extracts the joined seller identity from a user record.
func SellerSummaryOf(u *User) *SellerSummary {
	s := &SellerSummary{ID: u.ID, Name: u.Name, Phone: u.Phone}
	if u.SellerProfile != nil {
		s.BusinessName = u.SellerProfile.BusinessName
		s.ContactInfo = u.SellerProfile.ContactInfo
		s.Rating = u.SellerProfile.Rating
	}
	return s
}

// BuyerSummary is the buyer identity joined into demands and seller orders.
type BuyerSummary struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Phone string             `json:"phone"`
}

// BuyerSummaryOf extracts the joined buyer identity from a user record.
func BuyerSummaryOf(u *User) *BuyerSummary {
	return &BuyerSummary{ID: u.ID, Name: u.Name, Phone: u.Phone}
}
