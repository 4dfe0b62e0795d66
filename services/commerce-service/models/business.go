package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Business is the tenant root. It acts as seller, buyer, or both.
type Business struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	GSTIN         string               `bson:"gstin,omitempty" json:"gstin,omitempty"`
	BusinessName  string               `bson:"business_name" json:"business_name"`
	OwnerName     string               `bson:"owner_name,omitempty" json:"owner_name,omitempty"`
	Contact       string               `bson:"contact" json:"contact"`
	Location      string               `bson:"location,omitempty" json:"location,omitempty"`
	OwnerImage    string               `bson:"owner_image,omitempty" json:"owner_image,omitempty"`
	BusinessImage string               `bson:"business_image,omitempty" json:"business_image,omitempty"`
	BusinessType  string               `bson:"business_type,omitempty" json:"business_type,omitempty"`
	RefreshToken  string               `bson:"refresh_token,omitempty" json:"-"`
	Customers     []primitive.ObjectID `bson:"customers,omitempty" json:"customers,omitempty"`
	Sales         []primitive.ObjectID `bson:"sales,omitempty" json:"sales,omitempty"`
	Purchases     []primitive.ObjectID `bson:"purchases,omitempty" json:"purchases,omitempty"`
	CreatedAt     time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at" json:"updated_at"`
}

// BusinessSummary is the populated form of a business reference
type BusinessSummary struct {
	ID            primitive.ObjectID `bson:"_id" json:"_id"`
	BusinessName  string             `bson:"business_name" json:"business_name"`
	OwnerName     string             `bson:"owner_name,omitempty" json:"owner_name,omitempty"`
	Contact       string             `bson:"contact,omitempty" json:"contact,omitempty"`
	Location      string             `bson:"location,omitempty" json:"location,omitempty"`
	OwnerImage    string             `bson:"owner_image,omitempty" json:"owner_image,omitempty"`
	BusinessImage string             `bson:"business_image,omitempty" json:"business_image,omitempty"`
}

func (b *Business) Summary() BusinessSummary {
	return BusinessSummary{
		ID:            b.ID,
		BusinessName:  b.BusinessName,
		OwnerName:     b.OwnerName,
		Contact:       b.Contact,
		Location:      b.Location,
		OwnerImage:    b.OwnerImage,
		BusinessImage: b.BusinessImage,
	}
}

// Customer is a counterparty record kept by one business. It is either a
// walk-in customer or the shadow of a registered business, matched by name.
type Customer struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Business  primitive.ObjectID `bson:"business" json:"business"`
	Name      string             `bson:"name" json:"name"`
	Contact   string             `bson:"contact,omitempty" json:"contact,omitempty"`
	Address   string             `bson:"address,omitempty" json:"address,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

type AddCustomerRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Contact string `json:"contact" binding:"omitempty,max=32"`
	Address string `json:"address" binding:"omitempty,max=500"`
}
