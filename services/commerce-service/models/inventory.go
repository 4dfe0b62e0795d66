package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Inventory is a stock item owned by exactly one business
type Inventory struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Business  primitive.ObjectID `bson:"business" json:"business"`
	Name      string             `bson:"name" json:"name"`
	Qty       int                `bson:"qty" json:"qty"`
	Unit      string             `bson:"unit,omitempty" json:"unit,omitempty"`
	GenPrice  *float64           `bson:"gen_price,omitempty" json:"gen_price,omitempty"`
	Price     *float64           `bson:"price,omitempty" json:"price,omitempty"`
	CGST      *float64           `bson:"cgst,omitempty" json:"cgst,omitempty"`
	SGST      *float64           `bson:"sgst,omitempty" json:"sgst,omitempty"`
	GST       *float64           `bson:"gst,omitempty" json:"gst,omitempty"`
	ImageURL  string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// ProductSummary is the populated form of a product reference
type ProductSummary struct {
	ID       primitive.ObjectID `json:"_id"`
	Name     string             `json:"name"`
	Unit     string             `json:"unit,omitempty"`
	ImageURL string             `json:"image_url,omitempty"`
	GST      *float64           `json:"gst,omitempty"`
}

func (i *Inventory) Summary() ProductSummary {
	return ProductSummary{ID: i.ID, Name: i.Name, Unit: i.Unit, ImageURL: i.ImageURL, GST: i.GST}
}

// Price sources reported with a resolved price
const (
	PriceSourcePersonalized = "personalized"
	PriceSourceGeneral      = "gen_price"
	PriceSourceList         = "price"
)

// PricedProduct is a catalog entry as seen by one buyer
type PricedProduct struct {
	ProductSummary
	Qty         int     `json:"qty"`
	Price       float64 `json:"price"`
	PriceSource string  `json:"price_source"`
}

// PersonalizedPrice is the negotiated price of one product for one customer
// of a business. Unique on (business, customer, product).
type PersonalizedPrice struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Business      primitive.ObjectID `bson:"business" json:"business"`
	Customer      primitive.ObjectID `bson:"customer" json:"customer"`
	Product       primitive.ObjectID `bson:"product" json:"product"`
	Price         float64            `bson:"price" json:"price"`
	EffectiveDate string             `bson:"effective_date" json:"effective_date"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
