package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LineItem is a product, quantity and frozen unit price
type LineItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Price    float64            `bson:"price" json:"price"`
}

// Total returns sum(price * quantity)
func Total(items []LineItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// CloneItems copies a line item slice
func CloneItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

// Cart holds at most one seller's products for one buyer. Seller is set iff
// Items is non-empty.
type Cart struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Buyer     primitive.ObjectID  `bson:"buyer" json:"buyer"`
	Seller    *primitive.ObjectID `bson:"seller" json:"seller"`
	Items     []LineItem          `bson:"items" json:"items"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// AddCartItemRequest adds or replaces a cart line. Price is optional; when
// absent the buyer's resolved price is used.
type AddCartItemRequest struct {
	ProductID string   `json:"product_id" binding:"required,objectid"`
	Quantity  int      `json:"quantity" binding:"required,gt=0"`
	Price     *float64 `json:"price" binding:"omitempty,gte=0"`
}

// PopulatedLine is a line item with its product resolved
type PopulatedLine struct {
	Product  ProductSummary `json:"product"`
	Quantity int            `json:"quantity"`
	Price    float64        `json:"price"`
	Subtotal float64        `json:"subtotal"`
}

// CartView is the populated cart returned to the buyer
type CartView struct {
	ID          primitive.ObjectID `json:"_id"`
	Buyer       primitive.ObjectID `json:"buyer"`
	Seller      *BusinessSummary   `json:"seller"`
	Items       []PopulatedLine    `json:"items"`
	TotalAmount float64            `json:"total_amount"`
	UpdatedAt   *time.Time         `json:"updated_at,omitempty"`
}
