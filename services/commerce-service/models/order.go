package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction metadata enums
const (
	TransactionOnline  = "Online"
	TransactionOffline = "Offline"

	StatusPaid   = "Paid"
	StatusUnpaid = "Unpaid"

	PaymentUPI          = "UPI"
	PaymentCash         = "Cash"
	PaymentBankTransfer = "Bank Transfer"
	PaymentCredit       = "Credit"

	BuyerTypeBusiness = "Business"
	BuyerTypeCustomer = "Customer"
)

func ValidTransactionType(v string) bool {
	return v == TransactionOnline || v == TransactionOffline
}

func ValidStatus(v string) bool {
	return v == StatusPaid || v == StatusUnpaid
}

func ValidPaymentMethod(v string) bool {
	switch v {
	case PaymentUPI, PaymentCash, PaymentBankTransfer, PaymentCredit:
		return true
	}
	return false
}

// Order is an editable draft between a seller (Business) and a buyer
// business (Customer).
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Business        primitive.ObjectID `bson:"business" json:"business"`
	Customer        primitive.ObjectID `bson:"customer" json:"customer"`
	Products        []LineItem         `bson:"products" json:"products"`
	TotalAmount     float64            `bson:"total_amount" json:"total_amount"`
	TransactionType string             `bson:"transaction_type,omitempty" json:"transaction_type,omitempty"`
	Status          string             `bson:"status,omitempty" json:"status,omitempty"`
	PaymentMethod   string             `bson:"payment_method,omitempty" json:"payment_method,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsParticipant reports whether id is the seller or the buyer of the draft
func (o *Order) IsParticipant(id primitive.ObjectID) bool {
	return o.Business == id || o.Customer == id
}

// Sale is the seller's ledger entry. Buyer points at a Business or a
// Customer depending on BuyerType.
type Sale struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Seller          primitive.ObjectID `bson:"seller" json:"seller"`
	Buyer           primitive.ObjectID `bson:"buyer" json:"buyer"`
	BuyerType       string             `bson:"buyer_type" json:"buyer_type"`
	Products        []LineItem         `bson:"products" json:"products"`
	TotalAmount     float64            `bson:"total_amount" json:"total_amount"`
	TransactionType string             `bson:"transaction_type" json:"transaction_type"`
	Status          string             `bson:"status" json:"status"`
	PaymentMethod   string             `bson:"payment_method,omitempty" json:"payment_method,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// Purchase is the buyer's half of a business to business sale
type Purchase struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Buyer           primitive.ObjectID `bson:"buyer" json:"buyer"`
	Seller          primitive.ObjectID `bson:"seller" json:"seller"`
	Products        []LineItem         `bson:"products" json:"products"`
	TotalAmount     float64            `bson:"total_amount" json:"total_amount"`
	TransactionType string             `bson:"transaction_type" json:"transaction_type"`
	Status          string             `bson:"status" json:"status"`
	PaymentMethod   string             `bson:"payment_method,omitempty" json:"payment_method,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// MirrorPurchase builds the buyer side of a business sale
func MirrorPurchase(s *Sale) *Purchase {
	return &Purchase{
		ID:              primitive.NewObjectID(),
		Buyer:           s.Buyer,
		Seller:          s.Seller,
		Products:        CloneItems(s.Products),
		TotalAmount:     s.TotalAmount,
		TransactionType: s.TransactionType,
		Status:          s.Status,
		PaymentMethod:   s.PaymentMethod,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

// Invoice links a committed sale/purchase to its rendered PDF in object storage
type Invoice struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	SaleOrderID     string             `bson:"sale_order_id" json:"sale_order_id"`
	PurchaseOrderID string             `bson:"purchase_order_id,omitempty" json:"purchase_order_id,omitempty"`
	InvoiceID       string             `bson:"invoice_id" json:"invoice_id"`
	S3Key           string             `bson:"s3_key" json:"-"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}

// LineItemRequest is a line as submitted by a client
type LineItemRequest struct {
	Product  string  `json:"product" binding:"required,objectid"`
	Quantity int     `json:"quantity" binding:"required,gt=0"`
	Price    float64 `json:"price" binding:"gte=0"`
}

type UpdateDraftRequest struct {
	Products []LineItemRequest `json:"products" binding:"required,min=1,dive"`
}

type CommitDraftRequest struct {
	OrderID string `json:"order_id" binding:"required,objectid"`
}

// CreateOrderRequest is a manual order entered by the seller
type CreateOrderRequest struct {
	CustomerID      string            `json:"customer_id" binding:"required,objectid"`
	Products        []LineItemRequest `json:"products" binding:"required,min=1,dive"`
	TransactionType string            `json:"transaction_type" binding:"required"`
	Status          string            `json:"status" binding:"required"`
	PaymentMethod   string            `json:"payment_method"`
}

// PartyView is a resolved sale buyer; exactly one of Business/Customer is set
type PartyView struct {
	Type     string           `json:"type"`
	Business *BusinessSummary `json:"business,omitempty"`
	Customer *Customer        `json:"customer,omitempty"`
}

// SaleView is a sale with its buyer resolved through the buyer type
type SaleView struct {
	Sale
	BuyerDetails *PartyView       `json:"buyer_details,omitempty"`
	SellerDetail *BusinessSummary `json:"seller_details,omitempty"`
}

type PurchaseView struct {
	Purchase
	SellerDetails *BusinessSummary `json:"seller_details,omitempty"`
}

// LedgerEntry is either a Sale or a Purchase, looked up by id
type LedgerEntry struct {
	Kind     string    `json:"kind"`
	Sale     *SaleView `json:"sale,omitempty"`
	Purchase *Purchase `json:"purchase,omitempty"`
}

// DraftView is a draft with its parties and products populated
type DraftView struct {
	ID              primitive.ObjectID `json:"_id"`
	Business        *BusinessSummary   `json:"business"`
	Customer        *BusinessSummary   `json:"customer"`
	Products        []PopulatedLine    `json:"products"`
	TotalAmount     float64            `json:"total_amount"`
	TransactionType string             `json:"transaction_type,omitempty"`
	Status          string             `json:"status,omitempty"`
	PaymentMethod   string             `json:"payment_method,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// CommitResult identifies the ledger pair written by a commit
type CommitResult struct {
	SaleID     primitive.ObjectID  `json:"sale_id"`
	PurchaseID *primitive.ObjectID `json:"purchase_id,omitempty"`
	BuyerType  string              `json:"buyer_type"`
	Total      float64             `json:"total_amount"`
}
