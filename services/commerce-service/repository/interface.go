package repository

import (
	"context"
	"errors"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when a lookup by key matches no document
	ErrNotFound = errors.New("document not found")
	// ErrInsufficientStock is returned when a conditional stock decrement fails
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrNothingDeleted is returned by conditional deletes that matched nothing
	ErrNothingDeleted = errors.New("nothing deleted")
	// ErrDuplicate is returned when a unique index rejects a write
	ErrDuplicate = errors.New("duplicate key")
)

// Transactor runs fn inside one multi-document transaction. The ctx passed to
// fn must be handed to every repository call that belongs to the transaction.
// A non-nil error from fn aborts every write made through that ctx.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type BusinessRepo interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Business, error)
	FindSummaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.BusinessSummary, error)
	AppendSale(ctx context.Context, sellerID, saleID primitive.ObjectID) error
	AppendPurchase(ctx context.Context, buyerID, purchaseID primitive.ObjectID) error
	AppendCustomer(ctx context.Context, businessID, customerID primitive.ObjectID) error
	SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error
}

type InventoryRepo interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Inventory, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Inventory, error)
	ListByBusiness(ctx context.Context, businessID primitive.ObjectID) ([]models.Inventory, error)
	// Decrement lowers qty by n only if the item belongs to sellerID and has
	// at least n units.
	Decrement(ctx context.Context, sellerID, productID primitive.ObjectID, n int) error
}

type CustomerRepo interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Customer, error)
	FindByName(ctx context.Context, businessID primitive.ObjectID, name string) (*models.Customer, error)
	Insert(ctx context.Context, c *models.Customer) error
	// FindOrCreate returns the customer named name under businessID, creating
	// it when missing. created reports whether a new record was written.
	FindOrCreate(ctx context.Context, businessID primitive.ObjectID, name string) (c *models.Customer, created bool, err error)
}

type CartRepo interface {
	FindByBuyer(ctx context.Context, buyerID primitive.ObjectID) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	DeleteByBuyer(ctx context.Context, buyerID primitive.ObjectID) error
}

type OrderRepo interface {
	Insert(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	UpdateItems(ctx context.Context, id primitive.ObjectID, items []models.LineItem, total float64) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type SaleRepo interface {
	Insert(ctx context.Context, s *models.Sale) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Sale, error)
	ListBySeller(ctx context.Context, sellerID primitive.ObjectID) ([]models.Sale, error)
}

type PurchaseRepo interface {
	Insert(ctx context.Context, p *models.Purchase) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Purchase, error)
	ListByBuyer(ctx context.Context, buyerID primitive.ObjectID) ([]models.Purchase, error)
}

// NotificationQuery narrows a notification listing. Zero fields are ignored.
type NotificationQuery struct {
	Recipient  *primitive.ObjectID
	Initiator  *primitive.ObjectID
	RefType    string
	Type       string
	UnreadOnly bool
}

type NotificationRepo interface {
	Insert(ctx context.Context, n *models.Notification) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	// FindByOrderRef returns the notification that opened the draft orderID:
	// the oldest one still referencing it as an Order
	FindByOrderRef(ctx context.Context, orderID primitive.ObjectID) (*models.Notification, error)
	// RetargetOrderRef points every notification still referencing the draft
	// orderID at ref. A nil ref clears the reference.
	RetargetOrderRef(ctx context.Context, orderID primitive.ObjectID, ref *models.OrderRef) (int64, error)
	// Replace overwrites a notification in place
	Replace(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, q NotificationQuery) ([]models.Notification, error)
	ListByOrder(ctx context.Context, orderID, participant primitive.ObjectID) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, recipient primitive.ObjectID) (*models.Notification, error)
	CountUnread(ctx context.Context, recipient primitive.ObjectID) (int64, error)
}

type PriceRepo interface {
	// Upsert writes every entry keyed on (business, customer, product)
	Upsert(ctx context.Context, entries []models.PersonalizedPrice) error
	Find(ctx context.Context, businessID, customerID, productID primitive.ObjectID) (*models.PersonalizedPrice, error)
	FindForProducts(ctx context.Context, businessID, customerID primitive.ObjectID, productIDs []primitive.ObjectID) ([]models.PersonalizedPrice, error)
}

type InvoiceRepo interface {
	// FindByOrderID matches the sale or the purchase id of an invoice
	FindByOrderID(ctx context.Context, orderID primitive.ObjectID) (*models.Invoice, error)
}

// Store bundles every repository with the transaction runner they share
type Store interface {
	Transactor
	Businesses() BusinessRepo
	Inventory() InventoryRepo
	Customers() CustomerRepo
	Carts() CartRepo
	Orders() OrderRepo
	Sales() SaleRepo
	Purchases() PurchaseRepo
	Notifications() NotificationRepo
	Prices() PriceRepo
	Invoices() InvoiceRepo
}
