package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Collection names
const (
	BusinessesCollection         = "businesses"
	InventoriesCollection        = "inventories"
	CustomersCollection          = "customers"
	CartsCollection              = "carts"
	OrdersCollection             = "orders"
	SalesCollection              = "sales"
	PurchasesCollection          = "purchases"
	NotificationsCollection      = "notifications"
	PersonalizedPricesCollection = "personalized_prices"
	InvoicesCollection           = "invoices"
)

// MongoStore implements Store on a replica-set backed database
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database

	businesses    *BusinessRepository
	inventory     *InventoryRepository
	customers     *CustomerRepository
	carts         *CartRepository
	orders        *OrderRepository
	sales         *SaleRepository
	purchases     *PurchaseRepository
	notifications *NotificationRepository
	prices        *PriceRepository
	invoices      *InvoiceRepository
}

func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{
		client:        client,
		db:            db,
		businesses:    NewBusinessRepository(db),
		inventory:     NewInventoryRepository(db),
		customers:     NewCustomerRepository(db),
		carts:         NewCartRepository(db),
		orders:        NewOrderRepository(db),
		sales:         NewSaleRepository(db),
		purchases:     NewPurchaseRepository(db),
		notifications: NewNotificationRepository(db),
		prices:        NewPriceRepository(db),
		invoices:      NewInvoiceRepository(db),
	}
}

func (s *MongoStore) Businesses() BusinessRepo { return s.businesses }
func (s *MongoStore) Inventory() InventoryRepo { return s.inventory }
func (s *MongoStore) Customers() CustomerRepo { return s.customers }
func (s *MongoStore) Carts() CartRepo { return s.carts }
func (s *MongoStore) Orders() OrderRepo { return s.orders }
func (s *MongoStore) Sales() SaleRepo { return s.sales }
func (s *MongoStore) Purchases() PurchaseRepo { return s.purchases }
func (s *MongoStore) Notifications() NotificationRepo { return s.notifications }
func (s *MongoStore) Prices() PriceRepo { return s.prices }
func (s *MongoStore) Invoices() InvoiceRepo { return s.invoices }

// WithTransaction runs fn in a snapshot/majority transaction. The driver
// retries fn on TransientTransactionError and the commit on
// UnknownTransactionCommitResult, so fn must not have side effects outside
// the database.
func (s *MongoStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(context.Background())

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, txnOpts)
	return err
}

// EnsureIndexes creates the unique keys the order flows rely on
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		BusinessesCollection: {
			{Keys: bson.D{{Key: "contact", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		InventoriesCollection: {
			{Keys: bson.D{{Key: "business", Value: 1}}},
		},
		CustomersCollection: {
			{Keys: bson.D{{Key: "business", Value: 1}, {Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CartsCollection: {
			{Keys: bson.D{{Key: "buyer", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		OrdersCollection: {
			{Keys: bson.D{{Key: "business", Value: 1}}},
			{Keys: bson.D{{Key: "customer", Value: 1}}},
		},
		SalesCollection: {
			{Keys: bson.D{{Key: "seller", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		PurchasesCollection: {
			{Keys: bson.D{{Key: "buyer", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		NotificationsCollection: {
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "order.id", Value: 1}}},
		},
		PersonalizedPricesCollection: {
			{
				Keys:    bson.D{{Key: "business", Value: 1}, {Key: "customer", Value: 1}, {Key: "product", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		InvoicesCollection: {
			{Keys: bson.D{{Key: "sale_order_id", Value: 1}}},
			{Keys: bson.D{{Key: "purchase_order_id", Value: 1}}},
		},
	}

	for coll, idx := range specs {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// notFound maps the driver's no-documents error onto ErrNotFound
func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func duplicate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
