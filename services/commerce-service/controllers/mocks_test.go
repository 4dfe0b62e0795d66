package controllers_test

import (
	"context"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/services"
	"github.com/b2bconnect/commerce-backend/services/common/auth"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MockCarts struct{ mock.Mock }

func (m *MockCarts) Get(ctx context.Context, buyerID primitive.ObjectID) (*models.CartView, error) {
	args := m.Called(ctx, buyerID)
	cart, _ := args.Get(0).(*models.CartView)
	return cart, args.Error(1)
}

func (m *MockCarts) AddItem(ctx context.Context, buyerID primitive.ObjectID, in services.AddItemInput) (*models.CartView, error) {
	args := m.Called(ctx, buyerID, in)
	cart, _ := args.Get(0).(*models.CartView)
	return cart, args.Error(1)
}

func (m *MockCarts) RemoveItem(ctx context.Context, buyerID, productID primitive.ObjectID) (*models.CartView, error) {
	args := m.Called(ctx, buyerID, productID)
	cart, _ := args.Get(0).(*models.CartView)
	return cart, args.Error(1)
}

func (m *MockCarts) Clear(ctx context.Context, buyerID primitive.ObjectID) error {
	return m.Called(ctx, buyerID).Error(0)
}

func (m *MockCarts) IsEmpty(ctx context.Context, buyerID primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, buyerID)
	return args.Bool(0), args.Error(1)
}

type MockEngine struct{ mock.Mock }

func (m *MockEngine) Checkout(ctx context.Context, buyerID primitive.ObjectID) (*models.CommitResult, error) {
	args := m.Called(ctx, buyerID)
	res, _ := args.Get(0).(*models.CommitResult)
	return res, args.Error(1)
}

func (m *MockEngine) CommitDraft(ctx context.Context, callerID, orderID primitive.ObjectID) (*models.CommitResult, error) {
	args := m.Called(ctx, callerID, orderID)
	res, _ := args.Get(0).(*models.CommitResult)
	return res, args.Error(1)
}

func (m *MockEngine) CreateOrder(ctx context.Context, sellerID primitive.ObjectID, req models.CreateOrderRequest) (*models.CommitResult, error) {
	args := m.Called(ctx, sellerID, req)
	res, _ := args.Get(0).(*models.CommitResult)
	return res, args.Error(1)
}

func (m *MockEngine) Reject(ctx context.Context, callerID, notificationID primitive.ObjectID) (*models.Notification, error) {
	args := m.Called(ctx, callerID, notificationID)
	n, _ := args.Get(0).(*models.Notification)
	return n, args.Error(1)
}

func (m *MockEngine) ListSales(ctx context.Context, sellerID primitive.ObjectID) ([]models.SaleView, error) {
	args := m.Called(ctx, sellerID)
	sales, _ := args.Get(0).([]models.SaleView)
	return sales, args.Error(1)
}

func (m *MockEngine) ListPurchases(ctx context.Context, buyerID primitive.ObjectID) ([]models.PurchaseView, error) {
	args := m.Called(ctx, buyerID)
	purchases, _ := args.Get(0).([]models.PurchaseView)
	return purchases, args.Error(1)
}

func (m *MockEngine) GetLedgerEntry(ctx context.Context, callerID, id primitive.ObjectID) (*models.LedgerEntry, error) {
	args := m.Called(ctx, callerID, id)
	entry, _ := args.Get(0).(*models.LedgerEntry)
	return entry, args.Error(1)
}

type MockDrafts struct{ mock.Mock }

func (m *MockDrafts) CreateFromCart(ctx context.Context, buyerID primitive.ObjectID) (*models.Order, error) {
	args := m.Called(ctx, buyerID)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *MockDrafts) Get(ctx context.Context, callerID, orderID primitive.ObjectID) (*models.DraftView, error) {
	args := m.Called(ctx, callerID, orderID)
	v, _ := args.Get(0).(*models.DraftView)
	return v, args.Error(1)
}

func (m *MockDrafts) Update(ctx context.Context, callerID, orderID primitive.ObjectID, lines []models.LineItemRequest) (*models.DraftView, error) {
	args := m.Called(ctx, callerID, orderID, lines)
	v, _ := args.Get(0).(*models.DraftView)
	return v, args.Error(1)
}

type MockNotifications struct{ mock.Mock }

func (m *MockNotifications) Create(ctx context.Context, callerID primitive.ObjectID, req models.CreateNotificationRequest) (*models.Notification, error) {
	args := m.Called(ctx, callerID, req)
	n, _ := args.Get(0).(*models.Notification)
	return n, args.Error(1)
}

func (m *MockNotifications) List(ctx context.Context, callerID primitive.ObjectID, filter string) ([]models.NotificationView, error) {
	args := m.Called(ctx, callerID, filter)
	notes, _ := args.Get(0).([]models.NotificationView)
	return notes, args.Error(1)
}

func (m *MockNotifications) MarkRead(ctx context.Context, callerID, id primitive.ObjectID) (*models.Notification, error) {
	args := m.Called(ctx, callerID, id)
	n, _ := args.Get(0).(*models.Notification)
	return n, args.Error(1)
}

func (m *MockNotifications) UnreadCount(ctx context.Context, callerID primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, callerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotifications) GetByOrder(ctx context.Context, callerID, orderID primitive.ObjectID) ([]models.NotificationView, error) {
	args := m.Called(ctx, callerID, orderID)
	notes, _ := args.Get(0).([]models.NotificationView)
	return notes, args.Error(1)
}

type MockCatalog struct{ mock.Mock }

func (m *MockCatalog) ResolveCatalog(ctx context.Context, sellerID, buyerID primitive.ObjectID) ([]models.PricedProduct, error) {
	args := m.Called(ctx, sellerID, buyerID)
	products, _ := args.Get(0).([]models.PricedProduct)
	return products, args.Error(1)
}

type MockCustomers struct{ mock.Mock }

func (m *MockCustomers) Add(ctx context.Context, businessID primitive.ObjectID, req models.AddCustomerRequest) (*models.Customer, error) {
	args := m.Called(ctx, businessID, req)
	c, _ := args.Get(0).(*models.Customer)
	return c, args.Error(1)
}

type MockInvoices struct{ mock.Mock }

func (m *MockInvoices) GetLink(ctx context.Context, callerID, orderID primitive.ObjectID) (*services.InvoiceLink, error) {
	args := m.Called(ctx, callerID, orderID)
	link, _ := args.Get(0).(*services.InvoiceLink)
	return link, args.Error(1)
}

type MockSessions struct{ mock.Mock }

func (m *MockSessions) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	pair, _ := args.Get(0).(*auth.TokenPair)
	return pair, args.Error(1)
}
