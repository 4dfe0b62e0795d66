package controllers

import (
	"context"
	"net/http"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/services"
	"github.com/b2bconnect/commerce-backend/services/common/auth"
	apperrors "github.com/b2bconnect/commerce-backend/services/common/errors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The handlers depend on these narrow views of the services package so they
// can be tested with mocks.

type CartService interface {
	Get(ctx context.Context, buyerID primitive.ObjectID) (*models.CartView, error)
	AddItem(ctx context.Context, buyerID primitive.ObjectID, in services.AddItemInput) (*models.CartView, error)
	RemoveItem(ctx context.Context, buyerID, productID primitive.ObjectID) (*models.CartView, error)
	Clear(ctx context.Context, buyerID primitive.ObjectID) error
	IsEmpty(ctx context.Context, buyerID primitive.ObjectID) (bool, error)
}

type OrderEngine interface {
	Checkout(ctx context.Context, buyerID primitive.ObjectID) (*models.CommitResult, error)
	CommitDraft(ctx context.Context, callerID, orderID primitive.ObjectID) (*models.CommitResult, error)
	CreateOrder(ctx context.Context, sellerID primitive.ObjectID, req models.CreateOrderRequest) (*models.CommitResult, error)
	Reject(ctx context.Context, callerID, notificationID primitive.ObjectID) (*models.Notification, error)
	ListSales(ctx context.Context, sellerID primitive.ObjectID) ([]models.SaleView, error)
	ListPurchases(ctx context.Context, buyerID primitive.ObjectID) ([]models.PurchaseView, error)
	GetLedgerEntry(ctx context.Context, callerID, id primitive.ObjectID) (*models.LedgerEntry, error)
}

type DraftService interface {
	CreateFromCart(ctx context.Context, buyerID primitive.ObjectID) (*models.Order, error)
	Get(ctx context.Context, callerID, orderID primitive.ObjectID) (*models.DraftView, error)
	Update(ctx context.Context, callerID, orderID primitive.ObjectID, lines []models.LineItemRequest) (*models.DraftView, error)
}

type NotificationService interface {
	Create(ctx context.Context, callerID primitive.ObjectID, req models.CreateNotificationRequest) (*models.Notification, error)
	List(ctx context.Context, callerID primitive.ObjectID, filter string) ([]models.NotificationView, error)
	MarkRead(ctx context.Context, callerID, id primitive.ObjectID) (*models.Notification, error)
	UnreadCount(ctx context.Context, callerID primitive.ObjectID) (int64, error)
	GetByOrder(ctx context.Context, callerID, orderID primitive.ObjectID) ([]models.NotificationView, error)
}

type CatalogService interface {
	ResolveCatalog(ctx context.Context, sellerID, buyerID primitive.ObjectID) ([]models.PricedProduct, error)
}

type CustomerService interface {
	Add(ctx context.Context, businessID primitive.ObjectID, req models.AddCustomerRequest) (*models.Customer, error)
}

type InvoiceService interface {
	GetLink(ctx context.Context, callerID, orderID primitive.ObjectID) (*services.InvoiceLink, error)
}

type SessionService interface {
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
}

// bindError reports a payload that failed binding or validation
func bindError(err error) error {
	return apperrors.New(http.StatusBadRequest, apperrors.CategoryValidation, "Invalid request payload", err)
}

// pathID parses a hex id route parameter
func pathID(c *gin.Context, name, field string) (primitive.ObjectID, error) {
	return services.ParseObjectID(c.Param(name), field)
}
