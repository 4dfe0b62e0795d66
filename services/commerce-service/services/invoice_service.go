package services

import (
	"context"
	"errors"
	"time"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/repository"
	apperrors "github.com/b2bconnect/commerce-backend/services/common/errors"
	"github.com/b2bconnect/commerce-backend/services/common/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// InvoiceLinkExpiry is how long a presigned invoice URL stays valid
const InvoiceLinkExpiry = time.Hour

// ObjectStorage hands out temporary read URLs for stored objects
type ObjectStorage interface {
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// InvoiceLink is a short lived download link for an invoice PDF
type InvoiceLink struct {
	InvoiceID string    `json:"invoice_id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type InvoiceService struct {
	store   repository.Store
	storage ObjectStorage
	clock   Clock
}

func NewInvoiceService(store repository.Store, storage ObjectStorage) *InvoiceService {
	return &InvoiceService{store: store, storage: storage, clock: time.Now}
}

// isParty reports whether callerID sold or bought under orderID
func (s *InvoiceService) isParty(ctx context.Context, callerID, orderID primitive.ObjectID) (bool, error) {
	sale, err := s.store.Sales().FindByID(ctx, orderID)
	if err == nil {
		return sale.Seller == callerID || sale.Buyer == callerID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	purchase, err := s.store.Purchases().FindByID(ctx, orderID)
	if err == nil {
		return purchase.Buyer == callerID || purchase.Seller == callerID, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// GetLink returns a presigned URL for the invoice of a sale or purchase
func (s *InvoiceService) GetLink(ctx context.Context, callerID, orderID primitive.ObjectID) (*InvoiceLink, error) {
	if s.storage == nil {
		return nil, apperrors.External("Invoice storage is not configured", nil)
	}

	ok, err := s.isParty(ctx, callerID, orderID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load order", err)
	}
	if !ok {
		return nil, apperrors.NotFound("Order not found")
	}

	inv, err := s.store.Invoices().FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, lookupError(err, "Invoice")
	}

	url, err := s.storage.PresignGet(ctx, inv.S3Key, InvoiceLinkExpiry)
	if err != nil {
		logger.Error(ctx, "Failed to presign invoice", err, zap.String("invoice_id", inv.InvoiceID))
		return nil, apperrors.External("Failed to generate invoice link", err)
	}
	return &InvoiceLink{
		InvoiceID: inv.InvoiceID,
		URL:       url,
		ExpiresAt: s.clock().UTC().Add(InvoiceLinkExpiry),
	}, nil
}
