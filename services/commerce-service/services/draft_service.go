package services

import (
	"context"
	"errors"
	"time"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/repository"
	apperrors "github.com/b2bconnect/commerce-backend/services/common/errors"
	"github.com/b2bconnect/commerce-backend/services/common/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DraftService turns carts into editable draft orders
type DraftService struct {
	store    repository.Store
	ledger   *PriceLedger
	resolver *Resolver
	recorder TransactionRecorder
	events   EventPublisher
	clock    Clock
}

type DraftOption func(*DraftService)

func WithDraftRecorder(r TransactionRecorder) DraftOption {
	return func(s *DraftService) { s.recorder = r }
}

func WithDraftEvents(p EventPublisher) DraftOption {
	return func(s *DraftService) { s.events = p }
}

func NewDraftService(store repository.Store, ledger *PriceLedger, resolver *Resolver, opts ...DraftOption) *DraftService {
	s := &DraftService{
		store:    store,
		ledger:   ledger,
		resolver: resolver,
		recorder: noopRecorder{},
		events:   noopPublisher{},
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateFromCart converts the buyer's cart into a draft addressed to the
// cart's seller. The order, the seller's ORDER_RECEIVED notification and the
// cart removal commit together.
func (s *DraftService) CreateFromCart(ctx context.Context, buyerID primitive.ObjectID) (*models.Order, error) {
	var order *models.Order
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.store.Carts().FindByBuyer(ctx, buyerID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.Validation("Cart is empty")
		}
		if err != nil {
			return err
		}
		if cart.IsEmpty() || cart.Seller == nil {
			return apperrors.Validation("Cart is empty")
		}
		sellerID := *cart.Seller

		order = &models.Order{
			Business:    sellerID,
			Customer:    buyerID,
			Products:    models.CloneItems(cart.Items),
			TotalAmount: models.Total(cart.Items),
		}
		if err := s.store.Orders().Insert(ctx, order); err != nil {
			return err
		}

		note := &models.Notification{
			Initiator: buyerID,
			Recipient: sellerID,
			Order:     &models.OrderRef{RefType: models.RefOrder, ID: order.ID},
			Type:      models.NotificationOrderReceived,
		}
		if err := s.store.Notifications().Insert(ctx, note); err != nil {
			return err
		}

		if err := s.store.Carts().DeleteByBuyer(ctx, buyerID); err != nil {
			if errors.Is(err, repository.ErrNothingDeleted) {
				return apperrors.Conflict("Cart was already placed")
			}
			return err
		}
		return nil
	})
	s.recorder.ObserveTransaction(FlowDraft, outcomeOf(err))
	if err != nil {
		logger.Error(ctx, "Failed to create draft order", err, zap.String("buyer", buyerID.Hex()))
		return nil, txnError(err)
	}

	logger.Info(ctx, "Draft order created",
		zap.String("order_id", order.ID.Hex()),
		zap.String("seller", order.Business.Hex()),
		zap.String("buyer", buyerID.Hex()),
		zap.Float64("total", order.TotalAmount))

	s.events.Publish(ctx, models.OrderEvent{
		Event:     models.EventDrafted,
		SellerID:  order.Business.Hex(),
		BuyerID:   buyerID.Hex(),
		BuyerType: models.BuyerTypeBusiness,
		OrderID:   order.ID.Hex(),
		Items:     order.Products,
		Total:     order.TotalAmount,
		Timestamp: s.clock().UTC(),
	})
	return order, nil
}

// load returns the draft when callerID is one of its parties. Strangers get
// NotFound so draft ids do not leak.
func (s *DraftService) load(ctx context.Context, callerID, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, lookupError(err, "Order")
	}
	if !order.IsParticipant(callerID) {
		return nil, apperrors.NotFound("Order not found")
	}
	return order, nil
}

// Get returns the draft with both parties and its products populated
func (s *DraftService) Get(ctx context.Context, callerID, orderID primitive.ObjectID) (*models.DraftView, error) {
	order, err := s.load(ctx, callerID, orderID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, order)
}

func (s *DraftService) view(ctx context.Context, order *models.Order) (*models.DraftView, error) {
	lines, err := populateLines(ctx, s.store.Inventory(), order.Products)
	if err != nil {
		return nil, apperrors.Internal("Failed to load order products", err)
	}
	parties, err := s.store.Businesses().FindSummaries(ctx, []primitive.ObjectID{order.Business, order.Customer})
	if err != nil {
		return nil, apperrors.Internal("Failed to load order parties", err)
	}
	return &models.DraftView{
		ID:              order.ID,
		Business:        summaryPtr(parties, order.Business),
		Customer:        summaryPtr(parties, order.Customer),
		Products:        lines,
		TotalAmount:     order.TotalAmount,
		TransactionType: order.TransactionType,
		Status:          order.Status,
		PaymentMethod:   order.PaymentMethod,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}, nil
}

// Update replaces the draft's lines and records the edited prices against
// the buyer's customer record under the seller.
func (s *DraftService) Update(ctx context.Context, callerID, orderID primitive.ObjectID, lines []models.LineItemRequest) (*models.DraftView, error) {
	items, err := validateLines(lines)
	if err != nil {
		return nil, err
	}

	var updated *models.Order
	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		order, err := s.load(ctx, callerID, orderID)
		if err != nil {
			return err
		}
		if err := ensureSellerOwns(ctx, s.store.Inventory(), order.Business, items); err != nil {
			return err
		}

		total := models.Total(items)
		if err := s.store.Orders().UpdateItems(ctx, order.ID, items, total); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.Conflict("Order is no longer a draft")
			}
			return err
		}

		shadow, err := s.resolver.customerShadow(ctx, order.Business, order.Customer)
		if err != nil {
			return err
		}
		if shadow == nil {
			logger.Warn(ctx, "No customer record for buyer, skipping price ledger",
				zap.String("order_id", order.ID.Hex()),
				zap.String("seller", order.Business.Hex()),
				zap.String("buyer", order.Customer.Hex()))
		} else if err := s.ledger.Record(ctx, order.Business, shadow.ID, items); err != nil {
			return err
		}

		order.Products = items
		order.TotalAmount = total
		updated = order
		return nil
	})
	s.recorder.ObserveTransaction(FlowDraftUpdate, outcomeOf(err))
	if err != nil {
		logger.Error(ctx, "Failed to update draft order", err, zap.String("order_id", orderID.Hex()))
		return nil, txnError(err)
	}
	return s.view(ctx, updated)
}
