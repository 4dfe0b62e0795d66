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

// Ledger entry kinds returned by GetLedgerEntry
const (
	EntrySale     = "sale"
	EntryPurchase = "purchase"
)

// Engine commits carts, drafts and manual orders into Sale/Purchase pairs.
// Every commit path runs as one transaction.
type Engine struct {
	store    repository.Store
	ledger   *PriceLedger
	recorder TransactionRecorder
	events   EventPublisher
	clock    Clock
}

type EngineOption func(*Engine)

func WithRecorder(r TransactionRecorder) EngineOption {
	return func(e *Engine) { e.recorder = r }
}

func WithEvents(p EventPublisher) EngineOption {
	return func(e *Engine) { e.events = p }
}

func WithClock(c Clock) EngineOption {
	return func(e *Engine) { e.clock = c }
}

func NewEngine(store repository.Store, ledger *PriceLedger, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    store,
		ledger:   ledger,
		recorder: noopRecorder{},
		events:   noopPublisher{},
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// commitPlan describes one Sale (and optional mirrored Purchase) to write.
// consume removes the source document; after runs the ledger and
// notification writes. Both run inside the same transaction.
type commitPlan struct {
	seller          primitive.ObjectID
	buyer           primitive.ObjectID
	buyerType       string
	items           []models.LineItem
	transactionType string
	status          string
	paymentMethod   string

	consume func(ctx context.Context) error
	after   func(ctx context.Context, sale *models.Sale, purchase *models.Purchase) error
}

// commit issues the writes of plan in order: stock, Sale, Purchase,
// back-references, source removal, then the after hook. It must be called
// from inside a transaction.
func (e *Engine) commit(ctx context.Context, plan commitPlan) (*models.Sale, *models.Purchase, error) {
	for _, it := range plan.items {
		err := e.store.Inventory().Decrement(ctx, plan.seller, it.Product, it.Quantity)
		switch {
		case errors.Is(err, repository.ErrInsufficientStock):
			return nil, nil, apperrors.InsufficientStock("Insufficient stock for product " + it.Product.Hex())
		case errors.Is(err, repository.ErrNotFound):
			return nil, nil, apperrors.NotFound("Product " + it.Product.Hex() + " not found in seller inventory")
		case err != nil:
			return nil, nil, err
		}
	}

	now := e.clock().UTC()
	sale := &models.Sale{
		ID:              primitive.NewObjectID(),
		Seller:          plan.seller,
		Buyer:           plan.buyer,
		BuyerType:       plan.buyerType,
		Products:        models.CloneItems(plan.items),
		TotalAmount:     models.Total(plan.items),
		TransactionType: plan.transactionType,
		Status:          plan.status,
		PaymentMethod:   plan.paymentMethod,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := e.store.Sales().Insert(ctx, sale); err != nil {
		return nil, nil, err
	}

	var purchase *models.Purchase
	if plan.buyerType == models.BuyerTypeBusiness {
		purchase = models.MirrorPurchase(sale)
		if err := e.store.Purchases().Insert(ctx, purchase); err != nil {
			return nil, nil, err
		}
	}

	if err := e.store.Businesses().AppendSale(ctx, plan.seller, sale.ID); err != nil {
		return nil, nil, err
	}
	if purchase != nil {
		if err := e.store.Businesses().AppendPurchase(ctx, plan.buyer, purchase.ID); err != nil {
			return nil, nil, err
		}
	}

	if plan.consume != nil {
		if err := plan.consume(ctx); err != nil {
			return nil, nil, err
		}
	}
	if plan.after != nil {
		if err := plan.after(ctx, sale, purchase); err != nil {
			return nil, nil, err
		}
	}
	return sale, purchase, nil
}

func commitResult(sale *models.Sale, purchase *models.Purchase) *models.CommitResult {
	res := &models.CommitResult{SaleID: sale.ID, BuyerType: sale.BuyerType, Total: sale.TotalAmount}
	if purchase != nil {
		id := purchase.ID
		res.PurchaseID = &id
	}
	return res
}

func (e *Engine) publish(ctx context.Context, event string, sale *models.Sale, purchase *models.Purchase, orderID string) {
	ev := models.OrderEvent{
		Event:     event,
		SellerID:  sale.Seller.Hex(),
		BuyerID:   sale.Buyer.Hex(),
		BuyerType: sale.BuyerType,
		OrderID:   orderID,
		SaleID:    sale.ID.Hex(),
		Items:     sale.Products,
		Total:     sale.TotalAmount,
		Timestamp: e.clock().UTC(),
	}
	if purchase != nil {
		ev.PurchaseID = purchase.ID.Hex()
	}
	e.events.Publish(ctx, ev)
}

// shadowFor finds or creates the seller's Customer record for a buyer
// business and links it to the seller.
func (e *Engine) shadowFor(ctx context.Context, sellerID, buyerID primitive.ObjectID) (*models.Customer, error) {
	buyer, err := e.store.Businesses().FindByID(ctx, buyerID)
	if err != nil {
		return nil, lookupError(err, "Buyer business")
	}
	shadow, created, err := e.store.Customers().FindOrCreate(ctx, sellerID, buyer.BusinessName)
	if err != nil {
		return nil, err
	}
	if created {
		if err := e.store.Businesses().AppendCustomer(ctx, sellerID, shadow.ID); err != nil {
			return nil, err
		}
	}
	return shadow, nil
}

// Checkout commits the buyer's whole cart as a paid online UPI sale
func (e *Engine) Checkout(ctx context.Context, buyerID primitive.ObjectID) (*models.CommitResult, error) {
	cart, err := e.store.Carts().FindByBuyer(ctx, buyerID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && (cart.IsEmpty() || cart.Seller == nil)) {
		return nil, apperrors.Validation("Cart is empty")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load cart", err)
	}

	var sale *models.Sale
	var purchase *models.Purchase
	err = e.store.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := e.store.Carts().FindByBuyer(ctx, buyerID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.Conflict("Cart was already placed")
		}
		if err != nil {
			return err
		}
		if current.IsEmpty() || current.Seller == nil {
			return apperrors.Conflict("Cart was emptied")
		}

		sale, purchase, err = e.commit(ctx, commitPlan{
			seller:          *current.Seller,
			buyer:           buyerID,
			buyerType:       models.BuyerTypeBusiness,
			items:           current.Items,
			transactionType: models.TransactionOnline,
			status:          models.StatusPaid,
			paymentMethod:   models.PaymentUPI,
			consume: func(ctx context.Context) error {
				if err := e.store.Carts().DeleteByBuyer(ctx, buyerID); err != nil {
					if errors.Is(err, repository.ErrNothingDeleted) {
						return apperrors.Conflict("Cart was already placed")
					}
					return err
				}
				return nil
			},
		})
		return err
	})
	e.recorder.ObserveTransaction(FlowCheckout, outcomeOf(err))
	if err != nil {
		logger.Error(ctx, "Checkout failed", err, zap.String("buyer", buyerID.Hex()))
		return nil, txnError(err)
	}

	logger.Info(ctx, "Cart checked out",
		zap.String("sale_id", sale.ID.Hex()),
		zap.String("purchase_id", purchase.ID.Hex()),
		zap.Float64("total", sale.TotalAmount))
	e.publish(ctx, models.EventCheckedOut, sale, purchase, "")
	return commitResult(sale, purchase), nil
}

// CommitDraft confirms a draft. Only the draft's seller may commit. The
// originating notification is flipped to ORDER_CONFIRMED and retargeted at
// the new Purchase.
func (e *Engine) CommitDraft(ctx context.Context, callerID, orderID primitive.ObjectID) (*models.CommitResult, error) {
	order, err := e.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, lookupError(err, "Order")
	}
	if !order.IsParticipant(callerID) {
		return nil, apperrors.NotFound("Order not found")
	}
	if order.Business != callerID {
		return nil, apperrors.Forbidden("Only the seller can confirm this order")
	}
	if len(order.Products) == 0 {
		return nil, apperrors.Validation("Order has no products")
	}

	var sale *models.Sale
	var purchase *models.Purchase
	err = e.store.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := e.store.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.Conflict("Order was already processed")
		}
		if err != nil {
			return err
		}

		sale, purchase, err = e.commit(ctx, commitPlan{
			seller:          current.Business,
			buyer:           current.Customer,
			buyerType:       models.BuyerTypeBusiness,
			items:           current.Products,
			transactionType: models.TransactionOnline,
			status:          models.StatusPaid,
			paymentMethod:   models.PaymentUPI,
			consume: func(ctx context.Context) error {
				if err := e.store.Orders().Delete(ctx, current.ID); err != nil {
					if errors.Is(err, repository.ErrNothingDeleted) {
						return apperrors.Conflict("Order was already processed")
					}
					return err
				}
				return nil
			},
			after: func(ctx context.Context, sale *models.Sale, purchase *models.Purchase) error {
				shadow, err := e.shadowFor(ctx, current.Business, current.Customer)
				if err != nil {
					return err
				}
				if err := e.ledger.Record(ctx, current.Business, shadow.ID, current.Products); err != nil {
					return err
				}
				return e.confirmNotification(ctx, current, purchase)
			},
		})
		return err
	})
	e.recorder.ObserveTransaction(FlowCommitDraft, outcomeOf(err))
	if err != nil {
		logger.Error(ctx, "Draft commit failed", err, zap.String("order_id", orderID.Hex()))
		return nil, txnError(err)
	}

	logger.Info(ctx, "Draft order confirmed",
		zap.String("order_id", orderID.Hex()),
		zap.String("sale_id", sale.ID.Hex()),
		zap.String("purchase_id", purchase.ID.Hex()),
		zap.Float64("total", sale.TotalAmount))
	e.publish(ctx, models.EventConfirmed, sale, purchase, orderID.Hex())
	return commitResult(sale, purchase), nil
}

// confirmNotification flips the draft's originating notification in place
// and moves any later ones for the draft onto the new Purchase. A draft whose
// notification is gone gets a fresh ORDER_CONFIRMED one.
func (e *Engine) confirmNotification(ctx context.Context, order *models.Order, purchase *models.Purchase) error {
	ref := &models.OrderRef{RefType: models.RefPurchase, ID: purchase.ID}

	note, err := e.store.Notifications().FindByOrderRef(ctx, order.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		err = e.store.Notifications().Insert(ctx, &models.Notification{
			Initiator: order.Business,
			Recipient: order.Customer,
			Order:     ref,
			Type:      models.NotificationOrderConfirmed,
		})
	case err == nil:
		note.Swap()
		note.Order = ref
		note.Type = models.NotificationOrderConfirmed
		note.IsRead = false
		err = e.store.Notifications().Replace(ctx, note)
	}
	if err != nil {
		return err
	}

	_, err = e.store.Notifications().RetargetOrderRef(ctx, order.ID, ref)
	return err
}

// manualBuyer is the resolved counterparty of a manual order
type manualBuyer struct {
	id        primitive.ObjectID
	buyerType string
}

func (e *Engine) resolveManualBuyer(ctx context.Context, sellerID, customerID primitive.ObjectID) (*manualBuyer, error) {
	_, err := e.store.Businesses().FindByID(ctx, customerID)
	if err == nil {
		return &manualBuyer{id: customerID, buyerType: models.BuyerTypeBusiness}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("Failed to load buyer", err)
	}

	c, err := e.store.Customers().FindByID(ctx, customerID)
	if err != nil {
		return nil, lookupError(err, "Customer")
	}
	if c.Business != sellerID {
		return nil, apperrors.NotFound("Customer not found")
	}
	return &manualBuyer{id: c.ID, buyerType: models.BuyerTypeCustomer}, nil
}

func validateOrderMeta(req models.CreateOrderRequest) error {
	if !models.ValidTransactionType(req.TransactionType) {
		return apperrors.Validation("transaction_type must be Online or Offline")
	}
	if !models.ValidStatus(req.Status) {
		return apperrors.Validation("status must be Paid or Unpaid")
	}
	if req.PaymentMethod != "" && !models.ValidPaymentMethod(req.PaymentMethod) {
		return apperrors.Validation("payment_method must be one of UPI, Cash, Bank Transfer, Credit")
	}
	if req.Status == models.StatusPaid && req.PaymentMethod == "" {
		return apperrors.Validation("payment_method is required for paid orders")
	}
	return nil
}

// CreateOrder records a manual sale entered by the seller. A registered
// business buyer also gets the mirrored Purchase; a walk-in customer gets
// the Sale only.
func (e *Engine) CreateOrder(ctx context.Context, sellerID primitive.ObjectID, req models.CreateOrderRequest) (*models.CommitResult, error) {
	if err := validateOrderMeta(req); err != nil {
		return nil, err
	}
	customerID, err := ParseObjectID(req.CustomerID, "customer id")
	if err != nil {
		return nil, err
	}
	if customerID == sellerID {
		return nil, apperrors.Validation("You cannot create an order for yourself")
	}
	items, err := validateLines(req.Products)
	if err != nil {
		return nil, err
	}
	if err := ensureSellerOwns(ctx, e.store.Inventory(), sellerID, items); err != nil {
		return nil, err
	}
	buyer, err := e.resolveManualBuyer(ctx, sellerID, customerID)
	if err != nil {
		return nil, err
	}

	var sale *models.Sale
	var purchase *models.Purchase
	err = e.store.WithTransaction(ctx, func(ctx context.Context) error {
		sale, purchase, err = e.commit(ctx, commitPlan{
			seller:          sellerID,
			buyer:           buyer.id,
			buyerType:       buyer.buyerType,
			items:           items,
			transactionType: req.TransactionType,
			status:          req.Status,
			paymentMethod:   req.PaymentMethod,
			after: func(ctx context.Context, _ *models.Sale, _ *models.Purchase) error {
				ledgerCustomer := buyer.id
				if buyer.buyerType == models.BuyerTypeBusiness {
					shadow, err := e.shadowFor(ctx, sellerID, buyer.id)
					if err != nil {
						return err
					}
					ledgerCustomer = shadow.ID
				}
				return e.ledger.Record(ctx, sellerID, ledgerCustomer, items)
			},
		})
		return err
	})
	e.recorder.ObserveTransaction(FlowCreateOrder, outcomeOf(err))
	if err != nil {
		logger.Error(ctx, "Manual order failed", err, zap.String("seller", sellerID.Hex()), zap.String("customer", customerID.Hex()))
		return nil, txnError(err)
	}

	logger.Info(ctx, "Manual order created",
		zap.String("sale_id", sale.ID.Hex()),
		zap.String("buyer_type", sale.BuyerType),
		zap.Float64("total", sale.TotalAmount))
	e.publish(ctx, models.EventCreated, sale, purchase, "")
	return commitResult(sale, purchase), nil
}

// Reject declines a draft through its notification. The notification is
// flipped to ORDER_REJECTED and loses its reference, as does every other
// notification about the draft; the draft is deleted.
func (e *Engine) Reject(ctx context.Context, callerID, notificationID primitive.ObjectID) (*models.Notification, error) {
	var note *models.Notification
	var order *models.Order
	err := e.store.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		note, err = e.store.Notifications().FindByID(ctx, notificationID)
		if err != nil {
			return lookupError(err, "Notification")
		}
		if !note.IsParticipant(callerID) {
			return apperrors.NotFound("Notification not found")
		}
		if note.Order == nil || note.Order.RefType != models.RefOrder {
			return apperrors.Conflict("Order was already processed")
		}

		order, err = e.store.Orders().FindByID(ctx, note.Order.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.Conflict("Order was already processed")
		}
		if err != nil {
			return err
		}
		if err := e.store.Orders().Delete(ctx, order.ID); err != nil {
			if errors.Is(err, repository.ErrNothingDeleted) {
				return apperrors.Conflict("Order was already processed")
			}
			return err
		}

		note.Swap()
		note.Order = nil
		note.Type = models.NotificationOrderRejected
		note.IsRead = false
		if err := e.store.Notifications().Replace(ctx, note); err != nil {
			return err
		}
		_, err = e.store.Notifications().RetargetOrderRef(ctx, order.ID, nil)
		return err
	})
	e.recorder.ObserveTransaction(FlowReject, rejectOutcome(err))
	if err != nil {
		return nil, txnError(err)
	}

	logger.Info(ctx, "Draft order rejected",
		zap.String("order_id", order.ID.Hex()),
		zap.String("notification_id", note.ID.Hex()))
	e.events.Publish(ctx, models.OrderEvent{
		Event:     models.EventRejected,
		SellerID:  order.Business.Hex(),
		BuyerID:   order.Customer.Hex(),
		BuyerType: models.BuyerTypeBusiness,
		OrderID:   order.ID.Hex(),
		Items:     order.Products,
		Total:     order.TotalAmount,
		Timestamp: e.clock().UTC(),
	})
	return note, nil
}

func rejectOutcome(err error) string {
	if err != nil {
		return OutcomeFailed
	}
	return OutcomeRejected
}

// ListSales returns the seller's sales, newest first, with each buyer
// resolved through its buyer type.
func (e *Engine) ListSales(ctx context.Context, sellerID primitive.ObjectID) ([]models.SaleView, error) {
	sales, err := e.store.Sales().ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load sales", err)
	}
	return e.saleViews(ctx, sales)
}

func (e *Engine) saleViews(ctx context.Context, sales []models.Sale) ([]models.SaleView, error) {
	businessIDs := []primitive.ObjectID{}
	customerIDs := []primitive.ObjectID{}
	for _, s := range sales {
		businessIDs = append(businessIDs, s.Seller)
		if s.BuyerType == models.BuyerTypeCustomer {
			customerIDs = append(customerIDs, s.Buyer)
		} else {
			businessIDs = append(businessIDs, s.Buyer)
		}
	}

	businesses, err := e.store.Businesses().FindSummaries(ctx, businessIDs)
	if err != nil {
		return nil, apperrors.Internal("Failed to load businesses", err)
	}
	customers := map[primitive.ObjectID]models.Customer{}
	if len(customerIDs) > 0 {
		if customers, err = e.store.Customers().FindByIDs(ctx, customerIDs); err != nil {
			return nil, apperrors.Internal("Failed to load customers", err)
		}
	}

	views := make([]models.SaleView, 0, len(sales))
	for _, s := range sales {
		v := models.SaleView{Sale: s, SellerDetail: summaryPtr(businesses, s.Seller)}
		switch s.BuyerType {
		case models.BuyerTypeCustomer:
			if c, ok := customers[s.Buyer]; ok {
				v.BuyerDetails = &models.PartyView{Type: models.BuyerTypeCustomer, Customer: &c}
			}
		default:
			if b := summaryPtr(businesses, s.Buyer); b != nil {
				v.BuyerDetails = &models.PartyView{Type: models.BuyerTypeBusiness, Business: b}
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// ListPurchases returns the buyer's purchases, newest first
func (e *Engine) ListPurchases(ctx context.Context, buyerID primitive.ObjectID) ([]models.PurchaseView, error) {
	purchases, err := e.store.Purchases().ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load purchases", err)
	}
	ids := make([]primitive.ObjectID, 0, len(purchases))
	for _, p := range purchases {
		ids = append(ids, p.Seller)
	}
	sellers, err := e.store.Businesses().FindSummaries(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("Failed to load sellers", err)
	}

	views := make([]models.PurchaseView, 0, len(purchases))
	for _, p := range purchases {
		views = append(views, models.PurchaseView{Purchase: p, SellerDetails: summaryPtr(sellers, p.Seller)})
	}
	return views, nil
}

// GetLedgerEntry looks id up as a Sale first and then as a Purchase. The
// caller must be a party to the entry.
func (e *Engine) GetLedgerEntry(ctx context.Context, callerID, id primitive.ObjectID) (*models.LedgerEntry, error) {
	sale, err := e.store.Sales().FindByID(ctx, id)
	switch {
	case err == nil:
		if sale.Seller != callerID && !(sale.BuyerType == models.BuyerTypeBusiness && sale.Buyer == callerID) {
			return nil, apperrors.NotFound("Order not found")
		}
		views, err := e.saleViews(ctx, []models.Sale{*sale})
		if err != nil {
			return nil, err
		}
		return &models.LedgerEntry{Kind: EntrySale, Sale: &views[0]}, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.Internal("Failed to load sale", err)
	}

	purchase, err := e.store.Purchases().FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Order")
	}
	if purchase.Buyer != callerID && purchase.Seller != callerID {
		return nil, apperrors.NotFound("Order not found")
	}
	return &models.LedgerEntry{Kind: EntryPurchase, Purchase: purchase}, nil
}
