package services

import (
	"context"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/repository"
	apperrors "github.com/b2bconnect/commerce-backend/services/common/errors"
	"github.com/b2bconnect/commerce-backend/services/common/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type NotificationService struct {
	store repository.Store
}

func NewNotificationService(store repository.Store) *NotificationService {
	return &NotificationService{store: store}
}

// Create records a notification from callerID about one of their drafts
func (s *NotificationService) Create(ctx context.Context, callerID primitive.ObjectID, req models.CreateNotificationRequest) (*models.Notification, error) {
	if !models.ValidNotificationType(req.Type) {
		return nil, apperrors.Validation("Invalid notification type")
	}
	recipient, err := ParseObjectID(req.Recipient, "recipient")
	if err != nil {
		return nil, err
	}
	orderID, err := ParseObjectID(req.OrderID, "order id")
	if err != nil {
		return nil, err
	}

	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, lookupError(err, "Order")
	}
	if !order.IsParticipant(callerID) {
		return nil, apperrors.NotFound("Order not found")
	}
	if !order.IsParticipant(recipient) || recipient == callerID {
		return nil, apperrors.Validation("Recipient must be the other party of the order")
	}

	n := &models.Notification{
		Initiator: callerID,
		Recipient: recipient,
		Order:     &models.OrderRef{RefType: models.RefOrder, ID: order.ID},
		Type:      req.Type,
	}
	if err := s.store.Notifications().Insert(ctx, n); err != nil {
		logger.Error(ctx, "Failed to create notification", err, zap.String("order_id", orderID.Hex()))
		return nil, apperrors.Internal("Failed to create notification", err)
	}
	return n, nil
}

// queryFor maps a list filter onto a repository query for callerID
func queryFor(callerID primitive.ObjectID, filter string) (repository.NotificationQuery, error) {
	me := callerID
	q := repository.NotificationQuery{Recipient: &me}
	switch filter {
	case "", models.FilterIncoming:
	case models.FilterOutgoing:
		q.Recipient, q.Initiator = nil, &me
	case models.FilterPurchases:
		q.RefType = models.RefPurchase
	case models.FilterPending:
		q.Type = models.NotificationOrderReceived
	case models.FilterUnread:
		q.UnreadOnly = true
	default:
		return q, apperrors.Validation("Unknown filter: " + filter)
	}
	return q, nil
}

// List returns the caller's notifications for filter, newest first
func (s *NotificationService) List(ctx context.Context, callerID primitive.ObjectID, filter string) ([]models.NotificationView, error) {
	q, err := queryFor(callerID, filter)
	if err != nil {
		return nil, err
	}
	notes, err := s.store.Notifications().List(ctx, q)
	if err != nil {
		return nil, apperrors.Internal("Failed to load notifications", err)
	}
	return s.views(ctx, notes)
}

func (s *NotificationService) views(ctx context.Context, notes []models.Notification) ([]models.NotificationView, error) {
	ids := make([]primitive.ObjectID, 0, 2*len(notes))
	for _, n := range notes {
		ids = append(ids, n.Initiator, n.Recipient)
	}
	parties, err := s.store.Businesses().FindSummaries(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("Failed to load businesses", err)
	}

	out := make([]models.NotificationView, 0, len(notes))
	for _, n := range notes {
		out = append(out, models.NotificationView{
			Notification:     n,
			InitiatorDetails: summaryPtr(parties, n.Initiator),
			RecipientDetails: summaryPtr(parties, n.Recipient),
		})
	}
	return out, nil
}

// MarkRead sets is_read. Repeating the call is harmless.
func (s *NotificationService) MarkRead(ctx context.Context, callerID, id primitive.ObjectID) (*models.Notification, error) {
	n, err := s.store.Notifications().MarkRead(ctx, id, callerID)
	if err != nil {
		return nil, lookupError(err, "Notification")
	}
	return n, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, callerID primitive.ObjectID) (int64, error) {
	count, err := s.store.Notifications().CountUnread(ctx, callerID)
	if err != nil {
		return 0, apperrors.Internal("Failed to count notifications", err)
	}
	return count, nil
}

// GetByOrder matches drafts and purchases alike, limited to notifications
// the caller takes part in.
func (s *NotificationService) GetByOrder(ctx context.Context, callerID, orderID primitive.ObjectID) ([]models.NotificationView, error) {
	notes, err := s.store.Notifications().ListByOrder(ctx, orderID, callerID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load notifications", err)
	}
	if len(notes) == 0 {
		return nil, apperrors.NotFound("No notifications for this order")
	}
	return s.views(ctx, notes)
}
