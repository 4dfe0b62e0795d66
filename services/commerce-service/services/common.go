package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/repository"
	apperrors "github.com/b2bconnect/commerce-backend/services/common/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

// TransactionRecorder counts committed and failed order transactions
type TransactionRecorder interface {
	ObserveTransaction(flow, outcome string)
}

// Transaction flows and outcomes reported to the recorder
const (
	FlowCheckout    = "checkout"
	FlowDraft       = "draft"
	FlowDraftUpdate = "draft_update"
	FlowCommitDraft = "commit_draft"
	FlowCreateOrder = "create_order"
	FlowReject      = "reject"

	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

type noopRecorder struct{}

func (noopRecorder) ObserveTransaction(string, string) {}

// EventPublisher delivers order events after a commit. Implementations must
// not fail the caller; delivery problems are logged.
type EventPublisher interface {
	Publish(ctx context.Context, event models.OrderEvent)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, models.OrderEvent) {}

// txnError turns whatever escaped a transaction into an application error.
// Errors already categorized pass through; the rest become TRANSACTION.
func txnError(err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}
	return apperrors.Transaction("Transaction aborted, no changes were saved", err)
}

// lookupError maps a repository read error for the named entity
func lookupError(err error, entity string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(entity + " not found")
	}
	return apperrors.Internal("Failed to load "+strings.ToLower(entity), err)
}

func outcomeOf(err error) string {
	if err != nil {
		return OutcomeFailed
	}
	return OutcomeCommitted
}

// ParseObjectID validates a hex object id supplied by a client
func ParseObjectID(raw, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperrors.Validation("Invalid " + field)
	}
	return id, nil
}

// validateLines checks client supplied line items and converts them
func validateLines(lines []models.LineItemRequest) ([]models.LineItem, error) {
	if len(lines) == 0 {
		return nil, apperrors.Validation("At least one product is required")
	}
	seen := make(map[primitive.ObjectID]bool, len(lines))
	items := make([]models.LineItem, 0, len(lines))
	for _, l := range lines {
		pid, err := ParseObjectID(l.Product, "product id")
		if err != nil {
			return nil, err
		}
		if l.Quantity <= 0 {
			return nil, apperrors.Validation("Quantity must be greater than zero")
		}
		if l.Price < 0 {
			return nil, apperrors.Validation("Price cannot be negative")
		}
		if seen[pid] {
			return nil, apperrors.Validation("Each product may appear only once")
		}
		seen[pid] = true
		items = append(items, models.LineItem{Product: pid, Quantity: l.Quantity, Price: l.Price})
	}
	return items, nil
}

func productIDs(items []models.LineItem) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.Product)
	}
	return ids
}

// ensureSellerOwns verifies every product exists in the seller's inventory
func ensureSellerOwns(ctx context.Context, inv repository.InventoryRepo, sellerID primitive.ObjectID, items []models.LineItem) error {
	found, err := inv.FindByIDs(ctx, productIDs(items))
	if err != nil {
		return apperrors.Internal("Failed to load products", err)
	}
	for _, it := range items {
		p, ok := found[it.Product]
		if !ok {
			return apperrors.NotFound("Product not found: " + it.Product.Hex())
		}
		if p.Business != sellerID {
			return apperrors.Validation("Product " + it.Product.Hex() + " does not belong to the seller")
		}
	}
	return nil
}

// populateLines resolves product summaries for display
func populateLines(ctx context.Context, inv repository.InventoryRepo, items []models.LineItem) ([]models.PopulatedLine, error) {
	found, err := inv.FindByIDs(ctx, productIDs(items))
	if err != nil {
		return nil, err
	}
	lines := make([]models.PopulatedLine, 0, len(items))
	for _, it := range items {
		summary := models.ProductSummary{ID: it.Product}
		if p, ok := found[it.Product]; ok {
			summary = p.Summary()
		}
		lines = append(lines, models.PopulatedLine{
			Product:  summary,
			Quantity: it.Quantity,
			Price:    it.Price,
			Subtotal: it.Price * float64(it.Quantity),
		})
	}
	return lines, nil
}

func summaryPtr(m map[primitive.ObjectID]models.BusinessSummary, id primitive.ObjectID) *models.BusinessSummary {
	if s, ok := m[id]; ok {
		return &s
	}
	return nil
}
