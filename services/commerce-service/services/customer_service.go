package services

import (
	"context"
	"errors"
	"strings"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/repository"
	apperrors "github.com/b2bconnect/commerce-backend/services/common/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CustomerService manages a business's walk-in customer book
type CustomerService struct {
	store repository.Store
}

func NewCustomerService(store repository.Store) *CustomerService {
	return &CustomerService{store: store}
}

// Add inserts the customer and links it to the business in one transaction.
// Names are unique per business.
func (s *CustomerService) Add(ctx context.Context, businessID primitive.ObjectID, req models.AddCustomerRequest) (*models.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("Customer name is required")
	}

	c := &models.Customer{
		Business: businessID,
		Name:     name,
		Contact:  strings.TrimSpace(req.Contact),
		Address:  strings.TrimSpace(req.Address),
	}
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.Customers().Insert(ctx, c); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.Conflict("A customer with this name already exists")
			}
			return err
		}
		return s.store.Businesses().AppendCustomer(ctx, businessID, c.ID)
	})
	if err != nil {
		return nil, txnError(err)
	}
	return c, nil
}
