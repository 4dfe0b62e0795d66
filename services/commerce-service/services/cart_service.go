package services

import (
	"context"
	"errors"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/repository"
	apperrors "github.com/b2bconnect/commerce-backend/services/common/errors"
	"github.com/b2bconnect/commerce-backend/services/common/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AddItemInput is a validated cart line request. A nil Price means "use the
// price this buyer would see in the seller's catalog".
type AddItemInput struct {
	ProductID primitive.ObjectID
	Quantity  int
	Price     *float64
}

// CartService owns the single per-buyer cart
type CartService struct {
	store    repository.Store
	resolver *Resolver
}

func NewCartService(store repository.Store, resolver *Resolver) *CartService {
	return &CartService{store: store, resolver: resolver}
}

// Get returns the buyer's cart populated with seller and products. A buyer
// without a cart gets an empty one.
func (s *CartService) Get(ctx context.Context, buyerID primitive.ObjectID) (*models.CartView, error) {
	cart, err := s.store.Carts().FindByBuyer(ctx, buyerID)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.CartView{Buyer: buyerID, Items: []models.PopulatedLine{}}, nil
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load cart", err)
	}
	return s.view(ctx, cart)
}

func (s *CartService) view(ctx context.Context, cart *models.Cart) (*models.CartView, error) {
	lines, err := populateLines(ctx, s.store.Inventory(), cart.Items)
	if err != nil {
		return nil, apperrors.Internal("Failed to load cart products", err)
	}

	v := &models.CartView{
		ID:          cart.ID,
		Buyer:       cart.Buyer,
		Items:       lines,
		TotalAmount: models.Total(cart.Items),
	}
	if !cart.UpdatedAt.IsZero() {
		updated := cart.UpdatedAt
		v.UpdatedAt = &updated
	}
	if cart.Seller != nil {
		summaries, err := s.store.Businesses().FindSummaries(ctx, []primitive.ObjectID{*cart.Seller})
		if err != nil {
			return nil, apperrors.Internal("Failed to load seller", err)
		}
		v.Seller = summaryPtr(summaries, *cart.Seller)
	}
	return v, nil
}

// AddItem adds a product or replaces the quantity and price of an existing
// line. A cart holds one seller's products only.
func (s *CartService) AddItem(ctx context.Context, buyerID primitive.ObjectID, in AddItemInput) (*models.CartView, error) {
	if in.Quantity <= 0 {
		return nil, apperrors.Validation("Quantity must be greater than zero")
	}
	if in.Price != nil && *in.Price < 0 {
		return nil, apperrors.Validation("Price cannot be negative")
	}

	product, err := s.store.Inventory().FindByID(ctx, in.ProductID)
	if err != nil {
		return nil, lookupError(err, "Product")
	}
	sellerID := product.Business
	if sellerID == buyerID {
		return nil, apperrors.Validation("You cannot add your own products to your cart")
	}

	var price float64
	if in.Price != nil {
		price = *in.Price
	} else {
		resolved, _, ok, err := s.resolver.ResolvePrice(ctx, sellerID, buyerID, product.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperrors.NotFound("No price available for this product")
		}
		price = resolved
	}

	var saved *models.Cart
	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.store.Carts().FindByBuyer(ctx, buyerID)
		if errors.Is(err, repository.ErrNotFound) {
			cart = &models.Cart{Buyer: buyerID, Items: []models.LineItem{}}
		} else if err != nil {
			return err
		}

		if !cart.IsEmpty() && cart.Seller != nil && *cart.Seller != sellerID {
			return apperrors.Conflict("Cart holds items from another seller; place or clear it first")
		}

		replaced := false
		for i := range cart.Items {
			if cart.Items[i].Product == product.ID {
				cart.Items[i].Quantity = in.Quantity
				cart.Items[i].Price = price
				replaced = true
				break
			}
		}
		if !replaced {
			cart.Items = append(cart.Items, models.LineItem{Product: product.ID, Quantity: in.Quantity, Price: price})
		}
		cart.Seller = &sellerID

		if err := s.store.Carts().Save(ctx, cart); err != nil {
			return err
		}
		saved = cart
		return nil
	})
	if err != nil {
		logger.Error(ctx, "Failed to add cart item", err, zap.String("buyer", buyerID.Hex()), zap.String("product", product.ID.Hex()))
		return nil, txnError(err)
	}
	return s.view(ctx, saved)
}

// RemoveItem takes one unit off a line. The line goes at zero and the seller
// is cleared once the cart is empty.
func (s *CartService) RemoveItem(ctx context.Context, buyerID, productID primitive.ObjectID) (*models.CartView, error) {
	var saved *models.Cart
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.store.Carts().FindByBuyer(ctx, buyerID)
		if err != nil {
			return lookupError(err, "Cart")
		}

		idx := -1
		for i := range cart.Items {
			if cart.Items[i].Product == productID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return apperrors.NotFound("Item not found in cart")
		}

		cart.Items[idx].Quantity--
		if cart.Items[idx].Quantity <= 0 {
			cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		}
		if len(cart.Items) == 0 {
			cart.Seller = nil
		}

		if err := s.store.Carts().Save(ctx, cart); err != nil {
			return err
		}
		saved = cart
		return nil
	})
	if err != nil {
		return nil, txnError(err)
	}
	return s.view(ctx, saved)
}

// Clear deletes the buyer's cart document
func (s *CartService) Clear(ctx context.Context, buyerID primitive.ObjectID) error {
	err := s.store.Carts().DeleteByBuyer(ctx, buyerID)
	if errors.Is(err, repository.ErrNothingDeleted) {
		return apperrors.NotFound("Cart not found")
	}
	if err != nil {
		return apperrors.Internal("Failed to clear cart", err)
	}
	return nil
}

// IsEmpty reports true for a missing cart as well as an empty one
func (s *CartService) IsEmpty(ctx context.Context, buyerID primitive.ObjectID) (bool, error) {
	cart, err := s.store.Carts().FindByBuyer(ctx, buyerID)
	if errors.Is(err, repository.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, apperrors.Internal("Failed to load cart", err)
	}
	return cart.IsEmpty(), nil
}
