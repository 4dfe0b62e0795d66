package services

import (
	"context"
	"errors"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/repository"
	apperrors "github.com/b2bconnect/commerce-backend/services/common/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Resolver computes the unit price a buyer sees for a seller's products.
// Precedence: personalized price, then gen_price, then price.
type Resolver struct {
	store repository.Store
}

func NewResolver(store repository.Store) *Resolver {
	return &Resolver{store: store}
}

// basePrice is the fallback when no personalized row applies
func basePrice(it *models.Inventory) (float64, string, bool) {
	if it.GenPrice != nil {
		return *it.GenPrice, models.PriceSourceGeneral, true
	}
	if it.Price != nil {
		return *it.Price, models.PriceSourceList, true
	}
	return 0, "", false
}

// customerShadow returns the seller's Customer record for the buyer business,
// or nil when the seller has never recorded one.
func (r *Resolver) customerShadow(ctx context.Context, sellerID, buyerID primitive.ObjectID) (*models.Customer, error) {
	buyer, err := r.store.Businesses().FindByID(ctx, buyerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	shadow, err := r.store.Customers().FindByName(ctx, sellerID, buyer.BusinessName)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return shadow, err
}

// ResolvePrice returns the effective unit price of productID for buyerID.
// ok is false when the product has no price this buyer can see.
func (r *Resolver) ResolvePrice(ctx context.Context, sellerID, buyerID, productID primitive.ObjectID) (price float64, source string, ok bool, err error) {
	item, err := r.store.Inventory().FindByID(ctx, productID)
	if err != nil {
		return 0, "", false, lookupError(err, "Product")
	}
	if item.Business != sellerID {
		return 0, "", false, apperrors.NotFound("Product not found")
	}

	shadow, err := r.customerShadow(ctx, sellerID, buyerID)
	if err != nil {
		return 0, "", false, apperrors.Internal("Failed to resolve customer", err)
	}
	if shadow != nil {
		pp, err := r.store.Prices().Find(ctx, sellerID, shadow.ID, productID)
		switch {
		case err == nil:
			return pp.Price, models.PriceSourcePersonalized, true, nil
		case !errors.Is(err, repository.ErrNotFound):
			return 0, "", false, apperrors.Internal("Failed to load personalized price", err)
		}
	}

	price, source, ok = basePrice(item)
	return price, source, ok, nil
}

// ResolveCatalog lists the seller's products priced for buyerID. Products
// with no resolvable price are left out.
func (r *Resolver) ResolveCatalog(ctx context.Context, sellerID, buyerID primitive.ObjectID) ([]models.PricedProduct, error) {
	if _, err := r.store.Businesses().FindByID(ctx, sellerID); err != nil {
		return nil, lookupError(err, "Business")
	}

	items, err := r.store.Inventory().ListByBusiness(ctx, sellerID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load inventory", err)
	}

	personalized := map[primitive.ObjectID]float64{}
	if sellerID != buyerID && len(items) > 0 {
		shadow, err := r.customerShadow(ctx, sellerID, buyerID)
		if err != nil {
			return nil, apperrors.Internal("Failed to resolve customer", err)
		}
		if shadow != nil {
			ids := make([]primitive.ObjectID, 0, len(items))
			for _, it := range items {
				ids = append(ids, it.ID)
			}
			rows, err := r.store.Prices().FindForProducts(ctx, sellerID, shadow.ID, ids)
			if err != nil {
				return nil, apperrors.Internal("Failed to load personalized prices", err)
			}
			for _, row := range rows {
				personalized[row.Product] = row.Price
			}
		}
	}

	out := make([]models.PricedProduct, 0, len(items))
	for i := range items {
		it := &items[i]
		entry := models.PricedProduct{ProductSummary: it.Summary(), Qty: it.Qty}
		if pp, ok := personalized[it.ID]; ok {
			entry.Price, entry.PriceSource = pp, models.PriceSourcePersonalized
		} else if price, source, ok := basePrice(it); ok {
			entry.Price, entry.PriceSource = price, source
		} else {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}
