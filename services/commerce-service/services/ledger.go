package services

import (
	"context"
	"time"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EffectiveDateLayout is the YYYYMMDD form stored on ledger rows
const EffectiveDateLayout = "20060102"

// PriceLedger records negotiated prices per (business, customer, product).
// Only the latest price survives; a second write on the same day overwrites.
type PriceLedger struct {
	prices repository.PriceRepo
	clock  Clock
	loc    *time.Location
}

func NewPriceLedger(prices repository.PriceRepo, clock Clock, loc *time.Location) *PriceLedger {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PriceLedger{prices: prices, clock: clock, loc: loc}
}

// EffectiveDate is today's date in the business time zone
func (l *PriceLedger) EffectiveDate() string {
	return l.clock().In(l.loc).Format(EffectiveDateLayout)
}

// Record upserts one row per distinct product in items. When a product
// repeats, the last line wins. Must run inside the caller's transaction.
func (l *PriceLedger) Record(ctx context.Context, businessID, customerID primitive.ObjectID, items []models.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	date := l.EffectiveDate()
	index := make(map[primitive.ObjectID]int, len(items))
	entries := make([]models.PersonalizedPrice, 0, len(items))
	for _, it := range items {
		entry := models.PersonalizedPrice{
			Business:      businessID,
			Customer:      customerID,
			Product:       it.Product,
			Price:         it.Price,
			EffectiveDate: date,
		}
		if i, seen := index[it.Product]; seen {
			entries[i] = entry
			continue
		}
		index[it.Product] = len(entries)
		entries = append(entries, entry)
	}
	return l.prices.Upsert(ctx, entries)
}
