package repository

import (
	"context"
	"time"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PriceRepository is the personalized price ledger
type PriceRepository struct {
	collection *mongo.Collection
}

func NewPriceRepository(db *mongo.Database) *PriceRepository {
	return &PriceRepository{collection: db.Collection(PersonalizedPricesCollection)}
}

// Upsert issues one bulk write of keyed upserts. Only the latest price and
// effective date survive for a key.
func (r *PriceRepository) Upsert(ctx context.Context, entries []models.PersonalizedPrice) error {
	if len(entries) == 0 {
		return nil
	}

	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(entries))
	for _, e := range entries {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{
				"business": e.Business,
				"customer": e.Customer,
				"product":  e.Product,
			}).
			SetUpdate(bson.M{
				"$set": bson.M{
					"price":          e.Price,
					"effective_date": e.EffectiveDate,
					"updated_at":     now,
				},
				"$setOnInsert": bson.M{"created_at": now},
			}).
			SetUpsert(true))
	}

	_, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	return err
}

func (r *PriceRepository) Find(ctx context.Context, businessID, customerID, productID primitive.ObjectID) (*models.PersonalizedPrice, error) {
	var p models.PersonalizedPrice
	err := r.collection.FindOne(ctx, bson.M{
		"business": businessID,
		"customer": customerID,
		"product":  productID,
	}).Decode(&p)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *PriceRepository) FindForProducts(ctx context.Context, businessID, customerID primitive.ObjectID, productIDs []primitive.ObjectID) ([]models.PersonalizedPrice, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{
		"business": businessID,
		"customer": customerID,
		"product":  bson.M{"$in": productIDs},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var prices []models.PersonalizedPrice
	if err := cursor.All(ctx, &prices); err != nil {
		return nil, err
	}
	return prices, nil
}
