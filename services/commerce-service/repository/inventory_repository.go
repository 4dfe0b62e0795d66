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

type InventoryRepository struct {
	collection *mongo.Collection
}

func NewInventoryRepository(db *mongo.Database) *InventoryRepository {
	return &InventoryRepository{collection: db.Collection(InventoriesCollection)}
}

func (r *InventoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Inventory, error) {
	var item models.Inventory
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (r *InventoryRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Inventory, error) {
	out := make(map[primitive.ObjectID]models.Inventory, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	items, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func (r *InventoryRepository) ListByBusiness(ctx context.Context, businessID primitive.ObjectID) ([]models.Inventory, error) {
	return r.find(ctx, bson.M{"business": businessID}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (r *InventoryRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Inventory, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []models.Inventory
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *InventoryRepository) Decrement(ctx context.Context, sellerID, productID primitive.ObjectID, n int) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": productID, "business": sellerID, "qty": bson.M{"$gte": n}},
		bson.M{
			"$inc": bson.M{"qty": -n},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": productID, "business": sellerID})
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrInsufficientStock
}
