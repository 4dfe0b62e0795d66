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

type CartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{collection: db.Collection(CartsCollection)}
}

func (r *CartRepository) FindByBuyer(ctx context.Context, buyerID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.collection.FindOne(ctx, bson.M{"buyer": buyerID}).Decode(&cart); err != nil {
		return nil, notFound(err)
	}
	return &cart, nil
}

func (r *CartRepository) Save(ctx context.Context, cart *models.Cart) error {
	now := time.Now().UTC()
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	if cart.Items == nil {
		cart.Items = []models.LineItem{}
	}

	_, err := r.collection.ReplaceOne(ctx, bson.M{"buyer": cart.Buyer}, cart, options.Replace().SetUpsert(true))
	return duplicate(err)
}

func (r *CartRepository) DeleteByBuyer(ctx context.Context, buyerID primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"buyer": buyerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNothingDeleted
	}
	return nil
}
