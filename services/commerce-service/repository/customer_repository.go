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

type CustomerRepository struct {
	collection *mongo.Collection
}

func NewCustomerRepository(db *mongo.Database) *CustomerRepository {
	return &CustomerRepository{collection: db.Collection(CustomersCollection)}
}

func (r *CustomerRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	var c models.Customer
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *CustomerRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Customer, error) {
	out := make(map[primitive.ObjectID]models.Customer, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var customers []models.Customer
	if err := cursor.All(ctx, &customers); err != nil {
		return nil, err
	}
	for _, c := range customers {
		out[c.ID] = c
	}
	return out, nil
}

func (r *CustomerRepository) FindByName(ctx context.Context, businessID primitive.ObjectID, name string) (*models.Customer, error) {
	var c models.Customer
	if err := r.collection.FindOne(ctx, bson.M{"business": businessID, "name": name}).Decode(&c); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *CustomerRepository) Insert(ctx context.Context, c *models.Customer) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := r.collection.InsertOne(ctx, c)
	return duplicate(err)
}

// FindOrCreate upserts on the unique (business, name) key so concurrent
// first orders for the same counterparty converge on one record.
func (r *CustomerRepository) FindOrCreate(ctx context.Context, businessID primitive.ObjectID, name string) (*models.Customer, bool, error) {
	newID := primitive.NewObjectID()
	now := time.Now().UTC()

	var c models.Customer
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"business": businessID, "name": name},
		bson.M{"$setOnInsert": bson.M{
			"_id":        newID,
			"business":   businessID,
			"name":       name,
			"created_at": now,
			"updated_at": now,
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return nil, false, err
	}
	return &c, c.ID == newID, nil
}
