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

type BusinessRepository struct {
	collection *mongo.Collection
}

func NewBusinessRepository(db *mongo.Database) *BusinessRepository {
	return &BusinessRepository{collection: db.Collection(BusinessesCollection)}
}

func (r *BusinessRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Business, error) {
	var b models.Business
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *BusinessRepository) FindSummaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.BusinessSummary, error) {
	out := make(map[primitive.ObjectID]models.BusinessSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	projection := bson.M{
		"business_name":  1,
		"owner_name":     1,
		"contact":        1,
		"location":       1,
		"owner_image":    1,
		"business_image": 1,
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(projection))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var summaries []models.BusinessSummary
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, err
	}
	for _, s := range summaries {
		out[s.ID] = s
	}
	return out, nil
}

func (r *BusinessRepository) AppendSale(ctx context.Context, sellerID, saleID primitive.ObjectID) error {
	return r.push(ctx, sellerID, "sales", saleID)
}

func (r *BusinessRepository) AppendPurchase(ctx context.Context, buyerID, purchaseID primitive.ObjectID) error {
	return r.push(ctx, buyerID, "purchases", purchaseID)
}

func (r *BusinessRepository) AppendCustomer(ctx context.Context, businessID, customerID primitive.ObjectID) error {
	return r.push(ctx, businessID, "customers", customerID)
}

func (r *BusinessRepository) push(ctx context.Context, id primitive.ObjectID, field string, value primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$addToSet": bson.M{field: value},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BusinessRepository) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"refresh_token": token, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
