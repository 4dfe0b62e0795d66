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

// OrderRepository stores draft orders
type OrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{collection: db.Collection(OrdersCollection)}
}

func (r *OrderRepository) Insert(ctx context.Context, o *models.Order) error {
	stamp(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	_, err := r.collection.InsertOne(ctx, o)
	return err
}

func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *OrderRepository) UpdateItems(ctx context.Context, id primitive.ObjectID, items []models.LineItem, total float64) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"products":     items,
			"total_amount": total,
			"updated_at":   time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNothingDeleted
	}
	return nil
}

type SaleRepository struct {
	collection *mongo.Collection
}

func NewSaleRepository(db *mongo.Database) *SaleRepository {
	return &SaleRepository{collection: db.Collection(SalesCollection)}
}

func (r *SaleRepository) Insert(ctx context.Context, s *models.Sale) error {
	stamp(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	_, err := r.collection.InsertOne(ctx, s)
	return err
}

func (r *SaleRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Sale, error) {
	var s models.Sale
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *SaleRepository) ListBySeller(ctx context.Context, sellerID primitive.ObjectID) ([]models.Sale, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"seller": sellerID}, newestFirst())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sales := []models.Sale{}
	if err := cursor.All(ctx, &sales); err != nil {
		return nil, err
	}
	return sales, nil
}

type PurchaseRepository struct {
	collection *mongo.Collection
}

func NewPurchaseRepository(db *mongo.Database) *PurchaseRepository {
	return &PurchaseRepository{collection: db.Collection(PurchasesCollection)}
}

func (r *PurchaseRepository) Insert(ctx context.Context, p *models.Purchase) error {
	stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	_, err := r.collection.InsertOne(ctx, p)
	return err
}

func (r *PurchaseRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Purchase, error) {
	var p models.Purchase
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *PurchaseRepository) ListByBuyer(ctx context.Context, buyerID primitive.ObjectID) ([]models.Purchase, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"buyer": buyerID}, newestFirst())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	purchases := []models.Purchase{}
	if err := cursor.All(ctx, &purchases); err != nil {
		return nil, err
	}
	return purchases, nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
}

// stamp fills a missing id and the timestamps of a new document
func stamp(id *primitive.ObjectID, createdAt, updatedAt *time.Time) {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}
