package repository

import (
	"context"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type InvoiceRepository struct {
	collection *mongo.Collection
}

func NewInvoiceRepository(db *mongo.Database) *InvoiceRepository {
	return &InvoiceRepository{collection: db.Collection(InvoicesCollection)}
}

func (r *InvoiceRepository) FindByOrderID(ctx context.Context, orderID primitive.ObjectID) (*models.Invoice, error) {
	hex := orderID.Hex()
	var inv models.Invoice
	err := r.collection.FindOne(ctx, bson.M{"$or": bson.A{
		bson.M{"sale_order_id": hex},
		bson.M{"purchase_order_id": hex},
	}}).Decode(&inv)
	if err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}
