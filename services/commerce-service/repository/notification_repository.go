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

type NotificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{collection: db.Collection(NotificationsCollection)}
}

func (r *NotificationRepository) Insert(ctx context.Context, n *models.Notification) error {
	stamp(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	_, err := r.collection.InsertOne(ctx, n)
	return err
}

func (r *NotificationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	var n models.Notification
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

func (r *NotificationRepository) FindByOrderRef(ctx context.Context, orderID primitive.ObjectID) (*models.Notification, error) {
	var n models.Notification
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if err := r.collection.FindOne(ctx, draftRef(orderID), opts).Decode(&n); err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

func (r *NotificationRepository) RetargetOrderRef(ctx context.Context, orderID primitive.ObjectID, ref *models.OrderRef) (int64, error) {
	res, err := r.collection.UpdateMany(ctx, draftRef(orderID), bson.M{
		"$set": bson.M{"order": ref, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func draftRef(orderID primitive.ObjectID) bson.M {
	return bson.M{"order.ref_type": models.RefOrder, "order.id": orderID}
}

func (r *NotificationRepository) Replace(ctx context.Context, n *models.Notification) error {
	n.UpdatedAt = time.Now().UTC()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": n.ID}, n)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) List(ctx context.Context, q NotificationQuery) ([]models.Notification, error) {
	filter := bson.M{}
	if q.Recipient != nil {
		filter["recipient"] = *q.Recipient
	}
	if q.Initiator != nil {
		filter["initiator"] = *q.Initiator
	}
	if q.RefType != "" {
		filter["order.ref_type"] = q.RefType
	}
	if q.Type != "" {
		filter["type"] = q.Type
	}
	if q.UnreadOnly {
		filter["is_read"] = false
	}
	return r.find(ctx, filter)
}

func (r *NotificationRepository) ListByOrder(ctx context.Context, orderID, participant primitive.ObjectID) ([]models.Notification, error) {
	return r.find(ctx, bson.M{
		"order.id": orderID,
		"$or": bson.A{
			bson.M{"initiator": participant},
			bson.M{"recipient": participant},
		},
	})
}

func (r *NotificationRepository) find(ctx context.Context, filter bson.M) ([]models.Notification, error) {
	cursor, err := r.collection.Find(ctx, filter, newestFirst())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []models.Notification{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipient primitive.ObjectID) (*models.Notification, error) {
	var n models.Notification
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "recipient": recipient},
		bson.M{"$set": bson.M{"is_read": true, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&n)
	if err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"recipient": recipient, "is_read": false})
}
