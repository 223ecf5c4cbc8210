package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wayfarelabs/tour-marketplace/internal/domain"
	"github.com/wayfarelabs/tour-marketplace/internal/observability"
)

type NotificationRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewNotificationRepository(db *mongo.Database, logger observability.Logger) *NotificationRepository {
	return &NotificationRepository{
		coll:   db.Collection("notifications"),
		logger: logger,
	}
}

type NotificationDoc struct {
	ID        uuid.UUID `bson:"_id"`
	UserID    uuid.UUID `bson:"user_id"`
	Content   string    `bson:"content"`
	Read      bool      `bson:"read"`
	CreatedAt time.Time `bson:"created_at"`
}

func (n *NotificationRepository) Insert(ctx context.Context, userID uuid.UUID, content string) error {
	doc := NotificationDoc{
		ID:        uuid.New(),
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	_, err := n.coll.InsertOne(ctx, doc)
	if err != nil {
		n.logger.Error("failed to insert notification", err)
	}
	return err
}

func (n *NotificationRepository) List(ctx context.Context, userID uuid.UUID, page, limit int) ([]NotificationDoc, int, error) {
	filter := bson.M{"user_id": userID}

	total, err := n.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cur, err := n.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var docs []NotificationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	return docs, int(total), nil
}

func (n *NotificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) (*NotificationDoc, error) {
	var doc NotificationDoc
	err := n.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (n *NotificationRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := n.coll.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
