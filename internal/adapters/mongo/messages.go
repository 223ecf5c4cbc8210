package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wayfarelabs/tour-marketplace/internal/observability"
)

// MessageRepository stores the user<->guide chat history. Guides
// themselves live in the relational store; conversations only carry
// the guide id and get enriched at the HTTP layer.
type MessageRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewMessageRepository(db *mongo.Database, logger observability.Logger) *MessageRepository {
	return &MessageRepository{
		coll:   db.Collection("messages"),
		logger: logger,
	}
}

type MessageDoc struct {
	ID        uuid.UUID `bson:"_id"`
	UserID    uuid.UUID `bson:"user_id"`
	GuideID   uuid.UUID `bson:"guide_id"`
	FromGuide bool      `bson:"from_guide"`
	Content   string    `bson:"content"`
	IsRead    bool      `bson:"is_read"`
	CreatedAt time.Time `bson:"created_at"`
}

// Conversation is one row of the grouped conversation list.
type Conversation struct {
	GuideID       uuid.UUID `bson:"_id"`
	LastMessage   string    `bson:"last_message"`
	LastMessageAt time.Time `bson:"last_message_at"`
	UnreadCount   int       `bson:"unread_count"`
}

func (m *MessageRepository) Insert(ctx context.Context, msg MessageDoc) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	_, err := m.coll.InsertOne(ctx, msg)
	if err != nil {
		m.logger.Error("failed to insert message", err)
	}
	return err
}

// Conversation returns one page of a user/guide thread, oldest first
// within the page, plus the total message count.
func (m *MessageRepository) Conversation(ctx context.Context, userID, guideID uuid.UUID, page, limit int) ([]MessageDoc, int, error) {
	filter := bson.M{"user_id": userID, "guide_id": guideID}

	total, err := m.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cur, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var msgs []MessageDoc
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, 0, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, int(total), nil
}

// Conversations groups a user's messages by guide: last message plus
// the count of unread guide messages, newest conversation first.
func (m *MessageRepository) Conversations(ctx context.Context, userID uuid.UUID) ([]Conversation, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"user_id": userID}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: 1}}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":             "$guide_id",
			"last_message":    bson.M{"$last": "$content"},
			"last_message_at": bson.M{"$last": "$created_at"},
			"unread_count": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$from_guide", true}},
					bson.M{"$eq": bson.A{"$is_read", false}},
				}},
				1, 0,
			}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "last_message_at", Value: -1}}}},
	}

	cur, err := m.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var convs []Conversation
	if err := cur.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// MarkRead flags all guide messages in a thread as read.
func (m *MessageRepository) MarkRead(ctx context.Context, userID, guideID uuid.UUID) error {
	_, err := m.coll.UpdateMany(ctx,
		bson.M{"user_id": userID, "guide_id": guideID, "from_guide": true, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	return err
}
