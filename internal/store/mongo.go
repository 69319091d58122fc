package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"kbchat/internal/models"
)

const collectionName = "conversations"

// Mongo persists conversations as single documents with an embedded,
// append-only message array.
type Mongo struct {
	client        *mongo.Client
	conversations *mongo.Collection
}

// New connects to MongoDB and verifies the connection.
func New(ctx context.Context, url, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return &Mongo{
		client:        client,
		conversations: client.Database(database).Collection(collectionName),
	}, nil
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Find looks up a conversation by id, scoped to its owner. A missing record
// (wrong user, deleted, or never existed) returns nil without error.
func (m *Mongo) Find(ctx context.Context, id models.ConversationID, userID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := m.conversations.FindOne(ctx, bson.M{
		"_id":    id.ObjectID(),
		"userId": userID,
	}).Decode(&conv)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	return &conv, nil
}

// Create inserts a new conversation and returns its assigned id.
func (m *Mongo) Create(ctx context.Context, conv *models.Conversation) (models.ConversationID, error) {
	res, err := m.conversations.InsertOne(ctx, conv)
	if err != nil {
		return models.ConversationID{}, fmt.Errorf("failed to insert conversation: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return models.ConversationID{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return models.ConversationIDFrom(oid), nil
}

// AppendTurn appends a user/assistant message pair in one update and
// refreshes the updated timestamp.
func (m *Mongo) AppendTurn(ctx context.Context, id models.ConversationID, userMsg, assistantMsg models.Message, now time.Time) error {
	_, err := m.conversations.UpdateOne(ctx,
		bson.M{"_id": id.ObjectID()},
		bson.M{
			"$push": bson.M{"messages": bson.M{"$each": []models.Message{userMsg, assistantMsg}}},
			"$set":  bson.M{"updatedAt": now},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// ListByUser returns all of a user's conversations, most recently updated
// first. A user with no conversations gets an empty slice.
func (m *Mongo) ListByUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	cursor, err := m.conversations.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	convs := make([]models.Conversation, 0)
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	return convs, nil
}

// DeleteByUser removes every conversation owned by the user and reports how
// many were deleted. Deleting with no matching records is not an error.
func (m *Mongo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := m.conversations.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete conversations: %w", err)
	}
	return res.DeletedCount, nil
}
