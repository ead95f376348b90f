package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"eternal/internal/model"
)

// ConversationRepo is the durable copy of the interview state, read when
// the Redis entry has expired.
type ConversationRepo interface {
	Save(ctx context.Context, state *model.ConversationState) error
	GetByOwner(ctx context.Context, ownerID string) (*model.ConversationState, error)
	Delete(ctx context.Context, ownerID string) error
}

type conversationRepo struct {
	collection *mongo.Collection
}

// NewConversationRepo creates a MongoDB conversation repository
func NewConversationRepo(db *mongo.Database) ConversationRepo {
	return &conversationRepo{
		collection: db.Collection("conversations"),
	}
}

func (r *conversationRepo) Save(ctx context.Context, state *model.ConversationState) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"ownerId": state.OwnerID}, state, opts)
	return err
}

func (r *conversationRepo) GetByOwner(ctx context.Context, ownerID string) (*model.ConversationState, error) {
	var state model.ConversationState
	err := r.collection.FindOne(ctx, bson.M{"ownerId": ownerID}).Decode(&state)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *conversationRepo) Delete(ctx context.Context, ownerID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"ownerId": ownerID})
	return err
}
