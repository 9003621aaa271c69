package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/ParkerJahn/sweatsheet-web/internal/domain"
	"github.com/ParkerJahn/sweatsheet-web/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	conversationCollectionName = "conversations"
	messageCollectionName      = "messages"
	messageReadCollectionName  = "message_reads"
)

// mongoConversationRepository implements repository.ConversationRepository
// over the conversation, message and read-receipt collections.
type mongoConversationRepository struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
	reads         *mongo.Collection
}

// NewMongoConversationRepository creates a new instance of mongoConversationRepository.
func NewMongoConversationRepository(db *mongo.Database) repository.ConversationRepository {
	return &mongoConversationRepository{
		conversations: db.Collection(conversationCollectionName),
		messages:      db.Collection(messageCollectionName),
		reads:         db.Collection(messageReadCollectionName),
	}
}

// === Conversations ===

// CreateConversation inserts a new conversation.
func (r *mongoConversationRepository) CreateConversation(ctx context.Context, conv *domain.Conversation) (primitive.ObjectID, error) {
	if len(conv.ParticipantIDs) < 2 {
		return primitive.NilObjectID, errors.New("a conversation needs at least two participants")
	}

	conv.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	conv.CreatedAt = now
	conv.UpdatedAt = now

	result, err := r.conversations.InsertOne(ctx, conv)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetConversationByID retrieves a conversation by id.
func (r *mongoConversationRepository) GetConversationByID(ctx context.Context, id primitive.ObjectID) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.conversations.FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// FindActiveDirect looks up the active DIRECT conversation for the canonical
// participant pair key.
func (r *mongoConversationRepository) FindActiveDirect(ctx context.Context, pairKey string) (*domain.Conversation, error) {
	filter := bson.M{
		"type":     domain.ConversationDirect,
		"pairKey":  pairKey,
		"isActive": true,
	}
	var conv domain.Conversation
	err := r.conversations.FindOne(ctx, filter).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// ListConversationsForUser returns the active conversations the user belongs
// to, newest updated first.
func (r *mongoConversationRepository) ListConversationsForUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Conversation, error) {
	filter := bson.M{"participantIds": userID, "isActive": true}
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})

	cursor, err := r.conversations.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var convs []domain.Conversation
	if err = cursor.All(ctx, &convs); err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return convs, nil
}

// UpdateConversation replaces the mutable fields (title, participants).
func (r *mongoConversationRepository) UpdateConversation(ctx context.Context, conv *domain.Conversation) error {
	update := bson.M{"$set": bson.M{
		"title":          conv.Title,
		"participantIds": conv.ParticipantIDs,
		"updatedAt":      time.Now().UTC(),
	}}
	result, err := r.conversations.UpdateOne(ctx, bson.M{"_id": conv.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// TouchConversation bumps updatedAt so the conversation sorts to the top of
// the list after a new message.
func (r *mongoConversationRepository) TouchConversation(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.conversations.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeactivateConversation soft-deletes a conversation.
func (r *mongoConversationRepository) DeactivateConversation(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.conversations.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// === Messages ===

// CreateMessage inserts a new message.
func (r *mongoConversationRepository) CreateMessage(ctx context.Context, msg *domain.Message) (primitive.ObjectID, error) {
	if msg.ConversationID == primitive.NilObjectID || msg.SenderID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("message conversation and sender are required")
	}

	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now().UTC()

	result, err := r.messages.InsertOne(ctx, msg)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetMessageByID retrieves a message by id, soft-deleted ones included
// (callers decide whether deletion matters).
func (r *mongoConversationRepository) GetMessageByID(ctx context.Context, id primitive.ObjectID) (*domain.Message, error) {
	var msg domain.Message
	err := r.messages.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &msg, nil
}

// ListMessages returns non-deleted messages in a conversation, newest first.
func (r *mongoConversationRepository) ListMessages(ctx context.Context, conversationID primitive.ObjectID, limit int64) ([]domain.Message, error) {
	filter := bson.M{"conversationId": conversationID, "isDeleted": false}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cursor, err := r.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var msgs []domain.Message
	if err = cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}

// LastMessage returns the newest non-deleted message, or ErrNotFound for an
// empty conversation.
func (r *mongoConversationRepository) LastMessage(ctx context.Context, conversationID primitive.ObjectID) (*domain.Message, error) {
	filter := bson.M{"conversationId": conversationID, "isDeleted": false}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var msg domain.Message
	err := r.messages.FindOne(ctx, filter, opts).Decode(&msg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &msg, nil
}

// UpdateMessage persists edit/delete state changes.
func (r *mongoConversationRepository) UpdateMessage(ctx context.Context, msg *domain.Message) error {
	update := bson.M{"$set": bson.M{
		"content":   msg.Content,
		"isEdited":  msg.IsEdited,
		"editedAt":  msg.EditedAt,
		"isDeleted": msg.IsDeleted,
	}}
	result, err := r.messages.UpdateOne(ctx, bson.M{"_id": msg.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// === Read receipts ===

// MarkRead upserts a read receipt. The unique (message, user) index makes
// repeated calls no-ops.
func (r *mongoConversationRepository) MarkRead(ctx context.Context, messageID, userID primitive.ObjectID) error {
	filter := bson.M{"messageId": messageID, "userId": userID}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":       primitive.NewObjectID(),
		"messageId": messageID,
		"userId":    userID,
		"createdAt": time.Now().UTC(),
	}}
	opts := options.Update().SetUpsert(true)

	_, err := r.reads.UpdateOne(ctx, filter, update, opts)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		// Lost a race with a concurrent markRead; the receipt exists.
		return nil
	}
	return err
}

// IsRead reports whether the user has a receipt for the message.
func (r *mongoConversationRepository) IsRead(ctx context.Context, messageID, userID primitive.ObjectID) (bool, error) {
	count, err := r.reads.CountDocuments(ctx, bson.M{"messageId": messageID, "userId": userID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountUnread counts non-deleted messages the user has neither sent nor
// acknowledged.
func (r *mongoConversationRepository) CountUnread(ctx context.Context, conversationID, userID primitive.ObjectID) (int64, error) {
	// Collect the message ids the user has receipts for, then count the rest.
	cursor, err := r.messages.Find(ctx,
		bson.M{"conversationId": conversationID, "isDeleted": false, "senderId": bson.M{"$ne": userID}},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	readCount, err := r.reads.CountDocuments(ctx, bson.M{
		"userId":    userID,
		"messageId": bson.M{"$in": ids},
	})
	if err != nil {
		return 0, err
	}
	return int64(len(ids)) - readCount, nil
}

// EnsureConversationIndexes creates necessary indexes for the messaging
// collections. Call this once during application startup.
func EnsureConversationIndexes(ctx context.Context, db *mongo.Database) {
	_, _ = db.Collection(conversationCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "participantIds", Value: 1}, {Key: "updatedAt", Value: -1}},
			Options: options.Index(),
		},
		{
			// At most one active DIRECT conversation per unordered pair.
			Keys: bson.D{{Key: "pairKey", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_active_direct_pair").
				SetPartialFilterExpression(bson.M{
					"type":     domain.ConversationDirect,
					"isActive": true,
				}),
		},
	})
	_, _ = db.Collection(messageCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "conversationId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index(),
	})
	_, _ = db.Collection(messageReadCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "messageId", Value: 1}, {Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_message_user_read"),
	})
}
