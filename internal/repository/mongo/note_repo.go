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

const noteCollectionName = "notes"

type mongoNoteRepository struct {
	collection *mongo.Collection
}

// NewMongoNoteRepository creates a new instance of mongoNoteRepository.
func NewMongoNoteRepository(db *mongo.Database) repository.NoteRepository {
	return &mongoNoteRepository{
		collection: db.Collection(noteCollectionName),
	}
}

// Create inserts a new note.
func (r *mongoNoteRepository) Create(ctx context.Context, note *domain.Note) (primitive.ObjectID, error) {
	if note.AuthorID == primitive.NilObjectID || note.Title == "" {
		return primitive.NilObjectID, errors.New("note author and title are required")
	}

	note.ID = primitive.NewObjectID()
	note.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, note)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByAuthorID returns the author's notes, newest first.
func (r *mongoNoteRepository) GetByAuthorID(ctx context.Context, authorID primitive.ObjectID) ([]domain.Note, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"authorId": authorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notes []domain.Note
	if err = cursor.All(ctx, &notes); err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []domain.Note{}
	}
	return notes, nil
}

// Delete removes a note, scoped to its author. A note owned by someone else
// is indistinguishable from a missing one.
func (r *mongoNoteRepository) Delete(ctx context.Context, id, authorID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "authorId": authorID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureNoteIndexes creates necessary indexes for the notes collection.
func EnsureNoteIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "authorId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
