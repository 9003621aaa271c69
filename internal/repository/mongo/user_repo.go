package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ParkerJahn/sweatsheet-web/internal/domain"
	"github.com/ParkerJahn/sweatsheet-web/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCollectionName = "users"

// mongoUserRepository implements repository.UserRepository using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
// It expects a connected *mongo.Database instance.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// Create inserts the full user aggregate as a single document. Profile and
// calendar are embedded, so the "user never exists without both" invariant
// holds by single-document atomicity.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Username == "" || user.Email == "" || user.PasswordHash == "" || user.Profile.Role == "" {
		return primitive.NilObjectID, errors.New("username, email, password hash, and role are required")
	}
	if user.Calendar.Events == nil {
		user.Calendar.Events = map[string][]domain.CalendarEvent{}
	}

	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Distinguish which unique index tripped so callers can report
			// the right field.
			if strings.Contains(err.Error(), "username") {
				return primitive.NilObjectID, repository.ErrDuplicateUsername
			}
			return primitive.NilObjectID, repository.ErrDuplicateEmail
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a user by their MongoDB ObjectID.
func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByUsername retrieves a user by their unique username.
func (r *mongoUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

// GetByEmail retrieves a user by their unique email address.
func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetManyByIDs fetches all users whose id appears in the given list.
// Unknown ids are simply absent from the result.
func (r *mongoUserRepository) GetManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	return r.findMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// List returns all users.
func (r *mongoUserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.findMany(ctx, bson.M{})
}

// ListByRole returns all users holding the given role.
func (r *mongoUserRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	return r.findMany(ctx, bson.M{"profile.role": role})
}

func (r *mongoUserRepository) findMany(ctx context.Context, filter bson.M) ([]domain.User, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []domain.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// UpdateProfile patches name/email/phone on the owning user. Role is not
// touched through this path.
func (r *mongoUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, firstName, lastName, email, phone string) error {
	update := bson.M{"$set": bson.M{
		"firstName":           firstName,
		"lastName":            lastName,
		"email":               email,
		"profile.phoneNumber": phone,
		"updatedAt":           time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ReplaceCalendar swaps out the whole embedded calendar. No merge; last
// writer wins.
func (r *mongoUserRepository) ReplaceCalendar(ctx context.Context, id primitive.ObjectID, cal domain.Calendar) error {
	if cal.Events == nil {
		cal.Events = map[string][]domain.CalendarEvent{}
	}
	update := bson.M{"$set": bson.M{
		"calendar":  cal,
		"updatedAt": time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureUserIndexes creates necessary indexes for the users collection.
// Call this once during application startup.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_username"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
		{
			Keys:    bson.D{{Key: "profile.role", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
