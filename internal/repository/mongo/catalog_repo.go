package mongo

import (
	"context"

	"github.com/ParkerJahn/sweatsheet-web/internal/domain"
	"github.com/ParkerJahn/sweatsheet-web/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	categoryCollectionName        = "workout_categories"
	workoutExerciseCollectionName = "workout_exercises"
)

// mongoCatalogRepository serves the static workout catalog.
type mongoCatalogRepository struct {
	categories *mongo.Collection
	exercises  *mongo.Collection
}

// NewMongoCatalogRepository creates a new instance of mongoCatalogRepository.
func NewMongoCatalogRepository(db *mongo.Database) repository.CatalogRepository {
	return &mongoCatalogRepository{
		categories: db.Collection(categoryCollectionName),
		exercises:  db.Collection(workoutExerciseCollectionName),
	}
}

// ListCategories returns all workout categories sorted by name.
func (r *mongoCatalogRepository) ListCategories(ctx context.Context) ([]domain.WorkoutCategory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.categories.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var categories []domain.WorkoutCategory
	if err = cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []domain.WorkoutCategory{}
	}
	return categories, nil
}

// ListExercises returns catalog exercises, filtered by category when one is
// given, else all of them.
func (r *mongoCatalogRepository) ListExercises(ctx context.Context, categoryID *primitive.ObjectID) ([]domain.WorkoutExercise, error) {
	filter := bson.M{}
	if categoryID != nil {
		filter["categoryId"] = *categoryID
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.exercises.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var exercises []domain.WorkoutExercise
	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	if exercises == nil {
		exercises = []domain.WorkoutExercise{}
	}
	return exercises, nil
}

// Seed inserts catalog rows wholesale. Intended for bootstrap scripts and
// tests, not exposed over HTTP.
func (r *mongoCatalogRepository) Seed(ctx context.Context, categories []domain.WorkoutCategory, exercises []domain.WorkoutExercise) error {
	if len(categories) > 0 {
		docs := make([]interface{}, 0, len(categories))
		for i := range categories {
			if categories[i].ID == primitive.NilObjectID {
				categories[i].ID = primitive.NewObjectID()
			}
			docs = append(docs, categories[i])
		}
		if _, err := r.categories.InsertMany(ctx, docs); err != nil {
			return err
		}
	}
	if len(exercises) > 0 {
		docs := make([]interface{}, 0, len(exercises))
		for i := range exercises {
			if exercises[i].ID == primitive.NilObjectID {
				exercises[i].ID = primitive.NewObjectID()
			}
			docs = append(docs, exercises[i])
		}
		if _, err := r.exercises.InsertMany(ctx, docs); err != nil {
			return err
		}
	}
	return nil
}

// EnsureCatalogIndexes creates necessary indexes for the catalog collections.
func EnsureCatalogIndexes(ctx context.Context, db *mongo.Database) {
	_, _ = db.Collection(workoutExerciseCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "categoryId", Value: 1}},
		Options: options.Index(),
	})
}
