package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutCategory is static reference data, e.g. "Upper Body" or "Cardio".
type WorkoutCategory struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
}

// WorkoutExercise is a named movement in the catalog, belonging to exactly one
// category. Populated by an administrative seed, never mutated by users.
type WorkoutExercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CategoryID  primitive.ObjectID `bson:"categoryId" json:"category_id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
}
