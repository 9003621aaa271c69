package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SweatSheet is a workout plan: either a reusable template created by a coach,
// or a per-athlete copy produced by assignment.
type SweatSheet struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name         string              `bson:"name" json:"name"`
	CreatorID    primitive.ObjectID  `bson:"creatorId" json:"creator_id"`
	AssignedToID *primitive.ObjectID `bson:"assignedToId,omitempty" json:"assigned_to,omitempty"`
	IsTemplate   bool                `bson:"isTemplate" json:"is_template"`
	IsActive     bool                `bson:"isActive" json:"is_active"`
	CreatedAt    time.Time           `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updated_at"`
}

// IsAssignedTo reports whether the sheet is assigned to the given user.
func (s *SweatSheet) IsAssignedTo(userID primitive.ObjectID) bool {
	return s.AssignedToID != nil && *s.AssignedToID == userID
}

// Phase is an ordered block within a SweatSheet. Completion is one-way:
// once completed a phase is never uncompleted.
type Phase struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SheetID     primitive.ObjectID `bson:"sheetId" json:"sheet_id"`
	PhaseNumber int                `bson:"phaseNumber" json:"phase_number"` // unique per sheet
	IsCompleted bool               `bson:"isCompleted" json:"is_completed"`
	CompletedAt *time.Time         `bson:"completedAt,omitempty" json:"completed_at,omitempty"`
}

// Section is a dated sub-block within a Phase.
type Section struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PhaseID       primitive.ObjectID `bson:"phaseId" json:"phase_id"`
	SectionNumber int                `bson:"sectionNumber" json:"section_number"` // unique per phase
	Date          string             `bson:"date" json:"date"`                    // "2006-01-02"
}

// Exercise is a prescribed movement instance within a Section. Sets, reps and
// weight are free text so coaches can write "3x8-10 @ RPE 7".
type Exercise struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SectionID         primitive.ObjectID `bson:"sectionId" json:"section_id"`
	CategoryID        primitive.ObjectID `bson:"categoryId" json:"category_id"`
	WorkoutExerciseID primitive.ObjectID `bson:"workoutExerciseId" json:"workout_exercise_id"`
	Sets              string             `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps              string             `bson:"reps,omitempty" json:"reps,omitempty"`
	Weight            string             `bson:"weight,omitempty" json:"weight,omitempty"`
	Completed         bool               `bson:"completed" json:"completed"`
	Order             int                `bson:"order" json:"order"` // unique per section
}
