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
	sheetCollectionName    = "sweatsheets"
	phaseCollectionName    = "phases"
	sectionCollectionName  = "sections"
	exerciseCollectionName = "exercises"
)

// mongoSweatSheetRepository implements repository.SweatSheetRepository over
// four collections, one per level of the sheet tree.
type mongoSweatSheetRepository struct {
	sheets    *mongo.Collection
	phases    *mongo.Collection
	sections  *mongo.Collection
	exercises *mongo.Collection
}

// NewMongoSweatSheetRepository creates a new instance of mongoSweatSheetRepository.
func NewMongoSweatSheetRepository(db *mongo.Database) repository.SweatSheetRepository {
	return &mongoSweatSheetRepository{
		sheets:    db.Collection(sheetCollectionName),
		phases:    db.Collection(phaseCollectionName),
		sections:  db.Collection(sectionCollectionName),
		exercises: db.Collection(exerciseCollectionName),
	}
}

// === Sheets ===

// CreateSheet inserts a new sweat sheet.
func (r *mongoSweatSheetRepository) CreateSheet(ctx context.Context, sheet *domain.SweatSheet) (primitive.ObjectID, error) {
	if sheet.Name == "" || sheet.CreatorID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("sheet name and creator are required")
	}

	sheet.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	sheet.CreatedAt = now
	sheet.UpdatedAt = now

	result, err := r.sheets.InsertOne(ctx, sheet)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetSheetByID retrieves a sheet by id.
func (r *mongoSweatSheetRepository) GetSheetByID(ctx context.Context, id primitive.ObjectID) (*domain.SweatSheet, error) {
	var sheet domain.SweatSheet
	err := r.sheets.FindOne(ctx, bson.M{"_id": id}).Decode(&sheet)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &sheet, nil
}

// ListSheetsForCoach returns the sheets a coach owns plus all templates.
func (r *mongoSweatSheetRepository) ListSheetsForCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.SweatSheet, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"creatorId": coachID},
		bson.M{"isTemplate": true},
	}}
	return r.findSheets(ctx, filter)
}

// ListSheetsForAthlete returns active sheets assigned to the athlete plus all
// templates.
func (r *mongoSweatSheetRepository) ListSheetsForAthlete(ctx context.Context, athleteID primitive.ObjectID) ([]domain.SweatSheet, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"assignedToId": athleteID, "isActive": true},
		bson.M{"isTemplate": true},
	}}
	return r.findSheets(ctx, filter)
}

func (r *mongoSweatSheetRepository) findSheets(ctx context.Context, filter bson.M) ([]domain.SweatSheet, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := r.sheets.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sheets []domain.SweatSheet
	if err = cursor.All(ctx, &sheets); err != nil {
		return nil, err
	}
	if sheets == nil {
		sheets = []domain.SweatSheet{}
	}
	return sheets, nil
}

// UpdateSheet replaces the mutable header fields of a sheet.
func (r *mongoSweatSheetRepository) UpdateSheet(ctx context.Context, sheet *domain.SweatSheet) error {
	update := bson.M{"$set": bson.M{
		"name":         sheet.Name,
		"assignedToId": sheet.AssignedToID,
		"isTemplate":   sheet.IsTemplate,
		"isActive":     sheet.IsActive,
		"updatedAt":    time.Now().UTC(),
	}}
	result, err := r.sheets.UpdateOne(ctx, bson.M{"_id": sheet.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteSheet removes a sheet and cascades over its phases, sections and
// exercises so no orphaned subtree rows survive.
func (r *mongoSweatSheetRepository) DeleteSheet(ctx context.Context, id primitive.ObjectID) error {
	phases, err := r.GetPhasesBySheetID(ctx, id)
	if err != nil {
		return err
	}
	for _, phase := range phases {
		sections, err := r.GetSectionsByPhaseID(ctx, phase.ID)
		if err != nil {
			return err
		}
		for _, section := range sections {
			if _, err := r.exercises.DeleteMany(ctx, bson.M{"sectionId": section.ID}); err != nil {
				return err
			}
		}
		if _, err := r.sections.DeleteMany(ctx, bson.M{"phaseId": phase.ID}); err != nil {
			return err
		}
	}
	if _, err := r.phases.DeleteMany(ctx, bson.M{"sheetId": id}); err != nil {
		return err
	}

	result, err := r.sheets.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// === Phases ===

// CreatePhase inserts a new phase under a sheet.
func (r *mongoSweatSheetRepository) CreatePhase(ctx context.Context, phase *domain.Phase) (primitive.ObjectID, error) {
	if phase.SheetID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("phase sheet id is required")
	}
	phase.ID = primitive.NewObjectID()

	result, err := r.phases.InsertOne(ctx, phase)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetPhaseByID retrieves a phase by id.
func (r *mongoSweatSheetRepository) GetPhaseByID(ctx context.Context, id primitive.ObjectID) (*domain.Phase, error) {
	var phase domain.Phase
	err := r.phases.FindOne(ctx, bson.M{"_id": id}).Decode(&phase)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &phase, nil
}

// GetPhasesBySheetID returns a sheet's phases ordered by phase number.
func (r *mongoSweatSheetRepository) GetPhasesBySheetID(ctx context.Context, sheetID primitive.ObjectID) ([]domain.Phase, error) {
	opts := options.Find().SetSort(bson.D{{Key: "phaseNumber", Value: 1}})
	cursor, err := r.phases.Find(ctx, bson.M{"sheetId": sheetID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var phases []domain.Phase
	if err = cursor.All(ctx, &phases); err != nil {
		return nil, err
	}
	if phases == nil {
		phases = []domain.Phase{}
	}
	return phases, nil
}

// CompletePhase marks a phase completed. One-way: an already completed phase
// stays completed with its original timestamp.
func (r *mongoSweatSheetRepository) CompletePhase(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	filter := bson.M{"_id": id, "isCompleted": false}
	update := bson.M{"$set": bson.M{"isCompleted": true, "completedAt": now}}

	result, err := r.phases.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Either the phase does not exist, or it is already completed.
		// Completing twice is fine; missing is not.
		if _, err := r.GetPhaseByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// === Sections ===

// CreateSection inserts a new section under a phase.
func (r *mongoSweatSheetRepository) CreateSection(ctx context.Context, section *domain.Section) (primitive.ObjectID, error) {
	if section.PhaseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("section phase id is required")
	}
	section.ID = primitive.NewObjectID()

	result, err := r.sections.InsertOne(ctx, section)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetSectionByID retrieves a section by id.
func (r *mongoSweatSheetRepository) GetSectionByID(ctx context.Context, id primitive.ObjectID) (*domain.Section, error) {
	var section domain.Section
	err := r.sections.FindOne(ctx, bson.M{"_id": id}).Decode(&section)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &section, nil
}

// GetSectionsByPhaseID returns a phase's sections ordered by section number.
func (r *mongoSweatSheetRepository) GetSectionsByPhaseID(ctx context.Context, phaseID primitive.ObjectID) ([]domain.Section, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sectionNumber", Value: 1}})
	cursor, err := r.sections.Find(ctx, bson.M{"phaseId": phaseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sections []domain.Section
	if err = cursor.All(ctx, &sections); err != nil {
		return nil, err
	}
	if sections == nil {
		sections = []domain.Section{}
	}
	return sections, nil
}

// === Exercises ===

// CreateExercise inserts a new exercise instance under a section.
func (r *mongoSweatSheetRepository) CreateExercise(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.SectionID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("exercise section id is required")
	}
	exercise.ID = primitive.NewObjectID()

	result, err := r.exercises.InsertOne(ctx, exercise)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetExerciseByID retrieves an exercise by id.
func (r *mongoSweatSheetRepository) GetExerciseByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	var exercise domain.Exercise
	err := r.exercises.FindOne(ctx, bson.M{"_id": id}).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

// GetExercisesBySectionID returns a section's exercises in display order.
func (r *mongoSweatSheetRepository) GetExercisesBySectionID(ctx context.Context, sectionID primitive.ObjectID) ([]domain.Exercise, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := r.exercises.Find(ctx, bson.M{"sectionId": sectionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var exercises []domain.Exercise
	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	if exercises == nil {
		exercises = []domain.Exercise{}
	}
	return exercises, nil
}

// SetExerciseCompleted writes the completed flag. Concurrent writers are
// last-writer-wins.
func (r *mongoSweatSheetRepository) SetExerciseCompleted(ctx context.Context, id primitive.ObjectID, completed bool) error {
	result, err := r.exercises.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"completed": completed}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureSweatSheetIndexes creates necessary indexes for the sheet tree
// collections. Call this once during application startup.
func EnsureSweatSheetIndexes(ctx context.Context, db *mongo.Database) {
	_, _ = db.Collection(sheetCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "creatorId", Value: 1}}, Options: options.Index()},
		{Keys: bson.D{{Key: "assignedToId", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "isTemplate", Value: 1}}, Options: options.Index()},
	})
	_, _ = db.Collection(phaseCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sheetId", Value: 1}, {Key: "phaseNumber", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_sheet_phase"),
	})
	_, _ = db.Collection(sectionCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "phaseId", Value: 1}, {Key: "sectionNumber", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_phase_section"),
	})
	_, _ = db.Collection(exerciseCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sectionId", Value: 1}, {Key: "order", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_section_order"),
	})
}
