package service

import (
	"context"
	"errors"

	"github.com/ParkerJahn/sweatsheet-web/internal/domain"
	"github.com/ParkerJahn/sweatsheet-web/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SheetUpdate carries the patchable sheet header fields.
type SheetUpdate struct {
	Name       *string
	IsActive   *bool
	IsTemplate *bool
}

// --- Service Interface ---
type SweatSheetService interface {
	CreateSheet(ctx context.Context, p Principal, name string, isTemplate bool) (*domain.SweatSheet, error)
	ListSheets(ctx context.Context, p Principal) ([]domain.SweatSheet, error)
	GetSheet(ctx context.Context, p Principal, sheetID primitive.ObjectID) (*domain.SweatSheet, error)
	UpdateSheet(ctx context.Context, p Principal, sheetID primitive.ObjectID, update SheetUpdate) (*domain.SweatSheet, error)
	DeleteSheet(ctx context.Context, p Principal, sheetID primitive.ObjectID) error
	// AssignSheet clones the sheet, header and full phase/section/exercise
	// tree, once per target athlete. Returns the created copies.
	AssignSheet(ctx context.Context, p Principal, sheetID primitive.ObjectID, athleteIDs []primitive.ObjectID) ([]domain.SweatSheet, error)

	ListPhases(ctx context.Context, p Principal, sheetID primitive.ObjectID) ([]domain.Phase, error)
	CreatePhase(ctx context.Context, p Principal, sheetID primitive.ObjectID, phaseNumber int) (*domain.Phase, error)
	CompletePhase(ctx context.Context, p Principal, phaseID primitive.ObjectID) (*domain.Phase, error)

	ListSections(ctx context.Context, p Principal, phaseID primitive.ObjectID) ([]domain.Section, error)
	CreateSection(ctx context.Context, p Principal, phaseID primitive.ObjectID, sectionNumber int, date string) (*domain.Section, error)

	ListExercises(ctx context.Context, p Principal, sectionID primitive.ObjectID) ([]domain.Exercise, error)
	CreateExercise(ctx context.Context, p Principal, sectionID primitive.ObjectID, exercise domain.Exercise) (*domain.Exercise, error)
	// CompleteExercise toggles the completed flag and returns the new state.
	CompleteExercise(ctx context.Context, p Principal, exerciseID primitive.ObjectID) (*domain.Exercise, error)
}

// --- Service Implementation ---

type sweatSheetService struct {
	sheetRepo repository.SweatSheetRepository
	userRepo  repository.UserRepository
}

// NewSweatSheetService creates a new instance of sweatSheetService.
func NewSweatSheetService(sheetRepo repository.SweatSheetRepository, userRepo repository.UserRepository) SweatSheetService {
	return &sweatSheetService{
		sheetRepo: sheetRepo,
		userRepo:  userRepo,
	}
}

// === Sheets ===

// CreateSheet creates a sheet owned by the calling coach.
func (s *sweatSheetService) CreateSheet(ctx context.Context, p Principal, name string, isTemplate bool) (*domain.SweatSheet, error) {
	if !p.IsCoach() {
		return nil, ErrForbidden
	}
	if name == "" {
		return nil, ErrValidation
	}

	sheet := &domain.SweatSheet{
		Name:       name,
		CreatorID:  p.ID,
		IsTemplate: isTemplate,
		IsActive:   true,
	}
	id, err := s.sheetRepo.CreateSheet(ctx, sheet)
	if err != nil {
		return nil, err
	}
	sheet.ID = id
	return sheet, nil
}

// ListSheets returns the sheets visible to the caller: owned + templates for
// coaches, assigned + templates for athletes.
func (s *sweatSheetService) ListSheets(ctx context.Context, p Principal) ([]domain.SweatSheet, error) {
	if p.IsCoach() {
		return s.sheetRepo.ListSheetsForCoach(ctx, p.ID)
	}
	return s.sheetRepo.ListSheetsForAthlete(ctx, p.ID)
}

// GetSheet returns a single sheet, or ErrNotFound when the sheet does not
// exist or is not visible to the caller. The two cases are indistinguishable.
func (s *sweatSheetService) GetSheet(ctx context.Context, p Principal, sheetID primitive.ObjectID) (*domain.SweatSheet, error) {
	return s.visibleSheet(ctx, p, sheetID)
}

func (s *sweatSheetService) visibleSheet(ctx context.Context, p Principal, sheetID primitive.ObjectID) (*domain.SweatSheet, error) {
	sheet, err := s.sheetRepo.GetSheetByID(ctx, sheetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !CanSeeSheet(p, sheet) {
		return nil, ErrNotFound
	}
	return sheet, nil
}

// UpdateSheet patches the sheet header. Owner only.
func (s *sweatSheetService) UpdateSheet(ctx context.Context, p Principal, sheetID primitive.ObjectID, update SheetUpdate) (*domain.SweatSheet, error) {
	sheet, err := s.visibleSheet(ctx, p, sheetID)
	if err != nil {
		return nil, err
	}
	if !CanMutateSheet(p, sheet) {
		return nil, ErrForbidden
	}

	if update.Name != nil {
		if *update.Name == "" {
			return nil, ErrValidation
		}
		sheet.Name = *update.Name
	}
	if update.IsActive != nil {
		sheet.IsActive = *update.IsActive
	}
	if update.IsTemplate != nil {
		sheet.IsTemplate = *update.IsTemplate
	}
	if sheet.IsTemplate && sheet.AssignedToID != nil {
		// A template has no assignee.
		return nil, ErrValidation
	}

	if err := s.sheetRepo.UpdateSheet(ctx, sheet); err != nil {
		return nil, err
	}
	return sheet, nil
}

// DeleteSheet removes a sheet and its whole subtree. Owner only.
func (s *sweatSheetService) DeleteSheet(ctx context.Context, p Principal, sheetID primitive.ObjectID) error {
	sheet, err := s.visibleSheet(ctx, p, sheetID)
	if err != nil {
		return err
	}
	if !CanMutateSheet(p, sheet) {
		return ErrForbidden
	}
	return s.sheetRepo.DeleteSheet(ctx, sheetID)
}

// AssignSheet creates an assigned copy of the sheet for each target athlete.
// Every target must resolve to an ATHLETE user. The copy carries the full
// phase/section/exercise tree with completion state reset, so the athlete
// starts from the coach's planned content.
func (s *sweatSheetService) AssignSheet(ctx context.Context, p Principal, sheetID primitive.ObjectID, athleteIDs []primitive.ObjectID) ([]domain.SweatSheet, error) {
	sheet, err := s.visibleSheet(ctx, p, sheetID)
	if err != nil {
		return nil, err
	}
	if !CanMutateSheet(p, sheet) {
		return nil, ErrForbidden
	}
	if len(athleteIDs) == 0 {
		return nil, ErrValidation
	}

	// Validate every target up front; a bad target fails the whole request
	// before any copy is made.
	for _, athleteID := range athleteIDs {
		athlete, err := s.userRepo.GetByID(ctx, athleteID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrInvalidAssignee
			}
			return nil, err
		}
		if !athlete.IsAthlete() {
			return nil, ErrInvalidAssignee
		}
	}

	phases, err := s.sheetRepo.GetPhasesBySheetID(ctx, sheetID)
	if err != nil {
		return nil, err
	}

	created := make([]domain.SweatSheet, 0, len(athleteIDs))
	for _, athleteID := range athleteIDs {
		assignee := athleteID
		copySheet := &domain.SweatSheet{
			Name:         sheet.Name,
			CreatorID:    sheet.CreatorID,
			AssignedToID: &assignee,
			IsTemplate:   false,
			IsActive:     true,
		}
		copyID, err := s.sheetRepo.CreateSheet(ctx, copySheet)
		if err != nil {
			return nil, err
		}
		copySheet.ID = copyID

		if err := s.copyTree(ctx, phases, copyID); err != nil {
			return nil, err
		}
		created = append(created, *copySheet)
	}
	return created, nil
}

// copyTree deep-copies the phase/section/exercise subtree under a new sheet.
func (s *sweatSheetService) copyTree(ctx context.Context, phases []domain.Phase, newSheetID primitive.ObjectID) error {
	for _, phase := range phases {
		newPhase := &domain.Phase{
			SheetID:     newSheetID,
			PhaseNumber: phase.PhaseNumber,
		}
		newPhaseID, err := s.sheetRepo.CreatePhase(ctx, newPhase)
		if err != nil {
			return err
		}

		sections, err := s.sheetRepo.GetSectionsByPhaseID(ctx, phase.ID)
		if err != nil {
			return err
		}
		for _, section := range sections {
			newSection := &domain.Section{
				PhaseID:       newPhaseID,
				SectionNumber: section.SectionNumber,
				Date:          section.Date,
			}
			newSectionID, err := s.sheetRepo.CreateSection(ctx, newSection)
			if err != nil {
				return err
			}

			exercises, err := s.sheetRepo.GetExercisesBySectionID(ctx, section.ID)
			if err != nil {
				return err
			}
			for _, exercise := range exercises {
				newExercise := &domain.Exercise{
					SectionID:         newSectionID,
					CategoryID:        exercise.CategoryID,
					WorkoutExerciseID: exercise.WorkoutExerciseID,
					Sets:              exercise.Sets,
					Reps:              exercise.Reps,
					Weight:            exercise.Weight,
					Order:             exercise.Order,
				}
				if _, err := s.sheetRepo.CreateExercise(ctx, newExercise); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// === Phases ===

// ListPhases returns the phases of a visible sheet.
func (s *sweatSheetService) ListPhases(ctx context.Context, p Principal, sheetID primitive.ObjectID) ([]domain.Phase, error) {
	if _, err := s.visibleSheet(ctx, p, sheetID); err != nil {
		return nil, err
	}
	return s.sheetRepo.GetPhasesBySheetID(ctx, sheetID)
}

// CreatePhase adds a phase to a sheet the caller owns or is assigned.
func (s *sweatSheetService) CreatePhase(ctx context.Context, p Principal, sheetID primitive.ObjectID, phaseNumber int) (*domain.Phase, error) {
	sheet, err := s.visibleSheet(ctx, p, sheetID)
	if err != nil {
		return nil, err
	}
	if !CanEditSheetContent(p, sheet) {
		return nil, ErrForbidden
	}
	if phaseNumber <= 0 {
		return nil, ErrValidation
	}

	phase := &domain.Phase{
		SheetID:     sheetID,
		PhaseNumber: phaseNumber,
	}
	id, err := s.sheetRepo.CreatePhase(ctx, phase)
	if err != nil {
		return nil, err
	}
	phase.ID = id
	return phase, nil
}

// CompletePhase marks a phase completed. One-way; completing an already
// completed phase succeeds without change.
func (s *sweatSheetService) CompletePhase(ctx context.Context, p Principal, phaseID primitive.ObjectID) (*domain.Phase, error) {
	phase, err := s.sheetRepo.GetPhaseByID(ctx, phaseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sheet, err := s.sheetRepo.GetSheetByID(ctx, phase.SheetID)
	if err != nil {
		return nil, err
	}
	if !CanSeeSheet(p, sheet) {
		return nil, ErrNotFound
	}
	if !CanEditSheetContent(p, sheet) {
		return nil, ErrForbidden
	}

	if err := s.sheetRepo.CompletePhase(ctx, phaseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.sheetRepo.GetPhaseByID(ctx, phaseID)
}

// === Sections ===

// phaseSheet resolves a phase and its visible root sheet.
func (s *sweatSheetService) phaseSheet(ctx context.Context, p Principal, phaseID primitive.ObjectID) (*domain.Phase, *domain.SweatSheet, error) {
	phase, err := s.sheetRepo.GetPhaseByID(ctx, phaseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	sheet, err := s.sheetRepo.GetSheetByID(ctx, phase.SheetID)
	if err != nil {
		return nil, nil, err
	}
	if !CanSeeSheet(p, sheet) {
		return nil, nil, ErrNotFound
	}
	return phase, sheet, nil
}

// ListSections returns the sections of a phase under a visible sheet.
func (s *sweatSheetService) ListSections(ctx context.Context, p Principal, phaseID primitive.ObjectID) ([]domain.Section, error) {
	if _, _, err := s.phaseSheet(ctx, p, phaseID); err != nil {
		return nil, err
	}
	return s.sheetRepo.GetSectionsByPhaseID(ctx, phaseID)
}

// CreateSection adds a section under a phase.
func (s *sweatSheetService) CreateSection(ctx context.Context, p Principal, phaseID primitive.ObjectID, sectionNumber int, date string) (*domain.Section, error) {
	_, sheet, err := s.phaseSheet(ctx, p, phaseID)
	if err != nil {
		return nil, err
	}
	if !CanEditSheetContent(p, sheet) {
		return nil, ErrForbidden
	}
	if sectionNumber <= 0 || date == "" {
		return nil, ErrValidation
	}

	section := &domain.Section{
		PhaseID:       phaseID,
		SectionNumber: sectionNumber,
		Date:          date,
	}
	id, err := s.sheetRepo.CreateSection(ctx, section)
	if err != nil {
		return nil, err
	}
	section.ID = id
	return section, nil
}

// === Exercises ===

// sectionSheet resolves a section up to its visible root sheet.
func (s *sweatSheetService) sectionSheet(ctx context.Context, p Principal, sectionID primitive.ObjectID) (*domain.Section, *domain.SweatSheet, error) {
	section, err := s.sheetRepo.GetSectionByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	_, sheet, err := s.phaseSheet(ctx, p, section.PhaseID)
	if err != nil {
		return nil, nil, err
	}
	return section, sheet, nil
}

// ListExercises returns the exercises of a section under a visible sheet.
func (s *sweatSheetService) ListExercises(ctx context.Context, p Principal, sectionID primitive.ObjectID) ([]domain.Exercise, error) {
	if _, _, err := s.sectionSheet(ctx, p, sectionID); err != nil {
		return nil, err
	}
	return s.sheetRepo.GetExercisesBySectionID(ctx, sectionID)
}

// CreateExercise adds an exercise instance under a section.
func (s *sweatSheetService) CreateExercise(ctx context.Context, p Principal, sectionID primitive.ObjectID, exercise domain.Exercise) (*domain.Exercise, error) {
	_, sheet, err := s.sectionSheet(ctx, p, sectionID)
	if err != nil {
		return nil, err
	}
	if !CanEditSheetContent(p, sheet) {
		return nil, ErrForbidden
	}
	if exercise.CategoryID == primitive.NilObjectID || exercise.WorkoutExerciseID == primitive.NilObjectID {
		return nil, ErrValidation
	}

	exercise.SectionID = sectionID
	exercise.Completed = false
	id, err := s.sheetRepo.CreateExercise(ctx, &exercise)
	if err != nil {
		return nil, err
	}
	exercise.ID = id
	return &exercise, nil
}

// CompleteExercise flips the completed flag. Toggling twice restores the
// original state.
func (s *sweatSheetService) CompleteExercise(ctx context.Context, p Principal, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.sheetRepo.GetExerciseByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	_, sheet, err := s.sectionSheet(ctx, p, exercise.SectionID)
	if err != nil {
		return nil, err
	}
	if !CanEditSheetContent(p, sheet) {
		return nil, ErrForbidden
	}

	newState := !exercise.Completed
	if err := s.sheetRepo.SetExerciseCompleted(ctx, exerciseID, newState); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	exercise.Completed = newState
	return exercise, nil
}
