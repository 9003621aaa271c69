package service

import (
	"context"
	"errors"

	"github.com/ParkerJahn/sweatsheet-web/internal/domain"
	"github.com/ParkerJahn/sweatsheet-web/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileUpdate carries the patchable profile fields. Role is deliberately
// absent: role changes are not exposed through this path.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	Email       *string
	PhoneNumber *string
}

// --- Service Interface ---
type ProfileService interface {
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, update ProfileUpdate) (*domain.User, error)

	GetCalendar(ctx context.Context, userID primitive.ObjectID) (*domain.Calendar, error)
	PutCalendar(ctx context.Context, userID primitive.ObjectID, cal domain.Calendar) error

	ListUsers(ctx context.Context) ([]domain.User, error)
	ListAthletes(ctx context.Context, p Principal) ([]domain.User, error)

	ListNotes(ctx context.Context, userID primitive.ObjectID) ([]domain.Note, error)
	CreateNote(ctx context.Context, userID primitive.ObjectID, title, content string) (*domain.Note, error)
	DeleteNote(ctx context.Context, userID, noteID primitive.ObjectID) error
}

// --- Service Implementation ---

type profileService struct {
	userRepo repository.UserRepository
	noteRepo repository.NoteRepository
}

// NewProfileService creates a new instance of profileService.
func NewProfileService(userRepo repository.UserRepository, noteRepo repository.NoteRepository) ProfileService {
	return &profileService{
		userRepo: userRepo,
		noteRepo: noteRepo,
	}
}

// GetProfile returns the caller's own user record.
func (s *profileService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile patches first/last name, email and phone on the owning user.
// Unset fields keep their current values.
func (s *profileService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, update ProfileUpdate) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	firstName := user.FirstName
	lastName := user.LastName
	email := user.Email
	phone := user.Profile.PhoneNumber
	if update.FirstName != nil {
		firstName = *update.FirstName
	}
	if update.LastName != nil {
		lastName = *update.LastName
	}
	if update.Email != nil {
		if *update.Email == "" {
			return nil, ErrValidation
		}
		email = *update.Email
	}
	if update.PhoneNumber != nil {
		phone = *update.PhoneNumber
	}

	err = s.userRepo.UpdateProfile(ctx, userID, firstName, lastName, email, phone)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	user.FirstName = firstName
	user.LastName = lastName
	user.Email = email
	user.Profile.PhoneNumber = phone
	user.PasswordHash = ""
	return user, nil
}

// GetCalendar returns the caller's calendar.
func (s *profileService) GetCalendar(ctx context.Context, userID primitive.ObjectID) (*domain.Calendar, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user.Calendar, nil
}

// PutCalendar replaces the whole events map. No merge, no version check;
// concurrent writers are last-writer-wins.
func (s *profileService) PutCalendar(ctx context.Context, userID primitive.ObjectID, cal domain.Calendar) error {
	for date, events := range cal.Events {
		if date == "" {
			return ErrValidation
		}
		for _, ev := range events {
			if ev.ID == "" || ev.Title == "" {
				return ErrValidation
			}
		}
	}

	err := s.userRepo.ReplaceCalendar(ctx, userID, cal)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// ListUsers returns every user, hashes stripped.
func (s *profileService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// ListAthletes returns the athlete roster for assignment pickers.
// Coach-privileged callers only.
func (s *profileService) ListAthletes(ctx context.Context, p Principal) ([]domain.User, error) {
	if !p.IsCoach() {
		return nil, ErrForbidden
	}
	athletes, err := s.userRepo.ListByRole(ctx, domain.RoleAthlete)
	if err != nil {
		return nil, err
	}
	for i := range athletes {
		athletes[i].PasswordHash = ""
	}
	return athletes, nil
}

// === Notes ===

// ListNotes returns the caller's own notes.
func (s *profileService) ListNotes(ctx context.Context, userID primitive.ObjectID) ([]domain.Note, error) {
	return s.noteRepo.GetByAuthorID(ctx, userID)
}

// CreateNote creates a note owned by the caller.
func (s *profileService) CreateNote(ctx context.Context, userID primitive.ObjectID, title, content string) (*domain.Note, error) {
	if title == "" {
		return nil, ErrValidation
	}
	note := &domain.Note{
		AuthorID: userID,
		Title:    title,
		Content:  content,
	}
	id, err := s.noteRepo.Create(ctx, note)
	if err != nil {
		return nil, err
	}
	note.ID = id
	return note, nil
}

// DeleteNote removes one of the caller's notes. Someone else's note is
// reported as not found, never as forbidden.
func (s *profileService) DeleteNote(ctx context.Context, userID, noteID primitive.ObjectID) error {
	err := s.noteRepo.Delete(ctx, noteID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
