package repository

import (
	"context"

	"github.com/ParkerJahn/sweatsheet-web/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer
var (
	ErrNotFound          = RepositoryError("not found")
	ErrDuplicateUsername = RepositoryError("username already taken")
	ErrDuplicateEmail    = RepositoryError("email already taken")
	ErrUpdateFailed      = RepositoryError("update failed")
	ErrDeleteFailed      = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
// Create persists the full User aggregate (profile and calendar included)
// in a single write.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, firstName, lastName, email, phone string) error
	ReplaceCalendar(ctx context.Context, id primitive.ObjectID, cal domain.Calendar) error
}

// NoteRepository defines the interface for interacting with personal notes.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) (primitive.ObjectID, error)
	GetByAuthorID(ctx context.Context, authorID primitive.ObjectID) ([]domain.Note, error)
	Delete(ctx context.Context, id, authorID primitive.ObjectID) error
}

// CatalogRepository defines read access to the static workout catalog.
// Seed exists for bootstrap and tests; no user-facing mutation path.
type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]domain.WorkoutCategory, error)
	ListExercises(ctx context.Context, categoryID *primitive.ObjectID) ([]domain.WorkoutExercise, error)
	Seed(ctx context.Context, categories []domain.WorkoutCategory, exercises []domain.WorkoutExercise) error
}

// SweatSheetRepository covers the sheet/phase/section/exercise tree.
// DeleteSheet cascades over the whole subtree.
type SweatSheetRepository interface {
	CreateSheet(ctx context.Context, sheet *domain.SweatSheet) (primitive.ObjectID, error)
	GetSheetByID(ctx context.Context, id primitive.ObjectID) (*domain.SweatSheet, error)
	ListSheetsForCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.SweatSheet, error)
	ListSheetsForAthlete(ctx context.Context, athleteID primitive.ObjectID) ([]domain.SweatSheet, error)
	UpdateSheet(ctx context.Context, sheet *domain.SweatSheet) error
	DeleteSheet(ctx context.Context, id primitive.ObjectID) error

	CreatePhase(ctx context.Context, phase *domain.Phase) (primitive.ObjectID, error)
	GetPhaseByID(ctx context.Context, id primitive.ObjectID) (*domain.Phase, error)
	GetPhasesBySheetID(ctx context.Context, sheetID primitive.ObjectID) ([]domain.Phase, error)
	CompletePhase(ctx context.Context, id primitive.ObjectID) error

	CreateSection(ctx context.Context, section *domain.Section) (primitive.ObjectID, error)
	GetSectionByID(ctx context.Context, id primitive.ObjectID) (*domain.Section, error)
	GetSectionsByPhaseID(ctx context.Context, phaseID primitive.ObjectID) ([]domain.Section, error)

	CreateExercise(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetExerciseByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetExercisesBySectionID(ctx context.Context, sectionID primitive.ObjectID) ([]domain.Exercise, error)
	SetExerciseCompleted(ctx context.Context, id primitive.ObjectID, completed bool) error
}

// ConversationRepository covers conversations, messages and read receipts.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, conv *domain.Conversation) (primitive.ObjectID, error)
	GetConversationByID(ctx context.Context, id primitive.ObjectID) (*domain.Conversation, error)
	// FindActiveDirect looks up the active DIRECT conversation for an
	// unordered participant pair, if one exists.
	FindActiveDirect(ctx context.Context, pairKey string) (*domain.Conversation, error)
	ListConversationsForUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Conversation, error)
	UpdateConversation(ctx context.Context, conv *domain.Conversation) error
	TouchConversation(ctx context.Context, id primitive.ObjectID) error
	DeactivateConversation(ctx context.Context, id primitive.ObjectID) error

	CreateMessage(ctx context.Context, msg *domain.Message) (primitive.ObjectID, error)
	GetMessageByID(ctx context.Context, id primitive.ObjectID) (*domain.Message, error)
	// ListMessages returns non-deleted messages in a conversation, newest first.
	ListMessages(ctx context.Context, conversationID primitive.ObjectID, limit int64) ([]domain.Message, error)
	LastMessage(ctx context.Context, conversationID primitive.ObjectID) (*domain.Message, error)
	UpdateMessage(ctx context.Context, msg *domain.Message) error

	// MarkRead records a read receipt if absent; repeated calls are no-ops.
	MarkRead(ctx context.Context, messageID, userID primitive.ObjectID) error
	IsRead(ctx context.Context, messageID, userID primitive.ObjectID) (bool, error)
	// CountUnread counts non-deleted messages in the conversation that were
	// neither sent by the user nor acknowledged by them.
	CountUnread(ctx context.Context, conversationID, userID primitive.ObjectID) (int64, error)
}
