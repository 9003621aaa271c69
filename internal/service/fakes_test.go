package service

import (
	"context"
	"sort"
	"time"

	"github.com/ParkerJahn/sweatsheet-web/internal/domain"
	"github.com/ParkerJahn/sweatsheet-web/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. Each fake hands out strictly increasing
// timestamps so ordering assertions do not depend on clock resolution.

type fakeClock struct {
	base time.Time
	tick int
}

func (c *fakeClock) now() time.Time {
	c.tick++
	return c.base.Add(time.Duration(c.tick) * time.Second)
}

func newFakeClock() *fakeClock {
	return &fakeClock{base: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

// --- Users ---

type fakeUserRepo struct {
	clock *fakeClock
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		clock: newFakeClock(),
		users: map[primitive.ObjectID]*domain.User{},
	}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return primitive.NilObjectID, repository.ErrDuplicateUsername
		}
		if existing.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicateEmail
		}
	}
	user.ID = primitive.NewObjectID()
	now := r.clock.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	clone := *user
	r.users[user.ID] = &clone
	return user.ID, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetManyByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	out := []domain.User{}
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			out = append(out, *user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	out := []domain.User{}
	for _, user := range r.users {
		out = append(out, *user)
	}
	return out, nil
}

func (r *fakeUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	out := []domain.User{}
	for _, user := range r.users {
		if user.Profile.Role == role {
			out = append(out, *user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id primitive.ObjectID, firstName, lastName, email, phone string) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	for otherID, other := range r.users {
		if otherID != id && other.Email == email {
			return repository.ErrDuplicateEmail
		}
	}
	user.FirstName = firstName
	user.LastName = lastName
	user.Email = email
	user.Profile.PhoneNumber = phone
	return nil
}

func (r *fakeUserRepo) ReplaceCalendar(_ context.Context, id primitive.ObjectID, cal domain.Calendar) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Calendar = cal
	return nil
}

// --- Notes ---

type fakeNoteRepo struct {
	clock *fakeClock
	notes map[primitive.ObjectID]*domain.Note
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{clock: newFakeClock(), notes: map[primitive.ObjectID]*domain.Note{}}
}

func (r *fakeNoteRepo) Create(_ context.Context, note *domain.Note) (primitive.ObjectID, error) {
	note.ID = primitive.NewObjectID()
	note.CreatedAt = r.clock.now()
	clone := *note
	r.notes[note.ID] = &clone
	return note.ID, nil
}

func (r *fakeNoteRepo) GetByAuthorID(_ context.Context, authorID primitive.ObjectID) ([]domain.Note, error) {
	out := []domain.Note{}
	for _, note := range r.notes {
		if note.AuthorID == authorID {
			out = append(out, *note)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeNoteRepo) Delete(_ context.Context, id, authorID primitive.ObjectID) error {
	note, ok := r.notes[id]
	if !ok || note.AuthorID != authorID {
		return repository.ErrNotFound
	}
	delete(r.notes, id)
	return nil
}

// --- SweatSheet tree ---

type fakeSheetRepo struct {
	clock     *fakeClock
	sheets    map[primitive.ObjectID]*domain.SweatSheet
	phases    map[primitive.ObjectID]*domain.Phase
	sections  map[primitive.ObjectID]*domain.Section
	exercises map[primitive.ObjectID]*domain.Exercise
}

func newFakeSheetRepo() *fakeSheetRepo {
	return &fakeSheetRepo{
		clock:     newFakeClock(),
		sheets:    map[primitive.ObjectID]*domain.SweatSheet{},
		phases:    map[primitive.ObjectID]*domain.Phase{},
		sections:  map[primitive.ObjectID]*domain.Section{},
		exercises: map[primitive.ObjectID]*domain.Exercise{},
	}
}

func (r *fakeSheetRepo) CreateSheet(_ context.Context, sheet *domain.SweatSheet) (primitive.ObjectID, error) {
	sheet.ID = primitive.NewObjectID()
	now := r.clock.now()
	sheet.CreatedAt = now
	sheet.UpdatedAt = now
	clone := *sheet
	r.sheets[sheet.ID] = &clone
	return sheet.ID, nil
}

func (r *fakeSheetRepo) GetSheetByID(_ context.Context, id primitive.ObjectID) (*domain.SweatSheet, error) {
	sheet, ok := r.sheets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *sheet
	return &clone, nil
}

func (r *fakeSheetRepo) ListSheetsForCoach(_ context.Context, coachID primitive.ObjectID) ([]domain.SweatSheet, error) {
	out := []domain.SweatSheet{}
	for _, sheet := range r.sheets {
		if sheet.CreatorID == coachID || sheet.IsTemplate {
			out = append(out, *sheet)
		}
	}
	return out, nil
}

func (r *fakeSheetRepo) ListSheetsForAthlete(_ context.Context, athleteID primitive.ObjectID) ([]domain.SweatSheet, error) {
	out := []domain.SweatSheet{}
	for _, sheet := range r.sheets {
		if (sheet.IsAssignedTo(athleteID) && sheet.IsActive) || sheet.IsTemplate {
			out = append(out, *sheet)
		}
	}
	return out, nil
}

func (r *fakeSheetRepo) UpdateSheet(_ context.Context, sheet *domain.SweatSheet) error {
	existing, ok := r.sheets[sheet.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = sheet.Name
	existing.AssignedToID = sheet.AssignedToID
	existing.IsTemplate = sheet.IsTemplate
	existing.IsActive = sheet.IsActive
	existing.UpdatedAt = r.clock.now()
	return nil
}

func (r *fakeSheetRepo) DeleteSheet(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.sheets[id]; !ok {
		return repository.ErrNotFound
	}
	for phaseID, phase := range r.phases {
		if phase.SheetID != id {
			continue
		}
		for sectionID, section := range r.sections {
			if section.PhaseID != phaseID {
				continue
			}
			for exerciseID, exercise := range r.exercises {
				if exercise.SectionID == sectionID {
					delete(r.exercises, exerciseID)
				}
			}
			delete(r.sections, sectionID)
		}
		delete(r.phases, phaseID)
	}
	delete(r.sheets, id)
	return nil
}

func (r *fakeSheetRepo) CreatePhase(_ context.Context, phase *domain.Phase) (primitive.ObjectID, error) {
	phase.ID = primitive.NewObjectID()
	clone := *phase
	r.phases[phase.ID] = &clone
	return phase.ID, nil
}

func (r *fakeSheetRepo) GetPhaseByID(_ context.Context, id primitive.ObjectID) (*domain.Phase, error) {
	phase, ok := r.phases[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *phase
	return &clone, nil
}

func (r *fakeSheetRepo) GetPhasesBySheetID(_ context.Context, sheetID primitive.ObjectID) ([]domain.Phase, error) {
	out := []domain.Phase{}
	for _, phase := range r.phases {
		if phase.SheetID == sheetID {
			out = append(out, *phase)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PhaseNumber < out[j].PhaseNumber })
	return out, nil
}

func (r *fakeSheetRepo) CompletePhase(_ context.Context, id primitive.ObjectID) error {
	phase, ok := r.phases[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !phase.IsCompleted {
		now := r.clock.now()
		phase.IsCompleted = true
		phase.CompletedAt = &now
	}
	return nil
}

func (r *fakeSheetRepo) CreateSection(_ context.Context, section *domain.Section) (primitive.ObjectID, error) {
	section.ID = primitive.NewObjectID()
	clone := *section
	r.sections[section.ID] = &clone
	return section.ID, nil
}

func (r *fakeSheetRepo) GetSectionByID(_ context.Context, id primitive.ObjectID) (*domain.Section, error) {
	section, ok := r.sections[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *section
	return &clone, nil
}

func (r *fakeSheetRepo) GetSectionsByPhaseID(_ context.Context, phaseID primitive.ObjectID) ([]domain.Section, error) {
	out := []domain.Section{}
	for _, section := range r.sections {
		if section.PhaseID == phaseID {
			out = append(out, *section)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SectionNumber < out[j].SectionNumber })
	return out, nil
}

func (r *fakeSheetRepo) CreateExercise(_ context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	exercise.ID = primitive.NewObjectID()
	clone := *exercise
	r.exercises[exercise.ID] = &clone
	return exercise.ID, nil
}

func (r *fakeSheetRepo) GetExerciseByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	exercise, ok := r.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *exercise
	return &clone, nil
}

func (r *fakeSheetRepo) GetExercisesBySectionID(_ context.Context, sectionID primitive.ObjectID) ([]domain.Exercise, error) {
	out := []domain.Exercise{}
	for _, exercise := range r.exercises {
		if exercise.SectionID == sectionID {
			out = append(out, *exercise)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeSheetRepo) SetExerciseCompleted(_ context.Context, id primitive.ObjectID, completed bool) error {
	exercise, ok := r.exercises[id]
	if !ok {
		return repository.ErrNotFound
	}
	exercise.Completed = completed
	return nil
}

// --- Conversations ---

type fakeConvRepo struct {
	clock *fakeClock
	convs map[primitive.ObjectID]*domain.Conversation
	msgs  map[primitive.ObjectID]*domain.Message
	reads map[string]bool // messageID.Hex + ":" + userID.Hex
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{
		clock: newFakeClock(),
		convs: map[primitive.ObjectID]*domain.Conversation{},
		msgs:  map[primitive.ObjectID]*domain.Message{},
		reads: map[string]bool{},
	}
}

func readKey(messageID, userID primitive.ObjectID) string {
	return messageID.Hex() + ":" + userID.Hex()
}

func (r *fakeConvRepo) CreateConversation(_ context.Context, conv *domain.Conversation) (primitive.ObjectID, error) {
	conv.ID = primitive.NewObjectID()
	now := r.clock.now()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	clone := *conv
	r.convs[conv.ID] = &clone
	return conv.ID, nil
}

func (r *fakeConvRepo) GetConversationByID(_ context.Context, id primitive.ObjectID) (*domain.Conversation, error) {
	conv, ok := r.convs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *conv
	return &clone, nil
}

func (r *fakeConvRepo) FindActiveDirect(_ context.Context, pairKey string) (*domain.Conversation, error) {
	for _, conv := range r.convs {
		if conv.Type == domain.ConversationDirect && conv.IsActive && conv.PairKey == pairKey {
			clone := *conv
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeConvRepo) ListConversationsForUser(_ context.Context, userID primitive.ObjectID) ([]domain.Conversation, error) {
	out := []domain.Conversation{}
	for _, conv := range r.convs {
		if conv.IsActive && conv.HasParticipant(userID) {
			out = append(out, *conv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeConvRepo) UpdateConversation(_ context.Context, conv *domain.Conversation) error {
	existing, ok := r.convs[conv.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Title = conv.Title
	existing.ParticipantIDs = conv.ParticipantIDs
	existing.UpdatedAt = r.clock.now()
	return nil
}

func (r *fakeConvRepo) TouchConversation(_ context.Context, id primitive.ObjectID) error {
	conv, ok := r.convs[id]
	if !ok {
		return repository.ErrNotFound
	}
	conv.UpdatedAt = r.clock.now()
	return nil
}

func (r *fakeConvRepo) DeactivateConversation(_ context.Context, id primitive.ObjectID) error {
	conv, ok := r.convs[id]
	if !ok {
		return repository.ErrNotFound
	}
	conv.IsActive = false
	return nil
}

func (r *fakeConvRepo) CreateMessage(_ context.Context, msg *domain.Message) (primitive.ObjectID, error) {
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = r.clock.now()
	clone := *msg
	r.msgs[msg.ID] = &clone
	return msg.ID, nil
}

func (r *fakeConvRepo) GetMessageByID(_ context.Context, id primitive.ObjectID) (*domain.Message, error) {
	msg, ok := r.msgs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *msg
	return &clone, nil
}

func (r *fakeConvRepo) ListMessages(_ context.Context, conversationID primitive.ObjectID, limit int64) ([]domain.Message, error) {
	out := []domain.Message{}
	for _, msg := range r.msgs {
		if msg.ConversationID == conversationID && !msg.IsDeleted {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeConvRepo) LastMessage(ctx context.Context, conversationID primitive.ObjectID) (*domain.Message, error) {
	msgs, err := r.ListMessages(ctx, conversationID, 1)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, repository.ErrNotFound
	}
	return &msgs[0], nil
}

func (r *fakeConvRepo) UpdateMessage(_ context.Context, msg *domain.Message) error {
	existing, ok := r.msgs[msg.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Content = msg.Content
	existing.IsEdited = msg.IsEdited
	existing.EditedAt = msg.EditedAt
	existing.IsDeleted = msg.IsDeleted
	return nil
}

func (r *fakeConvRepo) MarkRead(_ context.Context, messageID, userID primitive.ObjectID) error {
	r.reads[readKey(messageID, userID)] = true
	return nil
}

func (r *fakeConvRepo) IsRead(_ context.Context, messageID, userID primitive.ObjectID) (bool, error) {
	return r.reads[readKey(messageID, userID)], nil
}

func (r *fakeConvRepo) CountUnread(_ context.Context, conversationID, userID primitive.ObjectID) (int64, error) {
	var unread int64
	for _, msg := range r.msgs {
		if msg.ConversationID != conversationID || msg.IsDeleted || msg.SenderID == userID {
			continue
		}
		if !r.reads[readKey(msg.ID, userID)] {
			unread++
		}
	}
	return unread, nil
}

// --- Storage ---

type fakeFileStorage struct {
	uploads []string
}

func (s *fakeFileStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, contentType string, _ time.Duration) (string, error) {
	s.uploads = append(s.uploads, objectKey)
	return "https://storage.test/upload/" + objectKey, nil
}

func (s *fakeFileStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://storage.test/download/" + objectKey, nil
}

func (s *fakeFileStorage) DeleteObject(_ context.Context, _ string) error {
	return nil
}
