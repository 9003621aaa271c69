package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/ParkerJahn/sweatsheet-web/internal/domain"
	"github.com/ParkerJahn/sweatsheet-web/internal/repository"
	"github.com/ParkerJahn/sweatsheet-web/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrNotParticipant   = errors.New("user is not a participant of this conversation")
	ErrAttachmentURL    = errors.New("failed to generate attachment upload URL")
	ErrGroupTitleNeeded = errors.New("group conversations require a title")
)

// How many messages a conversation detail view returns at most.
const messagePageSize = 50

// ParticipantInfo is the lightweight user identity used in projections.
type ParticipantInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// LastMessageSummary is the projection of a conversation's newest message.
type LastMessageSummary struct {
	ID         string             `json:"id"`
	Content    string             `json:"content"`
	SenderName string             `json:"sender_name"`
	CreatedAt  time.Time          `json:"created_at"`
	Type       domain.MessageType `json:"message_type"`
}

// ConversationSummary is one row of the conversation list.
type ConversationSummary struct {
	ID               string              `json:"id"`
	Type             domain.ConversationType `json:"conversation_type"`
	Title            string              `json:"title,omitempty"`
	UpdatedAt        time.Time           `json:"updated_at"`
	LastMessage      *LastMessageSummary `json:"last_message"`
	OtherParticipant *ParticipantInfo    `json:"other_participant,omitempty"` // DIRECT only
	UnreadCount      int64               `json:"unread_count"`
	ParticipantNames []string            `json:"participant_names"`
}

// ConversationDetail is a conversation plus its participants and latest
// messages.
type ConversationDetail struct {
	Conversation domain.Conversation `json:"conversation"`
	Participants []ParticipantInfo   `json:"participants"`
	Messages     []domain.Message    `json:"messages"`
}

// AttachmentURLResponse is the presigned upload target for IMAGE/FILE
// messages. The client uploads to UploadURL, then posts a message whose
// file_url references ObjectKey.
type AttachmentURLResponse struct {
	UploadURL string `json:"upload_url"`
	ObjectKey string `json:"object_key"`
}

// --- Service Interface ---
type MessagingService interface {
	ListConversations(ctx context.Context, p Principal) ([]ConversationSummary, error)
	CreateConversation(ctx context.Context, p Principal, convType domain.ConversationType, title string, participantIDs []primitive.ObjectID) (*domain.Conversation, error)
	GetOrCreateDirectConversation(ctx context.Context, p Principal, otherUserID primitive.ObjectID) (*domain.Conversation, error)
	GetConversation(ctx context.Context, p Principal, conversationID primitive.ObjectID) (*ConversationDetail, error)
	UpdateConversation(ctx context.Context, p Principal, conversationID primitive.ObjectID, title string, participantIDs []primitive.ObjectID) (*domain.Conversation, error)
	DeactivateConversation(ctx context.Context, p Principal, conversationID primitive.ObjectID) error

	// ListMessages fails closed: a non-participant gets an empty list.
	ListMessages(ctx context.Context, p Principal, conversationID primitive.ObjectID) ([]domain.Message, error)
	PostMessage(ctx context.Context, p Principal, conversationID primitive.ObjectID, msgType domain.MessageType, content, fileURL string) (*domain.Message, error)
	EditMessage(ctx context.Context, p Principal, messageID primitive.ObjectID, content string) (*domain.Message, error)
	DeleteMessage(ctx context.Context, p Principal, messageID primitive.ObjectID) error

	// MarkRead records receipts for the given message ids; ids that do not
	// resolve to messages in the conversation are silently skipped.
	MarkRead(ctx context.Context, p Principal, conversationID primitive.ObjectID, messageIDs []primitive.ObjectID) error

	RequestAttachmentURL(ctx context.Context, p Principal, conversationID primitive.ObjectID, contentType string) (*AttachmentURLResponse, error)
}

// --- Service Implementation ---

type messagingService struct {
	convRepo    repository.ConversationRepository
	userRepo    repository.UserRepository
	fileStorage storage.FileStorage
}

// NewMessagingService creates a new instance of messagingService.
func NewMessagingService(convRepo repository.ConversationRepository, userRepo repository.UserRepository, fileStorage storage.FileStorage) MessagingService {
	return &messagingService{
		convRepo:    convRepo,
		userRepo:    userRepo,
		fileStorage: fileStorage,
	}
}

// visibleConversation fetches a conversation and applies the visibility
// predicate. Invisible and missing are both ErrNotFound.
func (s *messagingService) visibleConversation(ctx context.Context, p Principal, id primitive.ObjectID) (*domain.Conversation, error) {
	conv, err := s.convRepo.GetConversationByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !CanSeeConversation(p, conv) {
		return nil, ErrNotFound
	}
	return conv, nil
}

// === Conversations ===

// ListConversations projects the caller's active conversations, newest
// updated first.
func (s *messagingService) ListConversations(ctx context.Context, p Principal) ([]ConversationSummary, error) {
	convs, err := s.convRepo.ListConversationsForUser(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(convs))
	for i := range convs {
		summary, err := s.summarize(ctx, p, &convs[i])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *messagingService) summarize(ctx context.Context, p Principal, conv *domain.Conversation) (ConversationSummary, error) {
	summary := ConversationSummary{
		ID:        conv.ID.Hex(),
		Type:      conv.Type,
		Title:     conv.Title,
		UpdatedAt: conv.UpdatedAt,
	}

	participants, err := s.userRepo.GetManyByIDs(ctx, conv.ParticipantIDs)
	if err != nil {
		return summary, err
	}
	usersByID := make(map[primitive.ObjectID]*domain.User, len(participants))
	names := make([]string, 0, len(participants))
	for i := range participants {
		usersByID[participants[i].ID] = &participants[i]
		names = append(names, participants[i].DisplayName())
	}
	summary.ParticipantNames = names

	if conv.Type == domain.ConversationDirect {
		if otherID, ok := conv.OtherParticipant(p.ID); ok {
			if other, ok := usersByID[otherID]; ok {
				summary.OtherParticipant = &ParticipantInfo{
					ID:       other.ID.Hex(),
					Username: other.Username,
					Name:     other.DisplayName(),
				}
			}
		}
	}

	last, err := s.convRepo.LastMessage(ctx, conv.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return summary, err
	}
	if last != nil {
		senderName := ""
		if sender, ok := usersByID[last.SenderID]; ok {
			senderName = sender.DisplayName()
		}
		summary.LastMessage = &LastMessageSummary{
			ID:         last.ID.Hex(),
			Content:    last.Content,
			SenderName: senderName,
			CreatedAt:  last.CreatedAt,
			Type:       last.Type,
		}
	}

	unread, err := s.convRepo.CountUnread(ctx, conv.ID, p.ID)
	if err != nil {
		return summary, err
	}
	summary.UnreadCount = unread

	return summary, nil
}

// CreateConversation creates a conversation with the caller added as a
// participant. A DIRECT request with exactly one other participant is
// idempotent: an existing active direct conversation for the pair is
// returned instead of a duplicate.
func (s *messagingService) CreateConversation(ctx context.Context, p Principal, convType domain.ConversationType, title string, participantIDs []primitive.ObjectID) (*domain.Conversation, error) {
	switch convType {
	case domain.ConversationDirect, domain.ConversationGroup:
	default:
		return nil, ErrValidation
	}

	// Deduplicate and drop the caller; they are added back below.
	seen := map[primitive.ObjectID]bool{p.ID: true}
	unique := []primitive.ObjectID{p.ID}
	for _, id := range participantIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	if convType == domain.ConversationDirect {
		if len(unique) != 2 {
			return nil, ErrValidation
		}
		return s.GetOrCreateDirectConversation(ctx, p, unique[1])
	}

	if len(unique) < 2 {
		return nil, ErrValidation
	}
	if title == "" {
		return nil, ErrGroupTitleNeeded
	}

	conv := &domain.Conversation{
		Type:           domain.ConversationGroup,
		Title:          title,
		ParticipantIDs: unique,
		IsActive:       true,
	}
	id, err := s.convRepo.CreateConversation(ctx, conv)
	if err != nil {
		return nil, err
	}
	conv.ID = id
	return conv, nil
}

// GetOrCreateDirectConversation finds the active direct conversation for the
// unordered (caller, other) pair, creating it when absent. Both call
// directions return the same conversation.
func (s *messagingService) GetOrCreateDirectConversation(ctx context.Context, p Principal, otherUserID primitive.ObjectID) (*domain.Conversation, error) {
	if otherUserID == p.ID {
		return nil, ErrValidation
	}

	if _, err := s.userRepo.GetByID(ctx, otherUserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	pairKey := domain.DirectPairKey(p.ID, otherUserID)
	existing, err := s.convRepo.FindActiveDirect(ctx, pairKey)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	conv := &domain.Conversation{
		Type:           domain.ConversationDirect,
		ParticipantIDs: []primitive.ObjectID{p.ID, otherUserID},
		PairKey:        pairKey,
		IsActive:       true,
	}
	id, err := s.convRepo.CreateConversation(ctx, conv)
	if err != nil {
		// A concurrent creator may have won the unique pairKey index race.
		if existing, lookupErr := s.convRepo.FindActiveDirect(ctx, pairKey); lookupErr == nil {
			return existing, nil
		}
		return nil, err
	}
	conv.ID = id
	return conv, nil
}

// GetConversation returns a conversation with participants and the latest
// messages.
func (s *messagingService) GetConversation(ctx context.Context, p Principal, conversationID primitive.ObjectID) (*ConversationDetail, error) {
	conv, err := s.visibleConversation(ctx, p, conversationID)
	if err != nil {
		return nil, err
	}

	participants, err := s.userRepo.GetManyByIDs(ctx, conv.ParticipantIDs)
	if err != nil {
		return nil, err
	}
	infos := make([]ParticipantInfo, 0, len(participants))
	for i := range participants {
		infos = append(infos, ParticipantInfo{
			ID:       participants[i].ID.Hex(),
			Username: participants[i].Username,
			Name:     participants[i].DisplayName(),
		})
	}

	messages, err := s.convRepo.ListMessages(ctx, conversationID, messagePageSize)
	if err != nil {
		return nil, err
	}

	return &ConversationDetail{
		Conversation: *conv,
		Participants: infos,
		Messages:     messages,
	}, nil
}

// UpdateConversation renames a group conversation or changes its
// participants. Direct conversations are immutable.
func (s *messagingService) UpdateConversation(ctx context.Context, p Principal, conversationID primitive.ObjectID, title string, participantIDs []primitive.ObjectID) (*domain.Conversation, error) {
	conv, err := s.visibleConversation(ctx, p, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.Type != domain.ConversationGroup {
		return nil, ErrValidation
	}

	if title != "" {
		conv.Title = title
	}
	if len(participantIDs) > 0 {
		seen := map[primitive.ObjectID]bool{p.ID: true}
		unique := []primitive.ObjectID{p.ID}
		for _, id := range participantIDs {
			if !seen[id] {
				seen[id] = true
				unique = append(unique, id)
			}
		}
		if len(unique) < 2 {
			return nil, ErrValidation
		}
		conv.ParticipantIDs = unique
	}

	if err := s.convRepo.UpdateConversation(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// DeactivateConversation soft-deletes a conversation for all participants.
func (s *messagingService) DeactivateConversation(ctx context.Context, p Principal, conversationID primitive.ObjectID) error {
	if _, err := s.visibleConversation(ctx, p, conversationID); err != nil {
		return err
	}
	return s.convRepo.DeactivateConversation(ctx, conversationID)
}

// === Messages ===

// ListMessages returns non-deleted messages newest first. Fails closed: a
// caller outside the conversation gets an empty result, not an error.
func (s *messagingService) ListMessages(ctx context.Context, p Principal, conversationID primitive.ObjectID) ([]domain.Message, error) {
	conv, err := s.convRepo.GetConversationByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []domain.Message{}, nil
		}
		return nil, err
	}
	if !CanSeeConversation(p, conv) {
		return []domain.Message{}, nil
	}
	return s.convRepo.ListMessages(ctx, conversationID, messagePageSize)
}

// PostMessage appends a message and bumps the conversation's recency.
func (s *messagingService) PostMessage(ctx context.Context, p Principal, conversationID primitive.ObjectID, msgType domain.MessageType, content, fileURL string) (*domain.Message, error) {
	conv, err := s.convRepo.GetConversationByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !CanSeeConversation(p, conv) {
		return nil, ErrForbidden
	}

	if msgType == "" {
		msgType = domain.MessageText
	}
	switch msgType {
	case domain.MessageText, domain.MessageSystem:
		if content == "" {
			return nil, ErrValidation
		}
	case domain.MessageImage, domain.MessageFile:
		if fileURL == "" {
			return nil, ErrValidation
		}
	default:
		return nil, ErrValidation
	}

	msg := &domain.Message{
		ConversationID: conversationID,
		SenderID:       p.ID,
		Type:           msgType,
		Content:        content,
		FileURL:        fileURL,
	}
	id, err := s.convRepo.CreateMessage(ctx, msg)
	if err != nil {
		return nil, err
	}
	msg.ID = id

	// Recency ordering invariant for the conversation list.
	if err := s.convRepo.TouchConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	return msg, nil
}

// mutableMessage resolves a message the caller sent in the given
// conversation. Deleted, foreign, and missing messages all read as not found.
func (s *messagingService) mutableMessage(ctx context.Context, p Principal, messageID primitive.ObjectID) (*domain.Message, error) {
	msg, err := s.convRepo.GetMessageByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if msg.IsDeleted {
		return nil, ErrNotFound
	}
	if !CanMutateMessage(p, msg) {
		return nil, ErrForbidden
	}
	return msg, nil
}

// EditMessage rewrites the content of the caller's own message.
func (s *messagingService) EditMessage(ctx context.Context, p Principal, messageID primitive.ObjectID, content string) (*domain.Message, error) {
	if content == "" {
		return nil, ErrValidation
	}
	msg, err := s.mutableMessage(ctx, p, messageID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	msg.Content = content
	msg.IsEdited = true
	msg.EditedAt = &now

	if err := s.convRepo.UpdateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// DeleteMessage soft-deletes the caller's own message. The row stays in the
// store but disappears from every read path.
func (s *messagingService) DeleteMessage(ctx context.Context, p Principal, messageID primitive.ObjectID) error {
	msg, err := s.mutableMessage(ctx, p, messageID)
	if err != nil {
		return err
	}
	msg.IsDeleted = true
	return s.convRepo.UpdateMessage(ctx, msg)
}

// === Read receipts ===

// MarkRead acknowledges messages for the caller. Idempotent; an empty id list
// is a no-op, ids outside the conversation are skipped, and no receipt is
// recorded for the caller's own messages.
func (s *messagingService) MarkRead(ctx context.Context, p Principal, conversationID primitive.ObjectID, messageIDs []primitive.ObjectID) error {
	if _, err := s.visibleConversation(ctx, p, conversationID); err != nil {
		return err
	}

	for _, messageID := range messageIDs {
		msg, err := s.convRepo.GetMessageByID(ctx, messageID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return err
		}
		if msg.ConversationID != conversationID || msg.IsDeleted {
			continue
		}
		if msg.SenderID == p.ID {
			// Senders implicitly read their own messages.
			continue
		}
		if err := s.convRepo.MarkRead(ctx, messageID, p.ID); err != nil {
			return err
		}
	}
	return nil
}

// === Attachments ===

// RequestAttachmentURL issues a presigned PUT URL for an IMAGE/FILE message
// payload. Participants only.
func (s *messagingService) RequestAttachmentURL(ctx context.Context, p Principal, conversationID primitive.ObjectID, contentType string) (*AttachmentURLResponse, error) {
	if contentType == "" {
		return nil, ErrValidation
	}
	conv, err := s.convRepo.GetConversationByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !CanSeeConversation(p, conv) {
		return nil, ErrForbidden
	}

	objectKey := path.Join(
		"attachments",
		conversationID.Hex(),
		fmt.Sprintf("%s-%s", p.ID.Hex(), uuid.NewString()),
	)

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrAttachmentURL
	}

	return &AttachmentURLResponse{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
	}, nil
}
