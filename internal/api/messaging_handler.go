package api

import (
	"fmt"
	"net/http"

	"github.com/ParkerJahn/sweatsheet-web/internal/domain"
	"github.com/ParkerJahn/sweatsheet-web/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessagingHandler serves conversations, messages, receipts and attachments.
type MessagingHandler struct {
	messagingService service.MessagingService
}

// NewMessagingHandler creates a new MessagingHandler.
func NewMessagingHandler(messagingService service.MessagingService) *MessagingHandler {
	return &MessagingHandler{messagingService: messagingService}
}

// --- Request Structs ---

type CreateConversationRequest struct {
	Type           domain.ConversationType `json:"conversation_type" binding:"required,oneof=DIRECT GROUP"`
	Title          string                  `json:"title"`
	ParticipantIDs []string                `json:"participant_ids" binding:"required,min=1"`
}

type UpdateConversationRequest struct {
	Title          string   `json:"title"`
	ParticipantIDs []string `json:"participant_ids"`
}

type DirectConversationRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type PostMessageRequest struct {
	Type    domain.MessageType `json:"message_type" binding:"omitempty,oneof=TEXT IMAGE FILE SYSTEM"`
	Content string             `json:"content"`
	FileURL string             `json:"file_url"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type MarkReadRequest struct {
	MessageIDs []string `json:"message_ids"`
}

type AttachmentURLRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

func parseObjectIDs(raw []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, r := range raw {
		id, err := primitive.ObjectIDFromHex(r)
		if err != nil {
			return nil, fmt.Errorf("invalid id: %s", r)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// --- Handler Methods ---

// ListConversations returns the caller's conversation summaries, newest
// updated first.
func (h *MessagingHandler) ListConversations(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	summaries, err := h.messagingService.ListConversations(c.Request.Context(), p)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// CreateConversation creates a group conversation, or get-or-creates a direct
// one when the type is DIRECT.
func (h *MessagingHandler) CreateConversation(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	participantIDs, err := parseObjectIDs(req.ParticipantIDs)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.messagingService.CreateConversation(c.Request.Context(), p, req.Type, req.Title, participantIDs)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

// GetOrCreateDirect returns the direct conversation with another user,
// creating it on first contact. Both directions yield the same conversation.
func (h *MessagingHandler) GetOrCreateDirect(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	var req DirectConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	otherID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		abortWithError(c, http.StatusNotFound, "user not found")
		return
	}

	conv, err := h.messagingService.GetOrCreateDirectConversation(c.Request.Context(), p, otherID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// GetConversation returns a conversation with participants and latest
// messages.
func (h *MessagingHandler) GetConversation(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	convID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.messagingService.GetConversation(c.Request.Context(), p, convID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateConversation renames a group conversation or changes its members.
func (h *MessagingHandler) UpdateConversation(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	convID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	participantIDs, err := parseObjectIDs(req.ParticipantIDs)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.messagingService.UpdateConversation(c.Request.Context(), p, convID, req.Title, participantIDs)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// DeleteConversation soft-deletes (deactivates) a conversation.
func (h *MessagingHandler) DeleteConversation(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	convID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.messagingService.DeactivateConversation(c.Request.Context(), p, convID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// === Messages ===

// ListMessages returns non-deleted messages newest first. Non-participants
// get an empty list.
func (h *MessagingHandler) ListMessages(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	convID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	messages, err := h.messagingService.ListMessages(c.Request.Context(), p, convID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// PostMessage appends a message to a conversation.
func (h *MessagingHandler) PostMessage(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	convID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	msg, err := h.messagingService.PostMessage(c.Request.Context(), p, convID, req.Type, req.Content, req.FileURL)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// EditMessage rewrites the caller's own message.
func (h *MessagingHandler) EditMessage(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	messageID, ok := parseObjectIDParam(c, "messageId")
	if !ok {
		return
	}

	var req EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	msg, err := h.messagingService.EditMessage(c.Request.Context(), p, messageID, req.Content)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// DeleteMessage soft-deletes the caller's own message.
func (h *MessagingHandler) DeleteMessage(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	messageID, ok := parseObjectIDParam(c, "messageId")
	if !ok {
		return
	}

	if err := h.messagingService.DeleteMessage(c.Request.Context(), p, messageID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkRead acknowledges messages for the caller. Unknown or foreign ids are
// skipped; an empty list succeeds as a no-op.
func (h *MessagingHandler) MarkRead(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	convID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	messageIDs, err := parseObjectIDs(req.MessageIDs)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.messagingService.MarkRead(c.Request.Context(), p, convID, messageIDs); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "messages marked as read"})
}

// RequestAttachmentURL issues a presigned upload URL for an IMAGE/FILE
// message payload.
func (h *MessagingHandler) RequestAttachmentURL(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	convID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	var req AttachmentURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	resp, err := h.messagingService.RequestAttachmentURL(c.Request.Context(), p, convID, req.ContentType)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
