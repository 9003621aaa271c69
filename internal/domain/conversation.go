package domain

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConversationType distinguishes two-participant from multi-participant threads.
type ConversationType string

const (
	ConversationDirect ConversationType = "DIRECT"
	ConversationGroup  ConversationType = "GROUP"
)

// MessageType describes the payload of a message.
type MessageType string

const (
	MessageText   MessageType = "TEXT"
	MessageImage  MessageType = "IMAGE"
	MessageFile   MessageType = "FILE"
	MessageSystem MessageType = "SYSTEM"
)

// Conversation is a message thread. A DIRECT conversation has exactly two
// participants and carries a canonical PairKey so at most one active direct
// conversation can exist per unordered participant pair.
type Conversation struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Type           ConversationType     `bson:"type" json:"conversation_type"`
	Title          string               `bson:"title,omitempty" json:"title,omitempty"` // GROUP only
	ParticipantIDs []primitive.ObjectID `bson:"participantIds" json:"participant_ids"`
	PairKey        string               `bson:"pairKey,omitempty" json:"-"` // DIRECT only
	IsActive       bool                 `bson:"isActive" json:"is_active"`
	CreatedAt      time.Time            `bson:"createdAt" json:"created_at"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updated_at"`
}

// HasParticipant reports whether the user belongs to the conversation.
func (c *Conversation) HasParticipant(userID primitive.ObjectID) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not the given user.
// Only meaningful for DIRECT conversations.
func (c *Conversation) OtherParticipant(userID primitive.ObjectID) (primitive.ObjectID, bool) {
	for _, id := range c.ParticipantIDs {
		if id != userID {
			return id, true
		}
	}
	return primitive.NilObjectID, false
}

// DirectPairKey builds the canonical key for an unordered participant pair:
// both hex ids sorted and joined. Order of the arguments does not matter.
func DirectPairKey(a, b primitive.ObjectID) string {
	keys := []string{a.Hex(), b.Hex()}
	sort.Strings(keys)
	return keys[0] + ":" + keys[1]
}

// Message is a single entry in a conversation. Deletion is soft: IsDeleted
// messages stay in the store but are excluded from every read path.
type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConversationID primitive.ObjectID `bson:"conversationId" json:"conversation_id"`
	SenderID       primitive.ObjectID `bson:"senderId" json:"sender_id"`
	Type           MessageType        `bson:"type" json:"message_type"`
	Content        string             `bson:"content" json:"content"`
	FileURL        string             `bson:"fileUrl,omitempty" json:"file_url,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"created_at"`
	EditedAt       *time.Time         `bson:"editedAt,omitempty" json:"edited_at,omitempty"`
	IsEdited       bool               `bson:"isEdited" json:"is_edited"`
	IsDeleted      bool               `bson:"isDeleted" json:"is_deleted"`
}

// MessageRead is a per-user read receipt, unique per (message, user) pair.
// Senders never get receipts for their own messages; they have implicitly
// read what they wrote.
type MessageRead struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MessageID primitive.ObjectID `bson:"messageId" json:"message_id"`
	UserID    primitive.ObjectID `bson:"userId" json:"user_id"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
}
