package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Note is a personal scratch note, visible only to its author.
type Note struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthorID  primitive.ObjectID `bson:"authorId" json:"-"`
	Title     string             `bson:"title" json:"title"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
}
