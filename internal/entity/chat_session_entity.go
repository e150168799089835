package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession is the metadata row of a conversation thread. SessionId is the
// opaque client-generated identifier shared with the chat history table; Id is
// the surrogate primary key.
type ChatSession struct {
	Id        uuid.UUID
	SessionId string
	UserId    uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
