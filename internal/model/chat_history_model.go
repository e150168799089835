package model

import (
	"time"

	"gorm.io/datatypes"
)

// ChatHistory maps the append-only history table shared with the workflow
// automation. No soft delete here: rows are never removed, and the serial Id
// is the ordering ground truth.
type ChatHistory struct {
	Id        int64          `gorm:"primaryKey;autoIncrement"`
	SessionId string         `gorm:"type:text;not null;index"`
	Message   datatypes.JSON `gorm:"type:jsonb;not null"` // {"type": "human"|"ai", "content": "..."}
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

func (ChatHistory) TableName() string {
	return "chat_histories"
}
