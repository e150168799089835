package entity

import "time"

// ChatHistory is one append-only row of the shared chat history table. The
// workflow automation writes AI rows into the same table, so Id (the
// auto-increment column) is the only ordering ground truth.
type ChatHistory struct {
	Id        int64
	SessionId string
	Type      string // constant.ChatMessageTypeHuman / ...TypeAI
	Content   string
	CreatedAt time.Time
}
