package dto

import "oraculo-be/internal/chatsync"

type CreateSessionRequest struct {
	// SessionId lets the client supply its own opaque id; blank means the
	// server generates one.
	SessionId string `json:"session_id"`
}

type CreateSessionResponse struct {
	SessionId string `json:"session_id"`
}

type SelectSessionRequest struct {
	SessionId string `json:"session_id" validate:"required"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

type RenameSessionRequest struct {
	Title string `json:"title" validate:"required,min=1,max=120"`
}

// ChatStateResponse is the poll payload: the client renders exactly this.
type ChatStateResponse struct {
	chatsync.Snapshot
}

// GenerateMessage travels over the in-process bus from the chat service to
// the generation consumer.
type GenerateMessage struct {
	Content   string `json:"content"`
	SessionId string `json:"session_id"`
	UserId    string `json:"user_id"`
}
