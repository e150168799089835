package constant

const (
	// Message types stored in the chat history jsonb payload. The history
	// table is shared with the workflow automation, so these literals must
	// match what the workflow writes.
	ChatMessageTypeHuman = "human"
	ChatMessageTypeAI    = "ai"

	// DefaultSessionTitle is the title a session carries until the user renames it.
	DefaultSessionTitle = "Nova Conversa"

	// ErrMessageLimitReached is the user-facing message once a session hits
	// its human-message cap.
	ErrMessageLimitReached = "limite de mensagens atingido para esta conversa"
)
