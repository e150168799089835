package chatsync

import (
	"context"
	"time"
)

// HistoryStore reads the append-only message table. The returned slice is in
// insertion order (the store's auto-increment id), which the core treats as
// ground truth. Implementations must already have filtered malformed rows.
type HistoryStore interface {
	Messages(ctx context.Context, sessionID string) ([]Message, error)
	CountHuman(ctx context.Context, sessionID string) (int, error)
}

// SessionStore manages the session-metadata rows.
type SessionStore interface {
	Exists(ctx context.Context, sessionID string) (bool, error)
	Create(ctx context.Context, sessionID, userID, title string) error
	Rename(ctx context.Context, sessionID, title string) error
	SoftDelete(ctx context.Context, sessionID string) error
	ListActive(ctx context.Context, userID string) ([]SessionInfo, error)
}

// Generator hands a human message to the generation collaborator. The call is
// fire-and-forget: a nil error only means the message was accepted, the reply
// arrives later through the history table.
type Generator interface {
	Invoke(ctx context.Context, content, sessionID, userID string) error
}

// Notifier receives a snapshot whenever the manager's exposed state changes.
type Notifier interface {
	Publish(userID string, snap Snapshot)
}

// Config carries the timing knobs. Tests shrink these to milliseconds.
type Config struct {
	MessageLimit   int
	PollInterval   time.Duration
	RetryDelay     time.Duration
	ReconcileDelay time.Duration
	SafetyTimeout  time.Duration
	HardTimeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		MessageLimit:   10,
		PollInterval:   2 * time.Second,
		RetryDelay:     300 * time.Millisecond,
		ReconcileDelay: 2 * time.Second,
		SafetyTimeout:  10 * time.Second,
		HardTimeout:    5 * time.Second,
	}
}

// Snapshot is the state the presentation layer renders.
type Snapshot struct {
	Phase        string        `json:"phase"`
	SessionID    string        `json:"session_id"`
	Messages     []Message     `json:"messages"`
	Sessions     []SessionInfo `json:"sessions"`
	Processing   bool          `json:"processing"`
	LimitReached bool          `json:"limit_reached"`
	IsNew        bool          `json:"is_new"`
	Error        string        `json:"error,omitempty"`
	LastActivity time.Time     `json:"last_activity"`
}
