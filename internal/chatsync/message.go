package chatsync

import "strings"

// MessageType mirrors the "type" discriminator stored in the shared history
// table.
type MessageType string

const (
	MessageHuman MessageType = "human"
	MessageAI    MessageType = "ai"
)

// Message is one chat turn as the presentation layer sees it. Messages are
// immutable once persisted; the core only ever appends or re-reads them.
type Message struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
}

// SessionInfo is the sidebar view model cached per session id. It is not
// authoritative: the durable title wins on the next list reload.
type SessionInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	IsNew bool   `json:"is_new"`
}

// NormalizeSessionID trims incidental whitespace. Ids are normalized at every
// ingress point so the rest of the core can compare them byte-for-byte.
func NormalizeSessionID(id string) string {
	return strings.TrimSpace(id)
}

// DeriveProcessing decides whether an AI reply is still outstanding.
//
// With a tracked pending message the answer follows the pending slot: the
// reply is in only when the pending content shows up in the durable set and
// the set ends on an AI turn. Without a pending slot (fresh process, page
// reload) the shape of the durable set decides: a trailing human turn, or
// more human turns than AI turns, means the workflow still owes a reply.
func DeriveProcessing(pending *Message, messages []Message) bool {
	if pending != nil {
		return !pendingConfirmed(pending, messages)
	}

	if len(messages) == 0 {
		return false
	}
	if messages[len(messages)-1].Type == MessageHuman {
		return true
	}
	return countByType(messages, MessageHuman) > countByType(messages, MessageAI)
}

// pendingConfirmed reports whether the durable set contains the pending human
// turn with an AI reply as the final element.
func pendingConfirmed(pending *Message, messages []Message) bool {
	if len(messages) == 0 {
		return false
	}
	if messages[len(messages)-1].Type != MessageAI {
		return false
	}
	return containsHuman(messages, pending.Content)
}

func containsHuman(messages []Message, content string) bool {
	for _, m := range messages {
		if m.Type == MessageHuman && m.Content == content {
			return true
		}
	}
	return false
}

func countByType(messages []Message, t MessageType) int {
	n := 0
	for _, m := range messages {
		if m.Type == t {
			n++
		}
	}
	return n
}

// messagesEqual compares by value so unchanged polls can skip state updates.
func messagesEqual(a, b []Message) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
