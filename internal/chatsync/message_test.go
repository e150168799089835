package chatsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSessionID(t *testing.T) {
	assert.Equal(t, "abc-123", NormalizeSessionID("  abc-123\n"))
	assert.Equal(t, "", NormalizeSessionID("   "))
}

func TestDeriveProcessing_ShapeRules(t *testing.T) {
	tests := []struct {
		name     string
		messages []Message
		want     bool
	}{
		{"empty history", nil, false},
		{
			"balanced conversation",
			[]Message{
				{Type: MessageHuman, Content: "oi"},
				{Type: MessageAI, Content: "olá"},
			},
			false,
		},
		{
			"trailing human turn",
			[]Message{
				{Type: MessageHuman, Content: "oi"},
				{Type: MessageAI, Content: "olá"},
				{Type: MessageHuman, Content: "e aí?"},
			},
			true,
		},
		{
			"more humans than replies",
			[]Message{
				{Type: MessageHuman, Content: "a"},
				{Type: MessageHuman, Content: "b"},
				{Type: MessageAI, Content: "r"},
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveProcessing(nil, tt.messages))
		})
	}
}

func TestDeriveProcessing_PendingSlot(t *testing.T) {
	pending := &Message{Type: MessageHuman, Content: "qual o prazo?"}

	t.Run("pending not yet durable", func(t *testing.T) {
		assert.True(t, DeriveProcessing(pending, nil))
	})

	t.Run("pending durable but reply missing", func(t *testing.T) {
		msgs := []Message{{Type: MessageHuman, Content: "qual o prazo?"}}
		assert.True(t, DeriveProcessing(pending, msgs))
	})

	t.Run("pending confirmed with trailing reply", func(t *testing.T) {
		msgs := []Message{
			{Type: MessageHuman, Content: "qual o prazo?"},
			{Type: MessageAI, Content: "até sexta"},
		}
		assert.False(t, DeriveProcessing(pending, msgs))
	})

	t.Run("reply for an older turn does not confirm", func(t *testing.T) {
		msgs := []Message{
			{Type: MessageHuman, Content: "outra pergunta"},
			{Type: MessageAI, Content: "outra resposta"},
		}
		assert.True(t, DeriveProcessing(pending, msgs))
	})
}
