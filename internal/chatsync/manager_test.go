package chatsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	mu       sync.Mutex
	messages map[string][]Message
	fetches  map[string]int
	delays   map[string]time.Duration
	err      error
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{
		messages: make(map[string][]Message),
		fetches:  make(map[string]int),
		delays:   make(map[string]time.Duration),
	}
}

func (f *fakeHistory) Messages(_ context.Context, sessionID string) ([]Message, error) {
	f.mu.Lock()
	delay := f.delays[sessionID]
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.fetches[sessionID]++
	out := make([]Message, len(f.messages[sessionID]))
	copy(out, f.messages[sessionID])
	return out, nil
}

func (f *fakeHistory) CountHuman(_ context.Context, sessionID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return countByType(f.messages[sessionID], MessageHuman), nil
}

func (f *fakeHistory) append(sessionID string, msgs ...Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[sessionID] = append(f.messages[sessionID], msgs...)
}

func (f *fakeHistory) fetchCount(sessionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[sessionID]
}

func (f *fakeHistory) setDelay(sessionID string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[sessionID] = d
}

type fakeSessions struct {
	mu      sync.Mutex
	rows    map[string]SessionInfo
	deleted map[string]bool
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{rows: make(map[string]SessionInfo), deleted: make(map[string]bool)}
}

func (f *fakeSessions) Exists(_ context.Context, sessionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[sessionID]
	return ok && !f.deleted[sessionID], nil
}

func (f *fakeSessions) Create(_ context.Context, sessionID, _, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[sessionID] = SessionInfo{ID: sessionID, Title: title}
	return nil
}

func (f *fakeSessions) Rename(_ context.Context, sessionID, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	info := f.rows[sessionID]
	info.ID = sessionID
	info.Title = title
	f.rows[sessionID] = info
	return nil
}

func (f *fakeSessions) SoftDelete(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted[sessionID] = true
	return nil
}

func (f *fakeSessions) ListActive(_ context.Context, _ string) ([]SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []SessionInfo
	for id, info := range f.rows {
		if !f.deleted[id] {
			out = append(out, info)
		}
	}
	return out, nil
}

func (f *fakeSessions) has(sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[sessionID]
	return ok
}

type fakeGenerator struct {
	mu      sync.Mutex
	invoked []string
	err     error
}

func (f *fakeGenerator) Invoke(_ context.Context, content, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.invoked = append(f.invoked, content)
	return nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.invoked)
}

func testConfig() Config {
	return Config{
		MessageLimit:   3,
		PollInterval:   10 * time.Millisecond,
		RetryDelay:     5 * time.Millisecond,
		ReconcileDelay: 10 * time.Millisecond,
		SafetyTimeout:  50 * time.Millisecond,
		HardTimeout:    30 * time.Millisecond,
	}
}

func newTestManager(t *testing.T) (*Manager, *fakeHistory, *fakeSessions, *fakeGenerator) {
	t.Helper()
	history := newFakeHistory()
	sessions := newFakeSessions()
	gen := &fakeGenerator{}
	m := NewManager(testConfig(), "user-1", history, sessions, gen, nil, nil)
	t.Cleanup(m.Close)
	return m, history, sessions, gen
}

func TestCreateNewSession_ReusesEmptySession(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	first := m.CreateNewSession("")
	require.NotEmpty(t, first)

	second := m.CreateNewSession("")
	assert.Equal(t, first, second, "an unused empty session must be reused, not stacked")

	snap := m.Snapshot()
	assert.True(t, snap.IsNew)
	assert.Len(t, snap.Sessions, 1)
}

func TestCreateNewSession_TrimsSpecificID(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	id := m.CreateNewSession("  my-session \n")
	assert.Equal(t, "my-session", id)
	assert.Equal(t, "my-session", m.Snapshot().SessionID)
}

func TestSendMessage_OptimisticAppendAndLazyCreate(t *testing.T) {
	m, history, sessions, gen := newTestManager(t)

	id := m.CreateNewSession("")
	require.False(t, sessions.has(id), "session row must not exist before the first message")

	err := m.SendMessage(context.Background(), "primeira pergunta")
	require.NoError(t, err)

	assert.True(t, sessions.has(id), "first message creates the session row")
	assert.Equal(t, 1, gen.calls())

	snap := m.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, MessageHuman, snap.Messages[0].Type)
	assert.True(t, snap.Processing)
	assert.False(t, snap.IsNew)

	// The workflow writes both rows; reconciliation should pick them up and
	// clear the pending state.
	history.append(id,
		Message{Type: MessageHuman, Content: "primeira pergunta"},
		Message{Type: MessageAI, Content: "resposta"},
	)

	require.Eventually(t, func() bool {
		s := m.Snapshot()
		return !s.Processing && len(s.Messages) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestSendMessage_PendingSurvivesUntilDurable(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	m.CreateNewSession("")
	require.NoError(t, m.SendMessage(context.Background(), "pergunta pendente"))

	// Several poll ticks against an empty durable set must keep the
	// optimistic message visible.
	time.Sleep(40 * time.Millisecond)

	snap := m.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "pergunta pendente", snap.Messages[0].Content)
	assert.True(t, snap.Processing)
}

func TestSendMessage_Preconditions(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	assert.ErrorIs(t, m.SendMessage(context.Background(), "sem sessão"), ErrNoSession)

	m.CreateNewSession("")
	assert.ErrorIs(t, m.SendMessage(context.Background(), ""), ErrEmptyMessage)

	require.NoError(t, m.SendMessage(context.Background(), "primeira"))
	assert.ErrorIs(t, m.SendMessage(context.Background(), "segunda"), ErrBusy)
}

func TestSendMessage_DurableLimitWins(t *testing.T) {
	m, history, _, gen := newTestManager(t)

	id := m.CreateNewSession("")
	// Local state is empty, but the durable store already holds the cap.
	history.append(id,
		Message{Type: MessageHuman, Content: "1"},
		Message{Type: MessageHuman, Content: "2"},
		Message{Type: MessageHuman, Content: "3"},
	)

	err := m.SendMessage(context.Background(), "uma a mais")
	assert.ErrorIs(t, err, ErrLimitReached)
	assert.Zero(t, gen.calls())

	snap := m.Snapshot()
	assert.True(t, snap.LimitReached)
	for _, msg := range snap.Messages {
		assert.NotEqual(t, "uma a mais", msg.Content, "optimistic append must be rolled back")
	}
	assert.True(t, snap.IsNew, "unsaved session state must be restored")
}

func TestSendMessage_GeneratorFailureRollsBack(t *testing.T) {
	m, _, _, gen := newTestManager(t)
	gen.err = errors.New("webhook unreachable")

	m.CreateNewSession("")
	err := m.SendMessage(context.Background(), "vai falhar")
	require.Error(t, err)

	snap := m.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.False(t, snap.Processing)
	assert.Equal(t, "webhook unreachable", snap.Error)
}

func TestFailPending_RollsBackOptimisticMessage(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	id := m.CreateNewSession("")
	require.NoError(t, m.SendMessage(context.Background(), "dispatch ok, delivery not"))

	m.FailPending(id, "dispatch ok, delivery not", "generation rejected")

	snap := m.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.False(t, snap.Processing)
	assert.Equal(t, "generation rejected", snap.Error)
}

func TestFailPending_IgnoresOtherSessions(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	m.CreateNewSession("")
	require.NoError(t, m.SendMessage(context.Background(), "fica"))

	m.FailPending("some-other-session", "fica", "irrelevant")

	snap := m.Snapshot()
	assert.Len(t, snap.Messages, 1)
	assert.True(t, snap.Processing)
}

func TestFailPending_IgnoresSupersededMessage(t *testing.T) {
	m, history, _, _ := newTestManager(t)

	id := m.CreateNewSession("")
	require.NoError(t, m.SendMessage(context.Background(), "primeira"))
	history.append(id,
		Message{Type: MessageHuman, Content: "primeira"},
		Message{Type: MessageAI, Content: "resposta"},
	)
	require.Eventually(t, func() bool {
		return !m.Snapshot().Processing
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, m.SendMessage(context.Background(), "segunda"))

	// A rejection for the already-confirmed first message arrives late; it
	// must not roll back the newer pending message.
	m.FailPending(id, "primeira", "stale rejection")

	snap := m.Snapshot()
	assert.True(t, snap.Processing)
	assert.Empty(t, snap.Error)
	found := false
	for _, msg := range snap.Messages {
		if msg.Content == "segunda" {
			found = true
		}
	}
	assert.True(t, found, "the newer pending message must survive a stale rejection")
}

func TestChangeSession_TwoPhaseLoad(t *testing.T) {
	m, history, sessions, _ := newTestManager(t)
	require.NoError(t, sessions.Create(context.Background(), "existing", "user-1", "Antiga"))

	// First read comes back empty; the rows land before the delayed retry.
	done := make(chan struct{})
	go func() {
		time.Sleep(2 * time.Millisecond)
		history.append("existing",
			Message{Type: MessageHuman, Content: "oi"},
			Message{Type: MessageAI, Content: "olá"},
		)
		close(done)
	}()

	require.NoError(t, m.ChangeSession(context.Background(), " existing "))
	<-done

	require.Eventually(t, func() bool {
		s := m.Snapshot()
		return s.SessionID == "existing" && len(s.Messages) == 2
	}, time.Second, 5*time.Millisecond)

	assert.GreaterOrEqual(t, history.fetchCount("existing"), 2, "empty first read must be retried")
}

func TestChangeSession_OverlappingChangeDropped(t *testing.T) {
	m, history, sessions, _ := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, sessions.Create(ctx, "session-a", "user-1", "A"))
	require.NoError(t, sessions.Create(ctx, "session-b", "user-1", "B"))
	history.append("session-a", Message{Type: MessageHuman, Content: "a1"}, Message{Type: MessageAI, Content: "a2"})
	history.append("session-b", Message{Type: MessageHuman, Content: "b1"}, Message{Type: MessageAI, Content: "b2"})
	history.setDelay("session-a", 30*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		done <- m.ChangeSession(ctx, "session-a")
	}()

	// The first change is still fetching; the second must be dropped.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, m.ChangeSession(ctx, "session-b"))
	require.NoError(t, <-done)

	snap := m.Snapshot()
	assert.Equal(t, "session-a", snap.SessionID, "first caller wins, the overlapping change is dropped")
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "a1", snap.Messages[0].Content)
}

func TestChangeSession_DiscardsPendingOfPreviousSession(t *testing.T) {
	m, history, _, _ := newTestManager(t)

	m.CreateNewSession("")
	require.NoError(t, m.SendMessage(context.Background(), "mensagem da sessão a"))

	history.append("session-b", Message{Type: MessageHuman, Content: "b1"}, Message{Type: MessageAI, Content: "b2"})
	require.NoError(t, m.ChangeSession(context.Background(), "session-b"))

	snap := m.Snapshot()
	assert.Equal(t, "session-b", snap.SessionID)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "b1", snap.Messages[0].Content)
}

func TestPolling_PicksUpWorkflowWrites(t *testing.T) {
	m, history, _, _ := newTestManager(t)

	id := m.CreateNewSession("")
	history.append(id, Message{Type: MessageHuman, Content: "escrita externa"})

	require.Eventually(t, func() bool {
		s := m.Snapshot()
		return len(s.Messages) == 1 && s.Processing
	}, time.Second, 5*time.Millisecond)
}

func TestDeleteSession_SwitchesToRemaining(t *testing.T) {
	m, _, sessions, _ := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, sessions.Create(ctx, "keep", "user-1", "Fica"))
	require.NoError(t, m.LoadSessions(ctx))

	m.CreateNewSession("doomed")
	require.NoError(t, m.SendMessage(ctx, "persistir"))
	require.NoError(t, m.DeleteSession(ctx, "doomed"))

	snap := m.Snapshot()
	assert.Equal(t, "keep", snap.SessionID)
	for _, info := range snap.Sessions {
		assert.NotEqual(t, "doomed", info.ID)
	}
}

func TestDeleteSession_LastSessionCreatesFresh(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	ctx := context.Background()

	id := m.CreateNewSession("")
	require.NoError(t, m.SendMessage(ctx, "única"))
	require.NoError(t, m.DeleteSession(ctx, id))

	snap := m.Snapshot()
	assert.NotEmpty(t, snap.SessionID)
	assert.NotEqual(t, id, snap.SessionID)
	assert.True(t, snap.IsNew)
	assert.Empty(t, snap.Messages)
}

func TestRenameSession_UpdatesSidebarCache(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	id := m.CreateNewSession("")
	require.NoError(t, m.RenameSession(context.Background(), id, "Planejamento"))

	snap := m.Snapshot()
	require.Len(t, snap.Sessions, 1)
	assert.Equal(t, "Planejamento", snap.Sessions[0].Title)
}

func TestResetProcessing_ClearsStuckState(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	m.CreateNewSession("")
	require.NoError(t, m.SendMessage(context.Background(), "trava"))
	require.True(t, m.Snapshot().Processing)

	m.ResetProcessing()

	snap := m.Snapshot()
	assert.False(t, snap.Processing)
	assert.Empty(t, snap.Error)
}

func TestSafetyTimers_HardTimeoutClearsProcessing(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	m.CreateNewSession("")
	require.NoError(t, m.SendMessage(context.Background(), "nunca respondida"))

	// SafetyTimeout + HardTimeout = 80ms in the test config.
	require.Eventually(t, func() bool {
		return !m.Snapshot().Processing
	}, time.Second, 5*time.Millisecond)
}

func TestSafetyTimers_InterleavedSendsKeepOwnDeadline(t *testing.T) {
	m, history, _, _ := newTestManager(t)
	ctx := context.Background()

	start := time.Now()
	id := m.CreateNewSession("")
	require.NoError(t, m.SendMessage(ctx, "primeira"))
	history.append(id,
		Message{Type: MessageHuman, Content: "primeira"},
		Message{Type: MessageAI, Content: "resposta"},
	)
	require.Eventually(t, func() bool {
		return !m.Snapshot().Processing
	}, time.Second, 5*time.Millisecond)

	// Second send lands inside the first send's timer window (the first
	// send's timers expire 80ms after it). Its pending message must survive
	// them and only answer to its own deadline.
	time.Sleep(time.Until(start.Add(60 * time.Millisecond)))
	require.NoError(t, m.SendMessage(ctx, "segunda"))

	time.Sleep(45 * time.Millisecond)
	snap := m.Snapshot()
	assert.True(t, snap.Processing, "an earlier send's timer must not clear a newer pending message")
	found := false
	for _, msg := range snap.Messages {
		if msg.Content == "segunda" {
			found = true
		}
	}
	assert.True(t, found, "the second optimistic message must stay visible")

	// The second send's own hard deadline still clears the stuck state.
	require.Eventually(t, func() bool {
		return !m.Snapshot().Processing
	}, time.Second, 5*time.Millisecond)
}

func TestLoadSessions_NormalizesIDs(t *testing.T) {
	m, _, sessions, _ := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, sessions.Create(ctx, " padded-id ", "user-1", "Legada"))

	require.NoError(t, m.LoadSessions(ctx))

	snap := m.Snapshot()
	require.Len(t, snap.Sessions, 1)
	assert.Equal(t, "padded-id", snap.Sessions[0].ID)
}
