package chatsync

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"oraculo-be/internal/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrNoSession    = errors.New("no session selected")
	ErrEmptyMessage = errors.New("message content is empty")
	ErrBusy         = errors.New("a message is already being processed")
	ErrLimitReached = errors.New("message limit reached for this session")
)

// Manager owns the chat state of one user: the current session, its message
// list, the single pending (unconfirmed) human message, and the polling loop
// that reconciles optimistic state against the durable history table.
//
// The durable store is multi-writer (the workflow automation appends AI rows
// on its own schedule), so every read may reflect writes the manager never
// issued. Consistency comes from polling plus the reconciliation rules in
// loadMessages, never from locking the store.
type Manager struct {
	cfg     Config
	userID  string
	history HistoryStore
	store   SessionStore
	gen     Generator
	notify  Notifier
	log     logger.ILogger

	mu           sync.Mutex
	phase        Phase
	currentID    string
	messages     []Message
	sessions     map[string]SessionInfo
	pending      *Message
	processing   bool
	limitHit     bool
	isNew        bool
	emptyID      string // id of the single unsaved session, "" when none
	errMsg       string
	lastActivity time.Time
	pollCancel   context.CancelFunc
	closed       bool
}

func NewManager(cfg Config, userID string, history HistoryStore, store SessionStore, gen Generator, notify Notifier, log logger.ILogger) *Manager {
	if cfg.MessageLimit <= 0 {
		cfg = DefaultConfig()
	}
	return &Manager{
		cfg:      cfg,
		userID:   userID,
		history:  history,
		store:    store,
		gen:      gen,
		notify:   notify,
		log:      log,
		phase:    PhaseIdle,
		sessions: make(map[string]SessionInfo),
	}
}

// LoadSessions primes the sidebar cache from the durable store.
func (m *Manager) LoadSessions(ctx context.Context) error {
	infos, err := m.store.ListActive(ctx, m.userID)
	if err != nil {
		return err
	}
	m.mu.Lock()
	for _, info := range infos {
		info.ID = NormalizeSessionID(info.ID)
		m.sessions[info.ID] = info
	}
	m.mu.Unlock()
	return nil
}

// CreateNewSession returns the id of a fresh in-memory session. Nothing is
// written durably: the metadata row appears on the first SendMessage. If an
// empty session already exists it is reused instead of stacking up abandoned
// ones, and a creation already in flight makes the call a soft no-op ("").
func (m *Manager) CreateNewSession(specificID string) string {
	m.mu.Lock()

	if m.closed || m.phase == PhaseCreating {
		m.mu.Unlock()
		return ""
	}

	if m.emptyID != "" {
		id := m.emptyID
		if m.currentID != id {
			m.switchToLocked(id, nil)
		}
		m.mu.Unlock()
		m.publish()
		return id
	}

	m.phase = PhaseCreating

	id := NormalizeSessionID(specificID)
	if id == "" {
		id = uuid.NewString()
	}

	m.stopPollingLocked()
	m.currentID = id
	m.messages = nil
	m.pending = nil
	m.processing = false
	m.limitHit = false
	m.isNew = true
	m.emptyID = id
	m.errMsg = ""
	m.sessions[id] = SessionInfo{ID: id, Title: defaultTitle, IsNew: true}
	m.startPollingLocked(id)
	m.phase = PhasePolling
	m.mu.Unlock()

	m.publish()
	return id
}

// ChangeSession selects another session and reloads its messages. The second
// of two overlapping calls is dropped (first-caller-wins), and a change onto
// the already-current session is a no-op.
func (m *Manager) ChangeSession(ctx context.Context, sessionID string) error {
	sessionID = NormalizeSessionID(sessionID)

	m.mu.Lock()
	// PhaseLoading covers the whole two-phase load below, so overlapping
	// calls are dropped until the first change finishes (first-caller-wins).
	if m.closed || sessionID == "" || m.currentID == sessionID || m.phase == PhaseChanging || m.phase == PhaseLoading {
		m.mu.Unlock()
		return nil
	}
	m.phase = PhaseChanging
	m.stopPollingLocked()
	m.pending = nil
	m.processing = false
	m.errMsg = ""
	m.currentID = sessionID
	m.messages = nil
	m.isNew = sessionID == m.emptyID
	m.phase = PhaseLoading
	m.mu.Unlock()

	// Two-phase load: immediate fetch plus one delayed retry. The history
	// table can lag its own writes, so an empty first read gets a second
	// chance before the steady poll takes over.
	fetched, err := m.fetch(ctx, sessionID)
	if err == nil && len(fetched) == 0 {
		select {
		case <-time.After(m.cfg.RetryDelay):
			fetched, err = m.fetch(ctx, sessionID)
		case <-ctx.Done():
			err = ctx.Err()
		}
	}
	if err != nil {
		m.logError("ChangeSession", "initial load failed", err, sessionID)
	} else {
		m.applyFetch(sessionID, fetched, true)
	}

	m.mu.Lock()
	if m.currentID == sessionID && !m.closed {
		m.startPollingLocked(sessionID)
		m.phase = PhasePolling
	}
	m.mu.Unlock()

	m.publish()
	return nil
}

// SendMessage runs the documented send sequence: optimistic append, lazy
// session-row creation, durable limit re-check, generation dispatch, then the
// scheduled reconciliation and the escalating safety timers.
func (m *Manager) SendMessage(ctx context.Context, content string) error {
	m.mu.Lock()
	if m.closed || m.currentID == "" {
		m.mu.Unlock()
		return ErrNoSession
	}
	if content == "" {
		m.mu.Unlock()
		return ErrEmptyMessage
	}
	if m.processing {
		m.mu.Unlock()
		return ErrBusy
	}
	if m.limitHit {
		m.mu.Unlock()
		return ErrLimitReached
	}

	sessionID := m.currentID
	wasNew := m.isNew

	msg := Message{Type: MessageHuman, Content: content}
	m.pending = &msg
	m.messages = append(m.messages, msg)
	m.processing = true
	m.lastActivity = time.Now()
	m.errMsg = ""
	if wasNew {
		m.isNew = false
		m.emptyID = ""
		if info, ok := m.sessions[sessionID]; ok {
			info.IsNew = false
			m.sessions[sessionID] = info
		}
	}
	m.mu.Unlock()
	m.publish()

	rollback := func(err error, limit bool) {
		m.mu.Lock()
		m.removePendingLocked()
		m.processing = false
		m.limitHit = m.limitHit || limit
		m.errMsg = err.Error()
		if wasNew && m.currentID == sessionID {
			m.isNew = true
			m.emptyID = sessionID
			if info, ok := m.sessions[sessionID]; ok {
				info.IsNew = true
				m.sessions[sessionID] = info
			}
		}
		m.mu.Unlock()
		m.publish()
	}

	// Lazy persistence: the metadata row is created on the first human
	// message, never at session creation. The existence check keeps a
	// double-send from racing into a duplicate insert.
	if wasNew {
		exists, err := m.store.Exists(ctx, sessionID)
		if err != nil {
			rollback(err, false)
			return err
		}
		if !exists {
			if err := m.store.Create(ctx, sessionID, m.userID, defaultTitle); err != nil {
				rollback(err, false)
				return err
			}
		}
	}

	// Re-check the cap against the durable store rather than local state:
	// the local view can undercount after a reload.
	humanCount, err := m.history.CountHuman(ctx, sessionID)
	if err != nil {
		rollback(err, false)
		return err
	}
	if humanCount >= m.cfg.MessageLimit {
		rollback(ErrLimitReached, true)
		return ErrLimitReached
	}

	if err := m.gen.Invoke(ctx, content, sessionID, m.userID); err != nil {
		rollback(err, false)
		return err
	}

	// Forced reconciliation shortly after dispatch, then the safety ladder:
	// at SafetyTimeout force another reconcile, and HardTimeout later clear
	// the pending state so the UI can never hang forever. The timers belong
	// to THIS send: each one re-checks that the pending slot still holds the
	// message it was armed for, so a timer left over from an earlier send
	// cannot clear a newer message before its own deadline.
	sent := &msg
	time.AfterFunc(m.cfg.ReconcileDelay, func() {
		m.reconcile(sessionID)
	})
	time.AfterFunc(m.cfg.SafetyTimeout, func() {
		m.mu.Lock()
		stuck := m.processing && m.pending == sent && m.currentID == sessionID
		m.mu.Unlock()
		if stuck {
			m.reconcile(sessionID)
		}
	})
	time.AfterFunc(m.cfg.SafetyTimeout+m.cfg.HardTimeout, func() {
		m.mu.Lock()
		if m.pending == sent && m.currentID == sessionID {
			m.pending = nil
			m.processing = false
			m.mu.Unlock()
			m.publish()
			return
		}
		m.mu.Unlock()
	})

	return nil
}

// FailPending is the feedback path for generation-collaborator failures: the
// optimistic message is rolled back and the error surfaced. The content names
// which send failed; a rejection arriving late for a message that is no longer
// pending (already confirmed, or superseded by a newer send) is ignored.
func (m *Manager) FailPending(sessionID, content, reason string) {
	sessionID = NormalizeSessionID(sessionID)
	m.mu.Lock()
	if m.currentID != sessionID {
		m.mu.Unlock()
		return
	}
	if m.pending == nil || m.pending.Content != content {
		m.mu.Unlock()
		return
	}
	m.removePendingLocked()
	m.processing = false
	m.errMsg = reason
	m.mu.Unlock()
	m.publish()
}

func (m *Manager) RenameSession(ctx context.Context, sessionID, title string) error {
	sessionID = NormalizeSessionID(sessionID)
	if err := m.store.Rename(ctx, sessionID, title); err != nil {
		m.setError(err)
		return err
	}
	m.mu.Lock()
	if info, ok := m.sessions[sessionID]; ok {
		info.Title = title
		m.sessions[sessionID] = info
	}
	m.mu.Unlock()
	m.publish()
	return nil
}

// DeleteSession soft-deletes the session durably and drops it from the
// sidebar cache. Deleting the current session moves to another active one, or
// creates a fresh empty session when none remain.
func (m *Manager) DeleteSession(ctx context.Context, sessionID string) error {
	sessionID = NormalizeSessionID(sessionID)
	if err := m.store.SoftDelete(ctx, sessionID); err != nil {
		m.setError(err)
		return err
	}

	m.mu.Lock()
	delete(m.sessions, sessionID)
	if m.emptyID == sessionID {
		m.emptyID = ""
	}
	wasCurrent := m.currentID == sessionID
	var replacement string
	if wasCurrent {
		m.stopPollingLocked()
		m.currentID = ""
		m.messages = nil
		m.pending = nil
		m.processing = false
		m.phase = PhaseIdle
		for id := range m.sessions {
			replacement = id
			break
		}
	}
	m.mu.Unlock()

	if wasCurrent {
		if replacement != "" {
			return m.ChangeSession(ctx, replacement)
		}
		m.CreateNewSession("")
	} else {
		m.publish()
	}
	return nil
}

// ResetProcessing is the manual escape hatch for a stuck UI. Durable data is
// untouched.
func (m *Manager) ResetProcessing() {
	m.mu.Lock()
	m.pending = nil
	m.processing = false
	m.errMsg = ""
	m.mu.Unlock()
	m.publish()
}

// Reconcile forces one fetch-and-merge pass for the current session.
func (m *Manager) Reconcile(ctx context.Context) {
	m.mu.Lock()
	sessionID := m.currentID
	m.mu.Unlock()
	if sessionID != "" {
		m.reconcile(sessionID)
	}
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Close stops the polling goroutine. The manager must not be used afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.stopPollingLocked()
	m.phase = PhaseIdle
	m.mu.Unlock()
}

// --- internals ---

const defaultTitle = "Nova Conversa"

func (m *Manager) snapshotLocked() Snapshot {
	msgs := make([]Message, len(m.messages))
	copy(msgs, m.messages)

	infos := make([]SessionInfo, 0, len(m.sessions))
	for _, info := range m.sessions {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })

	return Snapshot{
		Phase:        m.phase.String(),
		SessionID:    m.currentID,
		Messages:     msgs,
		Sessions:     infos,
		Processing:   m.processing,
		LimitReached: m.limitHit,
		IsNew:        m.isNew,
		Error:        m.errMsg,
		LastActivity: m.lastActivity,
	}
}

func (m *Manager) publish() {
	if m.notify == nil {
		return
	}
	m.mu.Lock()
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify.Publish(m.userID, snap)
}

func (m *Manager) setError(err error) {
	m.mu.Lock()
	m.errMsg = err.Error()
	m.mu.Unlock()
	m.publish()
}

func (m *Manager) switchToLocked(id string, msgs []Message) {
	m.stopPollingLocked()
	m.currentID = id
	m.messages = msgs
	m.pending = nil
	m.processing = false
	m.limitHit = false
	m.isNew = id == m.emptyID
	m.startPollingLocked(id)
	m.phase = PhasePolling
}

func (m *Manager) removePendingLocked() {
	if m.pending == nil {
		return
	}
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i] == *m.pending {
			m.messages = append(m.messages[:i], m.messages[i+1:]...)
			break
		}
	}
	m.pending = nil
}

// startPollingLocked binds a repeating reconcile task to the session id as it
// is now. The context doubles as the cancellation token: a session change
// cancels it, and a fetch that resolves late is discarded in applyFetch.
func (m *Manager) startPollingLocked(sessionID string) {
	ctx, cancel := context.WithCancel(context.Background())
	m.pollCancel = cancel

	go func() {
		ticker := time.NewTicker(m.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fetched, err := m.fetch(ctx, sessionID)
				if err != nil {
					// Transient read failures are logged and swallowed;
					// the next tick retries.
					m.logError("poll", "history fetch failed", err, sessionID)
					continue
				}
				if ctx.Err() != nil {
					return
				}
				m.applyFetch(sessionID, fetched, false)
			}
		}
	}()
}

func (m *Manager) stopPollingLocked() {
	if m.pollCancel != nil {
		m.pollCancel()
		m.pollCancel = nil
	}
}

func (m *Manager) reconcile(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	fetched, err := m.fetch(ctx, sessionID)
	if err != nil {
		m.logError("reconcile", "history fetch failed", err, sessionID)
		return
	}
	m.applyFetch(sessionID, fetched, true)
}

func (m *Manager) fetch(ctx context.Context, sessionID string) ([]Message, error) {
	return m.history.Messages(ctx, sessionID)
}

// applyFetch merges one durable read into local state. This is the
// reconciliation step of the core; the rules, in order:
//
//   - a fetch for a session that is no longer current is discarded
//   - a pending message found with a trailing AI reply is confirmed
//   - a pending message absent from the durable set is synthesized into the
//     display list so a just-sent message never visually disappears
//   - an unchanged message set skips the state update
//   - without a pending slot, processing is re-derived from message shape so
//     the flag survives a reload with a reply still outstanding
func (m *Manager) applyFetch(sessionID string, fetched []Message, force bool) {
	m.mu.Lock()

	if m.currentID != sessionID || m.closed {
		m.mu.Unlock()
		return
	}

	display := fetched
	if m.pending != nil {
		if pendingConfirmed(m.pending, fetched) {
			m.pending = nil
			m.processing = false
		} else if !containsHuman(fetched, m.pending.Content) {
			display = append(append([]Message{}, fetched...), *m.pending)
		}
	}

	m.limitHit = countByType(fetched, MessageHuman) >= m.cfg.MessageLimit

	if m.pending == nil {
		m.processing = DeriveProcessing(nil, fetched)
	}

	if !force && messagesEqual(display, m.messages) {
		m.mu.Unlock()
		return
	}

	m.messages = display
	m.mu.Unlock()
	m.publish()
}

func (m *Manager) logError(op, msg string, err error, sessionID string) {
	if m.log == nil {
		return
	}
	m.log.Error("ChatSync", msg, map[string]interface{}{
		"op":         op,
		"session_id": sessionID,
		"error":      err.Error(),
	})
}
