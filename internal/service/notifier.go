package service

import (
	"context"
	"sync"

	"oraculo-be/internal/chatsync"
	"oraculo-be/internal/pkg/logger"
	internalWS "oraculo-be/internal/websocket"
	"oraculo-be/pkg/events"
	pktNats "oraculo-be/pkg/nats"

	"github.com/google/uuid"
)

// snapshotNotifier pushes chat state snapshots to connected websocket
// clients. The HTTP poll endpoint stays authoritative; this channel only
// makes the dashboard feel immediate.
//
// It also watches the processing flag: the falling edge means a reply just
// reconciled, which is published to NATS for cross-service consumers.
type snapshotNotifier struct {
	hub      *internalWS.Hub
	natsPub  *pktNats.Publisher
	logger   logger.ILogger
	mu       sync.Mutex
	lastBusy map[string]bool
}

func NewSnapshotNotifier(hub *internalWS.Hub, natsPub *pktNats.Publisher, log logger.ILogger) chatsync.Notifier {
	return &snapshotNotifier{
		hub:      hub,
		natsPub:  natsPub,
		logger:   log,
		lastBusy: make(map[string]bool),
	}
}

func (n *snapshotNotifier) Publish(userID string, snap chatsync.Snapshot) {
	if n.hub != nil {
		if uid, err := uuid.Parse(userID); err == nil {
			n.hub.Send(uid, "chat_state", snap)
		}
	}

	n.mu.Lock()
	wasBusy := n.lastBusy[userID]
	n.lastBusy[userID] = snap.Processing
	n.mu.Unlock()

	if wasBusy && !snap.Processing && snap.Error == "" && n.natsPub != nil {
		event := events.New(events.ReplyArrived, map[string]interface{}{
			"user_id":    userID,
			"session_id": snap.SessionID,
		})
		if err := n.natsPub.Publish(context.Background(), event); err != nil {
			n.logger.Warn("ChatService", "Failed to publish reply event", map[string]interface{}{"error": err.Error()})
		}
	}
}
