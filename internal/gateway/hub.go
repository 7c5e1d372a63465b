package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eleven-am/live-gateway/internal/shared"
	"github.com/redis/go-redis/v9"
)

var ErrSessionAlreadyActive = errors.New("session already registered")

const (
	sessionEventChannel = "live:session:%s:events"

	observerTTL             = 30 * time.Minute
	observerCleanupInterval = 5 * time.Minute
	maxObservers            = 10000
	observerBuffer          = 64
)

type observer struct {
	cancel    context.CancelFunc
	createdAt time.Time
}

// Hub tracks the sessions running on this node and fans their events out
// through redis pub/sub, so observers on any node can tail a session the
// device itself is connected to elsewhere.
type Hub struct {
	redis  *redis.Client
	logger *slog.Logger

	mu        sync.RWMutex
	sessions  map[string]*Session
	observers map[string]*observer

	started int64
	ended   int64
	redials int64

	ctx       context.Context
	cancel    context.CancelFunc
	cleanupWg sync.WaitGroup
}

func NewHub(redisClient *redis.Client, logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		redis:     redisClient,
		logger:    logger.With("component", "hub"),
		sessions:  make(map[string]*Session),
		observers: make(map[string]*observer),
		ctx:       ctx,
		cancel:    cancel,
	}

	h.cleanupWg.Add(1)
	go h.cleanupLoop()

	return h
}

func (h *Hub) cleanupLoop() {
	defer h.cleanupWg.Done()

	ticker := time.NewTicker(observerCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.cleanupStaleObservers()
		}
	}
}

func (h *Hub) cleanupStaleObservers() {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	for id, obs := range h.observers {
		if now.Sub(obs.createdAt) > observerTTL {
			obs.cancel()
			delete(h.observers, id)
			h.logger.Info("cleaned up stale observer", "observer_id", id)
		}
	}
}

// Register adds a session to the node registry. Session IDs are unique,
// so a duplicate means the same record is being driven twice.
func (h *Hub) Register(s *Session) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.sessions[s.ID()]; exists {
		return ErrSessionAlreadyActive
	}

	h.sessions[s.ID()] = s
	atomic.AddInt64(&h.started, 1)
	h.logger.Info("session registered", "session_id", s.ID())
	return nil
}

func (h *Hub) Unregister(sessionID string) {
	h.mu.Lock()
	_, exists := h.sessions[sessionID]
	if exists {
		delete(h.sessions, sessionID)
	}
	h.mu.Unlock()

	if exists {
		atomic.AddInt64(&h.ended, 1)
		h.logger.Info("session unregistered", "session_id", sessionID)
	}
}

// Get returns a session if it is running on this node.
func (h *Hub) Get(sessionID string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[sessionID]
	return s, ok
}

// List snapshots the sessions running on this node.
func (h *Hub) List() []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) ObserverCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

// NoteRedial counts one upstream reconnect for the stats endpoint.
func (h *Hub) NoteRedial() {
	atomic.AddInt64(&h.redials, 1)
}

// PublishEvent mirrors one session event into redis so observer streams
// on every node see it.
func (h *Hub) PublishEvent(ctx context.Context, sessionID string, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	channel := fmt.Sprintf(sessionEventChannel, sessionID)
	if err := h.redis.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe opens an observer stream over one session's events. The stop
// func must be called when the observer goes away; observers that outlive
// observerTTL are cut by the cleanup loop regardless.
func (h *Hub) Subscribe(sessionID string) (<-chan *Message, func(), error) {
	h.mu.Lock()
	if len(h.observers) >= maxObservers {
		h.mu.Unlock()
		return nil, nil, fmt.Errorf("observer limit reached (%d)", maxObservers)
	}

	obsID := shared.NewID("obs_")
	ctx, cancel := context.WithCancel(h.ctx)
	h.observers[obsID] = &observer{cancel: cancel, createdAt: time.Now()}
	h.mu.Unlock()

	events := make(chan *Message, observerBuffer)
	go h.pumpObserver(ctx, sessionID, obsID, events)

	stop := func() {
		h.mu.Lock()
		if obs, ok := h.observers[obsID]; ok {
			obs.cancel()
			delete(h.observers, obsID)
		}
		h.mu.Unlock()
	}

	return events, stop, nil
}

func (h *Hub) pumpObserver(ctx context.Context, sessionID, obsID string, events chan<- *Message) {
	defer close(events)
	defer func() {
		h.mu.Lock()
		if obs, ok := h.observers[obsID]; ok {
			obs.cancel()
			delete(h.observers, obsID)
		}
		h.mu.Unlock()
	}()

	channel := fmt.Sprintf(sessionEventChannel, sessionID)
	pubsub := h.redis.Subscribe(ctx, channel)
	defer pubsub.Close()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			h.logger.Error("failed to receive session event", "error", err, "session_id", sessionID)
			return
		}

		var event Message
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			h.logger.Error("failed to unmarshal session event", "error", err, "session_id", sessionID)
			continue
		}

		select {
		case events <- &event:
		case <-ctx.Done():
			return
		default:
			h.logger.Warn("observer buffer full, dropping event", "session_id", sessionID)
		}
	}
}

// Stats snapshots the node counters for the stats endpoint.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	active := len(h.sessions)
	streams := len(h.observers)
	h.mu.RUnlock()

	return Stats{
		ActiveSessions:  active,
		EventStreams:    streams,
		SessionsStarted: atomic.LoadInt64(&h.started),
		SessionsEnded:   atomic.LoadInt64(&h.ended),
		UpstreamRedials: atomic.LoadInt64(&h.redials),
	}
}

// Close stops the cleanup loop and cancels every observer. Sessions are
// not closed here; each one tears itself down when its socket dies.
func (h *Hub) Close() error {
	h.cancel()
	h.cleanupWg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, obs := range h.observers {
		obs.cancel()
		delete(h.observers, id)
	}
	for id := range h.sessions {
		delete(h.sessions, id)
	}

	return nil
}
