package state

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Pusher is the slice of the realtime hub the supervisor needs to deliver
// per-viewer snapshots.
type Pusher interface {
	EachClient(webinarID uuid.UUID, fn func(clientID string, userID uuid.UUID))
	SendToClient(webinarID uuid.UUID, clientID string, event string, payload interface{})
}

// Supervisor runs one sync client per webinar room with connected viewers and
// pushes a fresh per-viewer snapshot whenever the room's state changes. Rooms
// are opened and closed by the hub's lifecycle callbacks.
type Supervisor struct {
	store  Store
	feed   Feed
	hub    Pusher
	logger *zap.Logger

	mu      sync.Mutex
	clients map[uuid.UUID]*Client
}

// NewSupervisor creates a room supervisor.
func NewSupervisor(store Store, feed Feed, hub Pusher, logger *zap.Logger) *Supervisor {
	return &Supervisor{
		store:   store,
		feed:    feed,
		hub:     hub,
		logger:  logger,
		clients: make(map[uuid.UUID]*Client),
	}
}

// RoomOpened starts a sync client for the webinar. Called by the hub when the
// first viewer connects.
func (s *Supervisor) RoomOpened(webinarID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[webinarID]; ok {
		return
	}
	var client *Client
	client = NewClient(webinarID, s.store, s.feed, s.logger, func() { s.push(webinarID, client) })
	if err := client.Start(context.Background()); err != nil {
		s.logger.Error("sync client start failed", zap.String("webinar_id", webinarID.String()), zap.Error(err))
		return
	}
	s.clients[webinarID] = client
	s.logger.Debug("sync room opened", zap.String("webinar_id", webinarID.String()))
}

// RoomClosed tears down the webinar's sync client. Called by the hub when the
// last viewer disconnects.
func (s *Supervisor) RoomClosed(webinarID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	client, ok := s.clients[webinarID]
	if !ok {
		return
	}
	client.Close()
	delete(s.clients, webinarID)
	s.logger.Debug("sync room closed", zap.String("webinar_id", webinarID.String()))
}

// Room returns the webinar's running sync client, if any. Host-facing
// live-tally reads go through this.
func (s *Supervisor) Room(webinarID uuid.UUID) (*Client, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	client, ok := s.clients[webinarID]
	return client, ok
}

func (s *Supervisor) push(webinarID uuid.UUID, client *Client) {
	s.hub.EachClient(webinarID, func(clientID string, userID uuid.UUID) {
		s.hub.SendToClient(webinarID, clientID, "sync", client.SnapshotFor(userID))
	})
}
