package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"title-party/internal/game"
)

const (
	wsWriteTimeout    = 5 * time.Second
	wsSnapshotTimeout = 5 * time.Second
	wsPongWait        = 60 * time.Second
	wsPingInterval    = 50 * time.Second
	// wsPushDelay lets the burst of changes one operation publishes land
	// before the room is re-read.
	wsPushDelay = 25 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsClient is one socket watching a room as a player or a spectator.
// mu serializes snapshot reads with writes, so a later push never carries an
// older snapshot than an earlier one.
type wsClient struct {
	mu       sync.Mutex
	conn     *websocket.Conn
	roomID   string
	viewerID string
}

type wsHub struct {
	mu     sync.Mutex
	groups map[string]map[*wsClient]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		groups: make(map[string]map[*wsClient]struct{}),
	}
}

func (h *wsHub) Add(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[client.roomID]
	if group == nil {
		group = make(map[*wsClient]struct{})
		h.groups[client.roomID] = group
	}
	group[client] = struct{}{}
}

func (h *wsHub) Remove(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[client.roomID]
	if group == nil {
		return
	}
	delete(group, client)
	_ = client.conn.Close()
	if len(group) == 0 {
		delete(h.groups, client.roomID)
	}
}

func (h *wsHub) Clients(roomID string) []*wsClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[roomID]
	clients := make([]*wsClient, 0, len(group))
	for client := range group {
		clients = append(clients, client)
	}
	return clients
}

func (h *wsHub) Count(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[roomID])
}

func (h *wsHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID, group := range h.groups {
		for client := range group {
			_ = client.conn.Close()
		}
		delete(h.groups, roomID)
	}
}

func (s *Server) handleWebsocket(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	viewerID, ok := bindViewer(c)
	if !ok {
		return
	}
	snap, err := s.engine.Snapshot(c.Request.Context(), roomID, viewerID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := &wsClient{conn: conn, roomID: roomID, viewerID: viewerID}
	s.logger.Info("ws connected",
		zap.String("room_id", roomID),
		zap.String("player_id", viewerID),
		zap.String("remote", c.Request.RemoteAddr),
	)
	s.ws.Add(client)
	client.mu.Lock()
	err = s.writeSnapshot(client, snap)
	client.mu.Unlock()
	if err != nil {
		s.ws.Remove(client)
		return
	}
	go s.readWS(client)
}

// readWS drains the socket until it closes. Clients only listen; anything
// they send is discarded.
func (s *Server) readWS(client *wsClient) {
	defer s.ws.Remove(client)
	_ = client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	done := make(chan struct{})
	defer close(done)
	go s.pingWS(client, done)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			s.logger.Debug("ws disconnected", zap.String("room_id", client.roomID), zap.Error(err))
			return
		}
	}
}

func (s *Server) pingWS(client *wsClient, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			client.mu.Lock()
			err := client.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
			client.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// pushQueue coalesces change notifications per room. At most one goroutine
// pushes a room at a time; changes that arrive meanwhile mark the room dirty
// and cause exactly one more push.
type pushQueue struct {
	mu      sync.Mutex
	running map[string]bool
	dirty   map[string]bool
}

func newPushQueue() *pushQueue {
	return &pushQueue{running: map[string]bool{}, dirty: map[string]bool{}}
}

// claim reports whether the caller should push roomID. A false result means
// the active pusher will pick the change up.
func (q *pushQueue) claim(roomID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running[roomID] {
		q.dirty[roomID] = true
		return false
	}
	q.running[roomID] = true
	return true
}

// settle clears the dirty mark right before the room is read.
func (q *pushQueue) settle(roomID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.dirty, roomID)
}

// release ends a push. It returns true when changes arrived during the push
// and the caller must push again.
func (q *pushQueue) release(roomID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.dirty[roomID] {
		return true
	}
	delete(q.running, roomID)
	return false
}

// handleChange pushes a fresh snapshot to every socket watching the room,
// once per burst of changes.
func (s *Server) handleChange(change game.Change) {
	if !s.pushes.claim(change.RoomID) {
		return
	}
	for {
		time.Sleep(wsPushDelay)
		s.pushes.settle(change.RoomID)
		for _, client := range s.ws.Clients(change.RoomID) {
			s.pushSnapshot(client)
		}
		if !s.pushes.release(change.RoomID) {
			return
		}
	}
}

func (s *Server) pushSnapshot(client *wsClient) {
	client.mu.Lock()
	defer client.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), wsSnapshotTimeout)
	defer cancel()
	snap, err := s.engine.Snapshot(ctx, client.roomID, client.viewerID)
	if errors.Is(err, game.ErrPlayerNotFound) {
		// The viewer left the room; keep them watching as a spectator.
		client.viewerID = ""
		snap, err = s.engine.Snapshot(ctx, client.roomID, "")
	}
	if err != nil {
		s.logger.Warn("ws snapshot failed", zap.String("room_id", client.roomID), zap.Error(err))
		return
	}
	if err := s.writeSnapshot(client, snap); err != nil {
		go s.ws.Remove(client)
	}
}

// writeSnapshot sends snap to client. The caller holds client.mu.
func (s *Server) writeSnapshot(client *wsClient, snap game.Snapshot) error {
	data, err := json.Marshal(snapshotPayload(snap))
	if err != nil {
		return err
	}
	_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return client.conn.WriteMessage(websocket.TextMessage, data)
}
