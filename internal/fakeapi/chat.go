package fakeapi

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

const (
	maxMessageLen       = 2000
	defaultHistoryLimit = 50
	socketReadTimeout   = 90 * time.Second
	socketWriteTimeout  = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// socket serializes writes; gorilla allows one concurrent writer.
type socket struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *socket) send(evt models.ChatEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(socketWriteTimeout))
	return c.conn.WriteJSON(evt)
}

// hub fans room events out to every socket subscribed to the room.
type hub struct {
	mu    sync.Mutex
	rooms map[string]map[*socket]struct{}
}

func newHub() *hub {
	return &hub{rooms: map[string]map[*socket]struct{}{}}
}

func (h *hub) subscribe(roomID string, c *socket) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = map[*socket]struct{}{}
	}
	h.rooms[roomID][c] = struct{}{}
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.rooms[roomID], c)
		if len(h.rooms[roomID]) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *hub) members(roomID string) []*socket {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*socket, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		out = append(out, c)
	}
	return out
}

func (h *hub) broadcast(msg models.ChatMessage) {
	evt := models.ChatEvent{Type: models.ChatEventMessage, RoomID: msg.RoomID, Message: &msg}
	for _, c := range h.members(msg.RoomID) {
		_ = c.send(evt)
	}
}

// Subscribers reports how many live sockets are attached to a room.
func (s *Server) Subscribers(roomID string) int {
	return len(s.hub.members(roomID))
}

// DropConnections closes every live chat socket, as a server restart would.
func (s *Server) DropConnections() {
	s.hub.mu.Lock()
	var all []*socket
	for _, room := range s.hub.rooms {
		for c := range room {
			all = append(all, c)
		}
	}
	s.hub.mu.Unlock()
	for _, c := range all {
		_ = c.conn.Close()
	}
}

// chatSocket serves the live stream for one room. The token comes from the
// Authorization header or, for clients that cannot set headers, ?token=.
func (s *Server) chatSocket(w http.ResponseWriter, r *http.Request) {
	token := bearer(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
		return
	}
	me, ok := s.resolveToken(token)
	if !ok {
		writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}
	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "room_id is required")
		return
	}

	s.mu.Lock()
	room, ok := s.rooms[roomID]
	member := ok && isParticipant(room, me)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Chat room not found")
		return
	}
	if !member {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Not a participant of this chat")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := &socket{conn: conn}
	unsubscribe := s.hub.subscribe(roomID, c)
	defer unsubscribe()

	conn.SetReadLimit(64 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(socketReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(socketReadTimeout))
	})

	for {
		var evt models.ChatEvent
		if err := conn.ReadJSON(&evt); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(socketReadTimeout))

		switch evt.Type {
		case models.ChatEventMessage:
			msg, code, reason := s.postMessage(roomID, me, evt.Text)
			if code != 0 {
				_ = c.send(models.ChatEvent{Type: models.ChatEventError, RoomID: roomID, Error: reason})
				continue
			}
			s.hub.broadcast(msg)
		case models.ChatEventPing:
			_ = c.send(models.ChatEvent{Type: models.ChatEventPong, RoomID: roomID})
		default:
			s.logger.Debug("fakeapi ignoring chat frame", zap.String("type", evt.Type))
		}
	}
}

// postMessage appends a text message. A non-zero status means it was refused.
func (s *Server) postMessage(roomID, sender, text string) (models.ChatMessage, int, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, http.StatusBadRequest, "Message text is required"
	}
	if len(text) > maxMessageLen {
		return models.ChatMessage{}, http.StatusBadRequest, "Message is too long"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return models.ChatMessage{}, http.StatusNotFound, "Chat room not found"
	}
	if !isParticipant(room, sender) {
		return models.ChatMessage{}, http.StatusForbidden, "Not a participant of this chat"
	}
	if e, ok := s.engagements[room.AcceptedJobID]; ok && e.Status == models.EngagementCancelled {
		return models.ChatMessage{}, http.StatusConflict, "This job was cancelled"
	}

	msg := models.ChatMessage{
		ID:        s.newID(),
		RoomID:    roomID,
		SenderID:  sender,
		Text:      text,
		Type:      "text",
		Timestamp: s.now().UTC(),
	}
	s.messages[roomID] = append(s.messages[roomID], msg)
	return msg, 0, ""
}

func (s *Server) chatRooms(w http.ResponseWriter, r *http.Request) {
	me := userID(r)

	s.mu.Lock()
	out := []models.ChatRoom{}
	for i := len(s.engOrder) - 1; i >= 0; i-- {
		e := s.engagements[s.engOrder[i]]
		if room, ok := s.rooms[e.ChatRoomID]; ok && isParticipant(room, me) {
			out = append(out, s.renderRoom(room))
		}
	}
	s.mu.Unlock()

	writeData(w, http.StatusOK, map[string]any{"chatRooms": out})
}

func (s *Server) chatRoom(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.memberRoom(w, r)
	if !ok {
		return
	}
	writeData(w, http.StatusOK, map[string]any{"chatRoom": s.renderRoom(room)})
}

// chatMessages pages backwards from ?before (exclusive) and returns the page
// oldest first.
func (s *Server) chatMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var before time.Time
	if v := q.Get("before"); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "before must be an RFC 3339 timestamp")
			return
		}
		before = t
	}
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultHistoryLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.memberRoom(w, r)
	if !ok {
		return
	}
	all := s.messages[room.ID]
	end := len(all)
	if !before.IsZero() {
		end = 0
		for end < len(all) && all[end].Timestamp.Before(before) {
			end++
		}
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	page := append([]models.ChatMessage{}, all[start:end]...)
	writeData(w, http.StatusOK, models.ChatPage{Messages: page, HasMore: start > 0})
}

func (s *Server) sendChatMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if !decodeBody(r, &body) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	msg, code, reason := s.postMessage(chi.URLParam(r, "id"), userID(r), body.Text)
	if code != 0 {
		writeError(w, code, "", reason)
		return
	}
	s.hub.broadcast(msg)
	writeData(w, http.StatusCreated, map[string]any{"message": msg})
}

// memberRoom resolves {id} for a participant. Callers hold s.mu.
func (s *Server) memberRoom(w http.ResponseWriter, r *http.Request) (*models.ChatRoom, bool) {
	room, ok := s.rooms[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Chat room not found")
		return nil, false
	}
	if !isParticipant(room, userID(r)) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Not a participant of this chat")
		return nil, false
	}
	return room, true
}

func (s *Server) renderRoom(room *models.ChatRoom) models.ChatRoom {
	out := *room
	out.Participants = make([]models.UserRef, len(room.Participants))
	for i, p := range room.Participants {
		out.Participants[i] = s.userRef(p.ID)
	}
	return out
}

func isParticipant(room *models.ChatRoom, id string) bool {
	for _, p := range room.Participants {
		if p.ID == id {
			return true
		}
	}
	return false
}
