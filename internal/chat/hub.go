package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"coachlink/internal/user"
)

// Hub holds room membership and presence for one gateway process. All
// mutation happens under the hub mutex; fan-out only touches per-client
// send channels and never blocks on a slow receiver.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}

	presence *Presence
	users    user.Repository
	logger   *slog.Logger
}

func NewHub(users user.Repository, logger *slog.Logger) *Hub {
	return &Hub{
		rooms:    make(map[string]map[*Client]struct{}),
		presence: NewPresence(),
		users:    users,
		logger:   logger,
	}
}

func (h *Hub) Presence() *Presence { return h.presence }

// JoinRoom adds the client to the room and announces it to every member,
// the joiner included. The display name comes from the credential store; a
// lookup failure downgrades to an empty name rather than blocking the join.
func (h *Hub) JoinRoom(ctx context.Context, c *Client, room string) {
	h.mu.Lock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	h.mu.Unlock()

	color, _ := h.presence.Lookup(c.userID)
	payload := UserJoinedPayload{UserID: c.userID.String(), Color: color}
	if profile, err := h.users.FindByID(ctx, c.userID); err == nil {
		payload.FirstName = profile.FirstName
		payload.LastName = profile.LastName
	} else {
		h.logger.Warn("join: profile lookup failed", "userId", c.userID, "error", err)
	}

	h.broadcast(room, EventUserJoined, payload)
}

// LeaveRoom removes the client and broadcasts userLeft to the remaining
// members. Only explicit leaves are announced; raw disconnects are not.
func (h *Hub) LeaveRoom(c *Client, room string) {
	h.mu.Lock()
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()

	h.broadcast(room, EventUserLeft, UserLeftPayload{UserID: c.userID.String()})
}

// SendMessage relays a chat message to every member of the room, sender
// included.
func (h *Hub) SendMessage(c *Client, room, text string) {
	color, _ := h.presence.Lookup(c.userID)
	h.broadcast(room, EventMessage, MessagePayload{
		Room:      room,
		UserID:    c.userID.String(),
		Message:   text,
		Color:     color,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// remove drops the client from every room without any broadcast and
// releases its presence entry. Called on disconnect.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()

	h.presence.Release(c.userID)
}

func (h *Hub) broadcast(room, event string, data any) {
	raw, err := encodeEvent(event, data)
	if err != nil {
		h.logger.Error("encode event", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	for member := range h.rooms[room] {
		member.enqueue(raw)
	}
	h.mu.RUnlock()
}
