package chat

import (
	"encoding/json"
	"sort"
	"strings"
)

// Wire events. Client to server:
//
//	{"event":"joinRoom","data":{"room":"u1_u2"}}
//	{"event":"leaveRoom","data":{"room":"u1_u2"}}
//	{"event":"message","data":{"room":"u1_u2","message":"hello"}}
//
// Server to clients: userJoined, userLeft, message, error.
const (
	EventJoinRoom   = "joinRoom"
	EventLeaveRoom  = "leaveRoom"
	EventMessage    = "message"
	EventUserJoined = "userJoined"
	EventUserLeft   = "userLeft"
	EventError      = "error"
)

type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type RoomPayload struct {
	Room string `json:"room"`
}

type ChatMessagePayload struct {
	Room    string `json:"room"`
	Message string `json:"message"`
}

type UserJoinedPayload struct {
	UserID    string `json:"userId"`
	Color     string `json:"color"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type UserLeftPayload struct {
	UserID string `json:"userId"`
}

type MessagePayload struct {
	Room      string `json:"room"`
	UserID    string `json:"userId"`
	Message   string `json:"message"`
	Color     string `json:"color"`
	Timestamp string `json:"timestamp"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func encodeEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// RoomID derives the canonical 1:1 room name for two users: ids sorted and
// joined with an underscore, so both sides compute the same room without a
// directory lookup.
func RoomID(userA, userB string) string {
	ids := []string{userA, userB}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}
