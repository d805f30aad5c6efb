package chat

import (
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

// palette matches the web client's chat colors. Collisions between users are
// fine; color is cosmetic, not identity.
var palette = []string{
	"#e6194b",
	"#3cb44b",
	"#ffe119",
	"#4363d8",
	"#f58231",
	"#911eb4",
	"#46f0f0",
	"#f032e6",
}

// Presence owns the userId → color table. Entries live exactly as long as
// the underlying connection; reconnecting users draw a fresh color.
type Presence struct {
	mu     sync.RWMutex
	colors map[uuid.UUID]string
}

func NewPresence() *Presence {
	return &Presence{colors: make(map[uuid.UUID]string)}
}

// Assign picks a color uniformly at random and records it for the user.
func (p *Presence) Assign(userID uuid.UUID) string {
	color := palette[rand.Intn(len(palette))]
	p.mu.Lock()
	p.colors[userID] = color
	p.mu.Unlock()
	return color
}

func (p *Presence) Release(userID uuid.UUID) {
	p.mu.Lock()
	delete(p.colors, userID)
	p.mu.Unlock()
}

func (p *Presence) Lookup(userID uuid.UUID) (string, bool) {
	p.mu.RLock()
	color, ok := p.colors[userID]
	p.mu.RUnlock()
	return color, ok
}
