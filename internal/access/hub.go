package access

import "sync"

// Change tells subscribers that a user's identity data is out of date
type Change struct {
	UserID int64
	Reason string
}

// Hub fans identity changes out to the sessions of the affected user
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[int64]map[uint64]chan Change
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[int64]map[uint64]chan Change)}
}

// Subscribe registers for changes of one user. The returned function
// unsubscribes and is safe to call more than once.
func (h *Hub) Subscribe(userID int64) (<-chan Change, func()) {
	ch := make(chan Change, 1)

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[uint64]chan Change)
	}
	h.subs[userID][id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[userID]; ok {
				delete(set, id)
				if len(set) == 0 {
					delete(h.subs, userID)
				}
			}
		})
	}
}

// Publish notifies every subscriber of c.UserID without blocking.
// A subscriber with a pending notification does not get a second one.
func (h *Hub) Publish(c Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[c.UserID] {
		select {
		case ch <- c:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions for a user
func (h *Hub) Subscribers(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
