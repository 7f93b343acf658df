// Package notify pushes badge notifications to connected learners.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/p-n-ai/pai-academy/internal/badge"
)

const (
	// MessageBadgesEarned announces newly earned badges.
	MessageBadgesEarned = "badges_earned"

	defaultBuffer = 16
)

// Message is one notification sent to a learner.
type Message struct {
	Type   string        `json:"type"`
	UserID string        `json:"user_id"`
	Badges []badge.Badge `json:"badges"`
	SentAt time.Time     `json:"sent_at"`
}

type subscriber struct {
	ch chan Message
}

// Hub fans notifications out to every subscription of a user. Delivery is
// best effort: a subscriber that falls behind loses messages instead of
// blocking the publisher.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	buffer int
	now    func() time.Time
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs:   make(map[string]map[*subscriber]struct{}),
		buffer: defaultBuffer,
		now:    time.Now,
	}
}

// Subscribe registers a listener for userID. The returned function removes
// it and closes the channel; calling it more than once is safe.
func (h *Hub) Subscribe(userID string) (<-chan Message, func()) {
	sub := &subscriber{ch: make(chan Message, h.buffer)}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscriber]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[userID], sub)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			close(sub.ch)
		})
	}
}

// BadgesEarned publishes badges to every subscription of userID.
func (h *Hub) BadgesEarned(userID string, badges []badge.Badge) {
	if len(badges) == 0 {
		return
	}
	msg := Message{
		Type:   MessageBadgesEarned,
		UserID: userID,
		Badges: append([]badge.Badge{}, badges...),
		SentAt: h.now(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[userID] {
		select {
		case sub.ch <- msg:
		default:
			slog.Warn("dropping badge notification for slow subscriber", "user_id", userID)
		}
	}
}

// Subscribers returns the number of live subscriptions of userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}
