package notify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/pai-academy/internal/badge"
)

const writeTimeout = 5 * time.Second

// Handler upgrades GET /ws/badges?user=<id> to a websocket and streams the
// user's badge notifications as JSON, localized for the request's
// Accept-Language.
func Handler(h *Hub) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user")
		if userID == "" {
			http.Error(w, "user is required", http.StatusBadRequest)
			return
		}
		accept := r.Header.Get("Accept-Language")

		// Server-wide read/write timeouts would cut the stream; the deadlines
		// stay on the connection after the upgrade, so clear them first.
		rc := http.NewResponseController(w)
		_ = rc.SetReadDeadline(time.Time{})
		_ = rc.SetWriteDeadline(time.Time{})

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			slog.Warn("websocket accept failed", "user_id", userID, "error", err)
			return
		}
		defer conn.CloseNow()

		// Clients only listen; reading is delegated so close frames are
		// handled and ctx ends when the peer goes away.
		ctx := conn.CloseRead(r.Context())

		msgs, unsubscribe := h.Subscribe(userID)
		defer unsubscribe()
		slog.Debug("badge stream opened", "user_id", userID)

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					conn.Close(websocket.StatusGoingAway, "hub closed")
					return
				}
				msg.Badges = badge.LocalizeAll(msg.Badges, accept)
				if err := write(ctx, conn, msg); err != nil {
					if !errors.Is(err, context.Canceled) {
						slog.Warn("badge notification write failed", "user_id", userID, "error", err)
					}
					return
				}
			}
		}
	})
}

func write(ctx context.Context, conn *websocket.Conn, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
