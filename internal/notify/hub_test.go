package notify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-n-ai/pai-academy/internal/badge"
	"github.com/p-n-ai/pai-academy/internal/notify"
)

func earned() []badge.Badge {
	return []badge.Badge{badge.MustLookup(badge.LessonComplete).In("onboarding", "welcome")}
}

func TestHub_DeliversToEverySubscriptionOfTheUser(t *testing.T) {
	hub := notify.NewHub()
	a, cancelA := hub.Subscribe("ana")
	defer cancelA()
	b, cancelB := hub.Subscribe("ana")
	defer cancelB()
	other, cancelOther := hub.Subscribe("bruno")
	defer cancelOther()

	hub.BadgesEarned("ana", earned())

	for _, ch := range []<-chan notify.Message{a, b} {
		select {
		case msg := <-ch:
			assert.Equal(t, notify.MessageBadgesEarned, msg.Type)
			assert.Equal(t, "ana", msg.UserID)
			require.Len(t, msg.Badges, 1)
			assert.Equal(t, "welcome", msg.Badges[0].LessonID)
		case <-time.After(time.Second):
			t.Fatal("notification not delivered")
		}
	}
	select {
	case msg := <-other:
		t.Fatalf("unexpected notification for another user: %+v", msg)
	default:
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := notify.NewHub()
	ch, cancel := hub.Subscribe("ana")
	assert.Equal(t, 1, hub.Subscribers("ana"))

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, hub.Subscribers("ana"))

	// Publishing to nobody is a no-op.
	hub.BadgesEarned("ana", earned())
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := notify.NewHub()
	_, cancel := hub.Subscribe("ana")
	defer cancel()

	done := make(chan struct{})
	go func() {
		for range 100 {
			hub.BadgesEarned("ana", earned())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("BadgesEarned blocked on a full subscriber")
	}
}

func TestHub_IgnoresEmptyBadgeList(t *testing.T) {
	hub := notify.NewHub()
	ch, cancel := hub.Subscribe("ana")
	defer cancel()

	hub.BadgesEarned("ana", nil)

	select {
	case msg := <-ch:
		t.Fatalf("unexpected notification: %+v", msg)
	default:
	}
}

func TestHandler_RequiresUser(t *testing.T) {
	rec := httptest.NewRecorder()
	notify.Handler(notify.NewHub()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/badges", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_StreamsLocalizedNotifications(t *testing.T) {
	hub := notify.NewHub()
	srv := httptest.NewServer(notify.Handler(hub))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/badges?user=ana"
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"Accept-Language": []string{"en"}},
	})
	require.NoError(t, err)
	defer conn.CloseNow()

	require.Eventually(t, func() bool { return hub.Subscribers("ana") == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.BadgesEarned("ana", earned())

	var msg notify.Message
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, notify.MessageBadgesEarned, msg.Type)
	require.Len(t, msg.Badges, 1)
	assert.Equal(t, badge.LessonComplete, msg.Badges[0].ID)
	assert.Equal(t, "Lesson Complete", msg.Badges[0].Name)

	_ = conn.Close(websocket.StatusNormalClosure, "")
	assert.Eventually(t, func() bool { return hub.Subscribers("ana") == 0 }, 2*time.Second, 10*time.Millisecond)
}
