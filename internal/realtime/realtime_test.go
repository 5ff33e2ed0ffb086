package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"taskflow/internal/logging"
	"taskflow/internal/models"
)

type fakeClient struct {
	mu       sync.Mutex
	messages [][]byte
	fail     bool
}

func (f *fakeClient) Send(message []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return false
	}
	f.messages = append(f.messages, message)
	return true
}

func (f *fakeClient) Close() {}

func TestHub_BroadcastPerProject(t *testing.T) {
	h := NewHub()
	a, b, other := &fakeClient{}, &fakeClient{fail: true}, &fakeClient{}
	h.Register("p1", a)
	h.Register("p1", b)
	h.Register("p2", other)
	require.Equal(t, 2, h.Subscribers("p1"))

	require.NoError(t, h.Publish("p1", TaskEvent{Kind: EventTaskDeleted, TaskID: "t1"}))
	require.Len(t, a.messages, 1)
	require.Empty(t, other.messages)
	require.Equal(t, 1, h.Broadcast("p1", []byte("x")))

	h.Unregister("p1", a)
	h.Unregister("p1", b)
	require.Zero(t, h.Subscribers("p1"))
}

func TestEncodeDecode(t *testing.T) {
	task := &models.Task{ID: "t1", Project: "p1", Title: "Write docs", Status: models.StatusInReview}
	data, err := Encode(TaskEvent{Kind: EventTaskUpdated, Task: task})
	require.NoError(t, err)

	evt, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, EventTaskUpdated, evt.Kind)
	require.Equal(t, "t1", evt.TaskID)
	require.Equal(t, models.StatusInReview, evt.Task.Status)

	evt, err = Decode([]byte(`{"event":"taskDeleted","data":"t9"}`))
	require.NoError(t, err)
	require.Equal(t, "t9", evt.TaskID)

	evt, err = Decode([]byte(`{"event":"taskDeleted","data":{"_id":"t8"}}`))
	require.NoError(t, err)
	require.Equal(t, "t8", evt.TaskID)

	_, err = Decode([]byte(`{"event":"taskCreated","data":{"title":"no id"}}`))
	require.Error(t, err)
	_, err = Decode([]byte(`{"event":"projectCreated","data":{}}`))
	require.Error(t, err)
	_, err = Encode(TaskEvent{Kind: EventTaskCreated})
	require.Error(t, err)
}

func TestListener_AppliesEventsAndReconnects(t *testing.T) {
	var upgrader websocket.Upgrader
	var dials atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok" || r.URL.Query().Get("project") != "p1" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		n := dials.Add(1)
		msg, _ := Encode(TaskEvent{Kind: EventTaskCreated, Task: &models.Task{ID: "t" + string(rune('0'+n)), Project: "p1"}})
		_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		_ = conn.WriteMessage(websocket.TextMessage, msg)
		// dropping the connection forces a redial
	}))
	defer srv.Close()

	var mu sync.Mutex
	var got []string
	l := &Listener{
		URL:        "ws" + strings.TrimPrefix(srv.URL, "http"),
		Token:      func() string { return "tok" },
		Log:        logging.Discard(),
		MinBackoff: 10 * time.Millisecond,
		MaxBackoff: 20 * time.Millisecond,
		Apply: func(evt TaskEvent) {
			mu.Lock()
			got = append(got, evt.TaskID)
			mu.Unlock()
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx, "p1") }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 2
	}, 5*time.Second, 10*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "t1", got[0])
	require.Equal(t, "t2", got[1])
}
