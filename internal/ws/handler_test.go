package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidide/backend/internal/domain/channel"
	"github.com/lucidide/backend/internal/logging"
)

type staticPrefs struct{ max int }

func (p staticPrefs) MaxChannelHistory() int { return p.max }

type memStore struct{ data map[string][]byte }

func (s *memStore) GetData(ctx context.Context, key string) ([]byte, error) {
	return s.data[key], nil
}

func (s *memStore) SetData(ctx context.Context, key string, data []byte) error {
	s.data[key] = data
	return nil
}

func dial(t *testing.T, m *channel.Manager) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	h := NewHandler(m, nil, logging.NewNop())
	r.GET("/stream", h.HandleConnection)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev event
	require.NoError(t, sonic.Unmarshal(data, &ev))
	return ev
}

func TestConnectHandshake(t *testing.T) {
	m := channel.NewManager(staticPrefs{max: 100}, &memStore{data: map[string][]byte{}}, logging.NewNop())
	conn := dial(t, m)

	ev := readEvent(t, conn)
	assert.Equal(t, "connected", ev.Type)
}

func TestChannelEventsForwarded(t *testing.T) {
	m := channel.NewManager(staticPrefs{max: 100}, &memStore{data: map[string][]byte{}}, logging.NewNop())
	conn := dial(t, m)
	readEvent(t, conn) // connected

	m.GetChannel("build")

	// Creation produces a selection change (auto-select) and an added event
	types := map[string]bool{}
	for i := 0; i < 2; i++ {
		ev := readEvent(t, conn)
		types[ev.Type] = true
	}
	assert.True(t, types["channel_added"], "expected channel_added, got %v", types)
	assert.True(t, types["selection_changed"], "expected selection_changed, got %v", types)

	m.GetChannel("build").AppendLine("done")
	ev := readEvent(t, conn)
	assert.Equal(t, "content_changed", ev.Type)
	assert.Equal(t, "build", ev.Channel)
	assert.Equal(t, []string{"done"}, ev.Lines)
}

func TestLockAndDeleteEventsForwarded(t *testing.T) {
	m := channel.NewManager(staticPrefs{max: 100}, &memStore{data: map[string][]byte{}}, logging.NewNop())
	m.GetChannel("build")

	conn := dial(t, m)
	readEvent(t, conn) // connected

	m.ToggleScrollLock(nil)
	ev := readEvent(t, conn)
	require.Equal(t, "lock_changed", ev.Type)
	assert.Equal(t, "build", ev.Channel)
	require.NotNil(t, ev.Locked)
	assert.True(t, *ev.Locked)

	m.DeleteChannel("build")
	ev = readEvent(t, conn)
	require.Equal(t, "channel_deleted", ev.Type)
	assert.Equal(t, "build", ev.Channel)
}

func TestPing(t *testing.T) {
	m := channel.NewManager(staticPrefs{max: 100}, &memStore{data: map[string][]byte{}}, logging.NewNop())
	conn := dial(t, m)
	readEvent(t, conn) // connected

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	ev := readEvent(t, conn)
	assert.Equal(t, "pong", ev.Type)
}
