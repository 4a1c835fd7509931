package spectate

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Turn  int    `json:"turn"`
	State string `json:"state"`
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(msg, &f))
	return f
}

func serve(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func TestNewViewerReceivesLatestSnapshot(t *testing.T) {
	hub, srv := serve(t)
	hub.Publish(frame{Turn: 1, State: "player_turn"})
	hub.Publish(frame{Turn: 2, State: "npc_turn(1)"})

	conn := dial(t, srv)
	assert.Equal(t, frame{Turn: 2, State: "npc_turn(1)"}, read(t, conn))
}

func TestPublishBroadcastsToEveryViewer(t *testing.T) {
	hub, srv := serve(t)
	a := dial(t, srv)
	b := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, 10*time.Millisecond)

	hub.Publish(frame{Turn: 3, State: "game_over(victory)"})

	assert.Equal(t, 3, read(t, a).Turn)
	assert.Equal(t, 3, read(t, b).Turn)
}

func TestViewerDisconnectIsForgotten(t *testing.T) {
	hub, srv := serve(t)
	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)

	hub.Publish(frame{Turn: 4})
}

func TestCloseDisconnectsViewers(t *testing.T) {
	hub, srv := serve(t)
	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	hub.Publish(frame{Turn: 5})
}

func TestPublishUnencodableValue(t *testing.T) {
	hub, _ := serve(t)
	hub.Publish(make(chan int))
	hub.Publish(frame{Turn: 1})
}
