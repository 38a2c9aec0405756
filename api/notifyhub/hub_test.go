package notifyhub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcast(t *testing.T) {
	hub := New()
	registered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
		close(registered)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				hub.Unregister(conn)
				return
			}
		}
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	<-registered
	require.Equal(t, 1, hub.Len())

	hub.Broadcast([]byte(`{"type":"info"}`))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"info"}`, string(data))
}

func TestHubSendUnregistered(t *testing.T) {
	hub := New()
	require.NoError(t, hub.Send(&websocket.Conn{}, []byte("x")))
	require.Equal(t, 0, hub.Len())
}

func TestLoopbackOrigin(t *testing.T) {
	for origin, want := range map[string]bool{
		"":                       true,
		"http://localhost:3000":  true,
		"http://127.0.0.1:53318": true,
		"http://[::1]:8080":      true,
		"https://evil.example":   false,
		"http://192.168.1.5":     false,
		"null":                   false,
	} {
		req := httptest.NewRequest(http.MethodGet, "/events", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		require.Equal(t, want, loopbackOrigin(req), origin)
	}
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.Close()
	}))
	defer srv.Close()

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}
