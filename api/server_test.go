package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/mediaupload/api/models"
	"github.com/moyoez/mediaupload/api/notifyhub"
	"github.com/moyoez/mediaupload/types"
	"github.com/moyoez/mediaupload/uploader"
)

func newTestServer(t *testing.T) (*httptest.Server, *uploader.Uploader, *notifyhub.Hub) {
	t.Helper()
	tracker := uploader.New()
	hub := notifyhub.New()
	previous := models.GetTracker()
	models.SetTracker(tracker)
	models.SetNotifyHub(hub)
	t.Cleanup(func() {
		models.SetTracker(previous)
		models.SetNotifyHub(nil)
	})

	srv := httptest.NewServer(NewServer(0).Handler())
	t.Cleanup(srv.Close)
	return srv, tracker, hub
}

func readEvent(t *testing.T, conn *websocket.Conn) types.UploadEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var event types.UploadEvent
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestEventsStream(t *testing.T) {
	srv, tracker, hub := newTestServer(t)
	batch := tracker.Upload([]types.SourceFile{{Name: "a.png"}})

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/uploader/v1/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	event := readEvent(t, conn)
	require.Equal(t, types.EventStatus, event.Type)
	require.Equal(t, batch[0].ID, event.File.ID)
	require.Equal(t, types.StatusPending, event.Status)

	event = readEvent(t, conn)
	require.Equal(t, types.EventProgress, event.Type)
	require.Equal(t, 1, hub.Len())

	body := `{"id":"` + batch[0].ID + `","status":"complete","progress":1}`
	resp, err := http.Post(srv.URL+"/api/uploader/v1/update-file", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// the staged completion only surfaces as progress until the host signals
	event = readEvent(t, conn)
	require.Equal(t, types.EventProgress, event.Type)
	require.Equal(t, 100.0, event.Progress)

	resp, err = http.Post(srv.URL+"/api/uploader/v1/signal-completion", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	event = readEvent(t, conn)
	require.Equal(t, types.EventAllComplete, event.Type)
	require.Len(t, event.Files, 1)
	require.Equal(t, types.StatusComplete, event.Files[0].Status)
}

func TestStatusRoute(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/uploader/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, true, body["notify_ws_enabled"])
}

func TestEventsRouteDisabledWithoutHub(t *testing.T) {
	models.SetNotifyHub(nil)
	srv := httptest.NewServer(NewServer(0).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/uploader/v1/events")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
