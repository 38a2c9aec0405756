package notifyhub

import (
	"net"
	"net/http"
	"net/url"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/moyoez/mediaupload/tool"
	"github.com/moyoez/mediaupload/types"
	"github.com/moyoez/mediaupload/uploader"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: loopbackOrigin,
}

// loopbackOrigin accepts non-browser clients (no Origin) and pages served from
// this machine. Any other site open in a local browser is refused.
func loopbackOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// HandleEvents upgrades the request to WebSocket and subscribes the connection
// to the tracker. The client first receives the current state of every file,
// then every event as JSON until it disconnects.
func HandleEvents(hub *Hub, tracker *uploader.Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer func() {
			if err := conn.Close(); err != nil {
				tool.DefaultLogger.Debugf("Failed to close WebSocket connection: %v", err)
			}
		}()

		hub.Register(conn)
		defer hub.Unregister(conn)

		unsubscribe := tracker.Subscribe(func(event types.UploadEvent) {
			payload, err := sonic.Marshal(event)
			if err != nil {
				tool.DefaultLogger.Errorf("[Events] Failed to encode %s event: %v", event.Type, err)
				return
			}
			if err := hub.Send(conn, payload); err != nil {
				tool.DefaultLogger.Debugf("[Events] Write to %s failed: %v", conn.RemoteAddr(), err)
			}
		})
		defer unsubscribe()

		// Read loop to detect client close and keep connection alive
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}
}
