package handlers

import (
	"net/http"
	"time"

	"pitwatch"
	"pitwatch/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = (pongWait * 9) / 10
	maxMsgSize  = 1 << 12 // 4 KB
	sendBacklog = 8

	wsTypeSample = "sample"
	wsTypeNoData = "no_data"
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// TODO: restrict origins once the dashboard has a fixed host.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Live samples
// @Description  WebSocket stream. Each applied poll tick sends {"type":"sample","data":{...}} or {"type":"no_data"}.
// @Tags         samples
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.startReader(conn, done)

	// Listeners are called synchronously from the poll loop; never block it.
	updates := make(chan *pitwatch.NamedSample, sendBacklog)
	id := h.services.Subscribe(service.ListenerFunc(func(latest *pitwatch.NamedSample) {
		offerLatest(updates, latest)
	}))
	defer h.services.Unsubscribe(id)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case latest := <-updates:
			if err := sendSample(conn, latest); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// offerLatest queues latest, discarding the oldest queued sample when the
// client is behind.
func offerLatest(ch chan *pitwatch.NamedSample, latest *pitwatch.NamedSample) {
	for {
		select {
		case ch <- latest:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}

func sendSample(conn *websocket.Conn, latest *pitwatch.NamedSample) error {
	env := wsEnvelope{Type: wsTypeNoData}
	if latest != nil {
		env = wsEnvelope{Type: wsTypeSample, Data: latest}
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}
