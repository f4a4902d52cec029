package httpserver

import (
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"global_explorer/internal/adapters/observability"
	"global_explorer/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

func (h *Handlers) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || len(h.Origins) == 0 ||
				slices.Contains(h.Origins, "*") || slices.Contains(h.Origins, origin)
		},
	}
}

// events streams favorites and comments change notifications as JSON frames.
func (h *Handlers) events(w http.ResponseWriter, r *http.Request) {
	if h.Bus == nil {
		writeProblem(w, http.StatusServiceUnavailable, "Events disabled", "")
		return
	}
	// subscribe first so nothing published after the handshake is missed
	send := make(chan domain.Event, sendBuffer)
	cancel := h.Bus.Subscribe(func(ev domain.Event) {
		select {
		case send <- ev:
		default:
			log.Warn().Str("kind", string(ev.Kind)).Msg("event subscriber is slow, dropping event")
		}
	})

	conn, err := h.upgrader().Upgrade(w, r, nil)
	if err != nil {
		cancel()
		// Upgrade already replied
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	observability.WSClients.Inc()

	// reader: only pongs and close frames are expected
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug().Err(err).Msg("event stream closed")
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		_ = conn.Close()
		<-done
		observability.WSClients.Dec()
	}()

	for {
		select {
		case ev := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
