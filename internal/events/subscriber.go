package events

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	sendBuffer   = 64
	maxFrameSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type subscriber struct {
	ws     *websocket.Conn
	orgID  string
	send   chan *Event
	done   chan struct{}
	closed bool
	mu     sync.Mutex
	logger *slog.Logger
}

func newSubscriber(ws *websocket.Conn, orgID string, logger *slog.Logger) *subscriber {
	return &subscriber{
		ws:     ws,
		orgID:  orgID,
		send:   make(chan *Event, sendBuffer),
		done:   make(chan struct{}),
		logger: logger.With("org_id", orgID),
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()

	s.ws.Close()
}

// readPump discards inbound frames; the feed is one-way. It exists to
// service pongs and to notice the peer going away.
func (s *subscriber) readPump() {
	defer s.close()

	s.ws.SetReadLimit(maxFrameSize)
	_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error {
		_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.logger.Error("websocket read error", "error", err)
			}
			return
		}
	}
}

func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case <-s.done:
			return
		case e := <-s.send:
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))

			data, err := json.Marshal(e)
			if err != nil {
				s.logger.Error("failed to marshal event", "error", err)
				continue
			}
			if err := s.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
