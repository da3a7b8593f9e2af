package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"score-predictor/internal/features"
)

const (
	wsReadLimit  = 4096
	wsPongWait   = 60 * time.Second
	wsWriteWait  = 5 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// wsMessage is a reply on the websocket; exactly one of Result or Error is set
type wsMessage struct {
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
	Status int     `json:"status"`
}

// handleWebSocket scores every record the client sends and replies with the
// result, so the page can move its gauges as the inputs change
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.WSConnections().Add(1)
		defer s.metrics.WSConnections().Add(-1)
	}

	conn.SetReadLimit(wsReadLimit)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	client := &wsClient{conn: conn}
	done := make(chan struct{})
	defer close(done)
	go client.pinger(done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("WebSocket connection closed unexpectedly")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsPongWait))

		reply := s.wsPredict(r.Context(), data)
		if s.metrics != nil {
			s.metrics.WSMessages().Inc()
		}

		if err := client.write(websocket.TextMessage, reply); err != nil {
			log.Error().Err(err).Msg("Failed to send message to WebSocket client")
			return
		}
	}
}

// wsPredict answers one live-preview message. Live predictions are not
// written to history.
func (s *Server) wsPredict(parent context.Context, data []byte) []byte {
	var msg wsMessage

	record, err := features.DecodeRecord(bytes.NewReader(data))
	if err == nil {
		ctx, cancel := context.WithTimeout(parent, s.cfg.RequestTimeout)
		var result Result
		result, err = s.predict(ctx, record)
		cancel()
		if err == nil {
			msg = wsMessage{Result: &result, Status: http.StatusOK}
		}
	}

	if err != nil {
		status, reason, text := classify(err)
		if status == http.StatusBadRequest {
			s.countInvalid(reason)
		}
		msg = wsMessage{Error: text, Status: status}
	}

	out, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal websocket reply")
		return []byte(`{"error":"internal error","status":500}`)
	}
	return out
}

// wsClient serializes writes to one connection
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// pinger keeps the connection alive until done is closed
func (c *wsClient) pinger(done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (c *wsClient) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteMessage(messageType, data)
}
