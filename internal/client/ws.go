package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"score-predictor/internal/features"
	"score-predictor/internal/web"
)

// Live is a websocket session with the predictor. Each Send waits for the
// reply to its record; calls are serialized.
type Live struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	timeout time.Duration
}

type liveReply struct {
	Result *web.Result `json:"result"`
	Error  string      `json:"error"`
	Status int         `json:"status"`
}

// DialLive opens the websocket endpoint of the predictor at base
func DialLive(ctx context.Context, base string, timeout time.Duration) (*Live, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + "/ws")
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	log.Debug().Str("url", u.String()).Msg("Establishing WebSocket connection")
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	conn.SetReadLimit(512 * 1024)
	conn.SetCloseHandler(func(code int, text string) error {
		log.Debug().Int("code", code).Str("text", text).Msg("WebSocket connection closed by server")
		return nil
	})

	return &Live{conn: conn, timeout: timeout}, nil
}

// Send scores one record over the websocket
func (l *Live) Send(r features.Record) (web.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.conn.SetWriteDeadline(time.Now().Add(l.timeout))
	if err := l.conn.WriteJSON(r); err != nil {
		return web.Result{}, fmt.Errorf("write failed: %w", err)
	}

	l.conn.SetReadDeadline(time.Now().Add(l.timeout))
	var reply liveReply
	if err := l.conn.ReadJSON(&reply); err != nil {
		return web.Result{}, fmt.Errorf("read failed: %w", err)
	}

	if reply.Error != "" || reply.Result == nil {
		return web.Result{}, &APIError{Status: reply.Status, Message: reply.Error}
	}
	return *reply.Result, nil
}

// Close sends a close frame and closes the connection
func (l *Live) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = l.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return l.conn.Close()
}
