package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"finassist/internal/assistant"
	"finassist/internal/metrics"
)

const (
	wsWriteWait      = 10 * time.Second
	wsMaxMessageSize = 16 * 1024

	wsTypeConnected = "connected"
	wsTypeThinking  = "thinking"
	wsTypeAnswer    = "answer"
	wsTypeError     = "error"
)

// WebSocketMessage is one frame sent to the browser.
type WebSocketMessage struct {
	Type      string        `json:"type"`
	SessionID string        `json:"session_id"`
	Data      *ChatResponse `json:"data,omitempty"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// handleWebSocket serves a chat session over one connection. Questions are
// answered in order; the session id comes from ?session_id or the client address.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warnw("WebSocket upgrade failed", "error", err)
		return
	}
	s.track(conn)
	defer s.untrack(conn)

	sessionID := sessionOrClient(c, c.Query("session_id"))
	log := s.log.With("session_id", sessionID, "channel", assistant.ChannelWebSocket)
	log.Debug("WebSocket connected")

	conn.SetReadLimit(wsMaxMessageSize)
	if err := s.send(conn, WebSocketMessage{Type: wsTypeConnected, SessionID: sessionID}); err != nil {
		return
	}

	ctx := c.Request.Context()
	for {
		var req ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnw("WebSocket read failed", "error", err)
			}
			return
		}

		if err := s.send(conn, WebSocketMessage{Type: wsTypeThinking, SessionID: sessionID}); err != nil {
			return
		}

		resp := s.assistant.ProcessQuery(ctx, assistant.Query{
			Text:      req.Query,
			SessionID: sessionID,
			Channel:   assistant.ChannelWebSocket,
		})
		out := toChatResponse(sessionID, resp)
		if err := s.send(conn, WebSocketMessage{Type: wsTypeAnswer, SessionID: sessionID, Data: &out}); err != nil {
			log.Warnw("WebSocket write failed", "error", err)
			return
		}
	}
}

func (s *Server) send(conn *websocket.Conn, msg WebSocketMessage) error {
	msg.Timestamp = time.Now()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(msg)
}

func (s *Server) track(conn *websocket.Conn) {
	s.wsMu.Lock()
	s.wsConns[conn] = struct{}{}
	s.wsMu.Unlock()
	metrics.WebSocketConnections.Inc()
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.wsMu.Lock()
	_, ok := s.wsConns[conn]
	delete(s.wsConns, conn)
	s.wsMu.Unlock()
	if ok {
		metrics.WebSocketConnections.Dec()
	}
	_ = conn.Close()
}

func (s *Server) closeWebSockets() {
	s.wsMu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.wsConns))
	for conn := range s.wsConns {
		conns = append(conns, conn)
	}
	s.wsMu.Unlock()

	deadline := time.Now().Add(wsWriteWait)
	for _, conn := range conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), deadline)
		s.untrack(conn)
	}
}
