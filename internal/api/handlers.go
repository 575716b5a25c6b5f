package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"finassist/internal/agents"
	"finassist/internal/assistant"
)

// ChatRequest is the body of POST /api/chat and of websocket frames.
type ChatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is one answered (or rejected) question.
type ChatResponse struct {
	SessionID  string             `json:"session_id"`
	Response   string             `json:"response"`
	Routing    string             `json:"routing,omitempty"`
	Agents     []agents.AgentType `json:"agents,omitempty"`
	Rejected   bool               `json:"rejected"`
	Reason     string             `json:"reason,omitempty"`
	DurationMs int64              `json:"duration_ms"`
}

// ErrorResponse is returned for malformed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

type indexPage struct {
	Title    string
	Examples []assistant.Example
	Agents   []agents.AgentInfo
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", indexPage{
		Title:    s.title(),
		Examples: assistant.Examples,
		Agents:   s.assistant.Agents(),
	})
}

func (s *Server) title() string {
	if s.cfg.ServiceName == "" {
		return "AI Finance Assistant"
	}
	return s.cfg.ServiceName
}

func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	req.SessionID = sessionOrClient(c, req.SessionID)

	resp := s.assistant.ProcessQuery(c.Request.Context(), assistant.Query{
		Text:      req.Query,
		SessionID: req.SessionID,
		Channel:   assistant.ChannelWeb,
	})
	c.JSON(http.StatusOK, toChatResponse(req.SessionID, resp))
}

// sessionOrClient keys requests without a session id on the client address,
// so omitting it does not escape the per-session limits.
func sessionOrClient(c *gin.Context, sessionID string) string {
	if id := strings.TrimSpace(sessionID); id != "" {
		return id
	}
	return "ip:" + c.ClientIP()
}

func toChatResponse(sessionID string, resp *assistant.Response) ChatResponse {
	return ChatResponse{
		SessionID:  sessionID,
		Response:   resp.Text,
		Routing:    resp.RoutingInfo,
		Agents:     resp.Agents,
		Rejected:   resp.Rejected,
		Reason:     resp.Reason,
		DurationMs: resp.Duration.Milliseconds(),
	}
}

func (s *Server) handleAgents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"agents": s.assistant.Agents()})
}

func (s *Server) handleUsage(c *gin.Context) {
	report, err := s.assistant.Usage(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "usage unavailable"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleExamples(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"examples": assistant.Examples})
}
