package api

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"finassist/internal/agents"
	"finassist/internal/api/health"
	"finassist/internal/assistant"
	"finassist/internal/metrics"
	"finassist/pkg/errors"
	"finassist/pkg/logger"
	"finassist/pkg/telegram"
)

//go:embed templates/index.html
var templatesFS embed.FS

// Assistant is what the HTTP surface needs from the pipeline.
type Assistant interface {
	ProcessQuery(ctx context.Context, q assistant.Query) *assistant.Response
	Agents() []agents.AgentInfo
	Usage(ctx context.Context, sessionID string) (*assistant.UsageReport, error)
}

var _ Assistant = (*assistant.Assistant)(nil)

// ServerConfig contains configuration for HTTP server
type ServerConfig struct {
	Host         string
	Port         int
	ServiceName  string
	Version      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool
	CORSOrigins  []string

	// TrustedProxies may set the client IP through X-Forwarded-For. Nil
	// trusts none, so anonymous sessions key on the socket address.
	TrustedProxies []string

	TelegramWebhook *telegram.WebhookHandler // Optional Telegram webhook handler
}

// Server wraps the gin engine with lifecycle management
type Server struct {
	cfg        ServerConfig
	engine     *gin.Engine
	httpServer *http.Server
	assistant  Assistant
	upgrader   websocket.Upgrader
	log        *logger.Logger

	wsMu    sync.Mutex
	wsConns map[*websocket.Conn]struct{}
}

// NewServer creates and configures HTTP server with all routes
func NewServer(cfg ServerConfig, a Assistant, healthHandler *health.Handler, log *logger.Logger) (*Server, error) {
	if cfg.Port <= 0 {
		cfg.Port = 7860
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 4 * time.Minute
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:       cfg,
		assistant: a,
		log:       log.With("component", "http"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		wsConns: make(map[*websocket.Conn]struct{}),
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, errors.Wrap(err, "trusted proxies")
	}
	engine.SetHTMLTemplate(tmpl)
	engine.Use(RequestID(), RequestLogger(s.log), Recovery(s.log))

	if len(cfg.CORSOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.CORSOrigins
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
		corsConfig.AllowWebSockets = true
		engine.Use(cors.New(corsConfig))
		s.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}

	s.routes(engine, healthHandler)
	s.engine = engine

	s.httpServer = &http.Server{
		Addr:         addr(cfg.Host, cfg.Port),
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Infof("HTTP server configured on %s", s.httpServer.Addr)
	return s, nil
}

func (s *Server) routes(engine *gin.Engine, healthHandler *health.Handler) {
	engine.GET("/", s.handleIndex)
	engine.GET("/ws", s.handleWebSocket)

	api := engine.Group("/api")
	api.Use(JSONOnly())
	{
		api.POST("/chat", s.handleChat)
		api.GET("/agents", s.handleAgents)
		api.GET("/usage", s.handleUsage)
		api.GET("/examples", s.handleExamples)
	}

	// Health check endpoints (Kubernetes liveness/readiness)
	if healthHandler != nil {
		engine.GET("/health", gin.WrapF(healthHandler.HandleHealth))
		engine.GET("/ready", gin.WrapF(healthHandler.HandleReadiness))
		engine.GET("/live", gin.WrapF(healthHandler.HandleLiveness))
	}

	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Telegram webhook endpoint (if configured)
	if s.cfg.TelegramWebhook != nil {
		engine.POST("/telegram/webhook", gin.WrapH(s.cfg.TelegramWebhook))
		engine.GET("/telegram/health", gin.WrapF(s.cfg.TelegramWebhook.HealthCheck))
		s.log.Info("✓ Telegram webhook registered at /telegram/webhook")
	}
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start begins listening for HTTP requests
// Blocks until server is stopped or encounters an error
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on http://%s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
// Waits for active connections to complete within timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	// hijacked websocket connections are not tracked by http.Server
	s.closeWebSockets()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}

	s.log.Info("✓ HTTP server stopped")
	return nil
}
