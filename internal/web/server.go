// Package web serves the chat and dashboard tabs, the JSON API and the MCP
// endpoint from one gin engine.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/bull/imdb-assistant/internal/analytics"
	"github.com/bull/imdb-assistant/internal/chat"
)

// MCPPath is where the MCP Streamable HTTP endpoint is mounted.
const MCPPath = "/mcp"

const sessionCookie = "imdb_session"

// Assistant answers one question within a session.
type Assistant interface {
	Respond(ctx context.Context, session *chat.Session, question string) (*chat.Reply, error)
}

// Options holds the server's dependencies.
type Options struct {
	Assistant     Assistant
	Sessions      *chat.SessionStore
	Dashboard     analytics.Dashboard
	Health        http.Handler // GET /health
	MCP           http.Handler // optional, mounted at MCPPath
	Landing       http.Handler // optional, GET /connect
	SessionSecret string
	SessionTTL    time.Duration
	Logger        *slog.Logger
}

// Handler holds the request handlers.
type Handler struct {
	assistant Assistant
	sessions  *chat.SessionStore
	dashboard dashboardView
	raw       analytics.Dashboard
	logger    *slog.Logger
}

// NewEngine builds the gin engine with middleware, templates and routes.
func NewEngine(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{MCPPath})))

	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionCookie, store))

	r.HTMLRender = LoadTemplates()

	h := &Handler{
		assistant: opts.Assistant,
		sessions:  opts.Sessions,
		dashboard: newDashboardView(opts.Dashboard),
		raw:       opts.Dashboard,
		logger:    logger,
	}
	RegisterRoutes(r, h, opts)
	return r
}

// RegisterRoutes registers all routes.
func RegisterRoutes(r *gin.Engine, h *Handler, opts Options) {
	if opts.Health != nil {
		r.GET("/health", gin.WrapH(opts.Health))
	}

	r.GET("/", h.ChatPage)
	r.POST("/chat", h.ChatSubmit)
	r.POST("/chat/reset", h.ChatReset)
	r.GET("/dashboard", h.DashboardPage)

	api := r.Group("/api")
	{
		api.POST("/chat", h.APIChat)
		api.GET("/chat/history", h.APIHistory)
		api.GET("/dashboard", h.APIDashboard)
	}

	if opts.MCP != nil {
		r.Any(MCPPath, gin.WrapH(opts.MCP))
	}
	if opts.Landing != nil {
		r.GET("/connect", gin.WrapH(opts.Landing))
	}
}
