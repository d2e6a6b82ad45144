package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	config "github.com/nabhajit/bhujal/configs"
	"github.com/nabhajit/bhujal/internal/auth"
	"github.com/nabhajit/bhujal/internal/handlers"
	"github.com/nabhajit/bhujal/internal/logger"
	"github.com/nabhajit/bhujal/internal/metrics"
	"github.com/nabhajit/bhujal/internal/session"
	"github.com/nabhajit/bhujal/internal/utils"
)

// New builds the router. Middleware order matters: the cookie session must be
// installed before the gate reads it.
func New(cfg *config.Config, h *handlers.Handler, sessions *session.Manager, m *metrics.Metrics, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.SetHTMLTemplate(handlers.Templates())

	r.Use(
		gin.Recovery(),
		logger.Middleware(log),
		m.Middleware(),
		utils.SecurityHeaders(),
		sessions.Middleware(),
		auth.Gate(sessions, auth.GateConfig{
			Public:    auth.Matchers(config.SplitPaths(cfg.PublicPaths)),
			Protected: auth.Matchers(config.SplitPaths(cfg.ProtectedPaths)),
			LoginPath: "/login/",
		}, log),
	)
	r.NoMethod(handlers.MethodNotAllowed)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.MetricsEnabled && m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// ── pages ──
	r.GET("/", h.Home)
	r.GET("/home/", h.Home)
	r.GET("/login/", h.LoginPage)
	r.POST("/login/", h.Login)
	r.GET("/signup/", h.SignupPage)
	r.POST("/signup/", h.Signup)
	r.GET("/logout/", h.Logout)
	r.GET("/main/:customerId", h.Main)

	// ── borewells ──
	r.POST("/borewellRegister/", h.RegisterBorewell)
	api := r.Group("/api")
	{
		api.GET("/get_borewells/", h.GetBorewells)
		api.GET("/get_borewell_owners/", h.GetBorewellOwners)
	}

	return r
}
