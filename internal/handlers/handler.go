package handlers

import (
	"embed"
	"html/template"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nabhajit/bhujal/internal/auth"
	"github.com/nabhajit/bhujal/internal/borewell"
	"github.com/nabhajit/bhujal/internal/metrics"
	"github.com/nabhajit/bhujal/internal/notifier"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

// Sessions is what the handlers need from the session layer.
type Sessions interface {
	Start(c *gin.Context, customerID uint) error
	Current(c *gin.Context) (uint, bool, error)
	End(c *gin.Context) error
}

type Handler struct {
	auth      *auth.Service
	borewells *borewell.Service
	sessions  Sessions
	notify    notifier.Notifier
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func New(
	authService *auth.Service,
	borewells *borewell.Service,
	sessions Sessions,
	notify notifier.Notifier,
	m *metrics.Metrics,
	log *zap.Logger,
) *Handler {
	if notify == nil {
		notify = notifier.Multi{}
	}
	return &Handler{
		auth:      authService,
		borewells: borewells,
		sessions:  sessions,
		notify:    notify,
		metrics:   m,
		log:       log,
	}
}
