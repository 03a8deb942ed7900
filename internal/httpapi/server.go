// Package httpapi is the HTTP façade: it decodes Ollama and OpenAI
// wire request shapes into a canonical prompt, invokes the workflow
// engine, and encodes the result as JSON or Server-Sent Events.
package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jinterlante1206/chorus/internal/engine"
	"github.com/jinterlante1206/chorus/internal/obslog"
	"github.com/jinterlante1206/chorus/internal/registry"
	"github.com/jinterlante1206/chorus/internal/workflow"
)

// Server holds the shared, read-only dependencies every handler
// closes over: the engine, the workflow it dispatches every request
// through, the registry (for /v1/models), and a logger.
type Server struct {
	Engine   *engine.Engine
	Workflow *workflow.Workflow
	Registry *registry.Registry
	Log      *obslog.Logger

	validate *validator.Validate
}

// NewServer builds a Server from its shared dependencies.
func NewServer(eng *engine.Engine, wf *workflow.Workflow, reg *registry.Registry, log *obslog.Logger) *Server {
	if log == nil {
		log = obslog.Default()
	}
	return &Server{Engine: eng, Workflow: wf, Registry: reg, Log: log, validate: validator.New()}
}

// Router builds the gin.Engine serving every endpoint.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("chorus"))

	router.GET("/health", s.handleHealth)

	router.POST("/api/generate", s.handleGenerate)
	router.POST("/api/chat", s.handleChat)

	v1 := router.Group("/v1")
	{
		v1.POST("/completions", s.handleCompletions)
		v1.POST("/chat/completions", s.handleChatCompletions)
		v1.POST("/responses", s.handleResponses)
		v1.GET("/models", s.handleModels)
	}

	return router
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
