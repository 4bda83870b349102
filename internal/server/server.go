// Package server exposes the orchestrator and dispatcher over HTTP.
// Envelope outcomes are always HTTP 200; only transport-level problems
// (unreadable JSON, missing parameters) map to 4xx.
package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nhle/dayflow/internal/dispatch"
	"github.com/nhle/dayflow/internal/orchestrator"
	"github.com/nhle/dayflow/internal/repo"
)

// Server wires the HTTP routes to the core engines.
type Server struct {
	orch       *orchestrator.Orchestrator
	dispatcher *dispatch.Dispatcher
	repo       *repo.Repository
	log        zerolog.Logger
	router     *gin.Engine
}

// New creates a Server with all routes registered.
func New(o *orchestrator.Orchestrator, d *dispatch.Dispatcher, r *repo.Repository, log zerolog.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	s := &Server{orch: o, dispatcher: d, repo: r, log: log, router: router}

	v1 := router.Group("/v1")
	{
		v1.POST("/users/:user_id/messages", s.handleMessage)
		v1.POST("/actions", s.handleAction)
		v1.GET("/users/:user_id/days/:date/tasks", s.handleDayTasks)
		v1.GET("/users/:user_id/projects", s.handleProjects)
		v1.GET("/users/:user_id/routines", s.handleRoutines)
	}

	return s
}

// Run starts the HTTP listener on the given port.
func (s *Server) Run(port int) error {
	return s.router.Run(fmt.Sprintf(":%d", port))
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
