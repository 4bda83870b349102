package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nhle/dayflow/internal/intent"
	"github.com/nhle/dayflow/internal/model"
	"github.com/nhle/dayflow/internal/orchestrator"
)

// POST /v1/users/:user_id/messages
func (s *Server) handleMessage(c *gin.Context) {
	var req struct {
		Message  string        `json:"message" binding:"required"`
		History  []intent.Turn `json:"history"`
		Timezone string        `json:"timezone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := s.orch.Handle(c.Request.Context(), orchestrator.Message{
		UserID:   c.Param("user_id"),
		Text:     req.Message,
		History:  req.History,
		Timezone: req.Timezone,
	})
	c.JSON(http.StatusOK, resp)
}

// POST /v1/actions
//
// Direct dispatch for UI surfaces that build their own payloads; the
// chat confirmation flow goes through /messages instead.
func (s *Server) handleAction(c *gin.Context) {
	var payload model.ActionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := s.dispatcher.Dispatch(c.Request.Context(), payload)
	c.JSON(http.StatusOK, resp)
}

// GET /v1/users/:user_id/days/:date/tasks
func (s *Server) handleDayTasks(c *gin.Context) {
	tasks, err := s.repo.DayTasks(c.Request.Context(), c.Param("user_id"), c.Param("date"))
	if err != nil {
		s.log.Error().Err(err).Str("user_id", c.Param("user_id")).Msg("reading day tasks")
		c.JSON(http.StatusOK, model.ErrorResponse("Could not load tasks."))
		return
	}
	c.JSON(http.StatusOK, model.Response{
		Status: model.StatusSuccess,
		Data:   map[string]interface{}{"date": c.Param("date"), "tasks": tasks},
	})
}

// GET /v1/users/:user_id/projects
func (s *Server) handleProjects(c *gin.Context) {
	projects, err := s.repo.Projects(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		s.log.Error().Err(err).Str("user_id", c.Param("user_id")).Msg("reading projects")
		c.JSON(http.StatusOK, model.ErrorResponse("Could not load projects."))
		return
	}
	c.JSON(http.StatusOK, model.Response{
		Status: model.StatusSuccess,
		Data:   map[string]interface{}{"projects": projects},
	})
}

// GET /v1/users/:user_id/routines
func (s *Server) handleRoutines(c *gin.Context) {
	routines, err := s.repo.Routines(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		s.log.Error().Err(err).Str("user_id", c.Param("user_id")).Msg("reading routines")
		c.JSON(http.StatusOK, model.ErrorResponse("Could not load routines."))
		return
	}
	c.JSON(http.StatusOK, model.Response{
		Status: model.StatusSuccess,
		Data:   map[string]interface{}{"routines": routines},
	})
}
