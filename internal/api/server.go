// Package api contains the HTTP handlers for the visual lifecycle service.
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"insightboard/internal/services"
	"insightboard/pkg/models"
)

// Server holds the dependencies for the API server.
type Server struct {
	Engine *services.LifecycleService
}

// NewServer creates a new Server.
func NewServer(engine *services.LifecycleService) *Server {
	return &Server{Engine: engine}
}

// RegisterRoutes mounts the lifecycle operations on the given group.
func (s *Server) RegisterRoutes(g *echo.Group) {
	g.GET("/visuals/generated", s.ListGenerated)
	g.GET("/visuals/experimental", s.ListExperimental)
	g.GET("/visuals/approved", s.ListApproved)
	g.POST("/visuals/experimental", s.Promote)
	g.POST("/visuals/approved", s.Approve)
	g.DELETE("/visuals/approved/:id", s.Unapprove)
	g.DELETE("/visuals/:id", s.Ignore)
	g.POST("/visuals/validate", s.Validate)
}

// transitionRequest is the body of every mutating lifecycle operation.
type transitionRequest struct {
	ID       string `json:"id"`
	Question string `json:"question"`
}

// transitionError maps engine errors onto problem-details responses.
func transitionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrMissingID):
		return problem(c, http.StatusBadRequest, "Missing id", err.Error())
	case errors.Is(err, services.ErrMissingQuestion):
		return problem(c, http.StatusUnprocessableEntity, "Missing question", err.Error())
	case errors.Is(err, services.ErrUnknownItem):
		return problem(c, http.StatusNotFound, "Unknown item", err.Error())
	default:
		return problem(c, http.StatusBadGateway, "Transition failed", err.Error())
	}
}

// ListGenerated returns the generated pool, legacy shapes upgraded on read.
// (GET /api/v1/visuals/generated)
func (s *Server) ListGenerated(c echo.Context) error {
	records, err := s.Engine.ListGenerated(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string][]models.Record{"generated": records})
}

// ListExperimental returns the experimental pool.
// (GET /api/v1/visuals/experimental)
func (s *Server) ListExperimental(c echo.Context) error {
	records, err := s.Engine.ListExperimental(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string][]models.Record{"experimental": records})
}

// ListApproved returns the approved collection.
// (GET /api/v1/visuals/approved)
func (s *Server) ListApproved(c echo.Context) error {
	records, err := s.Engine.ListApproved(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string][]models.Record{"approved": records})
}

// Promote moves an item into the experimental pool.
// (POST /api/v1/visuals/experimental)
func (s *Server) Promote(c echo.Context) error {
	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return problem(c, http.StatusBadRequest, "Invalid request body", err.Error())
	}

	records, err := s.Engine.PromoteToExperimental(c.Request().Context(), req.ID, req.Question)
	if err != nil {
		return transitionError(c, err)
	}
	return c.JSON(http.StatusOK, map[string][]models.Record{"experimental": records})
}

// Approve moves an item into the approved collection.
// (POST /api/v1/visuals/approved)
func (s *Server) Approve(c echo.Context) error {
	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return problem(c, http.StatusBadRequest, "Invalid request body", err.Error())
	}

	records, err := s.Engine.Approve(c.Request().Context(), req.ID, req.Question)
	if err != nil {
		return transitionError(c, err)
	}
	return c.JSON(http.StatusOK, map[string][]models.Record{"approved": records})
}

// Unapprove withdraws an item from the approved collection.
// (DELETE /api/v1/visuals/approved/:id)
func (s *Server) Unapprove(c echo.Context) error {
	records, err := s.Engine.Unapprove(c.Request().Context(), c.Param("id"))
	if err != nil {
		return transitionError(c, err)
	}
	return c.JSON(http.StatusOK, map[string][]models.Record{"approved": records})
}

// Ignore drops an item from the experimental or generated pool.
// (DELETE /api/v1/visuals/:id)
func (s *Server) Ignore(c echo.Context) error {
	collection, records, err := s.Engine.Ignore(c.Request().Context(), c.Param("id"))
	if err != nil {
		return transitionError(c, err)
	}
	return c.JSON(http.StatusOK, map[string][]models.Record{collection: records})
}

// Validate runs a candidate question past the validation service.
// (POST /api/v1/visuals/validate)
func (s *Server) Validate(c echo.Context) error {
	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return problem(c, http.StatusBadRequest, "Invalid request body", err.Error())
	}

	result, err := s.Engine.Validate(c.Request().Context(), req.ID, req.Question)
	if err != nil {
		return transitionError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
