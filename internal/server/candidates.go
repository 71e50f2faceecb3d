package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/compliance/pep-registry/internal/domain"
	"github.com/compliance/pep-registry/internal/registry"
)

// DiscoverIn selects a candidate source and scopes its query.
type DiscoverIn struct {
	Source   string `json:"source"`
	Position string `json:"position,omitempty"`
	Country  string `json:"country"`
	Year     string `json:"year,omitempty"`
}

// DiscoverOut returns discovered candidate lines for manual review.
// Nothing is written to the register until a line is promoted.
type DiscoverOut struct {
	Source     string                 `json:"source"`
	Count      int                    `json:"count"`
	Candidates []domain.CandidateLine `json:"candidates"`
}

func (s *Server) discoverCandidates(c echo.Context) error {
	var in DiscoverIn
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	query := registry.CandidateQuery{
		Position: in.Position,
		Country:  in.Country,
		Year:     in.Year,
	}
	lines, err := s.registry.DiscoverCandidates(c.Request().Context(), in.Source, query)
	if err != nil {
		return err
	}
	if lines == nil {
		lines = []domain.CandidateLine{}
	}

	return c.JSON(http.StatusOK, DiscoverOut{Source: in.Source, Count: len(lines), Candidates: lines})
}

func (s *Server) promoteCandidate(c echo.Context) error {
	var line domain.CandidateLine
	if err := c.Bind(&line); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	record, err := s.registry.PromoteCandidate(c.Request().Context(), line)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, record)
}

func (s *Server) createPosition(c echo.Context) error {
	var position domain.PositionTemplate
	if err := c.Bind(&position); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	created, err := s.registry.CreatePosition(c.Request().Context(), &position)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) listPositions(c echo.Context) error {
	positions, err := s.registry.ListPositions(c.Request().Context())
	if err != nil {
		return err
	}
	if positions == nil {
		positions = []*domain.PositionTemplate{}
	}
	return c.JSON(http.StatusOK, positions)
}
