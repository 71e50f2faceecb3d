package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/compliance/pep-registry/internal/domain"
)

// ScreeningIn is the request body for running a screening.
type ScreeningIn struct {
	Name        string     `json:"name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Nationality string     `json:"nationality,omitempty"`

	// Type and Method default to initial/database when omitted.
	Type   domain.ScreeningType   `json:"screening_type,omitempty"`
	Method domain.ScreeningMethod `json:"method,omitempty"`
}

func (s *Server) runScreening(c echo.Context) error {
	var in ScreeningIn
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	request := domain.ScreeningRequest{
		ID: uuid.New(),
		Query: domain.ScreeningQuery{
			Name:        in.Name,
			DateOfBirth: in.DateOfBirth,
			Nationality: in.Nationality,
		},
		Type:        in.Type,
		Method:      in.Method,
		RequestedAt: time.Now().UTC(),
	}
	if request.Type == "" {
		request.Type = domain.ScreeningInitial
	}
	if request.Method == "" {
		request.Method = domain.MethodDatabase
	}

	result, err := s.screener.Screen(c.Request().Context(), request)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) runSweep(c echo.Context) error {
	report, err := s.screener.Sweep(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}
