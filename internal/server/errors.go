package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/compliance/pep-registry/internal/domain"
	"github.com/compliance/pep-registry/internal/pkg/logger"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// handleError maps the domain error taxonomy onto HTTP status codes.
// Anything unrecognized is a 500 with the detail kept out of the body.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := mapError(err)
	if status == http.StatusInternalServerError {
		s.log.Error("unhandled request error",
			logger.StringField("path", c.Request().URL.Path),
			logger.ErrorField(err))
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}

func mapError(err error) (int, errorResponse) {
	var (
		validation *domain.ValidationError
		external   *domain.ExternalServiceError
		malformed  *domain.MalformedExternalResponse
		httpErr    *echo.HTTPError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, errorResponse{Error: validation.Reason, Field: validation.Field}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "record not found"}
	case errors.Is(err, domain.ErrDuplicateRecord), errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict, errorResponse{Error: err.Error()}
	case errors.As(err, &external), errors.As(err, &malformed):
		return http.StatusBadGateway, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrRepositoryUnavailable):
		return http.StatusServiceUnavailable, errorResponse{Error: "repository unavailable"}
	case errors.As(err, &httpErr):
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, errorResponse{Error: msg}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
	}
}
