package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/compliance/pep-registry/internal/domain"
)

func (s *Server) createRecord(c echo.Context) error {
	var record domain.PEPRecord
	if err := c.Bind(&record); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	created, err := s.registry.Create(c.Request().Context(), &record)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) listRecords(c echo.Context) error {
	records, err := s.registry.List(c.Request().Context())
	if err != nil {
		return err
	}
	if records == nil {
		records = []*domain.PEPRecord{}
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) getRecord(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}

	record, err := s.registry.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, record)
}

func (s *Server) updateRecord(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}

	var payload domain.PEPRecord
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	// Only caller-settable attributes are copied over. Derived fields
	// and versioning are the service's business; whatever the payload
	// carries for them is ignored.
	updated, err := s.registry.Update(c.Request().Context(), id, func(record *domain.PEPRecord) error {
		record.FullName = payload.FullName
		record.DateOfBirth = payload.DateOfBirth
		record.Nationality = payload.Nationality
		record.PositionCategory = payload.PositionCategory
		record.CustomPositionTitle = payload.CustomPositionTitle
		record.Organization = payload.Organization
		record.OrganizationType = payload.OrganizationType
		record.Status = payload.Status
		record.StartPeriod = payload.StartPeriod
		record.EndPeriod = payload.EndPeriod
		record.Notes = payload.Notes
		if payload.MonitoringFrequency != "" {
			record.MonitoringFrequency = payload.MonitoringFrequency
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteRecord(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}

	if err := s.registry.Deactivate(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) markReviewed(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}

	record, err := s.registry.MarkReviewed(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, record)
}

func (s *Server) attachRelated(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}

	var person domain.RelatedPerson
	if err := c.Bind(&person); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	person.PEPID = id

	created, err := s.registry.AttachRelated(c.Request().Context(), &person)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) listRelated(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}

	related, err := s.registry.ListRelated(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if related == nil {
		related = []*domain.RelatedPerson{}
	}
	return c.JSON(http.StatusOK, related)
}

func recordID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}
	return id, nil
}
