package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	fastshot "github.com/opus-domini/fast-shot"

	"github.com/compliance/pep-registry/internal/config"
	"github.com/compliance/pep-registry/internal/domain"
	"github.com/compliance/pep-registry/internal/pkg/logger"
)

const disclosureProvider = "disclosure"

// DisclosureSource walks the public asset-declaration portal page by
// page and turns declaration rows into candidate lines. Names arrive
// surname first, matching the register's native convention.
type DisclosureSource struct {
	cfg *config.DisclosureConfig
	log *logger.Logger
}

func NewDisclosureSource(cfg *config.DisclosureConfig, log *logger.Logger) *DisclosureSource {
	return &DisclosureSource{cfg: cfg, log: log.Named("disclosure")}
}

func (d *DisclosureSource) Name() string {
	return disclosureProvider
}

type disclosureRow struct {
	DeclarationYear int    `json:"declaration_year"`
	LastName        string `json:"last_name"`
	FirstName       string `json:"first_name"`
	Organization    string `json:"organization"`
	Position        string `json:"position"`
	AidNumber       string `json:"aid_number"`
}

type disclosurePage struct {
	Rows []disclosureRow `json:"rows"`
}

// Discover fetches declaration pages until the portal runs out of rows
// or the configured page cap is reached.
func (d *DisclosureSource) Discover(ctx context.Context, query CandidateQuery) ([]domain.CandidateLine, error) {
	var lines []domain.CandidateLine
	now := time.Now().UTC()

	for page := 1; d.cfg.MaxPages == 0 || page <= d.cfg.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, &domain.ExternalServiceError{Provider: disclosureProvider, Err: err}
		}

		rows, err := d.fetchPage(query, page)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			if line, ok := d.toLine(row, query, now); ok {
				lines = append(lines, line)
			}
		}
	}
	return lines, nil
}

func (d *DisclosureSource) fetchPage(query CandidateQuery, page int) ([]disclosureRow, error) {
	params := map[string]string{"page": strconv.Itoa(page)}
	if query.Year != "" {
		params["year"] = query.Year
	}

	res, err := fastshot.NewClient(d.cfg.BaseURL).
		Config().SetTimeout(d.timeout()).
		Build().GET("/xacxom/search").
		Query().AddParams(params).
		Send()
	if err != nil {
		return nil, &domain.ExternalServiceError{Provider: disclosureProvider, Err: err}
	}

	if res.StatusCode() >= 400 {
		body, _ := io.ReadAll(res.RawBody())
		return nil, &domain.ExternalServiceError{
			Provider: disclosureProvider,
			Message:  fmt.Sprintf("status %d: %s", res.StatusCode(), domain.Excerpt(string(body))),
		}
	}

	body, err := io.ReadAll(res.RawBody())
	if err != nil {
		return nil, &domain.ExternalServiceError{Provider: disclosureProvider, Err: err}
	}

	var payload disclosurePage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &domain.MalformedExternalResponse{
			Provider: disclosureProvider,
			Excerpt:  domain.Excerpt(string(body)),
			Err:      err,
		}
	}
	return payload.Rows, nil
}

// toLine composes the candidate line for one declaration row. The
// portal lists surname and given name separately; the register stores
// them as one surname-first full name.
func (d *DisclosureSource) toLine(row disclosureRow, query CandidateQuery, now time.Time) (domain.CandidateLine, bool) {
	fullName := strings.TrimSpace(strings.TrimSpace(row.LastName) + " " + strings.TrimSpace(row.FirstName))
	if fullName == "" {
		return domain.CandidateLine{}, false
	}

	country := d.cfg.Country
	if country == "" {
		country = query.Country
	}

	var notes []string
	if row.DeclarationYear > 0 {
		notes = append(notes, fmt.Sprintf("asset declaration %d", row.DeclarationYear))
	}
	if row.AidNumber != "" {
		notes = append(notes, "ref "+row.AidNumber)
	}

	return domain.CandidateLine{
		FullName:      fullName,
		SpecificTitle: strings.TrimSpace(row.Position),
		Organization:  strings.TrimSpace(row.Organization),
		Nationality:   country,
		Notes:         strings.Join(notes, "; "),
		Source:        disclosureProvider,
		DiscoveredAt:  now,
	}, true
}

func (d *DisclosureSource) timeout() time.Duration {
	if d.cfg.Timeout > 0 {
		return d.cfg.Timeout
	}
	return 20 * time.Second
}
