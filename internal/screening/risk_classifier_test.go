package screening_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/compliance/pep-registry/internal/config"
	"github.com/compliance/pep-registry/internal/domain"
	"github.com/compliance/pep-registry/internal/screening"
)

func newClassifier() *screening.RiskClassifier {
	return screening.NewRiskClassifier(&config.ScreeningConfig{
		HomeCountry:         "MN",
		FormerCooldownYears: 5,
	})
}

func TestDerivePEPType(t *testing.T) {
	classifier := newClassifier()

	tests := []struct {
		name        string
		nationality string
		orgType     domain.OrganizationType
		want        domain.PEPType
	}{
		{"international_org_wins_over_home_nationality", "MN", domain.OrgTypeInternationalOrg, domain.PEPTypeInternational},
		{"home_nationality_is_domestic", "MN", domain.OrgTypeGovernment, domain.PEPTypeDomestic},
		{"other_nationality_is_foreign", "US", domain.OrgTypeGovernment, domain.PEPTypeForeign},
		{"unknown_nationality_is_foreign", "", domain.OrgTypeGovernment, domain.PEPTypeForeign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pep := &domain.PEPRecord{
				Nationality:      tt.nationality,
				OrganizationType: tt.orgType,
			}
			assert.Equal(t, tt.want, classifier.DerivePEPType(pep))
		})
	}
}

func TestClassifyAtPrecedence(t *testing.T) {
	classifier := newClassifier()
	asOf := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		pep  *domain.PEPRecord
		want domain.RiskTier
	}{
		{
			name: "deceased_overrides_domestic_head_of_state",
			pep: &domain.PEPRecord{
				Status:           domain.StatusDeceased,
				PEPType:          domain.PEPTypeDomestic,
				PositionCategory: domain.PositionHeadOfState,
			},
			want: domain.RiskTierLow,
		},
		{
			name: "deceased_overrides_senior_international",
			pep: &domain.PEPRecord{
				Status:           domain.StatusDeceased,
				PEPType:          domain.PEPTypeInternational,
				PositionCategory: domain.PositionIntlDirector,
			},
			want: domain.RiskTierLow,
		},
		{
			name: "former_beyond_cooldown_is_low",
			pep: &domain.PEPRecord{
				Status:    domain.StatusFormer,
				PEPType:   domain.PEPTypeDomestic,
				EndPeriod: timePtr(time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)),
			},
			want: domain.RiskTierLow,
		},
		{
			name: "former_within_cooldown_is_medium",
			pep: &domain.PEPRecord{
				Status:    domain.StatusFormer,
				PEPType:   domain.PEPTypeDomestic,
				EndPeriod: timePtr(time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC)),
			},
			want: domain.RiskTierMedium,
		},
		{
			name: "former_at_exact_cooldown_boundary_is_medium",
			pep: &domain.PEPRecord{
				Status:    domain.StatusFormer,
				PEPType:   domain.PEPTypeDomestic,
				EndPeriod: timePtr(time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC)),
			},
			want: domain.RiskTierMedium,
		},
		{
			name: "former_without_end_period_is_medium",
			pep: &domain.PEPRecord{
				Status:  domain.StatusFormer,
				PEPType: domain.PEPTypeForeign,
			},
			want: domain.RiskTierMedium,
		},
		{
			name: "former_senior_international_ignores_position",
			pep: &domain.PEPRecord{
				Status:           domain.StatusFormer,
				PEPType:          domain.PEPTypeInternational,
				PositionCategory: domain.PositionIntlDirector,
				EndPeriod:        timePtr(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)),
			},
			want: domain.RiskTierMedium,
		},
		{
			name: "active_domestic_is_high",
			pep: &domain.PEPRecord{
				Status:           domain.StatusActive,
				PEPType:          domain.PEPTypeDomestic,
				PositionCategory: domain.PositionMinister,
			},
			want: domain.RiskTierHigh,
		},
		{
			name: "active_foreign_is_high",
			pep: &domain.PEPRecord{
				Status:           domain.StatusActive,
				PEPType:          domain.PEPTypeForeign,
				PositionCategory: domain.PositionParliamentMember,
			},
			want: domain.RiskTierHigh,
		},
		{
			name: "active_international_board_is_high",
			pep: &domain.PEPRecord{
				Status:           domain.StatusActive,
				PEPType:          domain.PEPTypeInternational,
				PositionCategory: domain.PositionIntlBoard,
			},
			want: domain.RiskTierHigh,
		},
		{
			name: "active_international_staff_is_medium",
			pep: &domain.PEPRecord{
				Status:           domain.StatusActive,
				PEPType:          domain.PEPTypeInternational,
				PositionCategory: domain.PositionOther,
			},
			want: domain.RiskTierMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.ClassifyAt(tt.pep, asOf))
		})
	}
}

func TestRecompute(t *testing.T) {
	classifier := newClassifier()
	asOf := time.Date(2025, time.June, 1, 10, 30, 0, 0, time.UTC)

	pep := &domain.PEPRecord{
		FullName:            "Дамдин Ганзориг (Ganzorig Damdin)",
		Nationality:         "MN",
		PositionCategory:    domain.PositionMinister,
		OrganizationType:    domain.OrgTypeGovernment,
		Status:              domain.StatusActive,
		MonitoringFrequency: domain.FrequencyAnnual,
	}

	classifier.Recompute(pep, asOf)

	assert.Equal(t, screening.PhoneticKey(pep.FullName), pep.PhoneticKey)
	assert.NotEqual(t, screening.NoPhoneticKey, pep.PhoneticKey)
	assert.Equal(t, domain.PEPTypeDomestic, pep.PEPType)
	assert.Equal(t, domain.RiskTierHigh, pep.RiskTier)
	assert.True(t, pep.NextEDDReviewDate.Equal(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)),
		"absent review history must force an immediate review, got %s", pep.NextEDDReviewDate)
}
