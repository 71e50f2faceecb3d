package screening

import (
	"time"

	"github.com/compliance/pep-registry/internal/config"
	"github.com/compliance/pep-registry/internal/domain"
)

// RiskClassifier derives a PEP's type and risk tier from its stored
// attributes. Both derivations are pure and total over valid records;
// they are re-run eagerly on every contributing mutation so the derived
// fields are consistent by construction, never lazily stale.
type RiskClassifier struct {
	homeCountry   string
	cooldownYears int
}

// NewRiskClassifier creates a classifier with the configured home
// jurisdiction and former-PEP cooldown.
func NewRiskClassifier(cfg *config.ScreeningConfig) *RiskClassifier {
	cooldown := cfg.FormerCooldownYears
	if cooldown <= 0 {
		cooldown = 5
	}
	return &RiskClassifier{
		homeCountry:   cfg.HomeCountry,
		cooldownYears: cooldown,
	}
}

// DerivePEPType computes the jurisdictional type from organization type
// and nationality. Unknown nationality defaults to foreign, the stricter
// scrutiny.
func (c *RiskClassifier) DerivePEPType(pep *domain.PEPRecord) domain.PEPType {
	if pep.OrganizationType == domain.OrgTypeInternationalOrg {
		return domain.PEPTypeInternational
	}
	if pep.Nationality != "" && pep.Nationality == c.homeCountry {
		return domain.PEPTypeDomestic
	}
	return domain.PEPTypeForeign
}

// Classify computes the risk tier as of now.
func (c *RiskClassifier) Classify(pep *domain.PEPRecord) domain.RiskTier {
	return c.ClassifyAt(pep, time.Now())
}

// ClassifyAt computes the risk tier as of a reference time. Rules apply
// in precedence order; the first matching rule wins.
func (c *RiskClassifier) ClassifyAt(pep *domain.PEPRecord, asOf time.Time) domain.RiskTier {
	if pep.Status == domain.StatusDeceased {
		return domain.RiskTierLow
	}

	if pep.Status == domain.StatusFormer {
		if pep.EndPeriod != nil && asOf.After(pep.EndPeriod.AddDate(c.cooldownYears, 0, 0)) {
			return domain.RiskTierLow
		}
		return domain.RiskTierMedium
	}

	switch pep.PEPType {
	case domain.PEPTypeDomestic:
		return domain.RiskTierHigh
	case domain.PEPTypeForeign:
		return domain.RiskTierHigh
	case domain.PEPTypeInternational:
		if pep.HoldsSeniorIntlPosition() {
			return domain.RiskTierHigh
		}
		return domain.RiskTierMedium
	}

	// Records awaiting derivation are treated as foreign.
	return domain.RiskTierHigh
}

// Recompute applies both derivations to the record in dependency order
// and stamps the next review date. It is the single entry point mutation
// paths use to keep derived fields consistent.
func (c *RiskClassifier) Recompute(pep *domain.PEPRecord, asOf time.Time) {
	pep.PhoneticKey = PhoneticKey(pep.FullName)
	pep.PEPType = c.DerivePEPType(pep)
	pep.RiskTier = c.ClassifyAt(pep, asOf)
	pep.NextEDDReviewDate = NextReviewDate(pep.LastEDDReviewDate, pep.MonitoringFrequency, asOf)
}
