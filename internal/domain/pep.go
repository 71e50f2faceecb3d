package domain

import (
	"time"

	"github.com/google/uuid"
)

// PEPType classifies a Politically Exposed Person by jurisdiction.
// It is derived from organization type and nationality, never set directly.
type PEPType string

const (
	PEPTypeDomestic      PEPType = "domestic"
	PEPTypeForeign       PEPType = "foreign"
	PEPTypeInternational PEPType = "international"
)

// PEPStatus represents the person's current exposure status.
type PEPStatus string

const (
	StatusActive   PEPStatus = "active"
	StatusFormer   PEPStatus = "former"
	StatusDeceased PEPStatus = "deceased"
)

// RiskTier is the derived risk classification of a PEP.
type RiskTier string

const (
	RiskTierLow    RiskTier = "low"
	RiskTierMedium RiskTier = "medium"
	RiskTierHigh   RiskTier = "high"
)

// PositionCategory is the closed set of prominent public functions.
type PositionCategory string

const (
	PositionHeadOfState      PositionCategory = "head_of_state"
	PositionHeadOfGovernment PositionCategory = "head_of_government"
	PositionMinister         PositionCategory = "minister"
	PositionParliamentMember PositionCategory = "parliament_member"
	PositionJudiciary        PositionCategory = "judiciary"
	PositionCentralBank      PositionCategory = "central_bank"
	PositionAmbassador       PositionCategory = "ambassador"
	PositionMilitaryOfficer  PositionCategory = "military_officer"
	PositionSOEExecutive     PositionCategory = "soe_executive"
	PositionPartyOfficial    PositionCategory = "party_official"
	PositionIntlDirector     PositionCategory = "intl_director"
	PositionIntlBoard        PositionCategory = "intl_board"
	PositionOther            PositionCategory = "other"
)

// OrganizationType classifies the institution the person serves.
type OrganizationType string

const (
	OrgTypeGovernment       OrganizationType = "government"
	OrgTypeStateOwned       OrganizationType = "state_owned"
	OrgTypePoliticalParty   OrganizationType = "political_party"
	OrgTypeJudiciary        OrganizationType = "judiciary"
	OrgTypeMilitary         OrganizationType = "military"
	OrgTypeInternationalOrg OrganizationType = "international_org"
	OrgTypeOther            OrganizationType = "other"
)

// EDDStatus tracks the Enhanced Due Diligence review workflow.
type EDDStatus string

const (
	EDDPending      EDDStatus = "pending"
	EDDInProgress   EDDStatus = "in_progress"
	EDDCompleted    EDDStatus = "completed"
	EDDReviewNeeded EDDStatus = "review_needed"
)

// MonitoringFrequency sets the EDD review cadence.
type MonitoringFrequency string

const (
	FrequencyMonthly    MonitoringFrequency = "monthly"
	FrequencyQuarterly  MonitoringFrequency = "quarterly"
	FrequencySemiAnnual MonitoringFrequency = "semi_annual"
	FrequencyAnnual     MonitoringFrequency = "annual"
)

// Months returns the review interval in calendar months.
func (f MonitoringFrequency) Months() int {
	switch f {
	case FrequencyMonthly:
		return 1
	case FrequencyQuarterly:
		return 3
	case FrequencySemiAnnual:
		return 6
	default:
		return 12
	}
}

// Valid reports whether f is a known frequency.
func (f MonitoringFrequency) Valid() bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencySemiAnnual, FrequencyAnnual:
		return true
	}
	return false
}

// PEPRecord is a known Politically Exposed Person in the register.
//
// PhoneticKey, PEPType, RiskTier and NextEDDReviewDate are derived fields.
// They are recomputed whenever a contributing attribute changes and must
// never be written directly by callers.
type PEPRecord struct {
	ID uuid.UUID `json:"id" db:"id"`

	// Identity. FullName may be a composite of a native-script name with
	// a Latin transliteration in parentheses, e.g. "Дамдин Ганзориг (Ganzorig Damdin)".
	FullName    string     `json:"full_name" db:"full_name"`
	PhoneticKey string     `json:"phonetic_key" db:"phonetic_key"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Nationality string     `json:"nationality,omitempty" db:"nationality"`

	// Position
	PositionCategory    PositionCategory `json:"position_category" db:"position_category"`
	CustomPositionTitle string           `json:"custom_position_title,omitempty" db:"custom_position_title"`
	Organization        string           `json:"organization,omitempty" db:"organization"`
	OrganizationType    OrganizationType `json:"organization_type" db:"organization_type"`

	// Classification
	PEPType  PEPType   `json:"pep_type" db:"pep_type"`
	Status   PEPStatus `json:"status" db:"status"`
	RiskTier RiskTier  `json:"risk_tier" db:"risk_tier"`

	// Tenure
	StartPeriod *time.Time `json:"start_period,omitempty" db:"start_period"`
	EndPeriod   *time.Time `json:"end_period,omitempty" db:"end_period"`

	// Enhanced Due Diligence
	EDDStatus           EDDStatus           `json:"edd_status" db:"edd_status"`
	LastEDDReviewDate   *time.Time          `json:"last_edd_review_date,omitempty" db:"last_edd_review_date"`
	NextEDDReviewDate   time.Time           `json:"next_edd_review_date" db:"next_edd_review_date"`
	MonitoringFrequency MonitoringFrequency `json:"monitoring_frequency" db:"monitoring_frequency"`

	// Audit
	Source        string     `json:"source,omitempty" db:"source"`
	Notes         string     `json:"notes,omitempty" db:"notes"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty" db:"last_checked_at"`

	// Active is the soft-delete flag. Records are deactivated, never
	// physically removed, to satisfy retention requirements.
	Active bool `json:"active" db:"active"`

	// Version guards derived-field writes. Saves must carry the version
	// they read; a mismatch rejects the write.
	Version int64 `json:"version" db:"version"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks the record's structural invariants. It never mutates;
// violations are reported, not silently corrected.
func (p *PEPRecord) Validate() error {
	if p.FullName == "" {
		return NewValidationError("full_name", "must not be empty")
	}
	if p.PositionCategory != "" && !validPositionCategory(p.PositionCategory) {
		return NewValidationError("position_category", "unknown category "+string(p.PositionCategory))
	}
	if p.OrganizationType != "" && !validOrganizationType(p.OrganizationType) {
		return NewValidationError("organization_type", "unknown type "+string(p.OrganizationType))
	}
	switch p.Status {
	case StatusActive, StatusFormer, StatusDeceased:
	default:
		return NewValidationError("status", "unknown status "+string(p.Status))
	}
	if p.MonitoringFrequency != "" && !p.MonitoringFrequency.Valid() {
		return NewValidationError("monitoring_frequency", "unknown frequency "+string(p.MonitoringFrequency))
	}
	if p.PEPType == PEPTypeInternational && p.OrganizationType != OrgTypeInternationalOrg {
		return NewValidationError("pep_type", "international requires organization_type international_org")
	}
	return nil
}

// IsFormer reports whether the person no longer holds the position.
func (p *PEPRecord) IsFormer() bool {
	return p.Status == StatusFormer
}

// HoldsSeniorIntlPosition reports whether the position is a senior role
// within an international organization.
func (p *PEPRecord) HoldsSeniorIntlPosition() bool {
	return p.PositionCategory == PositionIntlDirector || p.PositionCategory == PositionIntlBoard
}

// Clone returns a deep copy of the record.
func (p *PEPRecord) Clone() *PEPRecord {
	cp := *p
	cp.DateOfBirth = cloneTime(p.DateOfBirth)
	cp.StartPeriod = cloneTime(p.StartPeriod)
	cp.EndPeriod = cloneTime(p.EndPeriod)
	cp.LastEDDReviewDate = cloneTime(p.LastEDDReviewDate)
	cp.LastCheckedAt = cloneTime(p.LastCheckedAt)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

func validPositionCategory(c PositionCategory) bool {
	switch c {
	case PositionHeadOfState, PositionHeadOfGovernment, PositionMinister,
		PositionParliamentMember, PositionJudiciary, PositionCentralBank,
		PositionAmbassador, PositionMilitaryOfficer, PositionSOEExecutive,
		PositionPartyOfficial, PositionIntlDirector, PositionIntlBoard,
		PositionOther:
		return true
	}
	return false
}

func validOrganizationType(t OrganizationType) bool {
	switch t {
	case OrgTypeGovernment, OrgTypeStateOwned, OrgTypePoliticalParty,
		OrgTypeJudiciary, OrgTypeMilitary, OrgTypeInternationalOrg,
		OrgTypeOther:
		return true
	}
	return false
}
