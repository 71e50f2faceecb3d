package domain

import (
	"time"

	"github.com/google/uuid"
)

// RelationshipKind distinguishes family members from close associates.
type RelationshipKind string

const (
	RelationshipFamily    RelationshipKind = "family"
	RelationshipAssociate RelationshipKind = "associate"
)

// FamilyRelation is the sub-type for family relationships.
type FamilyRelation string

const (
	FamilySpouse  FamilyRelation = "spouse"
	FamilyChild   FamilyRelation = "child"
	FamilyParent  FamilyRelation = "parent"
	FamilySibling FamilyRelation = "sibling"
	FamilyOther   FamilyRelation = "other"
)

// AssociationType is the sub-type for close-associate relationships.
type AssociationType string

const (
	AssociationBusinessPartner AssociationType = "business_partner"
	AssociationBeneficialOwner AssociationType = "beneficial_owner"
	AssociationLegalArranger   AssociationType = "legal_arranger"
	AssociationAdvisor         AssociationType = "advisor"
	AssociationOther           AssociationType = "other"
)

// RelatedPerson is a family member or close associate attached to exactly
// one PEPRecord. Deleting the owning record cascades to its related
// persons.
type RelatedPerson struct {
	ID    uuid.UUID `json:"id" db:"id"`
	PEPID uuid.UUID `json:"pep_id" db:"pep_id"`

	FullName    string     `json:"full_name" db:"full_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`

	RelationshipKind RelationshipKind `json:"relationship_kind" db:"relationship_kind"`
	FamilyRelation   FamilyRelation   `json:"family_relation,omitempty" db:"family_relation"`
	AssociationType  AssociationType  `json:"association_type,omitempty" db:"association_type"`

	Notes     string    `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Validate enforces that the kind-specific sub-type is present and
// matches the relationship kind.
func (r *RelatedPerson) Validate() error {
	if r.FullName == "" {
		return NewValidationError("full_name", "must not be empty")
	}
	if r.PEPID == uuid.Nil {
		return NewValidationError("pep_id", "must reference a PEP record")
	}
	switch r.RelationshipKind {
	case RelationshipFamily:
		if r.FamilyRelation == "" {
			return NewValidationError("family_relation", "required for family relationships")
		}
		if r.AssociationType != "" {
			return NewValidationError("association_type", "must be empty for family relationships")
		}
	case RelationshipAssociate:
		if r.AssociationType == "" {
			return NewValidationError("association_type", "required for associate relationships")
		}
		if r.FamilyRelation != "" {
			return NewValidationError("family_relation", "must be empty for associate relationships")
		}
	default:
		return NewValidationError("relationship_kind", "unknown kind "+string(r.RelationshipKind))
	}
	return nil
}
