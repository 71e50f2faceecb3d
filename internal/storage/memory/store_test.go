package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compliance/pep-registry/internal/domain"
	"github.com/compliance/pep-registry/internal/screening"
	"github.com/compliance/pep-registry/internal/storage/memory"
)

func storedRecord(name string) *domain.PEPRecord {
	now := time.Now().UTC()
	return &domain.PEPRecord{
		ID:                  uuid.New(),
		FullName:            name,
		PhoneticKey:         screening.PhoneticKey(name),
		Nationality:         "MN",
		PositionCategory:    domain.PositionMinister,
		OrganizationType:    domain.OrgTypeGovernment,
		PEPType:             domain.PEPTypeDomestic,
		Status:              domain.StatusActive,
		RiskTier:            domain.RiskTierHigh,
		EDDStatus:           domain.EDDPending,
		NextEDDReviewDate:   now.AddDate(0, 12, 0),
		MonitoringFrequency: domain.FrequencyAnnual,
		Source:              "test",
		Active:              true,
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func TestStoreSaveAndFind(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	record := storedRecord("Ganzorig Damdin")

	require.NoError(t, store.Save(ctx, record))

	found, err := store.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.FullName, found.FullName)

	_, err = store.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreSearchEitherSideMatches(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	record := storedRecord("Дамдин Ганзориг (Ganzorig Damdin)")
	require.NoError(t, store.Save(ctx, record))

	tests := []struct {
		name    string
		key     string
		text    string
		wantHit bool
	}{
		{"phonetic_key_alone", record.PhoneticKey, "nonexistent", true},
		{"substring_alone", "NOKEY", "ganzorig", true},
		{"both_sides", record.PhoneticKey, "ganzorig", true},
		{"neither_side", "NOKEY", "nonexistent", false},
		{"empty_query", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := store.FindByPhoneticKeyOrSubstring(ctx, tt.key, tt.text)
			require.NoError(t, err)
			if tt.wantHit {
				require.Len(t, hits, 1)
				assert.Equal(t, record.ID, hits[0].ID)
			} else {
				assert.Empty(t, hits)
			}
		})
	}
}

func TestStoreSearchExcludesDeactivated(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	record := storedRecord("Ganzorig Damdin")
	require.NoError(t, store.Save(ctx, record))

	deactivated := record.Clone()
	deactivated.Active = false
	require.NoError(t, store.Save(ctx, deactivated))

	hits, err := store.FindByPhoneticKeyOrSubstring(ctx, record.PhoneticKey, "ganzorig")
	require.NoError(t, err)
	assert.Empty(t, hits)

	// Still reachable by ID for audit.
	found, err := store.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.False(t, found.Active)
}

func TestStoreVersionConflict(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	record := storedRecord("Ganzorig Damdin")
	require.NoError(t, store.Save(ctx, record))

	current, err := store.FindByID(ctx, record.ID)
	require.NoError(t, err)

	stale := current.Clone()
	stale.Version = current.Version - 1
	stale.Notes = "stale write"
	assert.ErrorIs(t, store.Save(ctx, stale), domain.ErrVersionConflict)

	fresh := current.Clone()
	fresh.Notes = "fresh write"
	require.NoError(t, store.Save(ctx, fresh))

	after, err := store.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh write", after.Notes)
	assert.Equal(t, current.Version+1, after.Version)

	// Save reflects the advanced version back to the caller.
	assert.Equal(t, after.Version, fresh.Version)
}

func TestStoreReturnsClones(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	record := storedRecord("Ganzorig Damdin")
	require.NoError(t, store.Save(ctx, record))

	found, err := store.FindByID(ctx, record.ID)
	require.NoError(t, err)
	found.FullName = "Mutated Locally"

	again, err := store.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ganzorig Damdin", again.FullName)
}

func TestStoreFindActiveByExactName(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	record := storedRecord("Ganzorig Damdin")
	require.NoError(t, store.Save(ctx, record))

	hits, err := store.FindActiveByExactName(ctx, "GANZORIG damdin")
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hits, err = store.FindActiveByExactName(ctx, "Ganzorig")
	require.NoError(t, err)
	assert.Empty(t, hits, "exact match must not behave like a substring search")
}

func TestStoreRelatedPersons(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	record := storedRecord("Ganzorig Damdin")
	require.NoError(t, store.Save(ctx, record))

	spouse := &domain.RelatedPerson{
		ID:               uuid.New(),
		PEPID:            record.ID,
		FullName:         "Related Spouse",
		RelationshipKind: domain.RelationshipFamily,
		FamilyRelation:   domain.FamilySpouse,
	}
	require.NoError(t, store.AddRelated(ctx, spouse))

	missing := uuid.New()
	orphan := &domain.RelatedPerson{
		ID:               uuid.New(),
		PEPID:            missing,
		FullName:         "No Anchor",
		RelationshipKind: domain.RelationshipFamily,
		FamilyRelation:   domain.FamilyChild,
	}
	assert.ErrorIs(t, store.AddRelated(ctx, orphan), domain.ErrNotFound)

	persons, err := store.ListRelated(ctx, record.ID)
	require.NoError(t, err)
	require.Len(t, persons, 1)
	assert.Equal(t, "Related Spouse", persons[0].FullName)

	_, err = store.ListRelated(ctx, missing)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStorePositionUniqueness(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	original := &domain.PositionTemplate{
		ID:       uuid.New(),
		Title:    "Minister of Finance",
		Category: domain.PositionMinister,
		Country:  "MN",
		Year:     "2024",
		Active:   true,
	}
	require.NoError(t, store.SavePosition(ctx, original))

	duplicate := &domain.PositionTemplate{
		ID:       uuid.New(),
		Title:    "minister of finance",
		Category: domain.PositionMinister,
		Country:  "mn",
		Year:     "2024",
		Active:   true,
	}
	assert.ErrorIs(t, store.SavePosition(ctx, duplicate), domain.ErrDuplicateRecord)

	differentYear := &domain.PositionTemplate{
		ID:       uuid.New(),
		Title:    "Minister of Finance",
		Category: domain.PositionMinister,
		Country:  "MN",
		Year:     "2020-2024",
		Active:   true,
	}
	require.NoError(t, store.SavePosition(ctx, differentYear))

	// Updating the original under its own ID is not a duplicate.
	original.Notes = "renamed ministry"
	require.NoError(t, store.SavePosition(ctx, original))

	positions, err := store.ListPositions(ctx)
	require.NoError(t, err)
	assert.Len(t, positions, 2)
}
