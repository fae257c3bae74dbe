package permit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notaryops/travel-permits/internal/model"
)

func TestNormalizeDoc(t *testing.T) {
	// Exactly eight digits after stripping: national ID, digits only.
	assert.Equal(t, "03700891", NormalizeDoc(" 0370-0891 "))
	assert.Equal(t, "03700891", NormalizeDoc("03700891"))
	// Anything else: trimmed, upper-cased text.
	assert.Equal(t, "PAS-123456789", NormalizeDoc(" pas-123456789 "))
	assert.Equal(t, "", NormalizeDoc("   "))
}

func TestPropagateRewritesAllMatchingRecords(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	// Two permits naming the same father, a third with a different one.
	c1 := internationalContent()
	p1, err := svc.CreatePermit(ctx, 2025, c1)
	require.NoError(t, err)
	p2, err := svc.CreatePermit(ctx, 2025, c1)
	require.NoError(t, err)
	other := internationalContent()
	other.Father.DocNumber = "99999999"
	p3, err := svc.CreatePermit(ctx, 2025, other)
	require.NoError(t, err)

	affected, err := svc.PropagateIdentityChange(ctx, model.RoleFather, "03700891", "10203040")
	require.NoError(t, err)
	assert.Equal(t, 2, affected)

	for _, id := range []uint64{p1.ID, p2.ID} {
		got, err := svc.GetPermit(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "10203040", got.Father.DocNumber)
		// Propagation is a data-quality rewrite, not a content edit.
		assert.Equal(t, 1, got.Version)
		assert.Equal(t, model.StateIssued, got.State)
	}
	got3, err := svc.GetPermit(ctx, p3.ID)
	require.NoError(t, err)
	assert.Equal(t, "99999999", got3.Father.DocNumber)
}

func TestPropagateReachesVoidedRecords(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePermit(ctx, 2025, internationalContent())
	require.NoError(t, err)
	require.NoError(t, svc.Void(ctx, p.ID, "wrong data", "notary@office.pe"))

	affected, err := svc.PropagateIdentityChange(ctx, model.RoleFather, "03700891", "10203040")
	require.NoError(t, err)
	assert.Equal(t, 1, affected)

	got, err := svc.GetPermit(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "10203040", got.Father.DocNumber)
	assert.Equal(t, model.StateVoided, got.State, "voided stays voided")
}

func TestPropagateIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePermit(ctx, 2025, internationalContent())
	require.NoError(t, err)

	affected, err := svc.PropagateIdentityChange(ctx, model.RoleFather, "03700891", "10203040")
	require.NoError(t, err)
	assert.Equal(t, 1, affected)

	again, err := svc.PropagateIdentityChange(ctx, model.RoleFather, "03700891", "10203040")
	require.NoError(t, err)
	assert.Equal(t, 0, again, "second run finds nothing to rewrite")
}

func TestPropagateMatchesOnNormalizedForm(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePermit(ctx, 2025, internationalContent())
	require.NoError(t, err)

	// Dashes and spaces in the request collapse to the stored digits.
	affected, err := svc.PropagateIdentityChange(ctx, model.RoleFather, " 0370-0891 ", "1020-3040")
	require.NoError(t, err)
	assert.Equal(t, 1, affected)
}

func TestPropagateSiblingScopedToRole(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	// The sibling shares a document number with the minor of the same
	// record; only the sibling entry may change on a SIBLING rewrite.
	c := nationalContent()
	c.Siblings = []model.Sibling{
		{Name: "LUIS SÁNCHEZ MERA", DocType: "DNI", DocNumber: "78234154", BirthDate: "2010-01-05", Sex: "M"},
		{Name: "ROSA SÁNCHEZ MERA", DocType: "DNI", DocNumber: "70000001", BirthDate: "2014-03-02", Sex: "F"},
	}
	p, err := svc.CreatePermit(ctx, 2025, c)
	require.NoError(t, err)

	affected, err := svc.PropagateIdentityChange(ctx, model.RoleSibling, "78234154", "78234199")
	require.NoError(t, err)
	assert.Equal(t, 1, affected)

	got, err := svc.GetPermit(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "78234199", got.Siblings[0].DocNumber)
	assert.Equal(t, "70000001", got.Siblings[1].DocNumber)
	assert.Equal(t, "78234154", got.Minor.DocNumber, "minor field must not change on a sibling rewrite")
}

func TestPropagateNoopAndBadInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	// Same normalized value: benign no-op.
	affected, err := svc.PropagateIdentityChange(ctx, model.RoleFather, "03700891", " 0370 0891 ")
	require.NoError(t, err)
	assert.Equal(t, 0, affected)

	// Empty inputs: benign no-op.
	affected, err = svc.PropagateIdentityChange(ctx, model.RoleFather, "", "12345678")
	require.NoError(t, err)
	assert.Equal(t, 0, affected)

	// Unknown role: rejected.
	_, err = svc.PropagateIdentityChange(ctx, "GRANDPARENT", "1", "2")
	_, ok := AsValidation(err)
	assert.True(t, ok)
}

func TestPropagateMigratesSuppressionMarker(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePermit(ctx, 2025, internationalContent())
	require.NoError(t, err)
	require.NoError(t, svc.HideIdentity(ctx, model.RoleFather, "03700891", "requested removal", "notary@office.pe"))

	_, err = svc.PropagateIdentityChange(ctx, model.RoleFather, "03700891", "10203040")
	require.NoError(t, err)

	// The marker followed the person to the corrected number.
	moved, err := store.GetMarker(ctx, model.RoleFather, "10203040")
	require.NoError(t, err)
	assert.Equal(t, "requested removal", moved.Reason)
	assert.Equal(t, "notary@office.pe", moved.CreatedBy)

	_, err = store.GetMarker(ctx, model.RoleFather, "03700891")
	assert.ErrorIs(t, err, ErrMarkerNotFound)
}

func TestHideUnhideSuggest(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	c1 := internationalContent()
	_, err := svc.CreatePermit(ctx, 2025, c1)
	require.NoError(t, err)
	c2 := internationalContent()
	c2.Father = model.Guardian{Name: "JORGE LUNA PAZ", DocType: "DNI", DocNumber: "55556666"}
	_, err = svc.CreatePermit(ctx, 2025, c2)
	require.NoError(t, err)

	entries, err := svc.SuggestIdentities(ctx, model.RoleFather, "")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	require.NoError(t, svc.HideIdentity(ctx, model.RoleFather, "55556666", "privacy request", "notary@office.pe"))
	entries, err = svc.SuggestIdentities(ctx, model.RoleFather, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "03700891", entries[0].DocNumber)

	// Suppression hides from suggest but not from the records themselves.
	list, err := svc.ListPermits(ctx, 2025)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, svc.UnhideIdentity(ctx, model.RoleFather, "55556666"))
	entries, err = svc.SuggestIdentities(ctx, model.RoleFather, "")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	assert.ErrorIs(t, svc.UnhideIdentity(ctx, model.RoleFather, "55556666"), ErrMarkerNotFound)
}

func TestSuggestFilters(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	c1 := internationalContent()
	_, err := svc.CreatePermit(ctx, 2025, c1)
	require.NoError(t, err)
	c2 := internationalContent()
	c2.Father = model.Guardian{Name: "JORGE LUNA PAZ", DocType: "DNI", DocNumber: "55556666"}
	_, err = svc.CreatePermit(ctx, 2025, c2)
	require.NoError(t, err)

	// Name fragment, case-insensitive.
	entries, err := svc.SuggestIdentities(ctx, model.RoleFather, "luna")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "JORGE LUNA PAZ", entries[0].Name)

	// Document prefix.
	entries, err = svc.SuggestIdentities(ctx, model.RoleFather, "0370")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "03700891", entries[0].DocNumber)
}
