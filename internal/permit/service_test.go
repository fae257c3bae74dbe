package permit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notaryops/travel-permits/internal/model"
)

// stubRenderer stands in for the docgen renderer.
type stubRenderer struct {
	calls int
	fail  bool
}

func (r *stubRenderer) Render(p *model.Permit) (string, error) {
	r.calls++
	if r.fail {
		return "", errors.New("template exploded")
	}
	return fmt.Sprintf("documents/%s_v%d.txt", p.Correlative(), p.Version), nil
}

func nationalContent() model.PermitContent {
	return model.PermitContent{
		Mother: model.Guardian{
			Name:      "KATYA MARIELA MERA VILLASÍS",
			DocType:   "DNI",
			DocNumber: "40443151",
		},
		Minor: model.Minor{
			Name:      "ARIANA SÁNCHEZ MERA",
			DocNumber: "78234154",
			BirthDate: "2012-09-14",
			Sex:       "F",
		},
		Travel: model.Travel{
			Kind:          model.TravelNational,
			Origin:        "CHICLAYO",
			Destination:   "LIMA",
			Vias:          []string{"TERRESTRE"},
			DepartureDate: "2025-12-10",
			ReturnDate:    "2025-12-20",
			Signer:        "MADRE",
		},
		Motive: "CONGRESO ESCOLAR",
	}
}

func internationalContent() model.PermitContent {
	c := nationalContent()
	c.Father = model.Guardian{
		Name:      "ERLAND PAUL SÁNCHEZ DÍAZ",
		DocType:   "DNI",
		DocNumber: "03700891",
	}
	c.Travel.Kind = model.TravelInternational
	c.Travel.Signer = ""
	c.Travel.Vias = []string{"AÉREA"}
	c.Travel.Destination = "SANTIAGO"
	return c
}

func newTestService(t *testing.T) (*Service, *MemoryStore, *stubRenderer) {
	t.Helper()
	store := NewMemoryStore()
	r := &stubRenderer{}
	return NewService(store, r), store, r
}

func TestCreatePermitAssignsGaplessSequence(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		p, err := svc.CreatePermit(ctx, 2025, nationalContent())
		require.NoError(t, err)
		assert.Equal(t, i, p.SequenceNumber)
		assert.Equal(t, model.StateIssued, p.State)
		assert.Equal(t, 1, p.Version)
		assert.Equal(t, fmt.Sprintf("NSC-2025-%04d", i), p.Correlative())
	}

	// A different year issues independently starting from 1.
	p, err := svc.CreatePermit(ctx, 2026, nationalContent())
	require.NoError(t, err)
	assert.Equal(t, 1, p.SequenceNumber)
}

func TestIssueNextConcurrent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	const n = 40
	results := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := svc.IssueNext(ctx, 2025)
			require.NoError(t, err)
			results <- seq
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int]bool, n)
	for seq := range results {
		assert.False(t, seen[seq], "sequence %d issued twice", seq)
		seen[seq] = true
	}
	for i := 1; i <= n; i++ {
		assert.True(t, seen[i], "sequence %d missing, numbering has a gap", i)
	}
}

func TestIssueNextRejectsYearOutOfRange(t *testing.T) {
	svc, _, _ := newTestService(t)
	for _, year := range []int{1999, 2101, 0, -5} {
		_, err := svc.IssueNext(context.Background(), year)
		verr, ok := AsValidation(err)
		require.True(t, ok, "year %d should be rejected", year)
		assert.Len(t, verr.Reasons, 1)
	}
}

func TestCreatePermitCollectsAllValidationReasons(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreatePermit(context.Background(), 2025, model.PermitContent{})
	verr, ok := AsValidation(err)
	require.True(t, ok)
	// Every missing field is reported at once, not just the first.
	assert.GreaterOrEqual(t, len(verr.Reasons), 5)
}

func TestCreatePermitInternationalRequiresBothParents(t *testing.T) {
	svc, _, _ := newTestService(t)

	c := internationalContent()
	c.Mother = model.Guardian{}
	_, err := svc.CreatePermit(context.Background(), 2025, c)
	verr, ok := AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, verr.Reasons, "international travel requires the mother's name and document")
}

func TestCreatePermitNationalRequiresSigner(t *testing.T) {
	svc, _, _ := newTestService(t)

	c := nationalContent()
	c.Travel.Signer = ""
	_, err := svc.CreatePermit(context.Background(), 2025, c)
	verr, ok := AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, verr.Reasons, "national travel requires a signer (PADRE or MADRE)")

	// Designating the father without his identity on record fails too.
	c.Travel.Signer = "PADRE"
	_, err = svc.CreatePermit(context.Background(), 2025, c)
	verr, ok = AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, verr.Reasons, "national travel signed by the father requires his name and document")
}

func TestCreatePermitSurvivesRenderFailure(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, &stubRenderer{fail: true})

	p, err := svc.CreatePermit(context.Background(), 2025, nationalContent())
	require.NoError(t, err, "a broken template must not block issuance")
	assert.Empty(t, p.DocumentPath)

	got, err := store.GetPermit(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateIssued, got.State)
}

func TestApplyEditBumpsVersionAndState(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePermit(ctx, 2025, nationalContent())
	require.NoError(t, err)

	edited := nationalContent()
	edited.Travel.Destination = "AREQUIPA"
	p2, err := svc.ApplyEdit(ctx, p.ID, edited)
	require.NoError(t, err)
	assert.Equal(t, 2, p2.Version)
	assert.Equal(t, model.StateCorrected, p2.State)
	assert.Equal(t, "AREQUIPA", p2.Travel.Destination)
	// The legal identity never changes through an edit.
	assert.Equal(t, p.Year, p2.Year)
	assert.Equal(t, p.SequenceNumber, p2.SequenceNumber)

	p3, err := svc.ApplyEdit(ctx, p.ID, edited)
	require.NoError(t, err)
	assert.Equal(t, 3, p3.Version)
}

func TestApplyEditValidatesContent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePermit(ctx, 2025, nationalContent())
	require.NoError(t, err)

	_, err = svc.ApplyEdit(ctx, p.ID, model.PermitContent{})
	_, ok := AsValidation(err)
	require.True(t, ok)

	// The failed edit left the record untouched.
	got, err := svc.GetPermit(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, model.StateIssued, got.State)
}

func TestRegenerateDocumentBumpsVersion(t *testing.T) {
	svc, _, r := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePermit(ctx, 2025, nationalContent())
	require.NoError(t, err)
	callsAfterCreate := r.calls

	path, err := svc.RegenerateDocument(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, callsAfterCreate+1, r.calls)
	assert.Contains(t, path, "NSC-2025-0001_v2")

	got, err := svc.GetPermit(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, model.StateCorrected, got.State)
	assert.Equal(t, path, got.DocumentPath)
}

func TestRegenerateDocumentFailureLeavesRecordUntouched(t *testing.T) {
	store := NewMemoryStore()
	r := &stubRenderer{}
	svc := NewService(store, r)
	ctx := context.Background()

	p, err := svc.CreatePermit(ctx, 2025, nationalContent())
	require.NoError(t, err)

	r.fail = true
	_, err = svc.RegenerateDocument(ctx, p.ID)
	require.Error(t, err)

	got, err := svc.GetPermit(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version, "failed regeneration must not bump the version")
}

func TestVoidIsTerminal(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePermit(ctx, 2025, nationalContent())
	require.NoError(t, err)

	require.NoError(t, svc.Void(ctx, p.ID, "issued against the wrong minor", "notary@office.pe"))

	got, err := svc.GetPermit(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateVoided, got.State)
	assert.Equal(t, 1, got.Version, "voiding does not change the version")
	assert.Equal(t, "issued against the wrong minor", got.VoidReason)
	assert.Equal(t, "notary@office.pe", got.VoidedBy)
	require.NotNil(t, got.VoidedAt)

	// Terminal: voiding again and any mutation are rejected.
	assert.ErrorIs(t, svc.Void(ctx, p.ID, "again", "notary@office.pe"), ErrAlreadyVoided)
	_, err = svc.ApplyEdit(ctx, p.ID, nationalContent())
	assert.ErrorIs(t, err, ErrVoidedImmutable)
	_, err = svc.RegenerateDocument(ctx, p.ID)
	assert.ErrorIs(t, err, ErrVoidedImmutable)
}

func TestVoidRequiresReasonAndActor(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePermit(ctx, 2025, nationalContent())
	require.NoError(t, err)

	err = svc.Void(ctx, p.ID, "", "")
	verr, ok := AsValidation(err)
	require.True(t, ok)
	assert.Len(t, verr.Reasons, 2)

	// The correlative of a voided permit is never reissued.
	require.NoError(t, svc.Void(ctx, p.ID, "duplicate request", "notary@office.pe"))
	next, err := svc.CreatePermit(ctx, 2025, nationalContent())
	require.NoError(t, err)
	assert.Equal(t, 2, next.SequenceNumber)
}

func TestVoidedPermitStaysListed(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePermit(ctx, 2025, nationalContent())
	require.NoError(t, err)
	require.NoError(t, svc.Void(ctx, p.ID, "clerical error", "notary@office.pe"))

	list, err := svc.ListPermits(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.StateVoided, list[0].State)

	got, err := svc.GetByCorrelative(ctx, 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StateVoided, got.State)
}
