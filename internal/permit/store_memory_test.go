package permit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notaryops/travel-permits/internal/model"
)

func seedPermit(year, seq int) *model.Permit {
	now := time.Now().UTC()
	return &model.Permit{
		Year:           year,
		SequenceNumber: seq,
		State:          model.StateIssued,
		Version:        1,
		PermitContent:  nationalContent(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestMemoryStoreRejectsDuplicateCorrelative(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreatePermit(ctx, seedPermit(2025, 1)))
	assert.ErrorIs(t, store.CreatePermit(ctx, seedPermit(2025, 1)), ErrDuplicateCorrelative)
	// Same number under another year is a different correlative.
	assert.NoError(t, store.CreatePermit(ctx, seedPermit(2026, 1)))
}

func TestMemoryStoreOptimisticVersionCheck(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p := seedPermit(2025, 1)
	require.NoError(t, store.CreatePermit(ctx, p))

	p.Version = 2
	assert.ErrorIs(t, store.UpdatePermit(ctx, p, 5), ErrRetryableStorage)
	assert.NoError(t, store.UpdatePermit(ctx, p, 1))

	got, err := store.GetPermit(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
}

func TestMemoryStoreCopiesOnReadAndWrite(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p := seedPermit(2025, 1)
	p.Siblings = []model.Sibling{{Name: "LUIS", DocNumber: "70000001"}}
	require.NoError(t, store.CreatePermit(ctx, p))

	// Mutating what the caller holds must not leak into the store.
	p.Siblings[0].DocNumber = "mutated"
	p.Minor.Name = "mutated"

	got, err := store.GetPermit(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "70000001", got.Siblings[0].DocNumber)
	assert.Equal(t, "ARIANA SÁNCHEZ MERA", got.Minor.Name)

	// And mutating a read result must not change the stored record.
	got.Siblings[0].DocNumber = "mutated again"
	again, err := store.GetPermit(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "70000001", again.Siblings[0].DocNumber)
}

func TestMemoryStoreListOrderAndYearFilter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreatePermit(ctx, seedPermit(2026, 1)))
	require.NoError(t, store.CreatePermit(ctx, seedPermit(2025, 2)))
	require.NoError(t, store.CreatePermit(ctx, seedPermit(2025, 1)))

	all, err := store.ListPermits(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "NSC-2025-0001", all[0].Correlative)
	assert.Equal(t, "NSC-2025-0002", all[1].Correlative)
	assert.Equal(t, "NSC-2026-0001", all[2].Correlative)

	scoped, err := store.ListPermits(ctx, 2025)
	require.NoError(t, err)
	assert.Len(t, scoped, 2)
}

func TestMemoryStoreGetByCorrelative(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreatePermit(ctx, seedPermit(2025, 7)))

	got, err := store.GetByCorrelative(ctx, 2025, 7)
	require.NoError(t, err)
	assert.Equal(t, "NSC-2025-0007", got.Correlative())

	_, err = store.GetByCorrelative(ctx, 2025, 8)
	assert.ErrorIs(t, err, ErrNotFound)
}
