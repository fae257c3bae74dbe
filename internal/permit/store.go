package permit

import (
	"context"

	"github.com/notaryops/travel-permits/internal/model"
)

// IdentityEntry is one known (name, document) pair surfaced by the
// identity auto-suggest endpoint.
type IdentityEntry struct {
	Name      string `json:"name"`
	DocNumber string `json:"doc_number"`
}

// Store is the persistence contract of the permit core.  The MySQL
// implementation lives in internal/repository; an in-memory implementation
// backs the tests.  Every method opens its own short-lived unit of work
// and is atomic on its own: the service never asks the store to hold a
// transaction across calls.
type Store interface {
	// IncrementCounter atomically advances the year counter and returns
	// the freshly issued sequence number.  The read-increment-write must
	// happen inside a single transaction holding the counter row so that
	// concurrent callers can never observe the same value.  The row is
	// created with value 0 on first use.
	IncrementCounter(ctx context.Context, year int) (int, error)

	// CreatePermit persists a new permit row and fills in the generated
	// ID.  Returns ErrDuplicateCorrelative when (year, sequence number)
	// is already taken.
	CreatePermit(ctx context.Context, p *model.Permit) error

	GetPermit(ctx context.Context, id uint64) (*model.Permit, error)
	GetByCorrelative(ctx context.Context, year, number int) (*model.Permit, error)

	// ListPermits returns registry summaries ordered by year and sequence
	// number.  year == 0 lists every year.
	ListPermits(ctx context.Context, year int) ([]model.PermitSummary, error)

	// ListAllPermits returns full records for the propagation scan.
	ListAllPermits(ctx context.Context) ([]model.Permit, error)

	// UpdatePermit overwrites the stored row with p, guarded by the
	// version the caller read (optimistic lock).  Returns ErrNotFound if
	// the id is gone and ErrRetryableStorage if the guard no longer
	// matches, meaning a concurrent writer got there first.
	UpdatePermit(ctx context.Context, p *model.Permit, expectedVersion int) error

	// UpdateIdentity rewrites the document number for one role on one
	// record, regardless of lifecycle state.  For SIBLING the provided
	// slice replaces the embedded sibling list; for the other roles
	// siblings is ignored and the role's document column (plus its legacy
	// mirror) is set to newDoc.  The update is atomic per record and
	// leaves version and state untouched.
	UpdateIdentity(ctx context.Context, id uint64, role, newDoc string, siblings []model.Sibling) error

	// Suppressed-identity markers, unique per (role, doc number).
	UpsertMarker(ctx context.Context, m *model.SuppressedIdentity) error
	DeleteMarker(ctx context.Context, role, docNumber string) error
	GetMarker(ctx context.Context, role, docNumber string) (*model.SuppressedIdentity, error)
	ListMarkers(ctx context.Context, role string) ([]model.SuppressedIdentity, error)

	// DistinctIdentities returns the unique identities seen historically
	// under the given role, for auto-suggest.  Suppression filtering is
	// applied by the service, not the store.
	DistinctIdentities(ctx context.Context, role string) ([]IdentityEntry, error)
}
