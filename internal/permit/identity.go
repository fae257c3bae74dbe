package permit

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/notaryops/travel-permits/internal/model"
)

// dniLength is the length of a national ID number.  A value that collapses
// to exactly this many digits is treated as a national ID and compared
// digits-only; anything else is compared as trimmed upper-cased text.
const dniLength = 8

// NormalizeDoc canonicalizes a document number for comparison and storage.
func NormalizeDoc(s string) string {
	digits := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) == dniLength {
		return string(digits)
	}
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidRole reports whether role is one the propagation engine understands.
func ValidRole(role string) bool {
	switch role {
	case model.RoleFather, model.RoleMother, model.RoleMinor, model.RoleSibling:
		return true
	}
	return false
}

// PropagateIdentityChange rewrites a person's document number across every
// historical record holding it under the given role, VOIDED permits
// included: identity correction is a data-quality operation, not a content
// edit, so the void-immutability rule does not apply.  Each record's
// rewrite is atomic on its own; on a mid-scan storage failure the count of
// records already rewritten is reported together with the error instead of
// being silently rolled back.  The operation is idempotent: a second run
// with the same arguments affects zero records.
func (s *Service) PropagateIdentityChange(ctx context.Context, role, oldDoc, newDoc string) (int, error) {
	if !ValidRole(role) {
		return 0, &ValidationError{Reasons: []string{fmt.Sprintf("unknown identity role %q", role)}}
	}
	oldN := NormalizeDoc(oldDoc)
	newN := NormalizeDoc(newDoc)
	if oldN == "" || newN == "" || oldN == newN {
		// Benign no-op, not a failure.
		return 0, nil
	}

	records, err := s.store.ListAllPermits(ctx)
	if err != nil {
		return 0, err
	}
	affected := 0
	for i := range records {
		p := &records[i]
		switch role {
		case model.RoleFather:
			if NormalizeDoc(p.Father.DocNumber) != oldN {
				continue
			}
			err = s.store.UpdateIdentity(ctx, p.ID, role, newN, nil)
		case model.RoleMother:
			if NormalizeDoc(p.Mother.DocNumber) != oldN {
				continue
			}
			err = s.store.UpdateIdentity(ctx, p.ID, role, newN, nil)
		case model.RoleMinor:
			if NormalizeDoc(p.Minor.DocNumber) != oldN {
				continue
			}
			err = s.store.UpdateIdentity(ctx, p.ID, role, newN, nil)
		case model.RoleSibling:
			patched, changed := patchSiblings(p.Siblings, oldN, newN)
			if !changed {
				continue
			}
			err = s.store.UpdateIdentity(ctx, p.ID, role, newN, patched)
		}
		if err != nil {
			return affected, fmt.Errorf("identity rewrite incomplete, %d record(s) already updated: %w", affected, err)
		}
		affected++
	}
	log.Printf("identity: propagated %s %s -> %s across %d record(s)", role, oldN, newN, affected)

	// Migrate any suppression marker as a best-effort compensating step.
	// The primary rewrite is already committed per record; a marker
	// failure is logged and must never undo it.
	s.migrateMarker(ctx, role, oldN, newN)
	return affected, nil
}

// patchSiblings returns a copy of the sibling list with every entry whose
// normalized document equals oldN rewritten to newN.  Top-level fields of
// the record are never touched by a sibling rewrite.
func patchSiblings(siblings []model.Sibling, oldN, newN string) ([]model.Sibling, bool) {
	changed := false
	out := make([]model.Sibling, len(siblings))
	copy(out, siblings)
	for i := range out {
		if NormalizeDoc(out[i].DocNumber) == oldN {
			out[i].DocNumber = newN
			changed = true
		}
	}
	return out, changed
}

func (s *Service) migrateMarker(ctx context.Context, role, oldN, newN string) {
	m, err := s.store.GetMarker(ctx, role, oldN)
	if err != nil {
		if err != ErrMarkerNotFound {
			log.Printf("identity: marker lookup for (%s,%s) failed: %v", role, oldN, err)
		}
		return
	}
	moved := &model.SuppressedIdentity{
		Role:      role,
		DocNumber: newN,
		Reason:    m.Reason,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}
	if err := s.store.UpsertMarker(ctx, moved); err != nil {
		log.Printf("identity: marker migration to (%s,%s) failed: %v", role, newN, err)
		return
	}
	if err := s.store.DeleteMarker(ctx, role, oldN); err != nil {
		log.Printf("identity: stale marker (%s,%s) not removed: %v", role, oldN, err)
	}
}

// HideIdentity suppresses a (role, document) pair from auto-suggest.
// Hiding an already hidden pair refreshes the reason.
func (s *Service) HideIdentity(ctx context.Context, role, doc, reason, actor string) error {
	if !ValidRole(role) {
		return &ValidationError{Reasons: []string{fmt.Sprintf("unknown identity role %q", role)}}
	}
	docN := NormalizeDoc(doc)
	if docN == "" {
		return &ValidationError{Reasons: []string{"document number is required"}}
	}
	return s.store.UpsertMarker(ctx, &model.SuppressedIdentity{
		Role:      role,
		DocNumber: docN,
		Reason:    reason,
		CreatedBy: actor,
		CreatedAt: time.Now().UTC(),
	})
}

// UnhideIdentity removes a suppression marker.  Removing a marker that
// does not exist returns ErrMarkerNotFound.
func (s *Service) UnhideIdentity(ctx context.Context, role, doc string) error {
	if !ValidRole(role) {
		return &ValidationError{Reasons: []string{fmt.Sprintf("unknown identity role %q", role)}}
	}
	return s.store.DeleteMarker(ctx, role, NormalizeDoc(doc))
}

// SuggestIdentities lists the known identities for a role, minus the
// suppressed ones, optionally filtered by a name or document prefix.
func (s *Service) SuggestIdentities(ctx context.Context, role, query string) ([]IdentityEntry, error) {
	if !ValidRole(role) {
		return nil, &ValidationError{Reasons: []string{fmt.Sprintf("unknown identity role %q", role)}}
	}
	entries, err := s.store.DistinctIdentities(ctx, role)
	if err != nil {
		return nil, err
	}
	markers, err := s.store.ListMarkers(ctx, role)
	if err != nil {
		return nil, err
	}
	hidden := make(map[string]bool, len(markers))
	for _, m := range markers {
		hidden[m.DocNumber] = true
	}
	q := strings.ToUpper(strings.TrimSpace(query))
	out := make([]IdentityEntry, 0, len(entries))
	for _, e := range entries {
		if hidden[NormalizeDoc(e.DocNumber)] {
			continue
		}
		if q != "" && !strings.Contains(strings.ToUpper(e.Name), q) && !strings.HasPrefix(NormalizeDoc(e.DocNumber), q) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
