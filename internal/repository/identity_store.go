package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/notaryops/travel-permits/internal/model"
	"github.com/notaryops/travel-permits/internal/permit"
)

// UpsertMarker creates or refreshes a suppression marker.  The unique key
// on (role, doc_number) turns a repeated hide into a reason update.
func (s *Store) UpsertMarker(ctx context.Context, m *model.SuppressedIdentity) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO suppressed_identities (role, doc_number, reason, created_by, created_at)
		 VALUES (?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE reason = VALUES(reason), created_by = VALUES(created_by)`,
		m.Role, m.DocNumber, m.Reason, m.CreatedBy, m.CreatedAt)
	return mapStorageErr(err)
}

// DeleteMarker removes a suppression marker, reporting ErrMarkerNotFound
// when nothing was there to remove.
func (s *Store) DeleteMarker(ctx context.Context, role, docNumber string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM suppressed_identities WHERE role = ? AND doc_number = ?`,
		role, docNumber)
	if err != nil {
		return mapStorageErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return permit.ErrMarkerNotFound
	}
	return nil
}

// GetMarker loads one suppression marker.
func (s *Store) GetMarker(ctx context.Context, role, docNumber string) (*model.SuppressedIdentity, error) {
	var m model.SuppressedIdentity
	err := s.db.QueryRowContext(ctx,
		`SELECT role, doc_number, reason, created_by, created_at
		 FROM suppressed_identities WHERE role = ? AND doc_number = ?`,
		role, docNumber).Scan(&m.Role, &m.DocNumber, &m.Reason, &m.CreatedBy, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, permit.ErrMarkerNotFound
	}
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return &m, nil
}

// ListMarkers returns the markers for one role, or all markers when role
// is empty.
func (s *Store) ListMarkers(ctx context.Context, role string) ([]model.SuppressedIdentity, error) {
	q := `SELECT role, doc_number, reason, created_by, created_at FROM suppressed_identities`
	args := []interface{}{}
	if role != "" {
		q += ` WHERE role = ?`
		args = append(args, role)
	}
	q += ` ORDER BY doc_number`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	defer rows.Close()
	out := []model.SuppressedIdentity{}
	for rows.Next() {
		var m model.SuppressedIdentity
		if err := rows.Scan(&m.Role, &m.DocNumber, &m.Reason, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DistinctIdentities collects the unique (name, document) pairs seen under
// a role across the whole registry.  For top-level roles this is a
// DISTINCT projection; for SIBLING the embedded JSON lists are decoded and
// flattened in Go, the same scan-decode cycle the propagation engine uses.
func (s *Store) DistinctIdentities(ctx context.Context, role string) ([]permit.IdentityEntry, error) {
	var q string
	switch role {
	case model.RoleFather:
		q = `SELECT DISTINCT father_name, father_doc_number FROM permits WHERE father_doc_number <> '' ORDER BY father_doc_number`
	case model.RoleMother:
		q = `SELECT DISTINCT mother_name, mother_doc_number FROM permits WHERE mother_doc_number <> '' ORDER BY mother_doc_number`
	case model.RoleMinor:
		q = `SELECT DISTINCT minor_name, minor_doc_number FROM permits WHERE minor_doc_number <> '' ORDER BY minor_doc_number`
	case model.RoleSibling:
		return s.distinctSiblings(ctx)
	}
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	defer rows.Close()
	out := []permit.IdentityEntry{}
	for rows.Next() {
		var e permit.IdentityEntry
		if err := rows.Scan(&e.Name, &e.DocNumber); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) distinctSiblings(ctx context.Context) ([]permit.IdentityEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT siblings_json FROM permits WHERE siblings_json <> '' AND siblings_json <> '[]'`)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	defer rows.Close()
	seen := make(map[string]bool)
	out := []permit.IdentityEntry{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var siblings []model.Sibling
		if err := json.Unmarshal([]byte(raw), &siblings); err != nil {
			continue // tolerate legacy malformed rows rather than fail the listing
		}
		for _, sb := range siblings {
			if sb.DocNumber == "" {
				continue
			}
			key := permit.NormalizeDoc(sb.DocNumber)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, permit.IdentityEntry{Name: sb.Name, DocNumber: sb.DocNumber})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
