package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/notaryops/travel-permits/internal/model"
	"github.com/notaryops/travel-permits/internal/permit"
)

// The permits table is one wide row per permit.  Sibling, companion and
// receiver lists live in JSON columns (siblings_json, companions_json,
// receivers_json), mirroring the original registry layout.  The
// father_dni / mother_dni / minor_dni columns are legacy mirrors of the
// corresponding doc-number columns and are kept in sync on every write.
const permitSelectColumns = `id, year, sequence_number, state, version,
	father_name, father_doc_type, father_doc_number, father_nationality, father_civil_status,
	father_address, father_district, father_province, father_department,
	mother_name, mother_doc_type, mother_doc_number, mother_nationality, mother_civil_status,
	mother_address, mother_district, mother_province, mother_department,
	minor_name, minor_doc_number, minor_birth_date, minor_sex,
	siblings_json, companions_json, receivers_json,
	travel_kind, travel_origin, travel_destination, vias_json, travel_company,
	departure_date, return_date, travel_escort, travel_signer,
	motive, event_city, event_date, organizer,
	document_path, void_reason, voided_by, voided_at, created_at, updated_at`

// marshalJSON encodes a list column, normalizing nil slices to "[]" so the
// column never stores SQL NULL or the JSON null literal.
func marshalJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	s := string(b)
	if s == "null" {
		s = "[]"
	}
	return s, nil
}

func encodeLists(p *model.Permit) (siblings, companions, receivers, vias string, err error) {
	if siblings, err = marshalJSON(p.Siblings); err != nil {
		return
	}
	if companions, err = marshalJSON(p.Companions); err != nil {
		return
	}
	if receivers, err = marshalJSON(p.Receivers); err != nil {
		return
	}
	vias, err = marshalJSON(p.Travel.Vias)
	return
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPermit(row rowScanner) (*model.Permit, error) {
	var p model.Permit
	var siblingsJSON, companionsJSON, receiversJSON, viasJSON string
	var voidedAt sql.NullTime
	err := row.Scan(
		&p.ID, &p.Year, &p.SequenceNumber, &p.State, &p.Version,
		&p.Father.Name, &p.Father.DocType, &p.Father.DocNumber, &p.Father.Nationality, &p.Father.CivilStatus,
		&p.Father.Address, &p.Father.District, &p.Father.Province, &p.Father.Department,
		&p.Mother.Name, &p.Mother.DocType, &p.Mother.DocNumber, &p.Mother.Nationality, &p.Mother.CivilStatus,
		&p.Mother.Address, &p.Mother.District, &p.Mother.Province, &p.Mother.Department,
		&p.Minor.Name, &p.Minor.DocNumber, &p.Minor.BirthDate, &p.Minor.Sex,
		&siblingsJSON, &companionsJSON, &receiversJSON,
		&p.Travel.Kind, &p.Travel.Origin, &p.Travel.Destination, &viasJSON, &p.Travel.Company,
		&p.Travel.DepartureDate, &p.Travel.ReturnDate, &p.Travel.Escort, &p.Travel.Signer,
		&p.Motive, &p.EventCity, &p.EventDate, &p.Organizer,
		&p.DocumentPath, &p.VoidReason, &p.VoidedBy, &voidedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if voidedAt.Valid {
		t := voidedAt.Time
		p.VoidedAt = &t
	}
	if err := decodeList(siblingsJSON, &p.Siblings); err != nil {
		return nil, fmt.Errorf("permit %d: siblings_json: %w", p.ID, err)
	}
	if err := decodeList(companionsJSON, &p.Companions); err != nil {
		return nil, fmt.Errorf("permit %d: companions_json: %w", p.ID, err)
	}
	if err := decodeList(receiversJSON, &p.Receivers); err != nil {
		return nil, fmt.Errorf("permit %d: receivers_json: %w", p.ID, err)
	}
	if err := decodeList(viasJSON, &p.Travel.Vias); err != nil {
		return nil, fmt.Errorf("permit %d: vias_json: %w", p.ID, err)
	}
	return &p, nil
}

// decodeList tolerates legacy empty-string columns (the original registry
// backfilled NULLs to "").
func decodeList(col string, dst interface{}) error {
	if strings.TrimSpace(col) == "" {
		return nil
	}
	return json.Unmarshal([]byte(col), dst)
}

// CreatePermit inserts a new permit row and fills in the generated ID.
// The unique key on (year, sequence_number) backs up the issuer's
// serialization.
func (s *Store) CreatePermit(ctx context.Context, p *model.Permit) error {
	siblings, companions, receivers, vias, err := encodeLists(p)
	if err != nil {
		return err
	}
	const q = `INSERT INTO permits (
		year, sequence_number, state, version,
		father_name, father_doc_type, father_doc_number, father_dni, father_nationality, father_civil_status,
		father_address, father_district, father_province, father_department,
		mother_name, mother_doc_type, mother_doc_number, mother_dni, mother_nationality, mother_civil_status,
		mother_address, mother_district, mother_province, mother_department,
		minor_name, minor_doc_number, minor_dni, minor_birth_date, minor_sex,
		siblings_json, companions_json, receivers_json,
		travel_kind, travel_origin, travel_destination, vias_json, travel_company,
		departure_date, return_date, travel_escort, travel_signer,
		motive, event_city, event_date, organizer,
		document_path, void_reason, voided_by, voided_at, created_at, updated_at
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := s.db.ExecContext(ctx, q,
		p.Year, p.SequenceNumber, p.State, p.Version,
		p.Father.Name, p.Father.DocType, p.Father.DocNumber, p.Father.DocNumber, p.Father.Nationality, p.Father.CivilStatus,
		p.Father.Address, p.Father.District, p.Father.Province, p.Father.Department,
		p.Mother.Name, p.Mother.DocType, p.Mother.DocNumber, p.Mother.DocNumber, p.Mother.Nationality, p.Mother.CivilStatus,
		p.Mother.Address, p.Mother.District, p.Mother.Province, p.Mother.Department,
		p.Minor.Name, p.Minor.DocNumber, p.Minor.DocNumber, p.Minor.BirthDate, p.Minor.Sex,
		siblings, companions, receivers,
		p.Travel.Kind, p.Travel.Origin, p.Travel.Destination, vias, p.Travel.Company,
		p.Travel.DepartureDate, p.Travel.ReturnDate, p.Travel.Escort, p.Travel.Signer,
		p.Motive, p.EventCity, p.EventDate, p.Organizer,
		p.DocumentPath, p.VoidReason, p.VoidedBy, p.VoidedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return permit.ErrDuplicateCorrelative
		}
		return mapStorageErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetPermit loads one permit by surrogate id.
func (s *Store) GetPermit(ctx context.Context, id uint64) (*model.Permit, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+permitSelectColumns+` FROM permits WHERE id = ?`, id)
	p, err := scanPermit(row)
	if err == sql.ErrNoRows {
		return nil, permit.ErrNotFound
	}
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return p, nil
}

// GetByCorrelative loads one permit by its legal identity.
func (s *Store) GetByCorrelative(ctx context.Context, year, number int) (*model.Permit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+permitSelectColumns+` FROM permits WHERE year = ? AND sequence_number = ?`,
		year, number)
	p, err := scanPermit(row)
	if err == sql.ErrNoRows {
		return nil, permit.ErrNotFound
	}
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return p, nil
}

// ListPermits returns registry summaries ordered by correlative.  year == 0
// lists every year.
func (s *Store) ListPermits(ctx context.Context, year int) ([]model.PermitSummary, error) {
	q := `SELECT id, year, sequence_number, state, version, minor_name, minor_doc_number,
	             father_name, mother_name, travel_destination, departure_date, created_at
	      FROM permits`
	args := []interface{}{}
	if year != 0 {
		q += ` WHERE year = ?`
		args = append(args, year)
	}
	q += ` ORDER BY year, sequence_number`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	defer rows.Close()
	out := make([]model.PermitSummary, 0)
	for rows.Next() {
		var sm model.PermitSummary
		var createdAt sql.NullTime
		if err := rows.Scan(&sm.ID, &sm.Year, &sm.SequenceNumber, &sm.State, &sm.Version,
			&sm.MinorName, &sm.MinorDoc, &sm.FatherName, &sm.MotherName,
			&sm.Destination, &sm.DepartureDate, &createdAt); err != nil {
			return nil, err
		}
		sm.Correlative = fmt.Sprintf("NSC-%d-%04d", sm.Year, sm.SequenceNumber)
		if createdAt.Valid {
			sm.CreatedAt = createdAt.Time.UTC().Format("2006-01-02 15:04:05")
		}
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAllPermits returns full records for the propagation scan, ordered by
// id so repeated scans visit records in a stable order.
func (s *Store) ListAllPermits(ctx context.Context) ([]model.Permit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+permitSelectColumns+` FROM permits ORDER BY id`)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	defer rows.Close()
	out := make([]model.Permit, 0)
	for rows.Next() {
		p, err := scanPermit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatePermit overwrites the row with p, guarded by the version the
// caller read.  Zero rows affected means either the permit is gone
// (ErrNotFound) or a concurrent writer bumped the version first
// (ErrRetryableStorage).
func (s *Store) UpdatePermit(ctx context.Context, p *model.Permit, expectedVersion int) error {
	siblings, companions, receivers, vias, err := encodeLists(p)
	if err != nil {
		return err
	}
	const q = `UPDATE permits SET
		state = ?, version = ?,
		father_name = ?, father_doc_type = ?, father_doc_number = ?, father_dni = ?, father_nationality = ?, father_civil_status = ?,
		father_address = ?, father_district = ?, father_province = ?, father_department = ?,
		mother_name = ?, mother_doc_type = ?, mother_doc_number = ?, mother_dni = ?, mother_nationality = ?, mother_civil_status = ?,
		mother_address = ?, mother_district = ?, mother_province = ?, mother_department = ?,
		minor_name = ?, minor_doc_number = ?, minor_dni = ?, minor_birth_date = ?, minor_sex = ?,
		siblings_json = ?, companions_json = ?, receivers_json = ?,
		travel_kind = ?, travel_origin = ?, travel_destination = ?, vias_json = ?, travel_company = ?,
		departure_date = ?, return_date = ?, travel_escort = ?, travel_signer = ?,
		motive = ?, event_city = ?, event_date = ?, organizer = ?,
		document_path = ?, void_reason = ?, voided_by = ?, voided_at = ?, updated_at = ?
	WHERE id = ? AND version = ?`
	res, err := s.db.ExecContext(ctx, q,
		p.State, p.Version,
		p.Father.Name, p.Father.DocType, p.Father.DocNumber, p.Father.DocNumber, p.Father.Nationality, p.Father.CivilStatus,
		p.Father.Address, p.Father.District, p.Father.Province, p.Father.Department,
		p.Mother.Name, p.Mother.DocType, p.Mother.DocNumber, p.Mother.DocNumber, p.Mother.Nationality, p.Mother.CivilStatus,
		p.Mother.Address, p.Mother.District, p.Mother.Province, p.Mother.Department,
		p.Minor.Name, p.Minor.DocNumber, p.Minor.DocNumber, p.Minor.BirthDate, p.Minor.Sex,
		siblings, companions, receivers,
		p.Travel.Kind, p.Travel.Origin, p.Travel.Destination, vias, p.Travel.Company,
		p.Travel.DepartureDate, p.Travel.ReturnDate, p.Travel.Escort, p.Travel.Signer,
		p.Motive, p.EventCity, p.EventDate, p.Organizer,
		p.DocumentPath, p.VoidReason, p.VoidedBy, p.VoidedAt, p.UpdatedAt,
		p.ID, expectedVersion,
	)
	if err != nil {
		return mapStorageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var one int
		if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM permits WHERE id = ?`, p.ID).Scan(&one); err == sql.ErrNoRows {
			return permit.ErrNotFound
		}
		return permit.ErrRetryableStorage
	}
	return nil
}

// UpdateIdentity rewrites one role's document number on one record in a
// single statement, bypassing the version guard on purpose: identity
// propagation must reach VOIDED records and must not look like a content
// edit.  Legacy mirror columns are rewritten in the same statement so the
// update stays atomic per record.
func (s *Store) UpdateIdentity(ctx context.Context, id uint64, role, newDoc string, siblings []model.Sibling) error {
	var res sql.Result
	var err error
	switch role {
	case model.RoleFather:
		res, err = s.db.ExecContext(ctx,
			`UPDATE permits SET father_doc_number = ?, father_dni = ? WHERE id = ?`, newDoc, newDoc, id)
	case model.RoleMother:
		res, err = s.db.ExecContext(ctx,
			`UPDATE permits SET mother_doc_number = ?, mother_dni = ? WHERE id = ?`, newDoc, newDoc, id)
	case model.RoleMinor:
		res, err = s.db.ExecContext(ctx,
			`UPDATE permits SET minor_doc_number = ?, minor_dni = ? WHERE id = ?`, newDoc, newDoc, id)
	case model.RoleSibling:
		var encoded string
		encoded, err = marshalJSON(siblings)
		if err != nil {
			return err
		}
		res, err = s.db.ExecContext(ctx,
			`UPDATE permits SET siblings_json = ? WHERE id = ?`, encoded, id)
	default:
		return fmt.Errorf("unknown identity role %q", role)
	}
	if err != nil {
		return mapStorageErr(err)
	}
	if n, rerr := res.RowsAffected(); rerr == nil && n == 0 {
		var one int
		if serr := s.db.QueryRowContext(ctx, `SELECT 1 FROM permits WHERE id = ?`, id).Scan(&one); serr == sql.ErrNoRows {
			return permit.ErrNotFound
		}
	}
	return nil
}
