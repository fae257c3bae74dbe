package model

import (
	"fmt"
	"time"
)

// Lifecycle states of a permit.  ISSUED is the initial state, CORRECTED is
// re-entered on every content edit or document regeneration, VOIDED is
// terminal and makes the record read-only for ordinary edits.
const (
	StateIssued    = "ISSUED"
	StateCorrected = "CORRECTED"
	StateVoided    = "VOIDED"
)

// Identity roles understood by the propagation engine and the
// suppressed-identity registry.
const (
	RoleFather  = "FATHER"
	RoleMother  = "MOTHER"
	RoleMinor   = "MINOR"
	RoleSibling = "SIBLING"
)

// Travel kinds.  International permits require both parents to sign;
// national permits are signed by a single designated parent.
const (
	TravelNational      = "NACIONAL"
	TravelInternational = "INTERNACIONAL"
)

// Guardian holds the identity and address data of one parent as it
// appears on the legal document.
//
// Fields:
//  Name        – full name exactly as printed on the ID document.
//  DocType     – ID document type (DNI, CE, PASAPORTE).
//  DocNumber   – ID document number; leading zeros are significant.
//  Nationality – nationality as free text.
//  CivilStatus – civil status (SOLTERO, CASADA, ...).
//  Address     – street address.
//  District    – district of residence.
//  Province    – province of residence.
//  Department  – department of residence.
type Guardian struct {
	Name        string `json:"name"`
	DocType     string `json:"doc_type"`
	DocNumber   string `json:"doc_number"`
	Nationality string `json:"nationality"`
	CivilStatus string `json:"civil_status"`
	Address     string `json:"address"`
	District    string `json:"district"`
	Province    string `json:"province"`
	Department  string `json:"department"`
}

// Minor describes the travelling minor.
//
// Fields:
//  Name      – full name as printed on the ID document.
//  DocNumber – ID document number.
//  BirthDate – birth date in ISO format (YYYY-MM-DD).
//  Sex       – "M" or "F"; drives gender agreement in the legal text.
type Minor struct {
	Name      string `json:"name"`
	DocNumber string `json:"doc_number"`
	BirthDate string `json:"birth_date"`
	Sex       string `json:"sex"`
}

// Sibling is a travelling sibling embedded in the permit record.  Siblings
// share the same ID shape as the minor and are stored as a JSON list in a
// single column (siblings_json).
type Sibling struct {
	Name      string `json:"name"`
	DocType   string `json:"doc_type"`
	DocNumber string `json:"doc_number"`
	BirthDate string `json:"birth_date"`
	Sex       string `json:"sex"`
}

// Companion is a chaperone accompanying the minor.  Zero, one or many are
// allowed; they are stored as a JSON list (companions_json).
type Companion struct {
	Role      string `json:"role"`
	Name      string `json:"name"`
	DocNumber string `json:"doc_number"`
}

// Receiver is a person receiving the minor at the destination.  Zero or
// many are allowed; stored as a JSON list (receivers_json).
type Receiver struct {
	Name      string `json:"name"`
	DocNumber string `json:"doc_number"`
}

// Travel groups the journey details of a permit.
//
// Fields:
//  Kind          – NACIONAL or INTERNACIONAL.
//  Origin        – origin city.
//  Destination   – destination city.
//  Vias          – transport modes (TERRESTRE, AÉREA); joined with " Y/O "
//                  in the rendered document.
//  Company       – transport company (optional).
//  DepartureDate – ISO departure date.
//  ReturnDate    – ISO return date; empty for one-way travel.
//  Escort        – who accompanies the minor: PADRE, MADRE, AMBOS,
//                  TERCERO or SOLO.
//  Signer        – designated signing parent for national travel
//                  (PADRE or MADRE); ignored for international travel.
type Travel struct {
	Kind          string   `json:"kind"`
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	Vias          []string `json:"vias"`
	Company       string   `json:"company"`
	DepartureDate string   `json:"departure_date"`
	ReturnDate    string   `json:"return_date"`
	Escort        string   `json:"escort"`
	Signer        string   `json:"signer"`
}

// PermitContent is the mutable body of a permit: everything a clerk can
// change through an edit.  The legal identity (year, sequence number) and
// the lifecycle bookkeeping live on Permit itself and never change through
// content edits.
type PermitContent struct {
	Father     Guardian    `json:"father"`
	Mother     Guardian    `json:"mother"`
	Minor      Minor       `json:"minor"`
	Siblings   []Sibling   `json:"siblings"`
	Companions []Companion `json:"companions"`
	Receivers  []Receiver  `json:"receivers"`
	Travel     Travel      `json:"travel"`
	Motive     string      `json:"motive"`
	EventCity  string      `json:"event_city"`
	EventDate  string      `json:"event_date"`
	Organizer  string      `json:"organizer"`
}

// Permit is one legal travel permit.  The pair (Year, SequenceNumber) is
// the legal identity of the document: globally unique and immutable once
// assigned.  Version starts at 1 and increases by exactly one on every
// successful edit or regeneration; voiding does not change it.
type Permit struct {
	ID             uint64 // permits.id (surrogate key)
	Year           int    // permits.year
	SequenceNumber int    // permits.sequence_number
	State          string // permits.state
	Version        int    // permits.version

	PermitContent

	DocumentPath string     // permits.document_path (last rendered artifact)
	VoidReason   string     // permits.void_reason
	VoidedBy     string     // permits.voided_by
	VoidedAt     *time.Time // permits.voided_at (nullable)
	CreatedAt    time.Time  // permits.created_at
	UpdatedAt    time.Time  // permits.updated_at
}

// Correlative returns the display form of the legal identifier, e.g.
// "NSC-2025-0001".
func (p *Permit) Correlative() string {
	return fmt.Sprintf("NSC-%d-%04d", p.Year, p.SequenceNumber)
}

// PermitSummary is the flat row returned by registry listings and exports.
type PermitSummary struct {
	ID             uint64 `json:"id"`
	Year           int    `json:"year"`
	SequenceNumber int    `json:"sequence_number"`
	Correlative    string `json:"correlative"`
	State          string `json:"state"`
	Version        int    `json:"version"`
	MinorName      string `json:"minor_name"`
	MinorDoc       string `json:"minor_doc"`
	FatherName     string `json:"father_name"`
	MotherName     string `json:"mother_name"`
	Destination    string `json:"destination"`
	DepartureDate  string `json:"departure_date"`
	CreatedAt      string `json:"created_at"`
}
