// Package queue defines message payloads exchanged over the message broker.
package queue

import "encoding/json"

// Event kinds carried on the permit.events queue.
const (
	KindPermitIssued       = "permit.issued"
	KindPermitVoided       = "permit.voided"
	KindIdentityPropagated = "identity.propagated"
)

// Envelope wraps every published event with an ID and a kind so the
// audit consumer can route payloads without knowing them in advance.
type Envelope struct {
	EventID    string          `json:"event_id"` // UUID, unique per publish
	Kind       string          `json:"kind"`
	OccurredAt string          `json:"occurred_at"` // RFC3339 UTC
	Payload    json.RawMessage `json:"payload"`
}

// PermitIssuedEvent is published when a permit is created.  It contains
// enough information for downstream consumers to log or notify without
// querying the primary database.
type PermitIssuedEvent struct {
	PermitID       uint64 `json:"permit_id"`
	Year           int    `json:"year"`
	SequenceNumber int    `json:"sequence_number"`
	Correlative    string `json:"correlative"`
	MinorName      string `json:"minor_name"`
	MinorDoc       string `json:"minor_doc"`
	TravelKind     string `json:"travel_kind"`
	Destination    string `json:"destination"`
	IssuedBy       uint64 `json:"issued_by"`
}

// PermitVoidedEvent is published when a permit is voided.
type PermitVoidedEvent struct {
	PermitID    uint64 `json:"permit_id"`
	Correlative string `json:"correlative"`
	Reason      string `json:"reason"`
	VoidedBy    string `json:"voided_by"`
}

// IdentityPropagatedEvent is published after a retroactive identity
// rewrite so the audit trail records which records were touched.
type IdentityPropagatedEvent struct {
	Role        string `json:"role"`
	OldDoc      string `json:"old_doc"`
	NewDoc      string `json:"new_doc"`
	RecordCount int    `json:"record_count"`
	RequestedBy uint64 `json:"requested_by"`
}
