package model

import "time"

// SuppressedIdentity marks a (role, document number) pair as hidden from
// identity auto-suggest.  Suppression is independent of permit lifecycle
// state.  When an identity propagation rewrites a suppressed document
// number, the marker follows the person to the corrected number.
//
// Fields:
//  Role      – FATHER, MOTHER, MINOR or SIBLING.
//  DocNumber – normalized document number being suppressed.
//  Reason    – why the identity was hidden.
//  CreatedBy – actor who requested the suppression.
//  CreatedAt – when the marker was created.
type SuppressedIdentity struct {
	Role      string    // suppressed_identities.role
	DocNumber string    // suppressed_identities.doc_number
	Reason    string    // suppressed_identities.reason
	CreatedBy string    // suppressed_identities.created_by
	CreatedAt time.Time // suppressed_identities.created_at
}
