package model

// YearCounter tracks the last issued correlative number for a calendar
// year.  One row exists per year, created lazily on the first issuance
// request and never deleted.  LastIssuedNumber only increases; the next
// number for the year is always LastIssuedNumber+1.
//
// Fields:
//  Year             – calendar year, primary key.
//  LastIssuedNumber – highest sequence number handed out so far.
type YearCounter struct {
	Year             int // year_counters.year
	LastIssuedNumber int // year_counters.last_issued_number
}
