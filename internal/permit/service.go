package permit

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/notaryops/travel-permits/internal/model"
)

// Issuance accepts years within an administratively reasonable window.
const (
	MinYear = 2000
	MaxYear = 2100
)

// Renderer produces the legal document artifact for a permit and returns
// the path it was written to.  The docgen package provides the real
// implementation; tests plug in a fake.
type Renderer interface {
	Render(p *model.Permit) (string, error)
}

// Service implements the correlative issuer and the lifecycle manager.
// It is stateless across requests apart from the per-year issuance locks:
// all authoritative state lives in the Store.
type Service struct {
	store    Store
	renderer Renderer

	mu        sync.Mutex
	yearLocks map[int]*sync.Mutex
}

// NewService constructs a Service.  store must be non-nil; renderer may be
// nil, in which case permits are persisted without a generated artifact.
func NewService(store Store, renderer Renderer) *Service {
	if store == nil {
		panic("nil store passed to permit.NewService")
	}
	return &Service{
		store:     store,
		renderer:  renderer,
		yearLocks: make(map[int]*sync.Mutex),
	}
}

// yearLock returns the mutex serializing issuance for one year.  Different
// years issue independently; within a year the read-increment-write is
// fully serialized in-process on top of the store's own transaction.
func (s *Service) yearLock(year int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.yearLocks[year]
	if !ok {
		l = &sync.Mutex{}
		s.yearLocks[year] = l
	}
	return l
}

// IssueNext mints the next correlative number for the year.  Numbers are
// gapless and unique: the counter row is locked for the whole
// read-increment-write sequence, and the per-year mutex keeps concurrent
// in-process callers out of each other's way as well.
func (s *Service) IssueNext(ctx context.Context, year int) (int, error) {
	if year < MinYear || year > MaxYear {
		return 0, &ValidationError{Reasons: []string{fmt.Sprintf("year %d outside the accepted range %d-%d", year, MinYear, MaxYear)}}
	}
	l := s.yearLock(year)
	l.Lock()
	defer l.Unlock()

	n, err := s.store.IncrementCounter(ctx, year)
	if err != nil {
		return 0, err
	}
	log.Printf("issuer: year=%d issued sequence=%d", year, n)
	return n, nil
}

// CreatePermit validates the content, mints a correlative for the year and
// persists the record as ISSUED version 1.  The document artifact is
// rendered best-effort: a rendering failure is logged and leaves the
// permit without a file path rather than failing the issuance.
func (s *Service) CreatePermit(ctx context.Context, year int, content model.PermitContent) (*model.Permit, error) {
	if year < MinYear || year > MaxYear {
		return nil, &ValidationError{Reasons: []string{fmt.Sprintf("year %d outside the accepted range %d-%d", year, MinYear, MaxYear)}}
	}
	if reasons := validateContent(&content); len(reasons) > 0 {
		return nil, &ValidationError{Reasons: reasons}
	}

	// Hold the year lock across mint+persist so a failed persist cannot
	// interleave with another issuance for the same year.
	l := s.yearLock(year)
	l.Lock()
	defer l.Unlock()

	seq, err := s.store.IncrementCounter(ctx, year)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p := &model.Permit{
		Year:           year,
		SequenceNumber: seq,
		State:          model.StateIssued,
		Version:        1,
		PermitContent:  content,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if s.renderer != nil {
		if path, rerr := s.renderer.Render(p); rerr != nil {
			log.Printf("docgen: render failed for %s: %v", p.Correlative(), rerr)
		} else {
			p.DocumentPath = path
		}
	}
	if err := s.store.CreatePermit(ctx, p); err != nil {
		return nil, err
	}
	log.Printf("issuer: created permit %s id=%d", p.Correlative(), p.ID)
	return p, nil
}

// GetPermit loads one permit by surrogate id.
func (s *Service) GetPermit(ctx context.Context, id uint64) (*model.Permit, error) {
	return s.store.GetPermit(ctx, id)
}

// GetByCorrelative loads one permit by its legal identity.
func (s *Service) GetByCorrelative(ctx context.Context, year, number int) (*model.Permit, error) {
	return s.store.GetByCorrelative(ctx, year, number)
}

// ListPermits returns registry summaries, optionally scoped to a year.
func (s *Service) ListPermits(ctx context.Context, year int) ([]model.PermitSummary, error) {
	return s.store.ListPermits(ctx, year)
}

// ApplyEdit replaces the permit content, moves the state to CORRECTED and
// bumps the version by one.  Voided permits are read-only and reject the
// edit with ErrVoidedImmutable before anything is written.
func (s *Service) ApplyEdit(ctx context.Context, id uint64, content model.PermitContent) (*model.Permit, error) {
	p, err := s.store.GetPermit(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.State == model.StateVoided {
		return nil, ErrVoidedImmutable
	}
	if reasons := validateContent(&content); len(reasons) > 0 {
		return nil, &ValidationError{Reasons: reasons}
	}
	prev := p.Version
	p.PermitContent = content
	p.State = model.StateCorrected
	p.Version = prev + 1
	p.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdatePermit(ctx, p, prev); err != nil {
		return nil, err
	}
	log.Printf("lifecycle: permit %s edited, version=%d", p.Correlative(), p.Version)
	return p, nil
}

// RegenerateDocument re-renders the legal document from the current field
// values, bumps the version and records the new artifact path.  Unlike
// creation, a rendering failure here fails the call: regeneration exists
// only to produce the artifact.
func (s *Service) RegenerateDocument(ctx context.Context, id uint64) (string, error) {
	if s.renderer == nil {
		return "", fmt.Errorf("no document renderer configured")
	}
	p, err := s.store.GetPermit(ctx, id)
	if err != nil {
		return "", err
	}
	if p.State == model.StateVoided {
		return "", ErrVoidedImmutable
	}
	prev := p.Version
	p.Version = prev + 1
	p.State = model.StateCorrected
	p.UpdatedAt = time.Now().UTC()
	path, err := s.renderer.Render(p)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", p.Correlative(), err)
	}
	p.DocumentPath = path
	if err := s.store.UpdatePermit(ctx, p, prev); err != nil {
		return "", err
	}
	log.Printf("lifecycle: permit %s regenerated, version=%d path=%s", p.Correlative(), p.Version, path)
	return path, nil
}

// Void moves the permit to its terminal state.  The reason and actor are
// recorded, all other fields keep their last value and every later edit or
// regeneration fails.  Voiding does not change the version.
func (s *Service) Void(ctx context.Context, id uint64, reason, actor string) error {
	reasons := []string{}
	if reason == "" {
		reasons = append(reasons, "void reason is required")
	}
	if actor == "" {
		reasons = append(reasons, "void actor is required")
	}
	if len(reasons) > 0 {
		return &ValidationError{Reasons: reasons}
	}
	p, err := s.store.GetPermit(ctx, id)
	if err != nil {
		return err
	}
	if p.State == model.StateVoided {
		return ErrAlreadyVoided
	}
	now := time.Now().UTC()
	p.State = model.StateVoided
	p.VoidReason = reason
	p.VoidedBy = actor
	p.VoidedAt = &now
	p.UpdatedAt = now
	if err := s.store.UpdatePermit(ctx, p, p.Version); err != nil {
		return err
	}
	log.Printf("lifecycle: permit %s voided by %s: %s", p.Correlative(), actor, reason)
	return nil
}

// validateContent collects every missing-field reason before any write
// happens.  The signature rules mirror the legal requirements: an
// international permit needs both parents identified, a national permit
// needs the designated signing parent identified.
func validateContent(c *model.PermitContent) []string {
	var reasons []string
	if c.Minor.Name == "" {
		reasons = append(reasons, "minor name is required")
	}
	if c.Minor.DocNumber == "" {
		reasons = append(reasons, "minor document number is required")
	}
	if c.Minor.BirthDate == "" {
		reasons = append(reasons, "minor birth date is required")
	}
	if c.Minor.Sex != "M" && c.Minor.Sex != "F" {
		reasons = append(reasons, "minor sex must be M or F")
	}
	if c.Travel.Origin == "" {
		reasons = append(reasons, "travel origin is required")
	}
	if c.Travel.Destination == "" {
		reasons = append(reasons, "travel destination is required")
	}
	if c.Travel.DepartureDate == "" {
		reasons = append(reasons, "departure date is required")
	}
	if c.Motive == "" {
		reasons = append(reasons, "travel motive is required")
	}
	switch c.Travel.Kind {
	case model.TravelInternational:
		if c.Father.Name == "" || c.Father.DocNumber == "" {
			reasons = append(reasons, "international travel requires the father's name and document")
		}
		if c.Mother.Name == "" || c.Mother.DocNumber == "" {
			reasons = append(reasons, "international travel requires the mother's name and document")
		}
	case model.TravelNational:
		switch c.Travel.Signer {
		case "PADRE":
			if c.Father.Name == "" || c.Father.DocNumber == "" {
				reasons = append(reasons, "national travel signed by the father requires his name and document")
			}
		case "MADRE":
			if c.Mother.Name == "" || c.Mother.DocNumber == "" {
				reasons = append(reasons, "national travel signed by the mother requires her name and document")
			}
		default:
			reasons = append(reasons, "national travel requires a signer (PADRE or MADRE)")
		}
	default:
		reasons = append(reasons, "travel kind must be NACIONAL or INTERNACIONAL")
	}
	return reasons
}
