package assistant // assistant answers registry questions with simple keyword rules

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/notaryops/travel-permits/internal/model"
	"github.com/notaryops/travel-permits/internal/permit"
)

// QueryLog persists question/answer pairs for audit.  The HTTP layer
// wires the MySQL-backed repository; tests use a no-op.
type QueryLog interface {
	Append(ctx context.Context, userID uint64, question, answer string) error
}

// Assistant resolves free-text questions about the registry using
// keyword matching.  It is a lookup aid for the front desk, not a
// language model: unrecognized questions get a short usage hint.
type Assistant struct {
	store permit.Store
	log   QueryLog // nil disables audit logging
}

func New(store permit.Store, ql QueryLog) *Assistant {
	if store == nil {
		panic("assistant: nil store")
	}
	return &Assistant{store: store, log: ql}
}

var (
	correlativeRe = regexp.MustCompile(`(?i)NSC-(\d{4})-(\d{1,6})`)
	yearRe        = regexp.MustCompile(`\b(20\d{2})\b`)
	docRe         = regexp.MustCompile(`\b(\d{8,12})\b`)
)

// Answer resolves a question and appends the exchange to the audit log.
// Log failures never fail the answer.
func (a *Assistant) Answer(ctx context.Context, userID uint64, question string) (string, error) {
	answer, err := a.resolve(ctx, question)
	if err != nil {
		return "", err
	}
	if a.log != nil {
		if logErr := a.log.Append(ctx, userID, question, answer); logErr != nil {
			log.Printf("assistant: query log append failed: %v", logErr)
		}
	}
	return answer, nil
}

func (a *Assistant) resolve(ctx context.Context, question string) (string, error) {
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" {
		return usageHint, nil
	}

	// Exact correlative reference wins over everything else.
	if m := correlativeRe.FindStringSubmatch(question); m != nil {
		year, _ := strconv.Atoi(m[1])
		seq, _ := strconv.Atoi(m[2])
		return a.answerByCorrelative(ctx, year, seq)
	}

	switch {
	case containsAny(q, "cuántos", "cuantos", "how many", "count", "total"):
		return a.answerCount(ctx, extractYear(question))
	case containsAny(q, "anulado", "anulados", "voided", "void"):
		return a.answerVoided(ctx, extractYear(question))
	}

	// Bare document number: look the person up across all roles.
	if m := docRe.FindStringSubmatch(question); m != nil {
		return a.answerByDoc(ctx, m[1])
	}
	// Fall back to a name search over the listing.
	if name := extractName(question); name != "" {
		return a.answerByName(ctx, name)
	}
	return usageHint, nil
}

func (a *Assistant) answerByCorrelative(ctx context.Context, year, seq int) (string, error) {
	p, err := a.store.GetByCorrelative(ctx, year, seq)
	if err != nil {
		if err == permit.ErrNotFound {
			return fmt.Sprintf("No existe el permiso NSC-%d-%04d.", year, seq), nil
		}
		return "", err
	}
	return describePermit(p), nil
}

func (a *Assistant) answerCount(ctx context.Context, year int) (string, error) {
	list, err := a.store.ListPermits(ctx, year)
	if err != nil {
		return "", err
	}
	if year > 0 {
		return fmt.Sprintf("Hay %d permiso(s) registrados en %d.", len(list), year), nil
	}
	return fmt.Sprintf("Hay %d permiso(s) registrados en total.", len(list)), nil
}

func (a *Assistant) answerVoided(ctx context.Context, year int) (string, error) {
	list, err := a.store.ListPermits(ctx, year)
	if err != nil {
		return "", err
	}
	var hits []string
	for _, s := range list {
		if s.State == model.StateVoided {
			hits = append(hits, s.Correlative)
		}
	}
	if len(hits) == 0 {
		return "No hay permisos anulados en ese rango.", nil
	}
	return fmt.Sprintf("Permisos anulados (%d): %s", len(hits), strings.Join(hits, ", ")), nil
}

func (a *Assistant) answerByDoc(ctx context.Context, doc string) (string, error) {
	all, err := a.store.ListAllPermits(ctx)
	if err != nil {
		return "", err
	}
	norm := permit.NormalizeDoc(doc)
	var hits []string
	for i := range all {
		if permitMentionsDoc(&all[i], norm) {
			hits = append(hits, describePermit(&all[i]))
		}
	}
	if len(hits) == 0 {
		return fmt.Sprintf("No hay permisos asociados al documento %s.", doc), nil
	}
	return strings.Join(hits, "\n"), nil
}

func (a *Assistant) answerByName(ctx context.Context, name string) (string, error) {
	all, err := a.store.ListAllPermits(ctx)
	if err != nil {
		return "", err
	}
	needle := strings.ToUpper(name)
	var hits []string
	for i := range all {
		if permitMentionsName(&all[i], needle) {
			hits = append(hits, describePermit(&all[i]))
		}
	}
	if len(hits) == 0 {
		return fmt.Sprintf("No hay permisos a nombre de %q.", name), nil
	}
	return strings.Join(hits, "\n"), nil
}

func permitMentionsDoc(p *model.Permit, norm string) bool {
	if norm == "" {
		return false
	}
	if permit.NormalizeDoc(p.Father.DocNumber) == norm ||
		permit.NormalizeDoc(p.Mother.DocNumber) == norm ||
		permit.NormalizeDoc(p.Minor.DocNumber) == norm {
		return true
	}
	for _, s := range p.Siblings {
		if permit.NormalizeDoc(s.DocNumber) == norm {
			return true
		}
	}
	for _, c := range p.Companions {
		if permit.NormalizeDoc(c.DocNumber) == norm {
			return true
		}
	}
	return false
}

func permitMentionsName(p *model.Permit, needle string) bool {
	for _, n := range []string{p.Father.Name, p.Mother.Name, p.Minor.Name} {
		if strings.Contains(strings.ToUpper(n), needle) {
			return true
		}
	}
	for _, s := range p.Siblings {
		if strings.Contains(strings.ToUpper(s.Name), needle) {
			return true
		}
	}
	return false
}

func describePermit(p *model.Permit) string {
	line := fmt.Sprintf("%s — %s, menor %s (DNI %s), %s → %s, salida %s, estado %s v%d",
		p.Correlative(), p.Travel.Kind, p.Minor.Name, p.Minor.DocNumber,
		p.Travel.Origin, p.Travel.Destination, p.Travel.DepartureDate,
		p.State, p.Version)
	if p.State == model.StateVoided && p.VoidedAt != nil {
		line += fmt.Sprintf(" (anulado el %s)", p.VoidedAt.Format(time.DateOnly))
	}
	return line
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func extractYear(q string) int {
	if m := yearRe.FindStringSubmatch(q); m != nil {
		y, _ := strconv.Atoi(m[1])
		return y
	}
	return 0
}

// extractName pulls a quoted name or a trailing "de <name>" clause out
// of the question.  Heuristic on purpose.
func extractName(q string) string {
	if i := strings.IndexAny(q, `"“`); i >= 0 {
		rest := q[i+1:]
		if j := strings.IndexAny(rest, `"”`); j > 0 {
			return strings.TrimSpace(rest[:j])
		}
	}
	lower := strings.ToLower(q)
	for _, marker := range []string{" de ", " for ", " of "} {
		if i := strings.LastIndex(lower, marker); i >= 0 {
			name := strings.TrimSpace(q[i+len(marker):])
			name = strings.TrimRight(name, "?.!")
			if len(name) >= 3 && !docRe.MatchString(name) {
				return name
			}
		}
	}
	return ""
}

const usageHint = "No entendí la consulta. Pruebe: \"cuántos permisos hay en 2025\", " +
	"\"NSC-2025-0003\", \"permisos anulados\", un número de documento, o " +
	"\"permisos de <nombre>\"."
