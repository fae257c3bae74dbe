package permit

import (
	"context"
	"sort"
	"sync"

	"github.com/notaryops/travel-permits/internal/model"
)

// MemoryStore is an in-memory Store used by the tests and for local
// development without a database.  All methods copy records on the way in
// and out so callers can never alias internal state.
type MemoryStore struct {
	mu       sync.Mutex
	nextID   uint64
	counters map[int]int
	permits  map[uint64]*model.Permit
	markers  map[string]*model.SuppressedIdentity // key: role+"|"+doc
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[int]int),
		permits:  make(map[uint64]*model.Permit),
		markers:  make(map[string]*model.SuppressedIdentity),
	}
}

func markerKey(role, doc string) string { return role + "|" + doc }

func clonePermit(p *model.Permit) *model.Permit {
	cp := *p
	cp.Siblings = append([]model.Sibling(nil), p.Siblings...)
	cp.Companions = append([]model.Companion(nil), p.Companions...)
	cp.Receivers = append([]model.Receiver(nil), p.Receivers...)
	cp.Travel.Vias = append([]string(nil), p.Travel.Vias...)
	if p.VoidedAt != nil {
		t := *p.VoidedAt
		cp.VoidedAt = &t
	}
	return &cp
}

// IncrementCounter advances the year counter under the store lock, which
// stands in for the row lock the MySQL implementation takes.
func (m *MemoryStore) IncrementCounter(_ context.Context, year int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[year]++
	return m.counters[year], nil
}

func (m *MemoryStore) CreatePermit(_ context.Context, p *model.Permit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.permits {
		if existing.Year == p.Year && existing.SequenceNumber == p.SequenceNumber {
			return ErrDuplicateCorrelative
		}
	}
	m.nextID++
	p.ID = m.nextID
	m.permits[p.ID] = clonePermit(p)
	return nil
}

func (m *MemoryStore) GetPermit(_ context.Context, id uint64) (*model.Permit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.permits[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePermit(p), nil
}

func (m *MemoryStore) GetByCorrelative(_ context.Context, year, number int) (*model.Permit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.permits {
		if p.Year == year && p.SequenceNumber == number {
			return clonePermit(p), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListPermits(_ context.Context, year int) ([]model.PermitSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.PermitSummary, 0, len(m.permits))
	for _, p := range m.permits {
		if year != 0 && p.Year != year {
			continue
		}
		out = append(out, model.PermitSummary{
			ID:             p.ID,
			Year:           p.Year,
			SequenceNumber: p.SequenceNumber,
			Correlative:    p.Correlative(),
			State:          p.State,
			Version:        p.Version,
			MinorName:      p.Minor.Name,
			MinorDoc:       p.Minor.DocNumber,
			FatherName:     p.Father.Name,
			MotherName:     p.Mother.Name,
			Destination:    p.Travel.Destination,
			DepartureDate:  p.Travel.DepartureDate,
			CreatedAt:      p.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].SequenceNumber < out[j].SequenceNumber
	})
	return out, nil
}

func (m *MemoryStore) ListAllPermits(_ context.Context) ([]model.Permit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Permit, 0, len(m.permits))
	for _, p := range m.permits {
		out = append(out, *clonePermit(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) UpdatePermit(_ context.Context, p *model.Permit, expectedVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.permits[p.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != expectedVersion {
		return ErrRetryableStorage
	}
	cp := clonePermit(p)
	cp.CreatedAt = current.CreatedAt
	m.permits[p.ID] = cp
	return nil
}

func (m *MemoryStore) UpdateIdentity(_ context.Context, id uint64, role, newDoc string, siblings []model.Sibling) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.permits[id]
	if !ok {
		return ErrNotFound
	}
	switch role {
	case model.RoleFather:
		p.Father.DocNumber = newDoc
	case model.RoleMother:
		p.Mother.DocNumber = newDoc
	case model.RoleMinor:
		p.Minor.DocNumber = newDoc
	case model.RoleSibling:
		p.Siblings = append([]model.Sibling(nil), siblings...)
	}
	return nil
}

func (m *MemoryStore) UpsertMarker(_ context.Context, mk *model.SuppressedIdentity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *mk
	m.markers[markerKey(mk.Role, mk.DocNumber)] = &cp
	return nil
}

func (m *MemoryStore) DeleteMarker(_ context.Context, role, docNumber string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := markerKey(role, docNumber)
	if _, ok := m.markers[k]; !ok {
		return ErrMarkerNotFound
	}
	delete(m.markers, k)
	return nil
}

func (m *MemoryStore) GetMarker(_ context.Context, role, docNumber string) (*model.SuppressedIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mk, ok := m.markers[markerKey(role, docNumber)]
	if !ok {
		return nil, ErrMarkerNotFound
	}
	cp := *mk
	return &cp, nil
}

func (m *MemoryStore) ListMarkers(_ context.Context, role string) ([]model.SuppressedIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.SuppressedIdentity{}
	for _, mk := range m.markers {
		if role != "" && mk.Role != role {
			continue
		}
		out = append(out, *mk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocNumber < out[j].DocNumber })
	return out, nil
}

func (m *MemoryStore) DistinctIdentities(_ context.Context, role string) ([]IdentityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]IdentityEntry)
	add := func(name, doc string) {
		if doc == "" {
			return
		}
		key := NormalizeDoc(doc)
		if _, ok := seen[key]; !ok {
			seen[key] = IdentityEntry{Name: name, DocNumber: doc}
		}
	}
	for _, p := range m.permits {
		switch role {
		case model.RoleFather:
			add(p.Father.Name, p.Father.DocNumber)
		case model.RoleMother:
			add(p.Mother.Name, p.Mother.DocNumber)
		case model.RoleMinor:
			add(p.Minor.Name, p.Minor.DocNumber)
		case model.RoleSibling:
			for _, sb := range p.Siblings {
				add(sb.Name, sb.DocNumber)
			}
		}
	}
	out := make([]IdentityEntry, 0, len(seen))
	for _, e := range seen {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocNumber < out[j].DocNumber })
	return out, nil
}
