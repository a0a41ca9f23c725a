package store

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local [Store] guarded by a single mutex. It suits
// tests and single-instance deployments.
type Memory struct {
	mu         sync.Mutex
	records    map[string]*Record
	byEmail    map[string]string
	byUsername map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		records:    make(map[string]*Record),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

func (m *Memory) Create(ctx context.Context, rec *Record) error {
	if err := ValidateRecord(rec); err != nil {
		return err
	}
	email := NormalizeEmail(rec.Email)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rec.AccountID]; ok {
		return ErrDuplicate
	}
	if _, ok := m.byEmail[email]; ok {
		return ErrDuplicate
	}
	if _, ok := m.byUsername[rec.Username]; ok {
		return ErrDuplicate
	}

	stored := rec.Clone()
	stored.Email = email
	stored.Version = 1
	m.records[stored.AccountID] = stored
	m.byEmail[email] = stored.AccountID
	m.byUsername[stored.Username] = stored.AccountID
	return nil
}

func (m *Memory) Get(ctx context.Context, accountID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[accountID]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *Memory) FindByEmail(ctx context.Context, email string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return m.records[id].Clone(), nil
}

func (m *Memory) FindByIdentifier(ctx context.Context, identifier string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byUsername[identifier]; ok {
		return m.records[id].Clone(), nil
	}
	if id, ok := m.byEmail[NormalizeEmail(identifier)]; ok {
		return m.records[id].Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *Memory) Update(ctx context.Context, accountID string, fn MutateFunc) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.records[accountID]
	if !ok {
		return nil, ErrNotFound
	}

	working := current.Clone()
	write, outcome := fn(working)
	if write {
		working.AccountID = current.AccountID
		working.Username = current.Username
		working.Email = current.Email
		working.Version = current.Version + 1
		m.records[accountID] = working.Clone()
	}
	return working, outcome
}

// MemoryGrants is a process-local [GrantStore].
type MemoryGrants struct {
	mu     sync.Mutex
	grants map[string]Grant
	// latest is the newest issue time seen by Put, in the caller's clock.
	latest time.Time
}

// NewMemoryGrants returns an empty grant store. Expiry is enforced by the
// caller against Grant.ExpiresAt. Entries that expired before the most recent
// Put was issued are swept on Put and Take, so abandoned grants do not
// accumulate.
func NewMemoryGrants() *MemoryGrants {
	return &MemoryGrants{grants: make(map[string]Grant)}
}

func (g *MemoryGrants) Put(ctx context.Context, grant Grant, ttl time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if ttl > 0 {
		if issued := grant.ExpiresAt.Add(-ttl); issued.After(g.latest) {
			g.latest = issued
		}
	}
	g.sweepLocked("")
	g.grants[grant.ID] = grant
	return nil
}

func (g *MemoryGrants) Take(ctx context.Context, id string) (Grant, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	grant, ok := g.grants[id]
	if !ok {
		g.sweepLocked("")
		return Grant{}, ErrNotFound
	}
	delete(g.grants, id)
	g.sweepLocked(id)
	return grant, nil
}

// Len returns the number of stored grants.
func (g *MemoryGrants) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.grants)
}

// sweepLocked drops grants that expired before latest, except keep.
func (g *MemoryGrants) sweepLocked(keep string) {
	if g.latest.IsZero() {
		return
	}
	for id, grant := range g.grants {
		if id != keep && grant.ExpiresAt.Before(g.latest) {
			delete(g.grants, id)
		}
	}
}
