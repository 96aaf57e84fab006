package screenshot

import (
	"context"
	"sync"
	"time"
)

// StateStore persists session state. Update runs fn as an atomic read-modify-write;
// when fn returns an error nothing is written.
type StateStore interface {
	Load(ctx context.Context, sessionID string) (State, error)
	Save(ctx context.Context, st State) error
	Update(ctx context.Context, sessionID string, fn func(*State) error) (State, error)
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore keeps state in process. Updates to one session are serialized. With a TTL,
// a session expires that long after its last write, like a RedisStore key.
type MemoryStore struct {
	mu        sync.Mutex
	sessions  map[string]memoryEntry
	locks     map[string]*sessionLock
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

// sessionLock is dropped from the store once nobody holds or waits for it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		locks:    make(map[string]*sessionLock),
		now:      time.Now,
	}
}

// WithTTL expires sessions ttl after their last write. Zero keeps them forever.
func (m *MemoryStore) WithTTL(ttl time.Duration) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl > 0 {
		m.ttl = ttl
	}
	return m
}

func (m *MemoryStore) Load(ctx context.Context, sessionID string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[sessionID]
	if !ok {
		return State{}, ErrSessionNotFound
	}
	if m.expired(e) {
		delete(m.sessions, sessionID)
		return State{}, ErrSessionNotFound
	}
	return cloneState(e.state), nil
}

func (m *MemoryStore) Save(ctx context.Context, st State) error {
	unlock := m.lock(st.SessionID)
	defer unlock()

	m.put(st)
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, sessionID string, fn func(*State) error) (State, error) {
	unlock := m.lock(sessionID)
	defer unlock()

	st, err := m.Load(ctx, sessionID)
	if err != nil {
		return State{}, err
	}
	if err := fn(&st); err != nil {
		return State{}, err
	}
	st.UpdatedAt = time.Now().UTC()
	m.put(st)
	return cloneState(st), nil
}

// Delete waits for an in-flight Update of the session, so that update cannot write it back.
func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	unlock := m.lock(sessionID)
	defer unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *MemoryStore) put(st State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{state: cloneState(st)}
	if m.ttl > 0 {
		now := m.now()
		e.expiresAt = now.Add(m.ttl)
		if now.Sub(m.lastSweep) >= m.ttl {
			m.sweep()
			m.lastSweep = now
		}
	}
	m.sessions[st.SessionID] = e
}

// sweep drops expired sessions. Callers hold m.mu.
func (m *MemoryStore) sweep() {
	for id, e := range m.sessions {
		if m.expired(e) {
			delete(m.sessions, id)
		}
	}
}

func (m *MemoryStore) expired(e memoryEntry) bool {
	return m.ttl > 0 && !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}

// lock serializes writers of one session and returns the matching unlock.
func (m *MemoryStore) lock(sessionID string) func() {
	m.mu.Lock()
	l, ok := m.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		m.locks[sessionID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, sessionID)
		}
		m.mu.Unlock()
	}
}

func cloneState(st State) State {
	out := st
	if st.Screenshots != nil {
		out.Screenshots = append([]Screenshot(nil), st.Screenshots...)
	}
	if st.PendingMerch != nil {
		out.PendingMerch = append([]byte(nil), st.PendingMerch...)
	}
	return out
}
