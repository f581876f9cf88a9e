package dialogue

import (
	"sync"

	"github.com/susu3304/loanbot/internal/intent"
	"github.com/susu3304/loanbot/internal/ledger"
)

type State string

const (
	StateIdle          State = "IDLE"
	StateClarifyIntent State = "CLARIFY_INTENT"
	StateConfirmAction State = "CONFIRM_ACTION"
	StateSelectLoan    State = "SELECT_LOAN"
)

// Session is one user's conversation position. Build it with the
// constructors below: Pending is set only in CLARIFY_INTENT and
// CONFIRM_ACTION, LoanOptions only in SELECT_LOAN.
type Session struct {
	State       State          `json:"state"`
	Pending     *intent.Intent `json:"pending,omitempty"`
	PendingText string         `json:"pending_text,omitempty"`
	LoanOptions []ledger.Loan  `json:"loan_options,omitempty"`
}

func idleSession() Session {
	return Session{State: StateIdle}
}

func clarifySession(pending intent.Intent, text string) Session {
	return Session{State: StateClarifyIntent, Pending: &pending, PendingText: text}
}

func confirmSession(pending intent.Intent, text string) Session {
	return Session{State: StateConfirmAction, Pending: &pending, PendingText: text}
}

func selectSession(options []ledger.Loan) Session {
	return Session{State: StateSelectLoan, LoanOptions: append([]ledger.Loan(nil), options...)}
}

// SessionStore keeps sessions keyed by user id. Lock serialises turns for
// one user; the returned func releases it.
type SessionStore interface {
	Get(userID string) Session
	Put(userID string, s Session)
	Clear(userID string)
	Lock(userID string) func()
}

// MemoryStore is a SessionStore held in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	locks    map[string]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Get returns the user's session, or an idle one if none exists yet.
func (m *MemoryStore) Get(userID string) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	return idleSession()
}

func (m *MemoryStore) Put(userID string, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = s
}

func (m *MemoryStore) Clear(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

func (m *MemoryStore) Lock(userID string) func() {
	m.mu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}
