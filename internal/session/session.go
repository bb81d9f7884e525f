// Package session provides the per-conversation state store for the bot.
//
// Each conversation (1:1 with a chat identity) owns a small mutable slot:
// the bound user ID, an awaiting-input marker, and an in-progress jio draft.
// State is in-memory and lives for the duration of the process; access is
// serialized per conversation key so the router can rely on read-modify-write
// sequences even if the channel delivers events concurrently.
package session

import (
	"log/slog"
	"sync"

	"github.com/freeliao/freeliao/internal/models"
)

// AwaitingInput marks what the next free-text message from a conversation
// answers, if anything.
type AwaitingInput string

const (
	// AwaitingNone means free text is dispatched normally.
	AwaitingNone AwaitingInput = ""
	// AwaitingVibe means the next text is a custom vibe annotation.
	AwaitingVibe AwaitingInput = "vibe"
	// AwaitingJioTitle means the next text is a custom jio title.
	AwaitingJioTitle AwaitingInput = "jio_title"
	// AwaitingJioLocation means the next text is a jio location.
	AwaitingJioLocation AwaitingInput = "jio_location"
)

// DraftJio accumulates multi-step jio creation input across hops.
type DraftJio struct {
	Kind     models.JioKind
	Title    string
	Location string
}

// State is the mutable slot for one conversation.
type State struct {
	UserID   string
	Awaiting AwaitingInput
	Draft    *DraftJio
}

// Manager holds conversation states keyed by chat ID, created lazily on
// first access.
type Manager struct {
	mu     sync.Mutex
	states map[string]*State
	locks  map[string]*sync.Mutex
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{
		states: make(map[string]*State),
		locks:  make(map[string]*sync.Mutex),
	}
}

// lockFor returns the per-conversation mutex, creating it on first use.
func (m *Manager) lockFor(chatID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[chatID] = l
	}
	return l
}

// Get returns a copy of the conversation's state, creating an empty state on
// first access.
func (m *Manager) Get(chatID string) State {
	l := m.lockFor(chatID)
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	st, ok := m.states[chatID]
	if !ok {
		st = &State{}
		m.states[chatID] = st
	}
	m.mu.Unlock()

	cp := *st
	if st.Draft != nil {
		draft := *st.Draft
		cp.Draft = &draft
	}
	return cp
}

// Update applies fn to the conversation's state under its per-key lock.
func (m *Manager) Update(chatID string, fn func(*State)) {
	l := m.lockFor(chatID)
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	st, ok := m.states[chatID]
	if !ok {
		st = &State{}
		m.states[chatID] = st
	}
	m.mu.Unlock()

	fn(st)
	slog.Debug("session updated", "chatID", chatID, "awaiting", st.Awaiting, "bound", st.UserID != "", "draft", st.Draft != nil)
}

// BindUser records the authenticated identity for a conversation.
func (m *Manager) BindUser(chatID, userID string) {
	m.Update(chatID, func(st *State) { st.UserID = userID })
}

// SetAwaiting sets the awaiting-input marker.
func (m *Manager) SetAwaiting(chatID string, a AwaitingInput) {
	m.Update(chatID, func(st *State) { st.Awaiting = a })
}

// ClearAwaiting resets the awaiting-input marker.
func (m *Manager) ClearAwaiting(chatID string) {
	m.Update(chatID, func(st *State) { st.Awaiting = AwaitingNone })
}

// SetDraft stores the in-progress jio draft.
func (m *Manager) SetDraft(chatID string, d DraftJio) {
	m.Update(chatID, func(st *State) { st.Draft = &d })
}

// AbandonFlow discards any draft and awaiting marker, e.g. when the user
// issues an unrelated command mid-flow.
func (m *Manager) AbandonFlow(chatID string) {
	m.Update(chatID, func(st *State) {
		st.Draft = nil
		st.Awaiting = AwaitingNone
	})
}
