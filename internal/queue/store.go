package queue

import "sync"

// Store is the process-wide registry of active sessions, one per guild. It is
// created at service start and injected into the command dispatcher and the
// membership watcher; absence of an entry means "no active session".
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create registers a new session for the guild. ErrAlreadyActive when one
// exists.
func (st *Store) Create(guildID, textChannelID, voiceChannelID string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[guildID]; ok {
		return nil, ErrAlreadyActive
	}
	s := newSession(guildID, textChannelID, voiceChannelID)
	st.sessions[guildID] = s
	return s, nil
}

// Get returns the guild's session, or nil when none is active.
func (st *Store) Get(guildID string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessions[guildID]
}

// Destroy tears the guild's session down and removes the entry. The
// connection is released by Teardown before the entry disappears. Destroying
// a guild with no session is a no-op.
func (st *Store) Destroy(guildID string) {
	st.mu.Lock()
	s := st.sessions[guildID]
	st.mu.Unlock()
	if s == nil {
		return
	}
	s.Teardown()

	st.mu.Lock()
	if st.sessions[guildID] == s {
		delete(st.sessions, guildID)
	}
	st.mu.Unlock()
}

// Shutdown destroys every active session. Called once at process exit.
func (st *Store) Shutdown() {
	st.mu.Lock()
	all := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		all = append(all, s)
	}
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	for _, s := range all {
		s.Teardown()
	}
}
