package memory

import "questcore/pkg/domain"

// Snapshot is a serializable copy of the full store state, used by the
// durable backends to hydrate and persist.
type Snapshot struct {
	Accounts map[string]domain.UserAccount    `json:"accounts"`
	Progress map[string]domain.ProgressRecord `json:"progress"`
	Teams    map[string]domain.Team           `json:"teams"`
}

// ExportState copies the committed state into a Snapshot.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Accounts: make(map[string]domain.UserAccount, len(s.state.accounts)),
		Progress: make(map[string]domain.ProgressRecord, len(s.state.progress)),
		Teams:    make(map[string]domain.Team, len(s.state.teams)),
	}
	for k, v := range s.state.accounts {
		snap.Accounts[k] = v
	}
	for k, v := range s.state.progress {
		snap.Progress[k] = v.Clone()
	}
	for k, v := range s.state.teams {
		snap.Teams[k] = cloneTeam(v)
	}
	return snap
}

// ImportState replaces the committed state with the Snapshot contents.
// Document versions restart from zero; optimistic checks only compare
// versions within one process lifetime.
func (s *Store) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = newMemoryState()
	for k, v := range snap.Accounts {
		s.state.accounts[k] = v
	}
	for k, v := range snap.Progress {
		s.state.progress[k] = v.Clone()
	}
	for k, v := range snap.Teams {
		s.state.teams[k] = cloneTeam(v)
	}
}
