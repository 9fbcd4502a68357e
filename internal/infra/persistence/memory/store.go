// Package memory provides the in-memory implementation of the core
// persistence store. Transactions run against a cloned snapshot and commit
// with per-document version checks, so concurrent writers surface
// ConflictError instead of lost updates.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"questcore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain
// persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type docKey struct {
	entity domain.EntityType
	id     string
}

func progressID(userID string, mode domain.GameMode) string {
	return userID + "/" + string(mode)
}

type memoryState struct {
	accounts map[string]domain.UserAccount
	progress map[string]domain.ProgressRecord
	teams    map[string]domain.Team
	versions map[docKey]uint64
}

func newMemoryState() memoryState {
	return memoryState{
		accounts: make(map[string]domain.UserAccount),
		progress: make(map[string]domain.ProgressRecord),
		teams:    make(map[string]domain.Team),
		versions: make(map[docKey]uint64),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.accounts {
		cloned.accounts[k] = v
	}
	for k, v := range s.progress {
		cloned.progress[k] = v.Clone()
	}
	for k, v := range s.teams {
		cloned.teams[k] = cloneTeam(v)
	}
	for k, v := range s.versions {
		cloned.versions[k] = v
	}
	return cloned
}

func cloneTeam(t domain.Team) domain.Team {
	cp := t
	cp.Members = append([]string(nil), t.Members...)
	return cp
}

// Store is an in-memory transactional store over the questcore documents.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *domain.RulesEngine
	nowFn  func() time.Time

	// commitHook runs between snapshot read and commit validation. Tests
	// use it to interleave a concurrent writer.
	commitHook func()
}

// NewStore constructs an in-memory store backed by the provided rules
// engine. A nil engine disables commit-time rule evaluation.
func NewStore(engine *domain.RulesEngine) *Store {
	return &Store{
		state: newMemoryState(),
		engine: func() *domain.RulesEngine {
			if engine == nil {
				return domain.NewRulesEngine()
			}
			return engine
		}(),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the transaction timestamp source.
func (s *Store) SetClock(now func() time.Time) { s.nowFn = now }

// SetCommitHook installs a hook invoked after the transaction body and
// before commit validation.
func (s *Store) SetCommitHook(hook func()) { s.commitHook = hook }

// snapshotView adapts memoryState to domain.RuleView.
type snapshotView struct {
	state *memoryState
}

// FindAccount retrieves an account from the snapshot.
func (v snapshotView) FindAccount(id string) (domain.UserAccount, bool) {
	a, ok := v.state.accounts[id]
	return a, ok
}

// FindProgress retrieves a progress record from the snapshot.
func (v snapshotView) FindProgress(userID string, mode domain.GameMode) (domain.ProgressRecord, bool) {
	r, ok := v.state.progress[progressID(userID, mode)]
	if !ok {
		return domain.ProgressRecord{}, false
	}
	return r.Clone(), true
}

// FindTeam retrieves a team from the snapshot.
func (v snapshotView) FindTeam(id string) (domain.Team, bool) {
	t, ok := v.state.teams[id]
	if !ok {
		return domain.Team{}, false
	}
	return cloneTeam(t), true
}

// ListAccounts returns all accounts in the snapshot, ordered by id.
func (v snapshotView) ListAccounts() []domain.UserAccount {
	out := make([]domain.UserAccount, 0, len(v.state.accounts))
	for _, a := range v.state.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListTeams returns all teams in the snapshot, ordered by id.
func (v snapshotView) ListTeams() []domain.Team {
	out := make([]domain.Team, 0, len(v.state.teams))
	for _, t := range v.state.teams {
		out = append(out, cloneTeam(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RunInTransaction executes fn against a cloned snapshot of the store state
// and commits only if no document read or written by fn changed underneath
// it. Version drift surfaces as domain.ConflictError and is never partially
// applied.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	tx := &transaction{
		state:   snapshot,
		reads:   make(map[docKey]uint64),
		written: make(map[docKey]struct{}),
		deleted: make(map[docKey]struct{}),
		now:     s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return domain.Result{}, err
	}

	var result domain.Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, snapshotView{state: &tx.state}, tx.changes)
		if err != nil {
			return domain.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if s.commitHook != nil {
		s.commitHook()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, seen := range tx.reads {
		if s.state.versions[key] != seen {
			return domain.Result{}, domain.ConflictError{Entity: key.entity, ID: key.id}
		}
	}
	for key := range tx.written {
		switch key.entity {
		case domain.EntityAccount:
			s.state.accounts[key.id] = tx.state.accounts[key.id]
		case domain.EntityProgress:
			s.state.progress[key.id] = tx.state.progress[key.id].Clone()
		case domain.EntityTeam:
			s.state.teams[key.id] = cloneTeam(tx.state.teams[key.id])
		}
		s.state.versions[key]++
	}
	for key := range tx.deleted {
		switch key.entity {
		case domain.EntityAccount:
			delete(s.state.accounts, key.id)
		case domain.EntityProgress:
			delete(s.state.progress, key.id)
		case domain.EntityTeam:
			delete(s.state.teams, key.id)
		}
		s.state.versions[key]++
	}
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(domain.RuleView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(snapshotView{state: &snapshot})
}

// GetAccount retrieves an account from committed state.
func (s *Store) GetAccount(id string) (domain.UserAccount, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.state.accounts[id]
	return a, ok
}

// GetProgress retrieves a progress record from committed state.
func (s *Store) GetProgress(userID string, mode domain.GameMode) (domain.ProgressRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.progress[progressID(userID, mode)]
	if !ok {
		return domain.ProgressRecord{}, false
	}
	return r.Clone(), true
}

// GetTeam retrieves a team from committed state.
func (s *Store) GetTeam(id string) (domain.Team, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state.teams[id]
	if !ok {
		return domain.Team{}, false
	}
	return cloneTeam(t), true
}
