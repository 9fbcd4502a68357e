package memory

import (
	"time"

	"questcore/pkg/domain"
)

// transaction tracks the version of every document it touches so commit can
// detect concurrent modification.
type transaction struct {
	state   memoryState
	reads   map[docKey]uint64
	written map[docKey]struct{}
	deleted map[docKey]struct{}
	changes []domain.Change
	now     time.Time
}

var _ domain.Transaction = (*transaction)(nil)

func (tx *transaction) touch(key docKey) {
	if _, ok := tx.reads[key]; !ok {
		tx.reads[key] = tx.state.versions[key]
	}
}

func (tx *transaction) markWritten(key docKey) {
	tx.touch(key)
	tx.written[key] = struct{}{}
	delete(tx.deleted, key)
}

func (tx *transaction) markDeleted(key docKey) {
	tx.touch(key)
	tx.deleted[key] = struct{}{}
	delete(tx.written, key)
}

func (tx *transaction) record(change domain.Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot exposes the transactional state to rules and read-only callers.
func (tx *transaction) Snapshot() domain.RuleView {
	return snapshotView{state: &tx.state}
}

// EnsureAccount returns the account, creating a minimal stub on first touch.
func (tx *transaction) EnsureAccount(id string) (domain.UserAccount, error) {
	key := docKey{entity: domain.EntityAccount, id: id}
	tx.touch(key)
	if existing, ok := tx.state.accounts[id]; ok {
		return existing, nil
	}
	account := domain.UserAccount{ID: id, CreatedAt: tx.now}
	tx.state.accounts[id] = account
	tx.markWritten(key)
	tx.record(domain.Change{Entity: domain.EntityAccount, Action: domain.ActionCreate, ID: id, After: account})
	return account, nil
}

// UpdateAccount mutates an account using the provided mutator.
func (tx *transaction) UpdateAccount(id string, mutator func(*domain.UserAccount) error) (domain.UserAccount, error) {
	key := docKey{entity: domain.EntityAccount, id: id}
	tx.touch(key)
	current, ok := tx.state.accounts[id]
	if !ok {
		return domain.UserAccount{}, domain.NotFoundError{Entity: domain.EntityAccount, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.UserAccount{}, err
	}
	current.ID = id
	tx.state.accounts[id] = current
	tx.markWritten(key)
	tx.record(domain.Change{Entity: domain.EntityAccount, Action: domain.ActionUpdate, ID: id, Before: before, After: current})
	return current, nil
}

// DeleteAccount removes an account record.
func (tx *transaction) DeleteAccount(id string) error {
	key := docKey{entity: domain.EntityAccount, id: id}
	tx.touch(key)
	current, ok := tx.state.accounts[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityAccount, ID: id}
	}
	delete(tx.state.accounts, id)
	tx.markDeleted(key)
	tx.record(domain.Change{Entity: domain.EntityAccount, Action: domain.ActionDelete, ID: id, Before: current})
	return nil
}

// EnsureProgress returns the per-mode record, creating the minimal stub on
// first touch.
func (tx *transaction) EnsureProgress(userID string, mode domain.GameMode) (domain.ProgressRecord, error) {
	if !mode.Valid() {
		return domain.ProgressRecord{}, domain.ValidationError{Field: "gameMode", Reason: "must be pvp or pve"}
	}
	id := progressID(userID, mode)
	key := docKey{entity: domain.EntityProgress, id: id}
	tx.touch(key)
	if existing, ok := tx.state.progress[id]; ok {
		return existing.Clone(), nil
	}
	record := domain.NewMinimalProgress(userID, mode)
	record.UpdatedAt = tx.now
	tx.state.progress[id] = record.Clone()
	tx.markWritten(key)
	tx.record(domain.Change{Entity: domain.EntityProgress, Action: domain.ActionCreate, ID: id, After: record})
	return record, nil
}

// ApplyProgress applies typed patches to an existing record.
func (tx *transaction) ApplyProgress(userID string, mode domain.GameMode, patches ...domain.ProgressPatch) (domain.ProgressRecord, error) {
	id := progressID(userID, mode)
	key := docKey{entity: domain.EntityProgress, id: id}
	tx.touch(key)
	current, ok := tx.state.progress[id]
	if !ok {
		return domain.ProgressRecord{}, domain.NotFoundError{Entity: domain.EntityProgress, ID: id}
	}
	before := current.Clone()
	updated := current.Clone()
	for _, patch := range patches {
		patch.Apply(&updated)
	}
	updated.UpdatedAt = tx.now
	tx.state.progress[id] = updated
	tx.markWritten(key)
	tx.record(domain.Change{Entity: domain.EntityProgress, Action: domain.ActionUpdate, ID: id, Before: before, After: updated.Clone()})
	return updated.Clone(), nil
}

// DeleteProgress removes a per-mode progress record.
func (tx *transaction) DeleteProgress(userID string, mode domain.GameMode) error {
	id := progressID(userID, mode)
	key := docKey{entity: domain.EntityProgress, id: id}
	tx.touch(key)
	current, ok := tx.state.progress[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityProgress, ID: id}
	}
	delete(tx.state.progress, id)
	tx.markDeleted(key)
	tx.record(domain.Change{Entity: domain.EntityProgress, Action: domain.ActionDelete, ID: id, Before: current})
	return nil
}

// CreateTeam stores a new team document.
func (tx *transaction) CreateTeam(team domain.Team) (domain.Team, error) {
	key := docKey{entity: domain.EntityTeam, id: team.ID}
	tx.touch(key)
	if _, exists := tx.state.teams[team.ID]; exists {
		return domain.Team{}, domain.ValidationError{Field: "team", Reason: "already exists"}
	}
	team.CreatedAt = tx.now
	tx.state.teams[team.ID] = cloneTeam(team)
	tx.markWritten(key)
	tx.record(domain.Change{Entity: domain.EntityTeam, Action: domain.ActionCreate, ID: team.ID, After: cloneTeam(team)})
	return cloneTeam(team), nil
}

// UpdateTeam mutates an existing team document.
func (tx *transaction) UpdateTeam(id string, mutator func(*domain.Team) error) (domain.Team, error) {
	key := docKey{entity: domain.EntityTeam, id: id}
	tx.touch(key)
	current, ok := tx.state.teams[id]
	if !ok {
		return domain.Team{}, domain.NotFoundError{Entity: domain.EntityTeam, ID: id}
	}
	before := cloneTeam(current)
	if err := mutator(&current); err != nil {
		return domain.Team{}, err
	}
	current.ID = id
	tx.state.teams[id] = cloneTeam(current)
	tx.markWritten(key)
	tx.record(domain.Change{Entity: domain.EntityTeam, Action: domain.ActionUpdate, ID: id, Before: before, After: cloneTeam(current)})
	return cloneTeam(current), nil
}

// DeleteTeam removes a team document.
func (tx *transaction) DeleteTeam(id string) error {
	key := docKey{entity: domain.EntityTeam, id: id}
	tx.touch(key)
	current, ok := tx.state.teams[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityTeam, ID: id}
	}
	delete(tx.state.teams, id)
	tx.markDeleted(key)
	tx.record(domain.Change{Entity: domain.EntityTeam, Action: domain.ActionDelete, ID: id, Before: current})
	return nil
}

// FindTeam reads a team from the transactional snapshot, version-tracked so
// capacity and password checks stay race-free.
func (tx *transaction) FindTeam(id string) (domain.Team, bool) {
	tx.touch(docKey{entity: domain.EntityTeam, id: id})
	t, ok := tx.state.teams[id]
	if !ok {
		return domain.Team{}, false
	}
	return cloneTeam(t), true
}
