package domain

import "context"

// Transaction exposes the domain operations a persistence implementation
// must support within one atomic, optimistically-concurrent scope. Every
// document read inside the transaction is version-tracked; commit fails with
// ConflictError when any touched document changed since the read.
type Transaction interface {
	Snapshot() RuleView

	// EnsureAccount returns the account, creating a minimal stub on first
	// touch.
	EnsureAccount(id string) (UserAccount, error)
	UpdateAccount(id string, mutator func(*UserAccount) error) (UserAccount, error)
	DeleteAccount(id string) error

	// EnsureProgress returns the per-mode progress record, creating the
	// minimal stub on first touch.
	EnsureProgress(userID string, mode GameMode) (ProgressRecord, error)
	// ApplyProgress applies typed patches to the record. The record must
	// have been ensured earlier in the same transaction.
	ApplyProgress(userID string, mode GameMode, patches ...ProgressPatch) (ProgressRecord, error)
	DeleteProgress(userID string, mode GameMode) error

	CreateTeam(team Team) (Team, error)
	UpdateTeam(id string, mutator func(*Team) error) (Team, error)
	DeleteTeam(id string) error
	FindTeam(id string) (Team, bool)
}

// PersistentStore is a minimal abstraction over durable backends offering
// per-document optimistic transactions.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	// View executes fn against a read-only snapshot. Plain reads tolerate
	// at most one in-flight write's worth of staleness.
	View(ctx context.Context, fn func(RuleView) error) error

	GetAccount(id string) (UserAccount, bool)
	GetProgress(userID string, mode GameMode) (ProgressRecord, bool)
	GetTeam(id string) (Team, bool)
}
