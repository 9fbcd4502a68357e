package domain

import "context"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence
// buckets.
const (
	// EntityAccount identifies a user account record.
	EntityAccount EntityType = "account"
	// EntityProgress identifies a per-mode progress record.
	EntityProgress EntityType = "progress"
	// EntityTeam identifies a team record.
	EntityTeam EntityType = "team"
	// EntityTask identifies reference-feed task data (read-only).
	EntityTask EntityType = "task"
	// EntityObjective identifies reference-feed objective data (read-only).
	EntityObjective EntityType = "objective"
	// EntityHideoutModule identifies a hideout level.
	EntityHideoutModule EntityType = "hideout_module"
	// EntityHideoutPart identifies a hideout item requirement.
	EntityHideoutPart EntityType = "hideout_part"
)

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate the mutations captured per transaction.
const (
	// ActionCreate indicates a record was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates a record was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change describes a mutation applied to a record during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	ID     string
	Before any
	After  any
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}

// RuleView provides read-only access to the transactional snapshot for rule
// evaluation.
type RuleView interface {
	FindAccount(id string) (UserAccount, bool)
	FindProgress(userID string, mode GameMode) (ProgressRecord, bool)
	FindTeam(id string) (Team, bool)
	ListAccounts() []UserAccount
	ListTeams() []Team
}

// Rule defines an evaluation executed within a transaction boundary.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}
