// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by questcore.
package domain

import "time"

// GameMode selects one of the two independent progress trees kept per user.
type GameMode string

// Supported game modes. The two subtrees share no invariants.
const (
	ModePvP GameMode = "pvp"
	ModePvE GameMode = "pve"
)

// GameModes lists every supported mode in stable order.
func GameModes() []GameMode { return []GameMode{ModePvP, ModePvE} }

// Valid reports whether the mode is one of the supported trees.
func (m GameMode) Valid() bool { return m == ModePvP || m == ModePvE }

// Faction identifies the PMC faction a task is restricted to.
type Faction string

// Recognised faction constraints on tasks and teammates.
const (
	// FactionAny matches every player.
	FactionAny  Faction = "Any"
	FactionUSEC Faction = "USEC"
	FactionBEAR Faction = "BEAR"
)

// Matches reports whether a task restricted to f is available to a player of
// faction player. An empty player faction only matches unrestricted tasks.
func (f Faction) Matches(player Faction) bool {
	return f == FactionAny || f == player
}

// TaskStatus enumerates the states a task completion record can be in.
type TaskStatus string

// Canonical task statuses used in requirements and completion records.
const (
	StatusUncompleted TaskStatus = "uncompleted"
	StatusCompleted   TaskStatus = "completed"
	StatusFailed      TaskStatus = "failed"
)

// ParseTaskStatus validates a caller-supplied status string.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case StatusUncompleted, StatusCompleted, StatusFailed:
		return TaskStatus(s), nil
	}
	return "", ValidationError{Field: "state", Reason: "must be one of uncompleted, completed, failed"}
}

// ObjectiveType categorises what an objective asks the player to do.
type ObjectiveType string

// Objective types carried by the reference feed. The list mirrors the
// upstream provider; unknown types pass through untouched.
const (
	ObjectiveGiveItem    ObjectiveType = "giveItem"
	ObjectiveFindItem    ObjectiveType = "findItem"
	ObjectiveShoot       ObjectiveType = "shoot"
	ObjectiveMark        ObjectiveType = "mark"
	ObjectiveBuildWeapon ObjectiveType = "buildWeapon"
	ObjectivePlantItem   ObjectiveType = "plantItem"
	ObjectiveExtract     ObjectiveType = "extract"
	ObjectiveSkill       ObjectiveType = "skill"
	ObjectiveVisit       ObjectiveType = "visit"
	ObjectiveTraderLevel ObjectiveType = "traderLevel"
	ObjectivePlayerLevel ObjectiveType = "playerLevel"
	ObjectiveExperience  ObjectiveType = "experience"
)

// TaskRequirement gates a task on another task reaching one of a set of
// statuses.
type TaskRequirement struct {
	TaskID   string       `json:"task"`
	Statuses []TaskStatus `json:"status"`
}

// SatisfiedBy reports whether the given status of the prerequisite task
// satisfies this requirement.
func (r TaskRequirement) SatisfiedBy(status TaskStatus) bool {
	for _, s := range r.Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Task is a quest-like unit with objectives and prerequisite tasks.
type Task struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Faction      Faction           `json:"factionName"`
	Objectives   []Objective       `json:"objectives"`
	Requirements []TaskRequirement `json:"taskRequirements"`
	// Alternatives groups mutually related tasks. The grouping is
	// informational only and never feeds invalidation.
	Alternatives []string `json:"alternatives,omitempty"`
	MinPlayerLvl int      `json:"minPlayerLevel,omitempty"`
}

// Objective is an individually trackable sub-goal of a task.
type Objective struct {
	ID            string        `json:"id"`
	TaskID        string        `json:"taskId"`
	Type          ObjectiveType `json:"type"`
	Description   string        `json:"description,omitempty"`
	RequiredCount int           `json:"count,omitempty"`
	Item          *ItemRef      `json:"item,omitempty"`
	FoundInRaid   bool          `json:"foundInRaid,omitempty"`
}

// ItemRef references a game item required by an objective or hideout part.
type ItemRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// HideoutStation is an upgradeable base facility with one record per level.
type HideoutStation struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Levels []HideoutLevel `json:"levels"`
}

// HideoutLevel is a single buildable upgrade of a station.
type HideoutLevel struct {
	ID               string            `json:"id"`
	StationID        string            `json:"stationId"`
	Level            int               `json:"level"`
	ItemRequirements []ItemRequirement `json:"itemRequirements"`
}

// ItemRequirement is a counted item needed to build a hideout level. Its ID
// doubles as the hideout part id tracked in progress records.
type ItemRequirement struct {
	ID    string `json:"id"`
	Item  string `json:"itemId,omitempty"`
	Count int    `json:"count"`
}

// Team is a shared-visibility group of users.
type Team struct {
	ID             string    `json:"id"`
	Owner          string    `json:"owner"`
	Password       string    `json:"password"`
	MaximumMembers int       `json:"maximumMembers"`
	Members        []string  `json:"members"`
	CreatedAt      time.Time `json:"createdAt"`
}

// HasMember reports whether the user is on the team roster.
func (t Team) HasMember(userID string) bool {
	for _, m := range t.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// Team size limits enforced on creation.
const (
	TeamMinimumCapacity = 2
	TeamMaximumCapacity = 50
)

// UserAccount holds per-user settings consumed by team aggregation and
// visibility filtering. Authentication happens upstream; the account only
// mirrors an already-verified identity.
type UserAccount struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	GameEdition string    `json:"gameEdition,omitempty"`
	PMCFaction  Faction   `json:"pmcFaction,omitempty"`
	TeamID      string    `json:"teamId,omitempty"`
	// HideProgress collapses this user's progress arrays in teammates'
	// team views without removing them from the roster.
	HideProgress bool      `json:"hideProgress,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Player level bounds accepted by SetPlayerLevel.
const (
	MinPlayerLevel = 1
	MaxPlayerLevel = 79
)
