package domain

import "time"

// TaskCompletion records the state of one task in a progress record.
// Invalid and Complete are mutually exclusive; the store's rules engine
// blocks any commit that sets both.
type TaskCompletion struct {
	Complete  bool      `json:"complete"`
	Failed    bool      `json:"failed,omitempty"`
	Invalid   bool      `json:"invalid,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Status folds the completion flags into a TaskStatus for requirement checks.
func (c TaskCompletion) Status() TaskStatus {
	switch {
	case c.Invalid:
		return StatusUncompleted
	case c.Failed:
		return StatusFailed
	case c.Complete:
		return StatusCompleted
	}
	return StatusUncompleted
}

// ObjectiveProgress tracks a counted sub-goal of a task.
type ObjectiveProgress struct {
	Complete bool `json:"complete"`
	Count    int  `json:"count,omitempty"`
	Invalid  bool `json:"invalid,omitempty"`
}

// ModuleProgress tracks a built hideout level.
type ModuleProgress struct {
	Complete bool `json:"complete"`
}

// PartProgress tracks a counted hideout item requirement.
type PartProgress struct {
	Complete bool `json:"complete"`
	Count    int  `json:"count,omitempty"`
}

// ProgressRecord is the per-user, per-game-mode completion document. It is
// created lazily on first touch and mutated only inside a store transaction.
type ProgressRecord struct {
	UserID          string                       `json:"userId"`
	Mode            GameMode                     `json:"gameMode"`
	PlayerLevel     int                          `json:"playerLevel"`
	TaskCompletions map[string]TaskCompletion    `json:"taskCompletions"`
	TaskObjectives  map[string]ObjectiveProgress `json:"taskObjectives"`
	HideoutModules  map[string]ModuleProgress    `json:"hideoutModules"`
	HideoutParts    map[string]PartProgress      `json:"hideoutParts"`
	// TaskAvailability is a non-authoritative cache refreshed by the
	// best-effort re-evaluation step after task mutations commit.
	TaskAvailability map[string]bool `json:"taskAvailability,omitempty"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// NewMinimalProgress returns the stub record written on first access.
func NewMinimalProgress(userID string, mode GameMode) ProgressRecord {
	return ProgressRecord{
		UserID:          userID,
		Mode:            mode,
		PlayerLevel:     MinPlayerLevel,
		TaskCompletions: map[string]TaskCompletion{},
		TaskObjectives:  map[string]ObjectiveProgress{},
		HideoutModules:  map[string]ModuleProgress{},
		HideoutParts:    map[string]PartProgress{},
	}
}

// TaskStatus reports the effective status of a task within the record.
// Absent entries read as uncompleted.
func (r ProgressRecord) TaskStatus(taskID string) TaskStatus {
	return r.TaskCompletions[taskID].Status()
}

// Clone deep-copies the record so snapshots cannot alias store state.
func (r ProgressRecord) Clone() ProgressRecord {
	cp := r
	cp.TaskCompletions = make(map[string]TaskCompletion, len(r.TaskCompletions))
	for k, v := range r.TaskCompletions {
		cp.TaskCompletions[k] = v
	}
	cp.TaskObjectives = make(map[string]ObjectiveProgress, len(r.TaskObjectives))
	for k, v := range r.TaskObjectives {
		cp.TaskObjectives[k] = v
	}
	cp.HideoutModules = make(map[string]ModuleProgress, len(r.HideoutModules))
	for k, v := range r.HideoutModules {
		cp.HideoutModules[k] = v
	}
	cp.HideoutParts = make(map[string]PartProgress, len(r.HideoutParts))
	for k, v := range r.HideoutParts {
		cp.HideoutParts[k] = v
	}
	if r.TaskAvailability != nil {
		cp.TaskAvailability = make(map[string]bool, len(r.TaskAvailability))
		for k, v := range r.TaskAvailability {
			cp.TaskAvailability[k] = v
		}
	}
	return cp
}
