package domain

// ProgressPatch is a typed, single-field mutation of a progress record. The
// storage adapter applies patches; the domain layer never builds string
// field paths.
type ProgressPatch interface {
	Apply(r *ProgressRecord)
}

// TaskCompletionPatch replaces the completion entry of one task.
type TaskCompletionPatch struct {
	TaskID     string
	Completion TaskCompletion
}

// Apply implements ProgressPatch.
func (p TaskCompletionPatch) Apply(r *ProgressRecord) {
	r.TaskCompletions[p.TaskID] = p.Completion
}

// ObjectivePatch replaces the progress entry of one objective.
type ObjectivePatch struct {
	ObjectiveID string
	Progress    ObjectiveProgress
}

// Apply implements ProgressPatch.
func (p ObjectivePatch) Apply(r *ProgressRecord) {
	r.TaskObjectives[p.ObjectiveID] = p.Progress
}

// PlayerLevelPatch sets the player level.
type PlayerLevelPatch struct {
	Level int
}

// Apply implements ProgressPatch.
func (p PlayerLevelPatch) Apply(r *ProgressRecord) {
	r.PlayerLevel = p.Level
}

// ModulePatch replaces the progress entry of one hideout level.
type ModulePatch struct {
	ModuleID string
	Progress ModuleProgress
}

// Apply implements ProgressPatch.
func (p ModulePatch) Apply(r *ProgressRecord) {
	r.HideoutModules[p.ModuleID] = p.Progress
}

// PartPatch replaces the progress entry of one hideout item requirement.
type PartPatch struct {
	PartID   string
	Progress PartProgress
}

// Apply implements ProgressPatch.
func (p PartPatch) Apply(r *ProgressRecord) {
	r.HideoutParts[p.PartID] = p.Progress
}

// AvailabilityPatch replaces the cached task-availability map. Written only
// by the post-commit re-evaluation step.
type AvailabilityPatch struct {
	Availability map[string]bool
}

// Apply implements ProgressPatch.
func (p AvailabilityPatch) Apply(r *ProgressRecord) {
	r.TaskAvailability = p.Availability
}
