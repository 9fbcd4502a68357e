package taskgraph

import (
	"sort"

	"questcore/pkg/domain"
)

// CascadeResult is the minimal set of additional tasks and objectives that
// must become invalid when the seed tasks change status.
type CascadeResult struct {
	Tasks      []string
	Objectives []string

	taskSet map[string]struct{}
}

// InvalidatesTask reports whether the task is part of the cascade.
func (r CascadeResult) InvalidatesTask(id string) bool {
	_, ok := r.taskSet[id]
	return ok
}

// Empty reports whether the cascade touched nothing.
func (r CascadeResult) Empty() bool { return len(r.Tasks) == 0 }

// Cascade computes the invalidation set for a batch of task status changes.
// It walks the reverse-dependency index breadth-first from every seed. A
// dependent joins the set iff one of its requirements references a walked
// task with a status set that the task's effective status no longer
// satisfies. Each task is invalidated at most once, so cyclic requirement
// data terminates. Pure and deterministic: no I/O, results sorted.
func Cascade(g *Graph, record domain.ProgressRecord, changed map[string]domain.TaskStatus) CascadeResult {
	res := CascadeResult{taskSet: make(map[string]struct{})}
	if len(changed) == 0 {
		return res
	}

	queue := make([]string, 0, len(changed))
	for id := range changed {
		queue = append(queue, id)
	}
	sort.Strings(queue)

	status := func(id string) domain.TaskStatus {
		if s, ok := changed[id]; ok {
			return s
		}
		if _, ok := res.taskSet[id]; ok {
			// Invalidated tasks read as uncompleted downstream.
			return domain.StatusUncompleted
		}
		return record.TaskStatus(id)
	}

	// Each task enters the queue at most once (seeds here, dependents on
	// invalidation below), so the walk is bounded by the task count. The
	// explicit cap is a defensive bound against pathological input.
	limit := g.TaskCount() + len(changed)
	for steps := 0; len(queue) > 0 && steps < limit; steps++ {
		current := queue[0]
		queue = queue[1:]
		currentStatus := status(current)

		for _, depID := range g.Dependents(current) {
			if _, done := res.taskSet[depID]; done {
				continue
			}
			if _, seed := changed[depID]; seed {
				// Seeds carry their own explicit state; the
				// coordinator merged them already.
				continue
			}
			dep, ok := g.Task(depID)
			if !ok {
				continue
			}
			broken := false
			for _, req := range dep.Requirements {
				if req.TaskID == current && !req.SatisfiedBy(currentStatus) {
					broken = true
					break
				}
			}
			if !broken {
				continue
			}
			res.taskSet[depID] = struct{}{}
			res.Tasks = append(res.Tasks, depID)
			for _, obj := range dep.Objectives {
				res.Objectives = append(res.Objectives, obj.ID)
			}
			queue = append(queue, depID)
		}
	}

	sort.Strings(res.Tasks)
	sort.Strings(res.Objectives)
	return res
}

// CascadeFrom computes the invalidation set for a single status change.
func CascadeFrom(g *Graph, record domain.ProgressRecord, taskID string, newStatus domain.TaskStatus) CascadeResult {
	return Cascade(g, record, map[string]domain.TaskStatus{taskID: newStatus})
}

// Available reports whether every requirement of the task is satisfied by
// the record, and the task's faction admits the player. Used by the
// best-effort availability re-evaluation after commits.
func Available(g *Graph, record domain.ProgressRecord, taskID string, player domain.Faction) bool {
	task, ok := g.Task(taskID)
	if !ok {
		return false
	}
	if task.Faction != "" && !task.Faction.Matches(player) {
		return false
	}
	if task.MinPlayerLvl > 0 && record.PlayerLevel < task.MinPlayerLvl {
		return false
	}
	for _, req := range task.Requirements {
		if !req.SatisfiedBy(record.TaskStatus(req.TaskID)) {
			return false
		}
	}
	return true
}
