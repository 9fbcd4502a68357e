// Package taskgraph holds the immutable reference data loaded from the
// upstream feed: tasks, objectives, hideout stations, and the precomputed
// reverse-dependency index consumed by the invalidation cascade.
package taskgraph

import (
	"encoding/json"

	"questcore/pkg/domain"
)

// Snapshot is one immutable-per-load export of the upstream feed.
type Snapshot struct {
	Tasks           []domain.Task           `json:"tasks"`
	HideoutStations []domain.HideoutStation `json:"hideoutStations"`
}

// ParseSnapshot decodes a feed snapshot from JSON.
func ParseSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, domain.DataUnavailableError{Reason: "malformed feed snapshot: " + err.Error()}
	}
	return snap, nil
}

// Graph is the read-only task/hideout reference data with precomputed
// forward and reverse requirement edges. Built once per process and injected
// into every component; never mutated after Build.
type Graph struct {
	tasks      map[string]domain.Task
	objectives map[string]domain.Objective
	stations   map[string]domain.HideoutStation
	levels     map[string]domain.HideoutLevel
	parts      map[string]domain.ItemRequirement
	partLevel  map[string]string
	dependents map[string][]string
	taskOrder  []string
}

// Build validates the snapshot and constructs the graph with its reverse
// index. An empty task list or station list is a hard failure: the system
// must refuse to operate rather than silently treat everything as unlocked.
func Build(snap Snapshot) (*Graph, error) {
	if len(snap.Tasks) == 0 {
		return nil, domain.DataUnavailableError{Reason: "feed returned no tasks"}
	}
	if len(snap.HideoutStations) == 0 {
		return nil, domain.DataUnavailableError{Reason: "feed returned no hideout stations"}
	}

	g := &Graph{
		tasks:      make(map[string]domain.Task, len(snap.Tasks)),
		objectives: make(map[string]domain.Objective),
		stations:   make(map[string]domain.HideoutStation, len(snap.HideoutStations)),
		levels:     make(map[string]domain.HideoutLevel),
		parts:      make(map[string]domain.ItemRequirement),
		partLevel:  make(map[string]string),
		dependents: make(map[string][]string),
	}

	for _, task := range snap.Tasks {
		g.tasks[task.ID] = task
		g.taskOrder = append(g.taskOrder, task.ID)
		for _, obj := range task.Objectives {
			obj.TaskID = task.ID
			g.objectives[obj.ID] = obj
		}
	}
	// Reverse edges are precomputed here so the cascade never scans the
	// full task set per change.
	for _, task := range snap.Tasks {
		for _, req := range task.Requirements {
			g.dependents[req.TaskID] = append(g.dependents[req.TaskID], task.ID)
		}
	}

	for _, station := range snap.HideoutStations {
		g.stations[station.ID] = station
		for _, level := range station.Levels {
			level.StationID = station.ID
			g.levels[level.ID] = level
			for _, part := range level.ItemRequirements {
				g.parts[part.ID] = part
				g.partLevel[part.ID] = level.ID
			}
		}
	}
	return g, nil
}

// Task returns the task by id.
func (g *Graph) Task(id string) (domain.Task, bool) {
	t, ok := g.tasks[id]
	return t, ok
}

// Objective returns the objective by id.
func (g *Graph) Objective(id string) (domain.Objective, bool) {
	o, ok := g.objectives[id]
	return o, ok
}

// Requirements returns the forward requirement edges of a task.
func (g *Graph) Requirements(id string) []domain.TaskRequirement {
	return g.tasks[id].Requirements
}

// Dependents returns the ids of tasks whose requirements reference id.
func (g *Graph) Dependents(id string) []string {
	return g.dependents[id]
}

// Alternatives returns the informational alternative grouping of a task.
func (g *Graph) Alternatives(id string) []string {
	return g.tasks[id].Alternatives
}

// HideoutLevel returns a buildable hideout level by id.
func (g *Graph) HideoutLevel(id string) (domain.HideoutLevel, bool) {
	l, ok := g.levels[id]
	return l, ok
}

// HideoutPart returns a hideout item requirement by id.
func (g *Graph) HideoutPart(id string) (domain.ItemRequirement, bool) {
	p, ok := g.parts[id]
	return p, ok
}

// TaskIDs returns every task id in feed order.
func (g *Graph) TaskIDs() []string {
	out := make([]string, len(g.taskOrder))
	copy(out, g.taskOrder)
	return out
}

// HideoutLevelIDs returns every buildable level id, unordered.
func (g *Graph) HideoutLevelIDs() []string {
	out := make([]string, 0, len(g.levels))
	for id := range g.levels {
		out = append(out, id)
	}
	return out
}

// TaskCount reports the number of tasks in the graph.
func (g *Graph) TaskCount() int { return len(g.tasks) }
