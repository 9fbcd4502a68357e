package taskgraph

import (
	"errors"
	"testing"

	"questcore/pkg/domain"
)

func fixtureSnapshot() Snapshot {
	return Snapshot{
		Tasks: []domain.Task{
			{
				ID:   "task-a",
				Name: "Debut",
				Objectives: []domain.Objective{
					{ID: "obj-a1", Type: domain.ObjectiveShoot, RequiredCount: 5},
				},
			},
			{
				ID:   "task-b",
				Name: "Checking",
				Objectives: []domain.Objective{
					{ID: "obj-b1", Type: domain.ObjectiveGiveItem, RequiredCount: 2,
						Item: &domain.ItemRef{ID: "item-salewa"}, FoundInRaid: true},
				},
				Requirements: []domain.TaskRequirement{
					{TaskID: "task-a", Statuses: []domain.TaskStatus{domain.StatusCompleted}},
				},
			},
			{
				ID:   "task-c",
				Name: "Shaking up the Teller",
				Objectives: []domain.Objective{
					{ID: "obj-c1", Type: domain.ObjectiveVisit},
				},
				Requirements: []domain.TaskRequirement{
					{TaskID: "task-b", Statuses: []domain.TaskStatus{domain.StatusCompleted}},
				},
			},
			{
				ID:   "task-d",
				Name: "Chemical Part 4 Fail",
				Requirements: []domain.TaskRequirement{
					{TaskID: "task-a", Statuses: []domain.TaskStatus{domain.StatusFailed}},
				},
			},
			{
				ID:      "task-usec",
				Name:    "Textile USEC",
				Faction: domain.FactionUSEC,
			},
		},
		HideoutStations: []domain.HideoutStation{
			{
				ID:   "station-stash",
				Name: "Stash",
				Levels: []domain.HideoutLevel{
					{
						ID:    "stash-1",
						Level: 1,
						ItemRequirements: []domain.ItemRequirement{
							{ID: "part-roubles", Item: "item-roubles", Count: 3},
						},
					},
				},
			},
		},
	}
}

func mustBuild(t *testing.T) *Graph {
	t.Helper()
	g, err := Build(fixtureSnapshot())
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return g
}

func TestBuildRejectsEmptyTasks(t *testing.T) {
	snap := fixtureSnapshot()
	snap.Tasks = nil
	_, err := Build(snap)
	if err == nil {
		t.Fatal("expected error for empty task list")
	}
	var unavailable domain.DataUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected DataUnavailableError, got %v", err)
	}
}

func TestBuildRejectsEmptyStations(t *testing.T) {
	snap := fixtureSnapshot()
	snap.HideoutStations = nil
	if _, err := Build(snap); err == nil {
		t.Fatal("expected error for empty station list")
	}
}

func TestParseSnapshotMalformed(t *testing.T) {
	if _, err := ParseSnapshot([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestBuildDependentsIndex(t *testing.T) {
	g := mustBuild(t)
	deps := g.Dependents("task-a")
	if len(deps) != 2 {
		t.Fatalf("expected 2 dependents of task-a, got %v", deps)
	}
	found := map[string]bool{}
	for _, d := range deps {
		found[d] = true
	}
	if !found["task-b"] || !found["task-d"] {
		t.Fatalf("unexpected dependents: %v", deps)
	}
	if deps := g.Dependents("task-c"); len(deps) != 0 {
		t.Fatalf("expected no dependents of task-c, got %v", deps)
	}
}

func TestBuildStampsObjectiveTaskIDs(t *testing.T) {
	g := mustBuild(t)
	obj, ok := g.Objective("obj-b1")
	if !ok {
		t.Fatal("objective obj-b1 missing")
	}
	if obj.TaskID != "task-b" {
		t.Fatalf("expected owning task task-b, got %s", obj.TaskID)
	}
}

func TestBuildIndexesHideout(t *testing.T) {
	g := mustBuild(t)
	level, ok := g.HideoutLevel("stash-1")
	if !ok {
		t.Fatal("level stash-1 missing")
	}
	if level.StationID != "station-stash" {
		t.Fatalf("expected station id stamped, got %s", level.StationID)
	}
	part, ok := g.HideoutPart("part-roubles")
	if !ok {
		t.Fatal("part part-roubles missing")
	}
	if part.Count != 3 {
		t.Fatalf("expected count 3, got %d", part.Count)
	}
}

func TestTaskIDsPreserveFeedOrder(t *testing.T) {
	g := mustBuild(t)
	ids := g.TaskIDs()
	if len(ids) != 5 || ids[0] != "task-a" || ids[1] != "task-b" {
		t.Fatalf("unexpected task order: %v", ids)
	}
	if g.TaskCount() != 5 {
		t.Fatalf("expected 5 tasks, got %d", g.TaskCount())
	}
}
