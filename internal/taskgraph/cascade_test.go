package taskgraph

import (
	"reflect"
	"testing"

	"questcore/pkg/domain"
)

func completedRecord(taskIDs ...string) domain.ProgressRecord {
	record := domain.NewMinimalProgress("user-1", domain.ModePvP)
	for _, id := range taskIDs {
		record.TaskCompletions[id] = domain.TaskCompletion{Complete: true}
	}
	return record
}

func TestCascadeChainInvalidation(t *testing.T) {
	g := mustBuild(t)
	record := completedRecord("task-a", "task-b", "task-c")

	res := CascadeFrom(g, record, "task-a", domain.StatusUncompleted)

	// task-b and task-c break through the completion chain; task-d
	// breaks because its required failure of task-a is gone too.
	if len(res.Tasks) != 3 {
		t.Fatalf("expected 3 invalidated tasks, got %v", res.Tasks)
	}
	if res.Tasks[0] != "task-b" || res.Tasks[1] != "task-c" || res.Tasks[2] != "task-d" {
		t.Fatalf("unexpected cascade: %v", res.Tasks)
	}
	if !res.InvalidatesTask("task-b") || !res.InvalidatesTask("task-c") {
		t.Fatal("membership check disagrees with task list")
	}
	if res.InvalidatesTask("task-a") {
		t.Fatal("seed task must not be part of the cascade")
	}
	if len(res.Objectives) != 2 {
		t.Fatalf("expected objectives of invalidated tasks, got %v", res.Objectives)
	}
}

func TestCascadeStopsAtSatisfiedRequirements(t *testing.T) {
	g := mustBuild(t)
	record := completedRecord("task-a", "task-b")

	res := CascadeFrom(g, record, "task-a", domain.StatusCompleted)

	// task-b keeps its satisfied completion requirement; task-d wanted
	// the failure and invalidates instead.
	if res.InvalidatesTask("task-b") {
		t.Fatalf("task-b requirement still satisfied: %v", res.Tasks)
	}
	if !res.InvalidatesTask("task-d") {
		t.Fatalf("expected task-d invalidated on completion, got %v", res.Tasks)
	}
}

func TestCascadeFailedSeedInvalidatesCompletionDependents(t *testing.T) {
	g := mustBuild(t)
	record := completedRecord("task-a", "task-b", "task-c")

	res := CascadeFrom(g, record, "task-a", domain.StatusFailed)

	// task-b requires task-a completed, so it breaks; task-d wants the
	// failure and must stay out.
	if !res.InvalidatesTask("task-b") {
		t.Fatalf("expected task-b invalidated, got %v", res.Tasks)
	}
	if res.InvalidatesTask("task-d") {
		t.Fatalf("task-d satisfied by failure must not invalidate, got %v", res.Tasks)
	}
}

func TestCascadeUntouchedDependentStillInvalidates(t *testing.T) {
	g := mustBuild(t)
	// task-b complete but task-c never touched: only task-b invalidates.
	record := completedRecord("task-a", "task-b")

	res := CascadeFrom(g, record, "task-a", domain.StatusUncompleted)

	if !res.InvalidatesTask("task-b") {
		t.Fatalf("expected task-b in cascade, got %v", res.Tasks)
	}
	// task-c requires task-b completed; with task-b invalid that
	// requirement no longer holds, so task-c joins even though the user
	// never progressed it.
	if !res.InvalidatesTask("task-c") {
		t.Fatalf("expected transitive invalidation of task-c, got %v", res.Tasks)
	}
}

func TestCascadeBatchSeeds(t *testing.T) {
	g := mustBuild(t)
	record := completedRecord("task-a", "task-b", "task-c")

	res := Cascade(g, record, map[string]domain.TaskStatus{
		"task-a": domain.StatusUncompleted,
		"task-b": domain.StatusCompleted,
	})

	// task-b is a seed with explicit state completed, so it never joins
	// the cascade; task-c keeps its satisfied requirement on task-b.
	if res.InvalidatesTask("task-b") {
		t.Fatalf("seed must not be invalidated: %v", res.Tasks)
	}
	if res.InvalidatesTask("task-c") {
		t.Fatalf("task-c requirement on seed still holds: %v", res.Tasks)
	}
}

func TestCascadeTerminatesOnCycles(t *testing.T) {
	snap := fixtureSnapshot()
	snap.Tasks = append(snap.Tasks,
		domain.Task{
			ID: "cycle-x",
			Requirements: []domain.TaskRequirement{
				{TaskID: "cycle-y", Statuses: []domain.TaskStatus{domain.StatusCompleted}},
			},
		},
		domain.Task{
			ID: "cycle-y",
			Requirements: []domain.TaskRequirement{
				{TaskID: "cycle-x", Statuses: []domain.TaskStatus{domain.StatusCompleted}},
			},
		},
	)
	g, err := Build(snap)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	record := completedRecord("cycle-x", "cycle-y")

	res := CascadeFrom(g, record, "cycle-x", domain.StatusUncompleted)
	if !res.InvalidatesTask("cycle-y") {
		t.Fatalf("expected cycle-y invalidated, got %v", res.Tasks)
	}
	// Reaching here at all proves termination.
}

func TestCascadeIgnoresAlternativeGrouping(t *testing.T) {
	snap := fixtureSnapshot()
	snap.Tasks = append(snap.Tasks,
		domain.Task{ID: "alt-1", Alternatives: []string{"alt-2"}},
		domain.Task{ID: "alt-2", Alternatives: []string{"alt-1"}},
	)
	g, err := Build(snap)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	record := completedRecord("alt-1", "alt-2")

	res := CascadeFrom(g, record, "alt-1", domain.StatusUncompleted)
	if res.InvalidatesTask("alt-2") {
		t.Fatal("alternative grouping must never feed invalidation")
	}
}

func TestCascadeIdempotentOnInvalidatedRecord(t *testing.T) {
	g := mustBuild(t)
	record := completedRecord("task-a", "task-b", "task-c")

	first := CascadeFrom(g, record, "task-a", domain.StatusUncompleted)

	// Apply the result the way the coordinator does: the seed drops to
	// plain uncompleted, cascaded tasks and objectives turn invalid.
	record.TaskCompletions["task-a"] = domain.TaskCompletion{}
	for _, id := range first.Tasks {
		record.TaskCompletions[id] = domain.TaskCompletion{Invalid: true}
	}
	for _, id := range first.Objectives {
		obj := record.TaskObjectives[id]
		obj.Complete = false
		obj.Invalid = true
		record.TaskObjectives[id] = obj
	}

	second := CascadeFrom(g, record, "task-a", domain.StatusUncompleted)

	if !reflect.DeepEqual(first.Tasks, second.Tasks) {
		t.Fatalf("task sets diverged: %v vs %v", first.Tasks, second.Tasks)
	}
	if !reflect.DeepEqual(first.Objectives, second.Objectives) {
		t.Fatalf("objective sets diverged: %v vs %v", first.Objectives, second.Objectives)
	}
	seen := make(map[string]struct{}, len(second.Tasks))
	for _, id := range second.Tasks {
		if _, dup := seen[id]; dup {
			t.Fatalf("task %s invalidated twice in one cascade", id)
		}
		seen[id] = struct{}{}
	}
}

func TestCascadeEmptyChangeSet(t *testing.T) {
	g := mustBuild(t)
	res := Cascade(g, completedRecord("task-a"), nil)
	if !res.Empty() {
		t.Fatalf("expected empty result, got %v", res.Tasks)
	}
}

func TestAvailableChecksRequirementsLevelAndFaction(t *testing.T) {
	snap := fixtureSnapshot()
	snap.Tasks = append(snap.Tasks, domain.Task{
		ID:           "task-lvl",
		MinPlayerLvl: 15,
	})
	g, err := Build(snap)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}

	record := domain.NewMinimalProgress("user-1", domain.ModePvP)
	record.PlayerLevel = 10

	if Available(g, record, "task-b", domain.FactionBEAR) {
		t.Fatal("task-b requires task-a completed")
	}
	record.TaskCompletions["task-a"] = domain.TaskCompletion{Complete: true}
	if !Available(g, record, "task-b", domain.FactionBEAR) {
		t.Fatal("task-b should unlock once task-a completes")
	}

	if Available(g, record, "task-lvl", domain.FactionBEAR) {
		t.Fatal("task-lvl gated behind level 15")
	}
	record.PlayerLevel = 15
	if !Available(g, record, "task-lvl", domain.FactionBEAR) {
		t.Fatal("task-lvl should unlock at level 15")
	}

	if Available(g, record, "task-usec", domain.FactionBEAR) {
		t.Fatal("USEC task must stay locked for BEAR")
	}
	if !Available(g, record, "task-usec", domain.FactionUSEC) {
		t.Fatal("USEC task should unlock for USEC")
	}

	if Available(g, record, "missing", domain.FactionUSEC) {
		t.Fatal("unknown task is never available")
	}
}
