package core

import (
	"context"
	"fmt"
	"time"

	"questcore/internal/taskgraph"
	"questcore/pkg/domain"
)

// TaskUpdate is one entry of a batch task state change.
type TaskUpdate struct {
	TaskID string
	State  string
}

// ObjectiveUpdate carries the optional fields of an objective change. At
// least one field must be set.
type ObjectiveUpdate struct {
	State *string
	Count *int
}

// GetUserProgress returns the formatted progress of one user in one mode.
// Users that never wrote anything read as a minimal empty record.
func (s *Service) GetUserProgress(ctx context.Context, userID string, mode domain.GameMode) (domain.FormattedProgress, error) {
	if !mode.Valid() {
		return domain.FormattedProgress{}, domain.ValidationError{Field: "gameMode", Reason: "must be pvp or pve"}
	}
	ctx, span := s.tracer.Start(ctx, "get_user_progress")
	started := s.clock.Now()

	account, ok := s.store.GetAccount(userID)
	if !ok {
		account = domain.UserAccount{ID: userID}
	}
	record, ok := s.store.GetProgress(userID, mode)
	if !ok {
		record = domain.NewMinimalProgress(userID, mode)
	}

	s.metrics.Observe(ctx, "get_user_progress", true, s.clock.Now().Sub(started))
	span.End(nil)
	return formatProgress(account, record), nil
}

// UpdateSingleTask sets the state of one task and applies the resulting
// invalidation cascade in the same transaction.
func (s *Service) UpdateSingleTask(ctx context.Context, userID, taskID, state string, mode domain.GameMode) error {
	return s.updateTasks(ctx, "update_single_task", userID, mode, []TaskUpdate{{TaskID: taskID, State: state}})
}

// UpdateMultipleTasks applies a batch of task state changes atomically. The
// whole batch is validated before any write; one bad entry rejects all.
func (s *Service) UpdateMultipleTasks(ctx context.Context, userID string, updates []TaskUpdate, mode domain.GameMode) error {
	return s.updateTasks(ctx, "update_multiple_tasks", userID, mode, updates)
}

func (s *Service) updateTasks(ctx context.Context, operation, userID string, mode domain.GameMode, updates []TaskUpdate) error {
	if !mode.Valid() {
		return domain.ValidationError{Field: "gameMode", Reason: "must be pvp or pve"}
	}
	if len(updates) == 0 {
		return domain.ValidationError{Field: "tasks", Reason: "must not be empty"}
	}
	changed := make(map[string]domain.TaskStatus, len(updates))
	for _, update := range updates {
		status, err := domain.ParseTaskStatus(update.State)
		if err != nil {
			return err
		}
		if _, ok := s.graph.Task(update.TaskID); !ok {
			return domain.NotFoundError{Entity: domain.EntityTask, ID: update.TaskID}
		}
		if _, dup := changed[update.TaskID]; dup {
			return domain.ValidationError{Field: "tasks", Reason: fmt.Sprintf("duplicate task %s", update.TaskID)}
		}
		changed[update.TaskID] = status
	}

	return s.transact(ctx, operation, func(tx domain.Transaction, out *outbox) error {
		account, err := tx.EnsureAccount(userID)
		if err != nil {
			return err
		}
		record, err := tx.EnsureProgress(userID, mode)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		var patches []domain.ProgressPatch
		for _, update := range updates {
			status := changed[update.TaskID]
			task, _ := s.graph.Task(update.TaskID)
			patches = append(patches, taskStatePatches(task, status, record, now)...)
		}

		// The cascade runs against the pre-change record; seeds carry
		// their explicit new state through the changed map.
		cascade := taskgraph.Cascade(s.graph, record, changed)
		for _, taskID := range cascade.Tasks {
			patches = append(patches, domain.TaskCompletionPatch{
				TaskID:     taskID,
				Completion: domain.TaskCompletion{Invalid: true, Timestamp: now},
			})
		}
		for _, objectiveID := range cascade.Objectives {
			progress := record.TaskObjectives[objectiveID]
			progress.Complete = false
			progress.Invalid = true
			patches = append(patches, domain.ObjectivePatch{ObjectiveID: objectiveID, Progress: progress})
		}
		if !cascade.Empty() {
			s.logger.Info("invalidation cascade applied",
				"user", userID, "mode", mode,
				"tasks", len(cascade.Tasks), "objectives", len(cascade.Objectives))
		}

		if _, err := tx.ApplyProgress(userID, mode, patches...); err != nil {
			return err
		}
		s.queueAvailabilityRefresh(out, userID, mode, account.PMCFaction)
		return nil
	})
}

// taskStatePatches expands one explicit task state change into completion
// and objective patches. Completing a task completes its objectives;
// uncompleting resets them; failing leaves them untouched.
func taskStatePatches(task domain.Task, status domain.TaskStatus, record domain.ProgressRecord, now time.Time) []domain.ProgressPatch {
	var patches []domain.ProgressPatch
	switch status {
	case domain.StatusCompleted:
		patches = append(patches, domain.TaskCompletionPatch{
			TaskID:     task.ID,
			Completion: domain.TaskCompletion{Complete: true, Timestamp: now},
		})
		for _, obj := range task.Objectives {
			patches = append(patches, domain.ObjectivePatch{
				ObjectiveID: obj.ID,
				Progress:    domain.ObjectiveProgress{Complete: true, Count: obj.RequiredCount},
			})
		}
	case domain.StatusFailed:
		patches = append(patches, domain.TaskCompletionPatch{
			TaskID:     task.ID,
			Completion: domain.TaskCompletion{Failed: true, Timestamp: now},
		})
	case domain.StatusUncompleted:
		patches = append(patches, domain.TaskCompletionPatch{
			TaskID:     task.ID,
			Completion: domain.TaskCompletion{Timestamp: now},
		})
		for _, obj := range task.Objectives {
			if _, touched := record.TaskObjectives[obj.ID]; !touched {
				continue
			}
			patches = append(patches, domain.ObjectivePatch{
				ObjectiveID: obj.ID,
				Progress:    domain.ObjectiveProgress{},
			})
		}
	}
	return patches
}

// UpdateTaskObjective changes the count or completion state of one
// objective. Counts clamp to [0, required]; reaching the required count
// flips the objective complete, dropping below clears it.
func (s *Service) UpdateTaskObjective(ctx context.Context, userID, objectiveID string, update ObjectiveUpdate, mode domain.GameMode) error {
	if !mode.Valid() {
		return domain.ValidationError{Field: "gameMode", Reason: "must be pvp or pve"}
	}
	if update.State == nil && update.Count == nil {
		return domain.ValidationError{Field: "objective", Reason: "requires a state or count"}
	}
	if update.State != nil && *update.State != string(domain.StatusCompleted) && *update.State != string(domain.StatusUncompleted) {
		return domain.ValidationError{Field: "state", Reason: "must be completed or uncompleted"}
	}
	objective, ok := s.graph.Objective(objectiveID)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityObjective, ID: objectiveID}
	}

	return s.transact(ctx, "update_task_objective", func(tx domain.Transaction, _ *outbox) error {
		if _, err := tx.EnsureAccount(userID); err != nil {
			return err
		}
		record, err := tx.EnsureProgress(userID, mode)
		if err != nil {
			return err
		}

		progress := record.TaskObjectives[objectiveID]
		progress.Invalid = false
		if update.Count != nil {
			// A zero required count marks an uncounted objective: the
			// count passes through and completion stays explicit.
			count := *update.Count
			if count < 0 {
				count = 0
			}
			if objective.RequiredCount > 0 && count > objective.RequiredCount {
				count = objective.RequiredCount
			}
			progress.Count = count
			if objective.RequiredCount > 0 {
				progress.Complete = count >= objective.RequiredCount
			}
		}
		if update.State != nil {
			switch domain.TaskStatus(*update.State) {
			case domain.StatusCompleted:
				progress.Complete = true
				if progress.Count < objective.RequiredCount {
					progress.Count = objective.RequiredCount
				}
			case domain.StatusUncompleted:
				progress.Complete = false
			}
		}

		_, err = tx.ApplyProgress(userID, mode, domain.ObjectivePatch{ObjectiveID: objectiveID, Progress: progress})
		return err
	})
}

// SetPlayerLevel stores the player's level for one mode.
func (s *Service) SetPlayerLevel(ctx context.Context, userID string, level int, mode domain.GameMode) error {
	if !mode.Valid() {
		return domain.ValidationError{Field: "gameMode", Reason: "must be pvp or pve"}
	}
	if level < domain.MinPlayerLevel || level > domain.MaxPlayerLevel {
		return domain.ValidationError{
			Field:  "level",
			Reason: fmt.Sprintf("must be between %d and %d", domain.MinPlayerLevel, domain.MaxPlayerLevel),
		}
	}
	return s.transact(ctx, "set_player_level", func(tx domain.Transaction, out *outbox) error {
		account, err := tx.EnsureAccount(userID)
		if err != nil {
			return err
		}
		if _, err := tx.EnsureProgress(userID, mode); err != nil {
			return err
		}
		if _, err := tx.ApplyProgress(userID, mode, domain.PlayerLevelPatch{Level: level}); err != nil {
			return err
		}
		s.queueAvailabilityRefresh(out, userID, mode, account.PMCFaction)
		return nil
	})
}

// queueAvailabilityRefresh schedules the post-commit availability
// re-evaluation. It runs in its own transaction and may lose a race with a
// newer write; the next mutation re-queues it.
func (s *Service) queueAvailabilityRefresh(out *outbox, userID string, mode domain.GameMode, faction domain.Faction) {
	out.add("availability_refresh", func(ctx context.Context) error {
		return s.refreshAvailability(ctx, userID, mode, faction)
	})
}

// refreshAvailability recomputes the cached availability of every task for
// one user and clears invalid flags on tasks whose requirements hold again.
func (s *Service) refreshAvailability(ctx context.Context, userID string, mode domain.GameMode, faction domain.Faction) error {
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		record, err := tx.EnsureProgress(userID, mode)
		if err != nil {
			return err
		}
		availability := make(map[string]bool, s.graph.TaskCount())
		patches := []domain.ProgressPatch{}
		for _, taskID := range s.graph.TaskIDs() {
			available := taskgraph.Available(s.graph, record, taskID, faction)
			availability[taskID] = available
			completion, touched := record.TaskCompletions[taskID]
			if touched && completion.Invalid && available {
				completion.Invalid = false
				patches = append(patches, domain.TaskCompletionPatch{TaskID: taskID, Completion: completion})
			}
		}
		patches = append(patches, domain.AvailabilityPatch{Availability: availability})
		_, err = tx.ApplyProgress(userID, mode, patches...)
		return err
	})
	return err
}
