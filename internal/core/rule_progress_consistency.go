package core

import (
	"context"
	"fmt"

	"questcore/pkg/domain"
)

// NewProgressConsistencyRule returns the in-transaction rule guarding
// progress record invariants: a task or objective may never be both invalid
// and complete, and counted fields never go negative.
func NewProgressConsistencyRule() domain.Rule {
	return progressConsistencyRule{}
}

type progressConsistencyRule struct{}

func (progressConsistencyRule) Name() string { return "progress_consistency" }

func (progressConsistencyRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityProgress || change.Action == domain.ActionDelete {
			continue
		}
		record, ok := change.After.(domain.ProgressRecord)
		if !ok {
			continue
		}
		for taskID, completion := range record.TaskCompletions {
			if completion.Invalid && completion.Complete {
				res.Violations = append(res.Violations, violation(change.ID,
					fmt.Sprintf("task %s marked both invalid and complete", taskID)))
			}
			if completion.Invalid && completion.Failed {
				res.Violations = append(res.Violations, violation(change.ID,
					fmt.Sprintf("task %s marked both invalid and failed", taskID)))
			}
		}
		for objectiveID, progress := range record.TaskObjectives {
			if progress.Invalid && progress.Complete {
				res.Violations = append(res.Violations, violation(change.ID,
					fmt.Sprintf("objective %s marked both invalid and complete", objectiveID)))
			}
			if progress.Count < 0 {
				res.Violations = append(res.Violations, violation(change.ID,
					fmt.Sprintf("objective %s has negative count", objectiveID)))
			}
		}
		for partID, progress := range record.HideoutParts {
			if progress.Count < 0 {
				res.Violations = append(res.Violations, violation(change.ID,
					fmt.Sprintf("hideout part %s has negative count", partID)))
			}
		}
		if record.PlayerLevel < domain.MinPlayerLevel || record.PlayerLevel > domain.MaxPlayerLevel {
			res.Violations = append(res.Violations, violation(change.ID,
				fmt.Sprintf("player level %d out of range", record.PlayerLevel)))
		}
	}
	return res, nil
}

func violation(recordID, message string) domain.Violation {
	return domain.Violation{
		Rule:     "progress_consistency",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   domain.EntityProgress,
		EntityID: recordID,
	}
}
