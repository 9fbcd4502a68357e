package core

import (
	"context"

	"questcore/pkg/domain"
)

// UpdateHideoutModule marks one hideout level built or unbuilt. Building a
// level completes its item requirements; unbuilding resets them.
func (s *Service) UpdateHideoutModule(ctx context.Context, userID, moduleID string, complete bool, mode domain.GameMode) error {
	if !mode.Valid() {
		return domain.ValidationError{Field: "gameMode", Reason: "must be pvp or pve"}
	}
	level, ok := s.graph.HideoutLevel(moduleID)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityHideoutModule, ID: moduleID}
	}

	return s.transact(ctx, "update_hideout_module", func(tx domain.Transaction, _ *outbox) error {
		if _, err := tx.EnsureAccount(userID); err != nil {
			return err
		}
		if _, err := tx.EnsureProgress(userID, mode); err != nil {
			return err
		}

		patches := []domain.ProgressPatch{
			domain.ModulePatch{ModuleID: moduleID, Progress: domain.ModuleProgress{Complete: complete}},
		}
		for _, part := range level.ItemRequirements {
			progress := domain.PartProgress{}
			if complete {
				progress = domain.PartProgress{Complete: true, Count: part.Count}
			}
			patches = append(patches, domain.PartPatch{PartID: part.ID, Progress: progress})
		}
		_, err := tx.ApplyProgress(userID, mode, patches...)
		return err
	})
}

// UpdateHideoutPart changes the collected count or completion state of one
// hideout item requirement. Counts clamp to [0, required].
func (s *Service) UpdateHideoutPart(ctx context.Context, userID, partID string, update ObjectiveUpdate, mode domain.GameMode) error {
	if !mode.Valid() {
		return domain.ValidationError{Field: "gameMode", Reason: "must be pvp or pve"}
	}
	if update.State == nil && update.Count == nil {
		return domain.ValidationError{Field: "part", Reason: "requires a state or count"}
	}
	if update.State != nil && *update.State != string(domain.StatusCompleted) && *update.State != string(domain.StatusUncompleted) {
		return domain.ValidationError{Field: "state", Reason: "must be completed or uncompleted"}
	}
	part, ok := s.graph.HideoutPart(partID)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityHideoutPart, ID: partID}
	}

	return s.transact(ctx, "update_hideout_part", func(tx domain.Transaction, _ *outbox) error {
		if _, err := tx.EnsureAccount(userID); err != nil {
			return err
		}
		record, err := tx.EnsureProgress(userID, mode)
		if err != nil {
			return err
		}

		progress := record.HideoutParts[partID]
		if update.Count != nil {
			// Zero required count means uncounted, same as objectives.
			count := *update.Count
			if count < 0 {
				count = 0
			}
			if part.Count > 0 && count > part.Count {
				count = part.Count
			}
			progress.Count = count
			if part.Count > 0 {
				progress.Complete = count >= part.Count
			}
		}
		if update.State != nil {
			switch domain.TaskStatus(*update.State) {
			case domain.StatusCompleted:
				progress.Complete = true
				if progress.Count < part.Count {
					progress.Count = part.Count
				}
			case domain.StatusUncompleted:
				progress.Complete = false
			}
		}

		_, err = tx.ApplyProgress(userID, mode, domain.PartPatch{PartID: partID, Progress: progress})
		return err
	})
}
