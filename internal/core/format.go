package core

import (
	"sort"

	"questcore/pkg/domain"
)

// formatProgress projects a progress record and its owning account into the
// caller-facing shape. Entries are sorted by id so responses are stable.
func formatProgress(account domain.UserAccount, record domain.ProgressRecord) domain.FormattedProgress {
	out := domain.FormattedProgress{
		UserID:                 record.UserID,
		DisplayName:            displayName(account),
		PlayerLevel:            record.PlayerLevel,
		GameEdition:            account.GameEdition,
		PMCFaction:             account.PMCFaction,
		TasksProgress:          []domain.TaskProgressItem{},
		TaskObjectivesProgress: []domain.ObjectiveProgressItem{},
		HideoutModulesProgress: []domain.ModuleProgressItem{},
		HideoutPartsProgress:   []domain.PartProgressItem{},
	}
	if out.UserID == "" {
		out.UserID = account.ID
	}

	for id, completion := range record.TaskCompletions {
		out.TasksProgress = append(out.TasksProgress, domain.TaskProgressItem{
			ID:       id,
			Complete: completion.Complete,
			Failed:   completion.Failed,
			Invalid:  completion.Invalid,
		})
	}
	for id, progress := range record.TaskObjectives {
		out.TaskObjectivesProgress = append(out.TaskObjectivesProgress, domain.ObjectiveProgressItem{
			ID:       id,
			Complete: progress.Complete,
			Count:    progress.Count,
			Invalid:  progress.Invalid,
		})
	}
	for id, progress := range record.HideoutModules {
		out.HideoutModulesProgress = append(out.HideoutModulesProgress, domain.ModuleProgressItem{
			ID:       id,
			Complete: progress.Complete,
		})
	}
	for id, progress := range record.HideoutParts {
		out.HideoutPartsProgress = append(out.HideoutPartsProgress, domain.PartProgressItem{
			ID:       id,
			Complete: progress.Complete,
			Count:    progress.Count,
		})
	}

	sort.Slice(out.TasksProgress, func(i, j int) bool { return out.TasksProgress[i].ID < out.TasksProgress[j].ID })
	sort.Slice(out.TaskObjectivesProgress, func(i, j int) bool {
		return out.TaskObjectivesProgress[i].ID < out.TaskObjectivesProgress[j].ID
	})
	sort.Slice(out.HideoutModulesProgress, func(i, j int) bool {
		return out.HideoutModulesProgress[i].ID < out.HideoutModulesProgress[j].ID
	})
	sort.Slice(out.HideoutPartsProgress, func(i, j int) bool {
		return out.HideoutPartsProgress[i].ID < out.HideoutPartsProgress[j].ID
	})
	return out
}

// collapseProgress empties the progress arrays of a hidden teammate while
// keeping identity fields so the roster entry survives.
func collapseProgress(fp domain.FormattedProgress) domain.FormattedProgress {
	fp.PlayerLevel = 0
	fp.TasksProgress = []domain.TaskProgressItem{}
	fp.TaskObjectivesProgress = []domain.ObjectiveProgressItem{}
	fp.HideoutModulesProgress = []domain.ModuleProgressItem{}
	fp.HideoutPartsProgress = []domain.PartProgressItem{}
	return fp
}

func displayName(account domain.UserAccount) string {
	if account.DisplayName != "" {
		return account.DisplayName
	}
	if len(account.ID) > 6 {
		return account.ID[:6]
	}
	return account.ID
}
