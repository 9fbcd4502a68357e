package core

import (
	"context"
	"sort"

	"questcore/internal/taskgraph"
	"questcore/pkg/domain"
)

// ViewSettings tunes the needed-item computation.
type ViewSettings struct {
	// TeamView aggregates over every visible teammate instead of the
	// requester alone.
	TeamView bool
	// HideNonFIR drops handover objectives whose item does not need the
	// found-in-raid flag, along with mark, weapon-build, and plant
	// objectives.
	HideNonFIR bool
	// HideHideout suppresses hideout item requirements entirely.
	HideHideout bool
}

// NeededEntry reports one member still needing an objective or hideout part.
type NeededEntry struct {
	UserID    string `json:"userId"`
	Remaining int    `json:"remaining"`
}

// ObjectiveNeed is one item-bearing objective some visible member still
// needs.
type ObjectiveNeed struct {
	ObjectiveID string          `json:"objectiveId"`
	TaskID      string          `json:"taskId"`
	Item        *domain.ItemRef `json:"item,omitempty"`
	FoundInRaid bool            `json:"foundInRaid,omitempty"`
	NeededBy    []NeededEntry   `json:"neededBy"`
}

// PartNeed is one hideout item requirement some visible member still needs.
type PartNeed struct {
	PartID   string        `json:"partId"`
	ModuleID string        `json:"moduleId"`
	ItemID   string        `json:"itemId,omitempty"`
	NeededBy []NeededEntry `json:"neededBy"`
}

// NeededView is the filtered needed-item projection for one viewer.
type NeededView struct {
	Objectives   []ObjectiveNeed `json:"objectives"`
	HideoutParts []PartNeed      `json:"hideoutParts"`
}

// NeededItems computes the needed-item view for one user: the objectives and
// hideout parts still outstanding for the requester, or for every visible
// teammate when the settings ask for the team view.
func (s *Service) NeededItems(ctx context.Context, userID string, mode domain.GameMode, settings ViewSettings) (NeededView, error) {
	team, err := s.GetTeamProgress(ctx, userID, mode)
	if err != nil {
		return NeededView{}, err
	}
	if !settings.TeamView {
		for _, member := range team.Data {
			if member.UserID == userID {
				team.Data = []domain.FormattedProgress{member}
				break
			}
		}
		team.Meta.HiddenTeammates = nil
	}
	return ComputeNeeded(s.graph, team, settings), nil
}

// memberState is the per-member lookup view built from formatted progress.
type memberState struct {
	id         string
	faction    domain.Faction
	tasks      map[string]domain.TaskProgressItem
	objectives map[string]domain.ObjectiveProgressItem
	modules    map[string]domain.ModuleProgressItem
	parts      map[string]domain.PartProgressItem
}

// ComputeNeeded derives needed objectives and hideout parts from a team
// progress response. Pure: the graph and the response fully determine the
// result, entries sorted by id.
func ComputeNeeded(g *taskgraph.Graph, team domain.TeamProgress, settings ViewSettings) NeededView {
	hidden := make(map[string]struct{}, len(team.Meta.HiddenTeammates))
	for _, id := range team.Meta.HiddenTeammates {
		hidden[id] = struct{}{}
	}
	var members []memberState
	for _, fp := range team.Data {
		if _, skip := hidden[fp.UserID]; skip {
			continue
		}
		members = append(members, buildMemberState(fp))
	}

	view := NeededView{Objectives: []ObjectiveNeed{}, HideoutParts: []PartNeed{}}
	for _, taskID := range g.TaskIDs() {
		task, _ := g.Task(taskID)
		for _, obj := range task.Objectives {
			if obj.Item == nil {
				continue
			}
			if settings.HideNonFIR && suppressedByFIR(obj) {
				continue
			}
			need := ObjectiveNeed{
				ObjectiveID: obj.ID,
				TaskID:      taskID,
				Item:        obj.Item,
				FoundInRaid: obj.FoundInRaid,
				NeededBy:    nil,
			}
			for _, member := range members {
				if remaining, ok := memberNeedsObjective(member, task, obj); ok {
					need.NeededBy = append(need.NeededBy, NeededEntry{UserID: member.id, Remaining: remaining})
				}
			}
			if len(need.NeededBy) > 0 {
				view.Objectives = append(view.Objectives, need)
			}
		}
	}

	if !settings.HideHideout {
		view.HideoutParts = neededParts(g, members)
	}

	sort.Slice(view.Objectives, func(i, j int) bool { return view.Objectives[i].ObjectiveID < view.Objectives[j].ObjectiveID })
	sort.Slice(view.HideoutParts, func(i, j int) bool { return view.HideoutParts[i].PartID < view.HideoutParts[j].PartID })
	return view
}

// suppressedByFIR reports whether the found-in-raid filter drops the
// objective. Handover objectives survive only with the flag set; mark,
// weapon-build, and plant objectives never do.
func suppressedByFIR(obj domain.Objective) bool {
	switch obj.Type {
	case domain.ObjectiveMark, domain.ObjectiveBuildWeapon, domain.ObjectivePlantItem:
		return true
	case domain.ObjectiveGiveItem:
		return !obj.FoundInRaid
	}
	return false
}

func memberNeedsObjective(member memberState, task domain.Task, obj domain.Objective) (int, bool) {
	if task.Faction != "" && !task.Faction.Matches(member.faction) {
		return 0, false
	}
	taskState := member.tasks[task.ID]
	if taskState.Complete || taskState.Failed {
		return 0, false
	}
	objState := member.objectives[obj.ID]
	if objState.Complete {
		return 0, false
	}
	remaining := obj.RequiredCount - objState.Count
	if obj.RequiredCount == 0 {
		remaining = 1
	}
	if remaining <= 0 {
		return 0, false
	}
	return remaining, true
}

func neededParts(g *taskgraph.Graph, members []memberState) []PartNeed {
	out := []PartNeed{}
	for _, levelID := range hideoutLevelIDs(g) {
		level, _ := g.HideoutLevel(levelID)
		for _, part := range level.ItemRequirements {
			need := PartNeed{PartID: part.ID, ModuleID: level.ID, ItemID: part.Item}
			for _, member := range members {
				if member.modules[level.ID].Complete {
					continue
				}
				partState := member.parts[part.ID]
				if partState.Complete {
					continue
				}
				remaining := part.Count - partState.Count
				if remaining <= 0 {
					continue
				}
				need.NeededBy = append(need.NeededBy, NeededEntry{UserID: member.id, Remaining: remaining})
			}
			if len(need.NeededBy) > 0 {
				out = append(out, need)
			}
		}
	}
	return out
}

func hideoutLevelIDs(g *taskgraph.Graph) []string {
	ids := g.HideoutLevelIDs()
	sort.Strings(ids)
	return ids
}

func buildMemberState(fp domain.FormattedProgress) memberState {
	state := memberState{
		id:         fp.UserID,
		faction:    fp.PMCFaction,
		tasks:      make(map[string]domain.TaskProgressItem, len(fp.TasksProgress)),
		objectives: make(map[string]domain.ObjectiveProgressItem, len(fp.TaskObjectivesProgress)),
		modules:    make(map[string]domain.ModuleProgressItem, len(fp.HideoutModulesProgress)),
		parts:      make(map[string]domain.PartProgressItem, len(fp.HideoutPartsProgress)),
	}
	for _, item := range fp.TasksProgress {
		state.tasks[item.ID] = item
	}
	for _, item := range fp.TaskObjectivesProgress {
		state.objectives[item.ID] = item
	}
	for _, item := range fp.HideoutModulesProgress {
		state.modules[item.ID] = item
	}
	for _, item := range fp.HideoutPartsProgress {
		state.parts[item.ID] = item
	}
	return state
}
