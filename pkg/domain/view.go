package domain

// TaskProgressItem is one entry of a formatted progress response.
type TaskProgressItem struct {
	ID       string `json:"id"`
	Complete bool   `json:"complete"`
	Failed   bool   `json:"failed,omitempty"`
	Invalid  bool   `json:"invalid,omitempty"`
}

// ObjectiveProgressItem is one formatted objective entry.
type ObjectiveProgressItem struct {
	ID       string `json:"id"`
	Complete bool   `json:"complete"`
	Count    int    `json:"count,omitempty"`
	Invalid  bool   `json:"invalid,omitempty"`
}

// ModuleProgressItem is one formatted hideout level entry.
type ModuleProgressItem struct {
	ID       string `json:"id"`
	Complete bool   `json:"complete"`
}

// PartProgressItem is one formatted hideout part entry.
type PartProgressItem struct {
	ID       string `json:"id"`
	Complete bool   `json:"complete"`
	Count    int    `json:"count,omitempty"`
}

// FormattedProgress is the projection of one user's record returned to
// callers and teammates.
type FormattedProgress struct {
	UserID                 string                  `json:"userId"`
	DisplayName            string                  `json:"displayName"`
	PlayerLevel            int                     `json:"playerLevel"`
	GameEdition            string                  `json:"gameEdition,omitempty"`
	PMCFaction             Faction                 `json:"pmcFaction,omitempty"`
	TasksProgress          []TaskProgressItem      `json:"tasksProgress"`
	TaskObjectivesProgress []ObjectiveProgressItem `json:"taskObjectivesProgress"`
	HideoutModulesProgress []ModuleProgressItem    `json:"hideoutModulesProgress"`
	HideoutPartsProgress   []PartProgressItem      `json:"hideoutPartsProgress"`
}

// TeamProgressMeta accompanies a team progress response.
type TeamProgressMeta struct {
	Self            string   `json:"self"`
	HiddenTeammates []string `json:"hiddenTeammates"`
}

// TeamProgress is the full team aggregation result.
type TeamProgress struct {
	Data []FormattedProgress `json:"data"`
	Meta TeamProgressMeta    `json:"meta"`
}
