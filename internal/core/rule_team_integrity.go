package core

import (
	"context"
	"fmt"

	"questcore/pkg/domain"
)

// NewTeamIntegrityRule returns the in-transaction rule keeping team rosters
// and account membership pointers consistent: the owner is always a member,
// rosters respect their capacity, and every membership pointer resolves to a
// team that lists the account.
func NewTeamIntegrityRule() domain.Rule {
	return teamIntegrityRule{}
}

type teamIntegrityRule struct{}

func (teamIntegrityRule) Name() string { return "team_integrity" }

func (teamIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, team := range view.ListTeams() {
		if len(team.Members) == 0 {
			res.Violations = append(res.Violations, teamViolation(team.ID, "team has no members"))
		}
		if team.MaximumMembers > 0 && len(team.Members) > team.MaximumMembers {
			res.Violations = append(res.Violations, teamViolation(team.ID,
				fmt.Sprintf("roster %d exceeds capacity %d", len(team.Members), team.MaximumMembers)))
		}
		if !team.HasMember(team.Owner) {
			res.Violations = append(res.Violations, teamViolation(team.ID,
				fmt.Sprintf("owner %s is not a member", team.Owner)))
		}
		seen := make(map[string]struct{}, len(team.Members))
		for _, member := range team.Members {
			if _, dup := seen[member]; dup {
				res.Violations = append(res.Violations, teamViolation(team.ID,
					fmt.Sprintf("member %s listed twice", member)))
			}
			seen[member] = struct{}{}
		}
	}

	for _, account := range view.ListAccounts() {
		if account.TeamID == "" {
			continue
		}
		team, ok := view.FindTeam(account.TeamID)
		if !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "team_integrity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("account %s references missing team %s", account.ID, account.TeamID),
				Entity:   domain.EntityAccount,
				EntityID: account.ID,
			})
			continue
		}
		if !team.HasMember(account.ID) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "team_integrity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("account %s references team %s without membership", account.ID, team.ID),
				Entity:   domain.EntityAccount,
				EntityID: account.ID,
			})
		}
	}
	return res, nil
}

func teamViolation(teamID, message string) domain.Violation {
	return domain.Violation{
		Rule:     "team_integrity",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   domain.EntityTeam,
		EntityID: teamID,
	}
}
