package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"questcore/pkg/domain"
)

const minTeamPasswordLength = 4

// CreateTeamOptions carries the caller-tunable team parameters. An empty
// password gets a generated one.
type CreateTeamOptions struct {
	Password       string
	MaximumMembers int
}

// CreateTeam creates a team owned by the user and enrolls them as its first
// member. Users already on a team must leave first.
func (s *Service) CreateTeam(ctx context.Context, userID string, opts CreateTeamOptions) (domain.Team, error) {
	if opts.MaximumMembers < domain.TeamMinimumCapacity || opts.MaximumMembers > domain.TeamMaximumCapacity {
		return domain.Team{}, domain.ValidationError{
			Field:  "maximumMembers",
			Reason: fmt.Sprintf("must be between %d and %d", domain.TeamMinimumCapacity, domain.TeamMaximumCapacity),
		}
	}
	password := strings.TrimSpace(opts.Password)
	if password == "" {
		password = uuid.NewString()
	} else if len(password) < minTeamPasswordLength {
		return domain.Team{}, domain.ValidationError{
			Field:  "password",
			Reason: fmt.Sprintf("must be at least %d characters", minTeamPasswordLength),
		}
	}

	var created domain.Team
	err := s.transact(ctx, "create_team", func(tx domain.Transaction, _ *outbox) error {
		account, err := tx.EnsureAccount(userID)
		if err != nil {
			return err
		}
		if account.TeamID != "" {
			return domain.ValidationError{Field: "team", Reason: "user already belongs to a team"}
		}

		team := domain.Team{
			ID:             uuid.NewString(),
			Owner:          userID,
			Password:       password,
			MaximumMembers: opts.MaximumMembers,
			Members:        []string{userID},
			CreatedAt:      s.clock.Now(),
		}
		created, err = tx.CreateTeam(team)
		if err != nil {
			return err
		}
		_, err = tx.UpdateAccount(userID, func(a *domain.UserAccount) error {
			a.TeamID = team.ID
			return nil
		})
		return err
	})
	if err != nil {
		return domain.Team{}, err
	}
	s.logger.Info("team created", "team", created.ID, "owner", userID)
	return created, nil
}

// JoinTeam enrolls the user in an existing team, checking password and
// capacity inside the transaction so concurrent joins cannot overfill it.
func (s *Service) JoinTeam(ctx context.Context, userID, teamID, password string) (domain.Team, error) {
	teamID = strings.TrimSpace(teamID)
	password = strings.TrimSpace(password)
	if teamID == "" {
		return domain.Team{}, domain.ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if password == "" {
		return domain.Team{}, domain.ValidationError{Field: "password", Reason: "must not be empty"}
	}

	var joined domain.Team
	err := s.transact(ctx, "join_team", func(tx domain.Transaction, _ *outbox) error {
		account, err := tx.EnsureAccount(userID)
		if err != nil {
			return err
		}
		if account.TeamID != "" {
			return domain.ValidationError{Field: "team", Reason: "user already belongs to a team"}
		}
		team, ok := tx.FindTeam(teamID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityTeam, ID: teamID}
		}
		if team.Password != password {
			return domain.ValidationError{Field: "password", Reason: "does not match"}
		}
		if len(team.Members) >= team.MaximumMembers {
			return domain.ValidationError{Field: "team", Reason: "team is full"}
		}

		joined, err = tx.UpdateTeam(teamID, func(t *domain.Team) error {
			if !t.HasMember(userID) {
				t.Members = append(t.Members, userID)
			}
			return nil
		})
		if err != nil {
			return err
		}
		_, err = tx.UpdateAccount(userID, func(a *domain.UserAccount) error {
			a.TeamID = teamID
			return nil
		})
		return err
	})
	if err != nil {
		return domain.Team{}, err
	}
	s.logger.Info("team joined", "team", teamID, "user", userID)
	return joined, nil
}

// LeaveTeam removes the user from their team. An emptied team is deleted;
// a departing owner hands the team to its longest-standing member.
func (s *Service) LeaveTeam(ctx context.Context, userID string) error {
	return s.transact(ctx, "leave_team", func(tx domain.Transaction, _ *outbox) error {
		return s.leaveTeamTx(tx, userID)
	})
}

func (s *Service) leaveTeamTx(tx domain.Transaction, userID string) error {
	account, err := tx.EnsureAccount(userID)
	if err != nil {
		return err
	}
	if account.TeamID == "" {
		return domain.ValidationError{Field: "team", Reason: "user does not belong to a team"}
	}
	team, ok := tx.FindTeam(account.TeamID)
	if !ok {
		// Dangling pointer; clear it and move on.
		_, err := tx.UpdateAccount(userID, func(a *domain.UserAccount) error {
			a.TeamID = ""
			return nil
		})
		return err
	}

	remaining := make([]string, 0, len(team.Members))
	for _, member := range team.Members {
		if member != userID {
			remaining = append(remaining, member)
		}
	}

	if len(remaining) == 0 {
		if err := tx.DeleteTeam(team.ID); err != nil {
			return err
		}
	} else {
		owner := team.Owner
		if owner == userID {
			owner = s.pickNewOwner(tx, remaining)
		}
		if _, err := tx.UpdateTeam(team.ID, func(t *domain.Team) error {
			t.Members = remaining
			t.Owner = owner
			return nil
		}); err != nil {
			return err
		}
	}

	_, err = tx.UpdateAccount(userID, func(a *domain.UserAccount) error {
		a.TeamID = ""
		return nil
	})
	return err
}

// pickNewOwner selects the member with the earliest account creation time,
// breaking ties by lexically smallest id.
func (s *Service) pickNewOwner(tx domain.Transaction, members []string) string {
	view := tx.Snapshot()
	best := members[0]
	bestAccount, _ := view.FindAccount(best)
	for _, member := range members[1:] {
		account, ok := view.FindAccount(member)
		if !ok {
			continue
		}
		switch {
		case account.CreatedAt.Before(bestAccount.CreatedAt):
			best, bestAccount = member, account
		case account.CreatedAt.Equal(bestAccount.CreatedAt) && member < best:
			best, bestAccount = member, account
		}
	}
	return best
}

// GetTeamProgress returns the formatted progress of every member of the
// requester's team in the given mode. Members hiding their progress keep a
// roster entry with collapsed arrays and are listed in the response meta.
// Users without a team get a single-entry view of themselves.
func (s *Service) GetTeamProgress(ctx context.Context, userID string, mode domain.GameMode) (domain.TeamProgress, error) {
	if !mode.Valid() {
		return domain.TeamProgress{}, domain.ValidationError{Field: "gameMode", Reason: "must be pvp or pve"}
	}
	ctx, span := s.tracer.Start(ctx, "get_team_progress")
	started := s.clock.Now()

	result := domain.TeamProgress{
		Meta: domain.TeamProgressMeta{Self: userID, HiddenTeammates: []string{}},
	}
	err := s.store.View(ctx, func(view domain.RuleView) error {
		account, ok := view.FindAccount(userID)
		if !ok {
			account = domain.UserAccount{ID: userID}
		}

		members := []string{userID}
		if account.TeamID != "" {
			if team, ok := view.FindTeam(account.TeamID); ok {
				members = team.Members
			}
		}

		for _, member := range members {
			memberAccount, ok := view.FindAccount(member)
			if !ok {
				memberAccount = domain.UserAccount{ID: member}
			}
			record, ok := view.FindProgress(member, mode)
			if !ok {
				record = domain.NewMinimalProgress(member, mode)
			}
			formatted := formatProgress(memberAccount, record)
			if member != userID && memberAccount.HideProgress {
				formatted = collapseProgress(formatted)
				result.Meta.HiddenTeammates = append(result.Meta.HiddenTeammates, member)
			}
			result.Data = append(result.Data, formatted)
		}
		return nil
	})

	s.metrics.Observe(ctx, "get_team_progress", err == nil, s.clock.Now().Sub(started))
	span.End(err)
	if err != nil {
		return domain.TeamProgress{}, err
	}
	return result, nil
}
