package core

import (
	"context"
	"strings"

	"questcore/pkg/domain"
)

const maxDisplayNameLength = 32

// SetDisplayName updates the name teammates see for this user.
func (s *Service) SetDisplayName(ctx context.Context, userID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ValidationError{Field: "displayName", Reason: "must not be empty"}
	}
	if len(name) > maxDisplayNameLength {
		return domain.ValidationError{Field: "displayName", Reason: "too long"}
	}
	return s.transact(ctx, "set_display_name", func(tx domain.Transaction, _ *outbox) error {
		if _, err := tx.EnsureAccount(userID); err != nil {
			return err
		}
		_, err := tx.UpdateAccount(userID, func(a *domain.UserAccount) error {
			a.DisplayName = name
			return nil
		})
		return err
	})
}

// SetPMCFaction records the user's faction, which gates faction-restricted
// tasks in availability and needed-item views.
func (s *Service) SetPMCFaction(ctx context.Context, userID string, faction domain.Faction) error {
	if faction != domain.FactionUSEC && faction != domain.FactionBEAR {
		return domain.ValidationError{Field: "pmcFaction", Reason: "must be USEC or BEAR"}
	}
	return s.transact(ctx, "set_pmc_faction", func(tx domain.Transaction, _ *outbox) error {
		if _, err := tx.EnsureAccount(userID); err != nil {
			return err
		}
		_, err := tx.UpdateAccount(userID, func(a *domain.UserAccount) error {
			a.PMCFaction = faction
			return nil
		})
		return err
	})
}

// SetProgressHidden toggles whether teammates see this user's progress.
// Hidden members stay on the roster with collapsed progress arrays.
func (s *Service) SetProgressHidden(ctx context.Context, userID string, hidden bool) error {
	return s.transact(ctx, "set_progress_hidden", func(tx domain.Transaction, _ *outbox) error {
		if _, err := tx.EnsureAccount(userID); err != nil {
			return err
		}
		_, err := tx.UpdateAccount(userID, func(a *domain.UserAccount) error {
			a.HideProgress = hidden
			return nil
		})
		return err
	})
}

// DeleteUserData removes the user's account and every progress record,
// leaving their team first when they belong to one. Unknown users are a
// no-op.
func (s *Service) DeleteUserData(ctx context.Context, userID string) error {
	return s.transact(ctx, "delete_user_data", func(tx domain.Transaction, _ *outbox) error {
		account, ok := tx.Snapshot().FindAccount(userID)
		if !ok {
			return nil
		}
		if account.TeamID != "" {
			if err := s.leaveTeamTx(tx, userID); err != nil {
				return err
			}
		}
		for _, mode := range domain.GameModes() {
			if _, ok := tx.Snapshot().FindProgress(userID, mode); !ok {
				continue
			}
			if err := tx.DeleteProgress(userID, mode); err != nil {
				return err
			}
		}
		return tx.DeleteAccount(userID)
	})
}
