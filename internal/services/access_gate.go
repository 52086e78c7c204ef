package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edulink/backend/internal/models"
	"github.com/edulink/backend/internal/store"
)

// UnlockCost is the credit price of one contact unlock.
const UnlockCost int64 = 1

// AccessGate decides whether a protected action is permitted right now.
// It only reads; the caller performs any charge the decision names.
type AccessGate struct {
	store store.Reader
	now   func() time.Time
}

func NewAccessGate(r store.Reader) *AccessGate {
	return &AccessGate{store: r, now: time.Now}
}

func (g *AccessGate) Check(ctx context.Context, accountID string, action models.Action) (models.AccessDecision, error) {
	decision, err := g.evaluate(ctx, g.store, accountID, action)
	return decision, surface(err)
}

// evaluate computes the decision against r, which may be a transaction.
func (g *AccessGate) evaluate(ctx context.Context, r store.Reader, accountID string, action models.Action) (models.AccessDecision, error) {
	var account models.Account
	if err := read(ctx, r, store.Accounts, accountID, &account, ErrAccountNotFound); err != nil {
		return models.AccessDecision{}, err
	}
	if !account.Active {
		return deny(models.ReasonAccountInactive, 0), nil
	}

	switch action.Kind {
	case models.ActionViewJobListings:
		if IsPremium(&account, g.now()) {
			return allow(models.ReasonAllowed, 0), nil
		}
		return deny(models.ReasonSubscriptionExpired, 0), nil

	case models.ActionUnlockContact:
		if action.TargetID == "" || action.TargetID == accountID {
			return deny(models.ReasonInvalidTarget, 0), nil
		}
		var target models.Account
		err := read(ctx, r, store.Accounts, action.TargetID, &target, ErrAccountNotFound)
		if errors.Is(err, ErrAccountNotFound) {
			return deny(models.ReasonInvalidTarget, 0), nil
		}
		if err != nil {
			return models.AccessDecision{}, err
		}

		var unlock models.Unlock
		err = read(ctx, r, store.Unlocks, unlockKey(accountID, action.TargetID), &unlock, errNoUnlock)
		if err == nil && unlock.Active() {
			return allow(models.ReasonAlreadyUnlocked, 0), nil
		}
		if err != nil && err != errNoUnlock {
			return models.AccessDecision{}, err
		}

		if account.CreditBalance >= UnlockCost {
			return allow(models.ReasonAllowed, UnlockCost), nil
		}
		return deny(models.ReasonInsufficientCredits, UnlockCost), nil
	}

	return models.AccessDecision{}, fmt.Errorf("action %q: %w", action.Kind, ErrInvalidRequest)
}

func allow(reason models.DecisionReason, charge int64) models.AccessDecision {
	return models.AccessDecision{Allowed: true, Reason: reason, ChargeCredits: charge}
}

func deny(reason models.DecisionReason, charge int64) models.AccessDecision {
	return models.AccessDecision{Allowed: false, Reason: reason, ChargeCredits: charge}
}
