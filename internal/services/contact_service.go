package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edulink/backend/internal/models"
	"github.com/edulink/backend/internal/store"
	"go.uber.org/zap"
)

var errNoUnlock = errors.New("no unlock record")

func unlockKey(accountID, targetID string) string {
	return accountID + ":" + targetID
}

// UnlockResult is the outcome of a successful unlock. Transaction is nil
// when the target was already unlocked and nothing was charged.
type UnlockResult struct {
	Decision    models.AccessDecision     `json:"decision"`
	Unlock      models.Unlock             `json:"unlock"`
	Transaction *models.CreditTransaction `json:"transaction,omitempty"`
}

// ContactService charges for contact unlocks through the access gate and
// the credit ledger.
type ContactService struct {
	tx      *TxRunner
	gate    *AccessGate
	credits *CreditService
	audit   *AuditLogger
	logger  *zap.Logger
}

func NewContactService(runner *TxRunner, gate *AccessGate, credits *CreditService, audit *AuditLogger, logger *zap.Logger) *ContactService {
	return &ContactService{
		tx:      runner,
		gate:    gate,
		credits: credits,
		audit:   audit,
		logger:  logger,
	}
}

// UnlockContact charges UnlockCost the first time accountID unlocks
// targetID. The gate decision is re-evaluated inside the charging
// transaction so concurrent unlocks of one target charge once.
func (s *ContactService) UnlockContact(ctx context.Context, accountID, targetID string) (*UnlockResult, error) {
	action := models.UnlockContact(targetID)

	decision, err := s.gate.Check(ctx, accountID, action)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		err := decisionError(decision)
		s.credits.reject("unlock", accountID, err)
		return nil, err
	}

	var result UnlockResult
	err = s.tx.Run(ctx, "unlock contact", func(tx store.Tx) error {
		result = UnlockResult{}

		d, err := s.gate.evaluate(ctx, tx, accountID, action)
		if err != nil {
			return err
		}
		if !d.Allowed {
			return decisionError(d)
		}
		result.Decision = d

		key := unlockKey(accountID, targetID)
		if d.ChargeCredits == 0 {
			return read(ctx, tx, store.Unlocks, key, &result.Unlock, errNoUnlock)
		}

		entry, err := s.credits.ConsumeTx(ctx, tx, accountID, d.ChargeCredits, targetID)
		if err != nil {
			return err
		}
		result.Transaction = entry
		result.Unlock = models.Unlock{
			AccountID:     accountID,
			TargetID:      targetID,
			TransactionID: entry.ID,
			UnlockedAt:    entry.CreatedAt,
		}
		return tx.Set(store.Unlocks, key, result.Unlock)
	})
	if err != nil {
		s.credits.reject("unlock", accountID, err)
		return nil, err
	}

	if result.Transaction != nil {
		s.credits.committed(ctx, result.Transaction)
		s.logger.Info("contact unlocked",
			zap.String("account_id", accountID),
			zap.String("target_id", targetID),
			zap.String("transaction_id", result.Transaction.ID))
	}
	return &result, nil
}

// Unlocked reports whether accountID holds an active unlock for targetID.
func (s *ContactService) Unlocked(ctx context.Context, accountID, targetID string) (bool, error) {
	var unlock models.Unlock
	err := read(ctx, s.tx.Store(), store.Unlocks, unlockKey(accountID, targetID), &unlock, errNoUnlock)
	if err == errNoUnlock {
		return false, nil
	}
	if err != nil {
		return false, surface(err)
	}
	return unlock.Active(), nil
}

func decisionError(d models.AccessDecision) error {
	switch d.Reason {
	case models.ReasonInsufficientCredits:
		return ErrInsufficientCredits
	case models.ReasonAccountInactive:
		return ErrAccountInactive
	case models.ReasonInvalidTarget:
		return ErrInvalidTarget
	}
	return fmt.Errorf("access denied (%s): %w", d.Reason, ErrForbidden)
}

// revokeUnlock marks the unlock paid for by transactionID as revoked.
func revokeUnlock(ctx context.Context, tx store.Tx, accountID, targetID, transactionID string, at time.Time) error {
	key := unlockKey(accountID, targetID)

	var unlock models.Unlock
	err := read(ctx, tx, store.Unlocks, key, &unlock, errNoUnlock)
	if err == errNoUnlock {
		return nil
	}
	if err != nil {
		return err
	}
	if unlock.TransactionID != transactionID || !unlock.Active() {
		return nil
	}

	unlock.RevokedAt = &at
	return tx.Set(store.Unlocks, key, unlock)
}
