package services

import (
	"context"
	"fmt"
	"time"

	"github.com/edulink/backend/internal/models"
	"github.com/edulink/backend/internal/notify"
	"github.com/edulink/backend/internal/store"
	"go.uber.org/zap"
)

// IsPremium evaluates the subscription against now. The tier flag alone is
// never trusted.
func IsPremium(account *models.Account, now time.Time) bool {
	return account.SubscriptionTier == models.TierPremium &&
		account.SubscriptionExpiresAt != nil &&
		now.Before(*account.SubscriptionExpiresAt)
}

type SubscriptionService struct {
	tx       *TxRunner
	notifier Notifier
	audit    *AuditLogger
	logger   *zap.Logger
	now      func() time.Time
}

func NewSubscriptionService(runner *TxRunner, notifier Notifier, audit *AuditLogger, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{
		tx:       runner,
		notifier: notifier,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *SubscriptionService) IsPremium(ctx context.Context, accountID string) (bool, error) {
	var account models.Account
	if err := read(ctx, s.tx.Store(), store.Accounts, accountID, &account, ErrAccountNotFound); err != nil {
		return false, surface(err)
	}
	return IsPremium(&account, s.now()), nil
}

// Grant makes the account premium for durationDays from now. A re-grant
// replaces the previous expiry instead of extending it.
func (s *SubscriptionService) Grant(ctx context.Context, accountID string, durationDays int) (*models.Account, error) {
	if durationDays <= 0 {
		return nil, fmt.Errorf("duration %d days: %w", durationDays, ErrInvalidRequest)
	}

	var account models.Account
	err := s.tx.Run(ctx, "grant subscription", func(tx store.Tx) error {
		if err := read(ctx, tx, store.Accounts, accountID, &account, ErrAccountNotFound); err != nil {
			return err
		}
		now := s.now().UTC()
		expires := now.AddDate(0, 0, durationDays)
		account.SubscriptionTier = models.TierPremium
		account.SubscriptionExpiresAt = &expires
		account.UpdatedAt = now
		return tx.Set(store.Accounts, accountID, account)
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogOperation(accountID, "subscription.granted", fmt.Sprintf("%d days", durationDays))
	s.notify(ctx, &account, models.CategorySubscriptionGranted)
	return &account, nil
}

func (s *SubscriptionService) Revoke(ctx context.Context, accountID string) (*models.Account, error) {
	var account models.Account
	err := s.tx.Run(ctx, "revoke subscription", func(tx store.Tx) error {
		if err := read(ctx, tx, store.Accounts, accountID, &account, ErrAccountNotFound); err != nil {
			return err
		}
		account.SubscriptionTier = models.TierFree
		account.SubscriptionExpiresAt = nil
		account.UpdatedAt = s.now().UTC()
		return tx.Set(store.Accounts, accountID, account)
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogOperation(accountID, "subscription.revoked", "")
	s.notify(ctx, &account, models.CategorySubscriptionRevoked)
	return &account, nil
}

func (s *SubscriptionService) notify(ctx context.Context, account *models.Account, category models.NotificationCategory) {
	payload := map[string]any{
		"subscriptionTier":      account.SubscriptionTier,
		"subscriptionExpiresAt": account.SubscriptionExpiresAt,
	}
	var expires int64
	if account.SubscriptionExpiresAt != nil {
		expires = account.SubscriptionExpiresAt.UnixNano()
	}
	source := fmt.Sprintf("subscription:%s:%d:%d", account.SubscriptionTier, account.UpdatedAt.UnixNano(), expires)
	event, err := notify.NewEvent(account.ID, source, category, payload, account.UpdatedAt)
	if err != nil {
		s.logger.Error("failed to build notification", zap.String("account_id", account.ID), zap.Error(err))
		return
	}
	s.notifier.Dispatch(ctx, event)
}
