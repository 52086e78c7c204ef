package services

import (
	"context"
	"fmt"
	"time"

	"github.com/edulink/backend/internal/models"
	"github.com/edulink/backend/internal/store"
	"go.uber.org/zap"
)

// Notifier receives events after the mutation they describe has committed.
type Notifier interface {
	Dispatch(ctx context.Context, events ...models.NotificationEvent)
}

type AccountService struct {
	tx     *TxRunner
	audit  *AuditLogger
	logger *zap.Logger
	now    func() time.Time
}

func NewAccountService(runner *TxRunner, audit *AuditLogger, logger *zap.Logger) *AccountService {
	return &AccountService{
		tx:     runner,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// Register creates the account for id. Registering an existing account
// returns it unchanged with created == false.
func (s *AccountService) Register(ctx context.Context, accountID string, role models.Role) (*models.Account, bool, error) {
	if accountID == "" || accountID == models.AdminQueue {
		return nil, false, fmt.Errorf("register %q: %w", accountID, ErrInvalidRequest)
	}
	if !role.Valid() {
		return nil, false, fmt.Errorf("register role %q: %w", role, ErrInvalidRequest)
	}

	var (
		account models.Account
		created bool
	)
	err := s.tx.Run(ctx, "register account", func(tx store.Tx) error {
		created = false
		err := read(ctx, tx, store.Accounts, accountID, &account, ErrAccountNotFound)
		if err == nil {
			return nil
		}
		if err != ErrAccountNotFound {
			return err
		}

		now := s.now().UTC()
		account = models.Account{
			ID:               accountID,
			Role:             role,
			SubscriptionTier: models.TierFree,
			Active:           true,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		created = true
		return tx.Set(store.Accounts, accountID, account)
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.audit.LogOperation(accountID, "account.registered", string(role))
	}
	return &account, created, nil
}

func (s *AccountService) GetAccount(ctx context.Context, accountID string) (*models.AccountView, error) {
	var account models.Account
	if err := read(ctx, s.tx.Store(), store.Accounts, accountID, &account, ErrAccountNotFound); err != nil {
		return nil, surface(err)
	}
	return &models.AccountView{
		Account:   account,
		IsPremium: IsPremium(&account, s.now()),
	}, nil
}

// Deactivate marks the account inactive. Its ledger stays readable.
func (s *AccountService) Deactivate(ctx context.Context, accountID string) (*models.Account, error) {
	var account models.Account
	err := s.tx.Run(ctx, "deactivate account", func(tx store.Tx) error {
		if err := read(ctx, tx, store.Accounts, accountID, &account, ErrAccountNotFound); err != nil {
			return err
		}
		if !account.Active {
			return nil
		}
		account.Active = false
		account.UpdatedAt = s.now().UTC()
		return tx.Set(store.Accounts, accountID, account)
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogOperation(accountID, "account.deactivated", "")
	return &account, nil
}

// loadActive reads the account inside tx and rejects inactive ones.
func loadActive(ctx context.Context, tx store.Reader, accountID string) (*models.Account, error) {
	var account models.Account
	if err := read(ctx, tx, store.Accounts, accountID, &account, ErrAccountNotFound); err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, fmt.Errorf("account %s: %w", accountID, ErrAccountInactive)
	}
	return &account, nil
}
