package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edulink/backend/internal/config"
	"github.com/edulink/backend/internal/metrics"
	"github.com/edulink/backend/internal/models"
	"github.com/edulink/backend/internal/notify"
	"github.com/edulink/backend/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	refundPrefix      = "refund-"
	maxIdempotencyKey = 128
)

// CreditService is the per-account prepaid credit ledger. Every balance
// change is one store transaction that appends a CreditTransaction, indexes
// it by sequence, and rewrites the account head.
type CreditService struct {
	tx       *TxRunner
	catalog  *config.Catalog
	notifier Notifier
	audit    *AuditLogger
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

func NewCreditService(runner *TxRunner, catalog *config.Catalog, notifier Notifier, audit *AuditLogger, logger *zap.Logger) *CreditService {
	return &CreditService{
		tx:       runner,
		catalog:  catalog,
		notifier: notifier,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func txKey(accountID, transactionID string) string {
	return accountID + ":" + transactionID
}

func ledgerKey(accountID string, seq int64) string {
	return fmt.Sprintf("%s:%012d", accountID, seq)
}

// Packages returns the credit catalog.
func (s *CreditService) Packages() []models.CreditPackage {
	return s.catalog.Packages()
}

// Purchase grants the package's credits plus bonus. The idempotency key is
// the transaction id: a repeated key returns the stored transaction with
// replayed == true and changes nothing.
func (s *CreditService) Purchase(ctx context.Context, accountID, packageID, idempotencyKey string) (*models.CreditTransaction, bool, error) {
	pkg, ok := s.catalog.Lookup(packageID)
	if !ok {
		err := fmt.Errorf("package %q: %w", packageID, ErrInvalidPackage)
		s.reject("purchase", accountID, err)
		return nil, false, err
	}
	if err := validateIdempotencyKey(idempotencyKey); err != nil {
		return nil, false, err
	}

	var (
		entry    models.CreditTransaction
		replayed bool
	)
	err := s.tx.Run(ctx, "purchase credits", func(tx store.Tx) error {
		replayed = false
		err := read(ctx, tx, store.CreditTransactions, txKey(accountID, idempotencyKey), &entry, ErrTransactionNotFound)
		if err == nil {
			if entry.Kind != models.KindPurchase {
				return fmt.Errorf("idempotency key %q already used: %w", idempotencyKey, ErrInvalidRequest)
			}
			replayed = true
			return nil
		}
		if err != ErrTransactionNotFound {
			return err
		}

		account, err := loadActive(ctx, tx, accountID)
		if err != nil {
			return err
		}
		entry = models.CreditTransaction{
			ID:        idempotencyKey,
			Kind:      models.KindPurchase,
			Amount:    pkg.Total(),
			PackageID: pkg.ID,
			CreatedAt: s.now().UTC(),
		}
		return appendEntry(tx, account, &entry)
	})
	if err != nil {
		s.reject("purchase", accountID, err)
		return nil, false, err
	}

	if replayed {
		s.logger.Info("purchase replayed",
			zap.String("account_id", accountID),
			zap.String("transaction_id", entry.ID))
		return &entry, true, nil
	}
	s.committed(ctx, &entry)
	return &entry, false, nil
}

// Consume debits amount credits or fails with ErrInsufficientCredits
// without touching the account.
func (s *CreditService) Consume(ctx context.Context, accountID string, amount int64, relatedEntityID string) (*models.CreditTransaction, error) {
	var entry *models.CreditTransaction
	err := s.tx.Run(ctx, "consume credits", func(tx store.Tx) error {
		var err error
		entry, err = s.ConsumeTx(ctx, tx, accountID, amount, relatedEntityID)
		return err
	})
	if err != nil {
		s.reject("consume", accountID, err)
		return nil, err
	}

	s.committed(ctx, entry)
	return entry, nil
}

// ConsumeTx is Consume inside a caller-owned transaction. The caller
// reports the entry once its transaction commits.
func (s *CreditService) ConsumeTx(ctx context.Context, tx store.Tx, accountID string, amount int64, relatedEntityID string) (*models.CreditTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("consume %d: %w", amount, ErrInvalidAmount)
	}

	account, err := loadActive(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	if account.CreditBalance < amount {
		return nil, fmt.Errorf("balance %d, requested %d: %w", account.CreditBalance, amount, ErrInsufficientCredits)
	}

	entry := &models.CreditTransaction{
		ID:              s.newID(),
		Kind:            models.KindConsume,
		Amount:          -amount,
		RelatedEntityID: relatedEntityID,
		CreatedAt:       s.now().UTC(),
	}
	if err := appendEntry(tx, account, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Refund reverses a consume. A consume that paid for an unlock also
// revokes that unlock.
func (s *CreditService) Refund(ctx context.Context, accountID, transactionID string) (*models.CreditTransaction, error) {
	var entry models.CreditTransaction
	err := s.tx.Run(ctx, "refund credits", func(tx store.Tx) error {
		var original models.CreditTransaction
		if err := read(ctx, tx, store.CreditTransactions, txKey(accountID, transactionID), &original, ErrTransactionNotFound); err != nil {
			return err
		}
		if original.Kind != models.KindConsume {
			return fmt.Errorf("transaction %s is a %s: %w", transactionID, original.Kind, ErrTransactionNotFound)
		}

		refundID := refundPrefix + original.ID
		var existing models.CreditTransaction
		err := read(ctx, tx, store.CreditTransactions, txKey(accountID, refundID), &existing, ErrTransactionNotFound)
		if err == nil {
			return fmt.Errorf("transaction %s: %w", transactionID, ErrAlreadyRefunded)
		}
		if err != ErrTransactionNotFound {
			return err
		}

		var account models.Account
		if err := read(ctx, tx, store.Accounts, accountID, &account, ErrAccountNotFound); err != nil {
			return err
		}

		now := s.now().UTC()
		entry = models.CreditTransaction{
			ID:              refundID,
			Kind:            models.KindRefund,
			Amount:          -original.Amount,
			RelatedEntityID: original.RelatedEntityID,
			RefundOf:        original.ID,
			CreatedAt:       now,
		}
		if err := appendEntry(tx, &account, &entry); err != nil {
			return err
		}
		if original.RelatedEntityID == "" {
			return nil
		}
		return revokeUnlock(ctx, tx, accountID, original.RelatedEntityID, original.ID, now)
	})
	if err != nil {
		s.reject("refund", accountID, err)
		return nil, err
	}

	s.committed(ctx, &entry)
	return &entry, nil
}

// History returns the account's ledger in append order.
func (s *CreditService) History(ctx context.Context, accountID string) ([]models.CreditTransaction, error) {
	st := s.tx.Store()

	var account models.Account
	if err := read(ctx, st, store.Accounts, accountID, &account, ErrAccountNotFound); err != nil {
		return nil, surface(err)
	}

	entries := make([]models.CreditTransaction, 0, account.LedgerLength)
	for seq := int64(1); seq <= account.LedgerLength; seq++ {
		missing := fmt.Errorf("ledger %s position %d: %w", accountID, seq, ErrTransactionNotFound)

		var ptr models.LedgerPointer
		if err := read(ctx, st, store.LedgerIndex, ledgerKey(accountID, seq), &ptr, missing); err != nil {
			return nil, surface(err)
		}
		var entry models.CreditTransaction
		if err := read(ctx, st, store.CreditTransactions, txKey(accountID, ptr.TransactionID), &entry, missing); err != nil {
			return nil, surface(err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// LedgerAudit compares the live balance with a replay of the ledger.
type LedgerAudit struct {
	AccountID       string `json:"accountId"`
	LiveBalance     int64  `json:"liveBalance"`
	ReplayedBalance int64  `json:"replayedBalance"`
	Entries         int    `json:"entries"`
	Consistent      bool   `json:"consistent"`
	// FirstDivergence is the first sequence whose stored resulting balance
	// disagrees with the replay or goes negative.
	FirstDivergence int64 `json:"firstDivergence,omitempty"`
}

func (s *CreditService) VerifyBalance(ctx context.Context, accountID string) (*LedgerAudit, error) {
	var account models.Account
	if err := read(ctx, s.tx.Store(), store.Accounts, accountID, &account, ErrAccountNotFound); err != nil {
		return nil, surface(err)
	}
	entries, err := s.History(ctx, accountID)
	if err != nil {
		return nil, err
	}

	audit := &LedgerAudit{
		AccountID:   accountID,
		LiveBalance: account.CreditBalance,
		Entries:     len(entries),
	}
	for _, entry := range entries {
		if entry.Sequence > account.LedgerLength {
			break
		}
		audit.ReplayedBalance += entry.Amount
		if audit.FirstDivergence == 0 &&
			(audit.ReplayedBalance < 0 || audit.ReplayedBalance != entry.ResultingBalance) {
			audit.FirstDivergence = entry.Sequence
		}
	}
	audit.Consistent = audit.FirstDivergence == 0 && audit.ReplayedBalance == audit.LiveBalance

	if !audit.Consistent {
		s.logger.Error("ledger drift detected",
			zap.String("account_id", accountID),
			zap.Int64("live_balance", audit.LiveBalance),
			zap.Int64("replayed_balance", audit.ReplayedBalance),
			zap.Int64("first_divergence", audit.FirstDivergence))
	}
	return audit, nil
}

// appendEntry writes entry at the next ledger position and moves the
// account head to its resulting balance.
func appendEntry(tx store.Tx, account *models.Account, entry *models.CreditTransaction) error {
	balance := account.CreditBalance + entry.Amount
	if balance < 0 {
		return fmt.Errorf("balance %d, change %d: %w", account.CreditBalance, entry.Amount, ErrInsufficientCredits)
	}

	account.LedgerLength++
	account.CreditBalance = balance
	account.UpdatedAt = entry.CreatedAt

	entry.AccountID = account.ID
	entry.Sequence = account.LedgerLength
	entry.ResultingBalance = balance

	if err := tx.Set(store.CreditTransactions, txKey(account.ID, entry.ID), entry); err != nil {
		return err
	}
	if err := tx.Set(store.LedgerIndex, ledgerKey(account.ID, entry.Sequence), models.LedgerPointer{TransactionID: entry.ID}); err != nil {
		return err
	}
	return tx.Set(store.Accounts, account.ID, account)
}

// committed runs the side effects of a committed ledger entry.
func (s *CreditService) committed(ctx context.Context, entry *models.CreditTransaction) {
	metrics.RecordCreditTransaction(string(entry.Kind), entry.Amount)
	s.audit.LogTransaction(entry)

	event, err := notify.NewEvent(entry.AccountID, entry.ID, creditCategory(entry.Kind), entry, entry.CreatedAt)
	if err != nil {
		s.logger.Error("failed to build notification",
			zap.String("transaction_id", entry.ID),
			zap.Error(err))
		return
	}
	s.notifier.Dispatch(ctx, event)
}

func (s *CreditService) reject(operation, accountID string, err error) {
	metrics.RecordRejection(operation, ErrorCode(err))
	if errors.Is(err, ErrStoreUnavailable) {
		s.logger.Error("ledger operation failed",
			zap.String("operation", operation),
			zap.String("account_id", accountID),
			zap.Error(err))
		return
	}
	s.audit.LogError(operation, accountID, err)
}

func creditCategory(kind models.TransactionKind) models.NotificationCategory {
	switch kind {
	case models.KindPurchase:
		return models.CategoryCreditPurchase
	case models.KindRefund:
		return models.CategoryCreditRefund
	}
	return models.CategoryCreditConsume
}

func validateIdempotencyKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return fmt.Errorf("idempotency key is required: %w", ErrInvalidRequest)
	case len(key) > maxIdempotencyKey:
		return fmt.Errorf("idempotency key longer than %d: %w", maxIdempotencyKey, ErrInvalidRequest)
	case strings.HasPrefix(key, refundPrefix):
		return fmt.Errorf("idempotency key prefix %q is reserved: %w", refundPrefix, ErrInvalidRequest)
	}
	return nil
}
