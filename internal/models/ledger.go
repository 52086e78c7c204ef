package models

import (
	"time"
)

type TransactionKind string

const (
	KindPurchase TransactionKind = "purchase"
	KindConsume  TransactionKind = "consume"
	KindRefund   TransactionKind = "refund"
)

// CreditTransaction is an immutable ledger entry. Amount is signed:
// purchase and refund are positive, consume is negative.
type CreditTransaction struct {
	ID               string          `json:"transactionId"`
	AccountID        string          `json:"accountId"`
	Kind             TransactionKind `json:"kind"`
	Amount           int64           `json:"amount"`
	ResultingBalance int64           `json:"resultingBalance"`
	Sequence         int64           `json:"sequence"`
	PackageID        string          `json:"packageId,omitempty"`
	RelatedEntityID  string          `json:"relatedEntityId,omitempty"`
	RefundOf         string          `json:"refundOf,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// LedgerPointer maps a ledger position to the transaction stored there.
type LedgerPointer struct {
	TransactionID string `json:"transactionId"`
}

// CreditPackage is one immutable catalog entry.
type CreditPackage struct {
	ID           string `json:"packageId" mapstructure:"id" validate:"required"`
	Credits      int64  `json:"credits" mapstructure:"credits" validate:"gt=0"`
	BonusCredits int64  `json:"bonusCredits" mapstructure:"bonus_credits" validate:"gte=0"`
	PriceLabel   string `json:"priceLabel" mapstructure:"price_label" validate:"required"`
}

func (p CreditPackage) Total() int64 {
	return p.Credits + p.BonusCredits
}

// Unlock records that an account paid to see a target's contact details.
type Unlock struct {
	AccountID     string     `json:"accountId"`
	TargetID      string     `json:"targetId"`
	TransactionID string     `json:"transactionId"`
	UnlockedAt    time.Time  `json:"unlockedAt"`
	RevokedAt     *time.Time `json:"revokedAt,omitempty"`
}

func (u *Unlock) Active() bool {
	return u != nil && u.RevokedAt == nil
}
