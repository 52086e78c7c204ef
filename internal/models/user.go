package models

import "time"

// Role is the fixed set of caller roles the identity provider can assert.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleSchool  Role = "school"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleTeacher, RoleSchool, RoleAdmin:
		return true
	}
	return false
}

// SubscriptionTier gates bulk job-listing visibility.
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "free"
	TierPremium SubscriptionTier = "premium"
)

// Account is the per-user ledger head. CreditBalance is only ever changed by
// the credit engine and never drops below zero.
type Account struct {
	ID                    string           `json:"id"`
	Role                  Role             `json:"role"`
	CreditBalance         int64            `json:"creditBalance"`
	SubscriptionTier      SubscriptionTier `json:"subscriptionTier"`
	SubscriptionExpiresAt *time.Time       `json:"subscriptionExpiresAt,omitempty"`
	Active                bool             `json:"active"`
	LedgerLength          int64            `json:"ledgerLength"` // number of CreditTransactions appended
	CreatedAt             time.Time        `json:"createdAt"`
	UpdatedAt             time.Time        `json:"updatedAt"`
}

// AccountView is what callers see; IsPremium is computed at read time.
type AccountView struct {
	Account
	IsPremium bool `json:"isPremium"`
}

// Actor is the caller identity as asserted by the identity provider.
type Actor struct {
	ID   string
	Role Role
}
