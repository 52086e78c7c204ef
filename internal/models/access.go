package models

type ActionKind string

const (
	ActionViewJobListings ActionKind = "view_job_listings"
	ActionUnlockContact   ActionKind = "unlock_contact"
)

// Action is a protected operation. TargetID is only set for UnlockContact.
type Action struct {
	Kind     ActionKind
	TargetID string
}

func ViewJobListings() Action {
	return Action{Kind: ActionViewJobListings}
}

func UnlockContact(targetID string) Action {
	return Action{Kind: ActionUnlockContact, TargetID: targetID}
}

type DecisionReason string

const (
	ReasonAllowed             DecisionReason = "allowed"
	ReasonAlreadyUnlocked     DecisionReason = "already_unlocked"
	ReasonSubscriptionExpired DecisionReason = "subscription_expired"
	ReasonInsufficientCredits DecisionReason = "insufficient_credits"
	ReasonAccountInactive     DecisionReason = "account_inactive"
	ReasonInvalidTarget       DecisionReason = "invalid_target"
)

// AccessDecision is computed per request and never cached.
type AccessDecision struct {
	Allowed       bool           `json:"allowed"`
	Reason        DecisionReason `json:"reason"`
	ChargeCredits int64          `json:"chargeCredits"`
}
