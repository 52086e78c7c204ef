package models

import (
	"encoding/json"
	"time"
)

type NotificationCategory string

const (
	CategoryCreditPurchase      NotificationCategory = "credit.purchase"
	CategoryCreditConsume       NotificationCategory = "credit.consume"
	CategoryCreditRefund        NotificationCategory = "credit.refund"
	CategoryApplicationCreated  NotificationCategory = "application.created"
	CategoryApplicationSubmit   NotificationCategory = "application.submitted"
	CategoryApplicationReview   NotificationCategory = "application.review_requested"
	CategoryApplicationApproved NotificationCategory = "application.approved"
	CategoryApplicationRejected NotificationCategory = "application.rejected"
	CategoryApplicationEdited   NotificationCategory = "application.edited"
	CategorySubscriptionGranted NotificationCategory = "subscription.granted"
	CategorySubscriptionRevoked NotificationCategory = "subscription.revoked"
)

// AdminQueue is the pseudo account id review requests are addressed to.
const AdminQueue = "admin-queue"

// NotificationEvent is derived from exactly one committed mutation. EventID
// is deterministic so receivers can discard redeliveries.
type NotificationEvent struct {
	EventID   string               `json:"eventId"`
	AccountID string               `json:"accountId"`
	Category  NotificationCategory `json:"category"`
	Payload   json.RawMessage      `json:"payload"`
	CreatedAt time.Time            `json:"createdAt"`
}
