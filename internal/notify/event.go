// Package notify turns committed mutations into notification events and
// hands them to a transport with at-least-once semantics.
package notify

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/edulink/backend/internal/models"
)

// EventID derives the event identity from the mutation that produced it, so
// a redelivered event carries the same id.
func EventID(sourceID string, category models.NotificationCategory) string {
	sum := sha256.Sum256([]byte(sourceID + "|" + string(category)))
	return hex.EncodeToString(sum[:16])
}

// NewEvent builds an event addressed to accountID.
func NewEvent(accountID, sourceID string, category models.NotificationCategory, payload any, at time.Time) (models.NotificationEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return models.NotificationEvent{}, fmt.Errorf("encode %s payload: %w", category, err)
	}

	return models.NotificationEvent{
		EventID:   EventID(accountID+"|"+sourceID, category),
		AccountID: accountID,
		Category:  category,
		Payload:   body,
		CreatedAt: at.UTC(),
	}, nil
}
