package services

import (
	"github.com/edulink/backend/internal/models"
	"go.uber.org/zap"
)

// AuditLogger writes one structured line per committed ledger entry or
// application transition, and per failed ledger operation.
type AuditLogger struct {
	logger *zap.Logger
}

func NewAuditLogger(logger *zap.Logger) *AuditLogger {
	return &AuditLogger{logger: logger.Named("audit")}
}

func (a *AuditLogger) LogTransaction(entry *models.CreditTransaction) {
	a.logger.Info("AUDIT",
		zap.String("event_type", string(entry.Kind)),
		zap.String("transaction_id", entry.ID),
		zap.String("account_id", entry.AccountID),
		zap.Int64("amount", entry.Amount),
		zap.Int64("resulting_balance", entry.ResultingBalance),
		zap.Int64("sequence", entry.Sequence),
		zap.String("related_entity_id", entry.RelatedEntityID),
		zap.String("status", "SUCCESS"))
}

func (a *AuditLogger) LogTransition(app *models.TeacherApplication, t models.Transition) {
	a.logger.Info("AUDIT",
		zap.String("event_type", "application."+string(t.Event)),
		zap.String("application_id", app.ID),
		zap.String("account_id", app.TeacherID),
		zap.String("from", string(t.From)),
		zap.String("to", string(t.To)),
		zap.String("actor", t.Actor),
		zap.String("status", "SUCCESS"))
}

func (a *AuditLogger) LogOperation(accountID, operation, details string) {
	a.logger.Info("AUDIT",
		zap.String("event_type", operation),
		zap.String("account_id", accountID),
		zap.String("status", "SUCCESS"),
		zap.String("details", details))
}

func (a *AuditLogger) LogError(operation, accountID string, err error) {
	a.logger.Warn("AUDIT",
		zap.String("event_type", "ERROR"),
		zap.String("operation", operation),
		zap.String("account_id", accountID),
		zap.String("status", "FAILED"),
		zap.Error(err))
}
