package handlers

import (
	"net/http"

	"github.com/edulink/backend/internal/models"
	"github.com/edulink/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CreditHandler struct {
	credits   *services.CreditService
	validator *services.ValidationHelper
	logger    *zap.Logger
}

func NewCreditHandler(credits *services.CreditService, logger *zap.Logger) *CreditHandler {
	return &CreditHandler{
		credits:   credits,
		validator: services.NewValidationHelper(),
		logger:    logger,
	}
}

// PurchaseRequest represents a credit purchase
// @Description Credit purchase request. The idempotency key may also be sent as the Idempotency-Key header.
type PurchaseRequest struct {
	PackageID      string `json:"packageId" validate:"required" example:"standard"`              // Catalog package id
	IdempotencyKey string `json:"idempotencyKey" validate:"required,max=128" example:"order-42"` // Client-generated key
}

// PurchaseResponse is the outcome of a purchase
// @Description Purchase result
type PurchaseResponse struct {
	Transaction *models.CreditTransaction `json:"transaction"`
	Replayed    bool                      `json:"replayed"` // true when the key had already been processed
}

// Purchase buys a credit package
// @Summary Purchase credits
// @Description Grants credits plus bonus for a catalog package. Replaying a key returns the original transaction.
// @Tags credits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body PurchaseRequest true "Purchase request"
// @Success 201 {object} PurchaseResponse "Credits granted"
// @Success 200 {object} PurchaseResponse "Replayed purchase"
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /credits/purchase [post]
func (h *CreditHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}

	var req PurchaseRequest
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}
	if key := r.Header.Get("Idempotency-Key"); key != "" && key != req.IdempotencyKey {
		services.SendErrorResponse(w, "Idempotency-Key header does not match body", http.StatusBadRequest, nil)
		return
	}

	entry, replayed, err := h.credits.Purchase(r.Context(), caller.ID, req.PackageID, req.IdempotencyKey)
	if err != nil {
		services.SendDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, PurchaseResponse{Transaction: entry, Replayed: replayed})
}

// Packages lists the credit catalog
// @Summary List credit packages
// @Tags credits
// @Produce json
// @Success 200 {array} models.CreditPackage
// @Router /credits/packages [get]
func (h *CreditHandler) Packages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.credits.Packages())
}

// Transactions returns the caller's ledger
// @Summary Credit history
// @Description The caller's append-only credit ledger in order
// @Tags credits
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.CreditTransaction
// @Failure 404 {object} services.ErrorResponse
// @Router /credits/transactions [get]
func (h *CreditHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}

	entries, err := h.credits.History(r.Context(), caller.ID)
	if err != nil {
		services.SendDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// RefundRequest represents a refund of a consume
// @Description Refund request
type RefundRequest struct {
	TransactionID string `json:"transactionId" validate:"required" example:"5f0c..."` // The consume to reverse
}

// Refund reverses a consume
// @Summary Refund a consume
// @Description Reverses a consume transaction once. Refunding an unlock charge revokes the unlock.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account ID"
// @Param request body RefundRequest true "Refund request"
// @Success 201 {object} models.CreditTransaction
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /admin/accounts/{accountId}/refunds [post]
func (h *CreditHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var req RefundRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	entry, err := h.credits.Refund(r.Context(), chi.URLParam(r, "accountId"), req.TransactionID)
	if err != nil {
		services.SendDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// VerifyLedger replays an account's ledger
// @Summary Verify ledger
// @Description Replays the ledger from zero and compares it with the live balance
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account ID"
// @Success 200 {object} services.LedgerAudit
// @Failure 404 {object} services.ErrorResponse
// @Router /admin/accounts/{accountId}/ledger/verify [get]
func (h *CreditHandler) VerifyLedger(w http.ResponseWriter, r *http.Request) {
	audit, err := h.credits.VerifyBalance(r.Context(), chi.URLParam(r, "accountId"))
	if err != nil {
		services.SendDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, audit)
}
