package handlers

import (
	"net/http"

	"github.com/edulink/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AccountHandler struct {
	accounts      *services.AccountService
	subscriptions *services.SubscriptionService
	validator     *services.ValidationHelper
	logger        *zap.Logger
}

func NewAccountHandler(accounts *services.AccountService, subscriptions *services.SubscriptionService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		accounts:      accounts,
		subscriptions: subscriptions,
		validator:     services.NewValidationHelper(),
		logger:        logger,
	}
}

// Register creates the caller's account
// @Summary Register account
// @Description Create the caller's account with the role asserted by the token. Idempotent.
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Account "Account created"
// @Success 200 {object} models.Account "Account already existed"
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /accounts [post]
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}

	account, created, err := h.accounts.Register(r.Context(), caller.ID, caller.Role)
	if err != nil {
		services.SendDomainError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.logger.Info("account registered",
			zap.String("account_id", account.ID),
			zap.String("role", string(account.Role)))
	}
	writeJSON(w, status, account)
}

// Me returns the caller's account
// @Summary Get own account
// @Description Balance and subscription state; isPremium is computed at read time
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.AccountView
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/me [get]
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}

	view, err := h.accounts.GetAccount(r.Context(), caller.ID)
	if err != nil {
		services.SendDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Deactivate disables an account
// @Summary Deactivate account
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account ID"
// @Success 200 {object} models.Account
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /admin/accounts/{accountId}/deactivate [post]
func (h *AccountHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.Deactivate(r.Context(), chi.URLParam(r, "accountId"))
	if err != nil {
		services.SendDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// GrantRequest represents a subscription grant
// @Description Subscription grant request
type GrantRequest struct {
	DurationDays int `json:"durationDays" validate:"required,gt=0,lte=3650" example:"30"` // Days from now
}

// GrantSubscription makes an account premium
// @Summary Grant subscription
// @Description Sets the tier to premium until now + durationDays. Re-granting replaces the expiry.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account ID"
// @Param request body GrantRequest true "Grant request"
// @Success 200 {object} models.Account
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /admin/accounts/{accountId}/subscription [post]
func (h *AccountHandler) GrantSubscription(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	account, err := h.subscriptions.Grant(r.Context(), chi.URLParam(r, "accountId"), req.DurationDays)
	if err != nil {
		services.SendDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// RevokeSubscription returns an account to the free tier
// @Summary Revoke subscription
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account ID"
// @Success 200 {object} models.Account
// @Failure 404 {object} services.ErrorResponse
// @Router /admin/accounts/{accountId}/subscription [delete]
func (h *AccountHandler) RevokeSubscription(w http.ResponseWriter, r *http.Request) {
	account, err := h.subscriptions.Revoke(r.Context(), chi.URLParam(r, "accountId"))
	if err != nil {
		services.SendDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}
