package handlers

import (
	"net/http"
	"strconv"

	"github.com/edulink/backend/internal/models"
	"github.com/edulink/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ContactHandler serves the access gate and contact unlocks.
type ContactHandler struct {
	gate     *services.AccessGate
	contacts *services.ContactService
	qr       *services.QRService
	logger   *zap.Logger
}

func NewContactHandler(gate *services.AccessGate, contacts *services.ContactService, qr *services.QRService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		gate:     gate,
		contacts: contacts,
		qr:       qr,
		logger:   logger,
	}
}

// Unlock unlocks a contact
// @Summary Unlock contact
// @Description Charges one credit the first time the caller unlocks the target; later unlocks are free.
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param targetId path string true "Target account ID"
// @Success 200 {object} services.UnlockResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 402 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Router /contacts/{targetId}/unlock [post]
func (h *ContactHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}

	result, err := h.contacts.UnlockContact(r.Context(), caller.ID, chi.URLParam(r, "targetId"))
	if err != nil {
		services.SendDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Access previews the unlock decision
// @Summary Check contact access
// @Description Read-only decision; safe to call to render a paywall
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param targetId path string true "Target account ID"
// @Success 200 {object} models.AccessDecision
// @Router /contacts/{targetId}/access [get]
func (h *ContactHandler) Access(w http.ResponseWriter, r *http.Request) {
	h.check(w, r, models.UnlockContact(chi.URLParam(r, "targetId")))
}

// JobsAccess answers canViewJobListings
// @Summary Check job listing access
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.AccessDecision
// @Router /jobs/access [get]
func (h *ContactHandler) JobsAccess(w http.ResponseWriter, r *http.Request) {
	h.check(w, r, models.ViewJobListings())
}

func (h *ContactHandler) check(w http.ResponseWriter, r *http.Request, action models.Action) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}

	decision, err := h.gate.Check(r.Context(), caller.ID, action)
	if err != nil {
		services.SendDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

// ContactQR returns the unlocked contact card
// @Summary Contact card QR
// @Description PNG QR code of the target's vCard; requires an active unlock
// @Tags contacts
// @Produce png
// @Security BearerAuth
// @Param targetId path string true "Target account ID"
// @Success 200 {file} binary
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /contacts/{targetId}/qr [get]
func (h *ContactHandler) ContactQR(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}

	png, err := h.qr.ContactCard(r.Context(), caller.ID, chi.URLParam(r, "targetId"))
	if err != nil {
		services.SendDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
