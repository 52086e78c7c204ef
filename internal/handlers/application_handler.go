package handlers

import (
	"net/http"

	"github.com/edulink/backend/internal/models"
	"github.com/edulink/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ApplicationHandler struct {
	applications *services.ApplicationService
	validator    *services.ValidationHelper
	logger       *zap.Logger
}

func NewApplicationHandler(applications *services.ApplicationService, logger *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		applications: applications,
		validator:    services.NewValidationHelper(),
		logger:       logger,
	}
}

// ProfileRequest is the editable part of a teacher application
// @Description Teacher profile. Fields may be partial while drafting.
type ProfileRequest struct {
	FullName        string `json:"fullName" example:"Ada Okafor"`
	Subject         string `json:"subject" example:"Mathematics"`
	Qualification   string `json:"qualification" example:"B.Ed"`
	ExperienceYears int    `json:"experienceYears" validate:"gte=0,lte=80" example:"4"`
	City            string `json:"city" example:"Lagos"`
	Phone           string `json:"phone" validate:"max=32" example:"+2348000000000"`
	Email           string `json:"email" validate:"omitempty,email" example:"ada@example.com"`
	Bio             string `json:"bio" validate:"max=2000"`
}

func (p ProfileRequest) profile() models.TeacherProfile {
	return models.TeacherProfile{
		FullName:        p.FullName,
		Subject:         p.Subject,
		Qualification:   p.Qualification,
		ExperienceYears: p.ExperienceYears,
		City:            p.City,
		Phone:           p.Phone,
		Email:           p.Email,
		Bio:             p.Bio,
	}
}

// SaveProfile saves the caller's application profile
// @Summary Save application profile
// @Description Creates the draft on first save. Saving a rejected application returns it to draft.
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProfileRequest true "Profile"
// @Success 200 {object} models.TeacherApplication
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /applications/me [put]
func (h *ApplicationHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}

	var req ProfileRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	app, err := h.applications.SaveProfile(r.Context(), caller, req.profile())
	if err != nil {
		services.SendDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// Submit sends the caller's application for review
// @Summary Submit application
// @Description Fails with incomplete_profile and the list of missing fields if any required field is empty
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.TeacherApplication
// @Failure 409 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /applications/me/submit [post]
func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}

	app, err := h.applications.Submit(r.Context(), caller)
	if err != nil {
		services.SendDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// Mine returns the caller's application
// @Summary Get own application
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.TeacherApplication
// @Failure 404 {object} services.ErrorResponse
// @Router /applications/me [get]
func (h *ApplicationHandler) Mine(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}

	app, err := h.applications.GetForTeacher(r.Context(), caller.ID)
	if err != nil {
		services.SendDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// DecisionRequest represents an admin verdict
// @Description Application decision
type DecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject" example:"reject"`
	Note     string `json:"note" validate:"max=1000" example:"Please attach your certificate"`
}

// Decide approves or rejects an application
// @Summary Decide application
// @Description Fails with not_in_review unless the application is submitted
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param applicationId path string true "Application ID"
// @Param request body DecisionRequest true "Decision"
// @Success 200 {object} models.TeacherApplication
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /admin/applications/{applicationId}/decision [post]
func (h *ApplicationHandler) Decide(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}

	var req DecisionRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	app, err := h.applications.Decide(r.Context(), caller, chi.URLParam(r, "applicationId"), services.Decision(req.Decision), req.Note)
	if err != nil {
		services.SendDomainError(w, err)
		return
	}

	h.logger.Info("application decided",
		zap.String("application_id", app.ID),
		zap.String("status", string(app.Status)),
		zap.String("admin_id", caller.ID))
	writeJSON(w, http.StatusOK, app)
}

// Get returns any application
// @Summary Get application
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param applicationId path string true "Application ID"
// @Success 200 {object} models.TeacherApplication
// @Failure 404 {object} services.ErrorResponse
// @Router /admin/applications/{applicationId} [get]
func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	app, err := h.applications.Get(r.Context(), chi.URLParam(r, "applicationId"))
	if err != nil {
		services.SendDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}
