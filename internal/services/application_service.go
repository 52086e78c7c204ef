package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/edulink/backend/internal/metrics"
	"github.com/edulink/backend/internal/models"
	"github.com/edulink/backend/internal/notify"
	"github.com/edulink/backend/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Decision is an admin's verdict on a submitted application.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func (d Decision) event() (models.ApplicationEvent, bool) {
	switch d {
	case DecisionApprove:
		return models.EventApprove, true
	case DecisionReject:
		return models.EventReject, true
	}
	return "", false
}

// transitions is the whole state machine. Approved has no outgoing edges.
var transitions = map[models.ApplicationStatus]map[models.ApplicationEvent]models.ApplicationStatus{
	models.StatusDraft: {
		models.EventSubmit: models.StatusSubmitted,
	},
	models.StatusSubmitted: {
		models.EventApprove: models.StatusApproved,
		models.EventReject:  models.StatusRejected,
	},
	models.StatusRejected: {
		models.EventEdit: models.StatusDraft,
	},
}

func nextStatus(from models.ApplicationStatus, event models.ApplicationEvent) (models.ApplicationStatus, bool) {
	to, ok := transitions[from][event]
	return to, ok
}

// ApplicationService drives a teacher's application through review.
type ApplicationService struct {
	tx        *TxRunner
	validator *ValidationHelper
	notifier  Notifier
	audit     *AuditLogger
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

func NewApplicationService(runner *TxRunner, validator *ValidationHelper, notifier Notifier, audit *AuditLogger, logger *zap.Logger) *ApplicationService {
	return &ApplicationService{
		tx:        runner,
		validator: validator,
		notifier:  notifier,
		audit:     audit,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// SaveProfile creates the teacher's draft on first save and updates it
// afterwards. Saving a rejected application moves it back to draft.
func (s *ApplicationService) SaveProfile(ctx context.Context, actor models.Actor, profile models.TeacherProfile) (*models.TeacherApplication, error) {
	if actor.Role != models.RoleTeacher {
		return nil, fmt.Errorf("save profile as %s: %w", actor.Role, ErrForbidden)
	}
	if profile.ExperienceYears < 0 {
		return nil, fmt.Errorf("experienceYears %d: %w", profile.ExperienceYears, ErrInvalidRequest)
	}
	profile = normalizeProfile(profile)

	var (
		app  models.TeacherApplication
		made []models.Transition
	)
	err := s.tx.Run(ctx, "save profile", func(tx store.Tx) error {
		app = models.TeacherApplication{}
		made = nil
		now := s.now().UTC()

		err := s.loadForTeacher(ctx, tx, actor.ID, &app)
		switch {
		case err == ErrApplicationNotFound:
			if err := loadTeacher(ctx, tx, actor.ID); err != nil {
				return err
			}
			app = models.TeacherApplication{
				ID:        s.newID(),
				TeacherID: actor.ID,
				Status:    models.StatusDraft,
				CreatedAt: now,
			}
			t := models.Transition{Seq: 1, Event: models.EventCreate, To: models.StatusDraft, Actor: actor.ID, At: now}
			app.History = append(app.History, t)
			made = append(made, t)
			if err := tx.Set(store.TeacherApplications, actor.ID, models.ApplicationRef{ApplicationID: app.ID}); err != nil {
				return err
			}
		case err != nil:
			return err
		case app.Status == models.StatusRejected:
			t, err := apply(&app, models.EventEdit, actor.ID, "", now)
			if err != nil {
				return err
			}
			made = append(made, t)
		case app.Status != models.StatusDraft:
			return fmt.Errorf("save profile while %s: %w", app.Status, ErrInvalidTransition)
		}

		app.Profile = profile
		app.UpdatedAt = now
		return tx.Set(store.Applications, app.ID, app)
	})
	if err != nil {
		s.reject("save_profile", actor.ID, err)
		return nil, err
	}

	s.committed(ctx, &app, made)
	return &app, nil
}

// Edit returns a rejected application to draft without changing fields.
func (s *ApplicationService) Edit(ctx context.Context, actor models.Actor) (*models.TeacherApplication, error) {
	if actor.Role != models.RoleTeacher {
		return nil, fmt.Errorf("edit as %s: %w", actor.Role, ErrForbidden)
	}
	return s.transition(ctx, "edit", actor.ID, func(tx store.Tx, app *models.TeacherApplication) error {
		return s.loadForTeacher(ctx, tx, actor.ID, app)
	}, func(app *models.TeacherApplication, now time.Time) (models.Transition, error) {
		return apply(app, models.EventEdit, actor.ID, "", now)
	})
}

// Submit sends the draft for review once every required field is filled.
func (s *ApplicationService) Submit(ctx context.Context, actor models.Actor) (*models.TeacherApplication, error) {
	if actor.Role != models.RoleTeacher {
		return nil, fmt.Errorf("submit as %s: %w", actor.Role, ErrForbidden)
	}
	return s.transition(ctx, "submit", actor.ID, func(tx store.Tx, app *models.TeacherApplication) error {
		if err := loadTeacher(ctx, tx, actor.ID); err != nil {
			return err
		}
		return s.loadForTeacher(ctx, tx, actor.ID, app)
	}, func(app *models.TeacherApplication, now time.Time) (models.Transition, error) {
		if app.Status != models.StatusDraft {
			return models.Transition{}, fmt.Errorf("submit from %s: %w", app.Status, ErrInvalidTransition)
		}
		missing, err := s.validator.MissingFields(app.Profile)
		if err != nil {
			return models.Transition{}, fmt.Errorf("profile: %v: %w", err, ErrInvalidRequest)
		}
		if len(missing) > 0 {
			return models.Transition{}, &IncompleteProfileError{Missing: missing}
		}

		t, err := apply(app, models.EventSubmit, actor.ID, "", now)
		if err != nil {
			return t, err
		}
		snapshot := app.Profile
		app.Snapshot = &snapshot
		app.SubmittedAt = &now
		app.DecidedAt = nil
		app.DecidedBy = ""
		return t, nil
	})
}

// Decide approves or rejects a submitted application. Deciding anything
// not in review fails with ErrNotInReview, so of two racing admins only
// the first wins.
func (s *ApplicationService) Decide(ctx context.Context, actor models.Actor, applicationID string, decision Decision, note string) (*models.TeacherApplication, error) {
	if actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("decide as %s: %w", actor.Role, ErrForbidden)
	}
	event, ok := decision.event()
	if !ok {
		return nil, fmt.Errorf("decision %q: %w", decision, ErrInvalidRequest)
	}
	note = strings.TrimSpace(note)

	return s.transition(ctx, "decide", actor.ID, func(tx store.Tx, app *models.TeacherApplication) error {
		return read(ctx, tx, store.Applications, applicationID, app, ErrApplicationNotFound)
	}, func(app *models.TeacherApplication, now time.Time) (models.Transition, error) {
		t, err := apply(app, event, actor.ID, note, now)
		if err != nil {
			return t, err
		}
		app.DecidedAt = &now
		app.DecidedBy = actor.ID
		return t, nil
	})
}

func (s *ApplicationService) Get(ctx context.Context, applicationID string) (*models.TeacherApplication, error) {
	var app models.TeacherApplication
	if err := read(ctx, s.tx.Store(), store.Applications, applicationID, &app, ErrApplicationNotFound); err != nil {
		return nil, surface(err)
	}
	return &app, nil
}

func (s *ApplicationService) GetForTeacher(ctx context.Context, teacherID string) (*models.TeacherApplication, error) {
	var app models.TeacherApplication
	if err := s.loadForTeacher(ctx, s.tx.Store(), teacherID, &app); err != nil {
		return nil, surface(err)
	}
	return &app, nil
}

func (s *ApplicationService) transition(
	ctx context.Context,
	op, actorID string,
	load func(tx store.Tx, app *models.TeacherApplication) error,
	step func(app *models.TeacherApplication, now time.Time) (models.Transition, error),
) (*models.TeacherApplication, error) {
	var (
		app models.TeacherApplication
		t   models.Transition
	)
	err := s.tx.Run(ctx, op+" application", func(tx store.Tx) error {
		app = models.TeacherApplication{}
		if err := load(tx, &app); err != nil {
			return err
		}
		var err error
		if t, err = step(&app, s.now().UTC()); err != nil {
			return err
		}
		return tx.Set(store.Applications, app.ID, app)
	})
	if err != nil {
		s.reject(op, actorID, err)
		return nil, err
	}

	s.committed(ctx, &app, []models.Transition{t})
	return &app, nil
}

// loadTeacher checks the stored account, not just the token, is an active
// teacher.
func loadTeacher(ctx context.Context, r store.Reader, accountID string) error {
	account, err := loadActive(ctx, r, accountID)
	if err != nil {
		return err
	}
	if account.Role != models.RoleTeacher {
		return fmt.Errorf("account %s registered as %s: %w", accountID, account.Role, ErrForbidden)
	}
	return nil
}

func (s *ApplicationService) loadForTeacher(ctx context.Context, r store.Reader, teacherID string, app *models.TeacherApplication) error {
	var ref models.ApplicationRef
	if err := read(ctx, r, store.TeacherApplications, teacherID, &ref, ErrApplicationNotFound); err != nil {
		return err
	}
	return read(ctx, r, store.Applications, ref.ApplicationID, app, ErrApplicationNotFound)
}

// apply moves app along event or reports why it cannot.
func apply(app *models.TeacherApplication, event models.ApplicationEvent, actorID, note string, at time.Time) (models.Transition, error) {
	to, ok := nextStatus(app.Status, event)
	if !ok {
		if event == models.EventApprove || event == models.EventReject {
			return models.Transition{}, fmt.Errorf("%s application %s in status %s: %w", event, app.ID, app.Status, ErrNotInReview)
		}
		return models.Transition{}, fmt.Errorf("%s from %s: %w", event, app.Status, ErrInvalidTransition)
	}

	t := models.Transition{
		Seq:   len(app.History) + 1,
		Event: event,
		From:  app.Status,
		To:    to,
		Actor: actorID,
		Note:  note,
		At:    at,
	}
	app.Status = to
	app.History = append(app.History, t)
	app.UpdatedAt = at
	return t, nil
}

type recipient struct {
	accountID string
	category  models.NotificationCategory
}

func (s *ApplicationService) committed(ctx context.Context, app *models.TeacherApplication, made []models.Transition) {
	var events []models.NotificationEvent
	for _, t := range made {
		metrics.RecordTransition(string(t.Event), string(t.To))
		s.audit.LogTransition(app, t)

		payload := map[string]any{
			"applicationId": app.ID,
			"teacherId":     app.TeacherID,
			"event":         t.Event,
			"status":        t.To,
			"note":          t.Note,
		}
		source := app.ID + ":" + strconv.Itoa(t.Seq)

		recipients := []recipient{{app.TeacherID, transitionCategory(t.Event)}}
		if t.Event == models.EventSubmit {
			recipients = append(recipients, recipient{models.AdminQueue, models.CategoryApplicationReview})
		}

		for _, r := range recipients {
			event, err := notify.NewEvent(r.accountID, source, r.category, payload, t.At)
			if err != nil {
				s.logger.Error("failed to build notification",
					zap.String("application_id", app.ID),
					zap.Error(err))
				continue
			}
			events = append(events, event)
		}
	}
	if len(events) > 0 {
		s.notifier.Dispatch(ctx, events...)
	}
}

func (s *ApplicationService) reject(op, actorID string, err error) {
	metrics.RecordRejection("application."+op, ErrorCode(err))
	s.logger.Info("application operation rejected",
		zap.String("operation", op),
		zap.String("actor", actorID),
		zap.Error(err))
}

func transitionCategory(event models.ApplicationEvent) models.NotificationCategory {
	switch event {
	case models.EventCreate:
		return models.CategoryApplicationCreated
	case models.EventSubmit:
		return models.CategoryApplicationSubmit
	case models.EventApprove:
		return models.CategoryApplicationApproved
	case models.EventReject:
		return models.CategoryApplicationRejected
	}
	return models.CategoryApplicationEdited
}

func normalizeProfile(p models.TeacherProfile) models.TeacherProfile {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Subject = strings.TrimSpace(p.Subject)
	p.Qualification = strings.TrimSpace(p.Qualification)
	p.City = strings.TrimSpace(p.City)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Email = strings.TrimSpace(p.Email)
	p.Bio = strings.TrimSpace(p.Bio)
	return p
}
