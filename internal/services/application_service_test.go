package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/edulink/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	teacher = models.Actor{ID: "teacher-1", Role: models.RoleTeacher}
	admin   = models.Actor{ID: "admin-1", Role: models.RoleAdmin}
	admin2  = models.Actor{ID: "admin-2", Role: models.RoleAdmin}
)

func completeProfile() models.TeacherProfile {
	return models.TeacherProfile{
		FullName:        "Ada Okafor",
		Subject:         "Mathematics",
		Qualification:   "B.Ed",
		ExperienceYears: 4,
		City:            "Lagos",
		Phone:           "+2348000000000",
		Email:           "ada@example.com",
	}
}

func submitted(t *testing.T, env *testEnv) *models.TeacherApplication {
	t.Helper()
	_, err := env.applications.SaveProfile(context.Background(), teacher, completeProfile())
	require.NoError(t, err)
	app, err := env.applications.Submit(context.Background(), teacher)
	require.NoError(t, err)
	return app
}

func TestApplicationService_SaveProfile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "teacher-1", models.RoleTeacher)

	app, err := env.applications.SaveProfile(ctx, teacher, models.TeacherProfile{FullName: "  Ada  "})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, app.Status)
	assert.Equal(t, "Ada", app.Profile.FullName)
	require.Len(t, app.History, 1)
	assert.Equal(t, models.EventCreate, app.History[0].Event)

	again, err := env.applications.SaveProfile(ctx, teacher, completeProfile())
	require.NoError(t, err)
	assert.Equal(t, app.ID, again.ID)
	assert.Len(t, again.History, 1)
	assert.Equal(t, "Mathematics", again.Profile.Subject)

	t.Run("non-teacher", func(t *testing.T) {
		_, err := env.applications.SaveProfile(ctx, admin, completeProfile())
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("token role does not match registered role", func(t *testing.T) {
		env.register(t, "school-1", models.RoleSchool)
		impostor := models.Actor{ID: "school-1", Role: models.RoleTeacher}

		_, err := env.applications.SaveProfile(ctx, impostor, completeProfile())
		assert.ErrorIs(t, err, ErrForbidden)
		_, err = env.applications.Submit(ctx, impostor)
		assert.ErrorIs(t, err, ErrForbidden)
		_, err = env.applications.GetForTeacher(ctx, "school-1")
		assert.ErrorIs(t, err, ErrApplicationNotFound)
	})

	t.Run("negative experience", func(t *testing.T) {
		p := completeProfile()
		p.ExperienceYears = -1
		_, err := env.applications.SaveProfile(ctx, teacher, p)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("locked while submitted", func(t *testing.T) {
		_, err := env.applications.Submit(ctx, teacher)
		require.NoError(t, err)

		_, err = env.applications.SaveProfile(ctx, teacher, completeProfile())
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	assert.Len(t, env.notifier.ByCategory(models.CategoryApplicationCreated), 1)
}

func TestApplicationService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("missing subject", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "teacher-1", models.RoleTeacher)

		p := completeProfile()
		p.Subject = ""
		_, err := env.applications.SaveProfile(ctx, teacher, p)
		require.NoError(t, err)

		_, err = env.applications.Submit(ctx, teacher)
		assert.ErrorIs(t, err, ErrIncompleteProfile)
		var incomplete *IncompleteProfileError
		require.True(t, errors.As(err, &incomplete))
		assert.Equal(t, []string{"subject"}, incomplete.Missing)

		app, err := env.applications.GetForTeacher(ctx, "teacher-1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusDraft, app.Status)
	})

	t.Run("blank fields count as missing", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "teacher-1", models.RoleTeacher)

		p := completeProfile()
		p.City = "   "
		p.Email = ""
		_, err := env.applications.SaveProfile(ctx, teacher, p)
		require.NoError(t, err)

		_, err = env.applications.Submit(ctx, teacher)
		var incomplete *IncompleteProfileError
		require.True(t, errors.As(err, &incomplete))
		assert.Equal(t, []string{"city", "email"}, incomplete.Missing)
	})

	t.Run("notifies teacher and admin queue", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "teacher-1", models.RoleTeacher)
		app := submitted(t, env)

		assert.Equal(t, models.StatusSubmitted, app.Status)
		require.NotNil(t, app.Snapshot)
		assert.Equal(t, completeProfile(), *app.Snapshot)
		assert.Equal(t, testNow, *app.SubmittedAt)

		submit := env.notifier.ByCategory(models.CategoryApplicationSubmit)
		require.Len(t, submit, 1)
		assert.Equal(t, "teacher-1", submit[0].AccountID)

		review := env.notifier.ByCategory(models.CategoryApplicationReview)
		require.Len(t, review, 1)
		assert.Equal(t, models.AdminQueue, review[0].AccountID)
		assert.NotEqual(t, submit[0].EventID, review[0].EventID)
	})

	t.Run("second submit while in review", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "teacher-1", models.RoleTeacher)
		submitted(t, env)

		_, err := env.applications.Submit(ctx, teacher)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("no application yet", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "teacher-1", models.RoleTeacher)

		_, err := env.applications.Submit(ctx, teacher)
		assert.ErrorIs(t, err, ErrApplicationNotFound)
	})
}

func TestApplicationService_Decide(t *testing.T) {
	ctx := context.Background()

	t.Run("reject, edit, resubmit", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "teacher-1", models.RoleTeacher)

		p := completeProfile()
		p.Qualification = "pending"
		_, err := env.applications.SaveProfile(ctx, teacher, p)
		require.NoError(t, err)
		app, err := env.applications.Submit(ctx, teacher)
		require.NoError(t, err)

		rejected, err := env.applications.Decide(ctx, admin, app.ID, DecisionReject, "qualification unclear")
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, rejected.Status)
		assert.Equal(t, "admin-1", rejected.DecidedBy)
		assert.Equal(t, "qualification unclear", rejected.LastTransition().Note)

		edited, err := env.applications.Edit(ctx, teacher)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDraft, edited.Status)

		_, err = env.applications.SaveProfile(ctx, teacher, completeProfile())
		require.NoError(t, err)
		resubmitted, err := env.applications.Submit(ctx, teacher)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSubmitted, resubmitted.Status)
		assert.Equal(t, app.ID, resubmitted.ID)
		assert.Nil(t, resubmitted.DecidedAt)

		var events []models.ApplicationEvent
		for _, tr := range resubmitted.History {
			events = append(events, tr.Event)
		}
		assert.Equal(t, []models.ApplicationEvent{
			models.EventCreate, models.EventSubmit, models.EventReject, models.EventEdit, models.EventSubmit,
		}, events)
	})

	t.Run("saving a rejected application edits it", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "teacher-1", models.RoleTeacher)
		app := submitted(t, env)
		_, err := env.applications.Decide(ctx, admin, app.ID, DecisionReject, "")
		require.NoError(t, err)

		saved, err := env.applications.SaveProfile(ctx, teacher, completeProfile())
		require.NoError(t, err)
		assert.Equal(t, models.StatusDraft, saved.Status)
		assert.Equal(t, models.EventEdit, saved.LastTransition().Event)
		assert.Len(t, env.notifier.ByCategory(models.CategoryApplicationEdited), 1)
	})

	t.Run("approved is terminal", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "teacher-1", models.RoleTeacher)
		app := submitted(t, env)

		approved, err := env.applications.Decide(ctx, admin, app.ID, DecisionApprove, "")
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, approved.Status)

		_, err = env.applications.Decide(ctx, admin, app.ID, DecisionReject, "")
		assert.ErrorIs(t, err, ErrNotInReview)
		_, err = env.applications.Edit(ctx, teacher)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		_, err = env.applications.Submit(ctx, teacher)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		_, err = env.applications.SaveProfile(ctx, teacher, completeProfile())
		assert.ErrorIs(t, err, ErrInvalidTransition)

		current, err := env.applications.Get(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, current.Status)
	})

	t.Run("draft cannot be decided", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "teacher-1", models.RoleTeacher)
		app, err := env.applications.SaveProfile(ctx, teacher, completeProfile())
		require.NoError(t, err)

		_, err = env.applications.Decide(ctx, admin, app.ID, DecisionApprove, "")
		assert.ErrorIs(t, err, ErrNotInReview)
		_, err = env.applications.Edit(ctx, teacher)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		current, err := env.applications.Get(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDraft, current.Status)
	})

	t.Run("only admins decide", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "teacher-1", models.RoleTeacher)
		app := submitted(t, env)

		_, err := env.applications.Decide(ctx, teacher, app.ID, DecisionApprove, "")
		assert.ErrorIs(t, err, ErrForbidden)
		_, err = env.applications.Decide(ctx, admin, app.ID, Decision("maybe"), "")
		assert.ErrorIs(t, err, ErrInvalidRequest)
		_, err = env.applications.Decide(ctx, admin, "missing", DecisionApprove, "")
		assert.ErrorIs(t, err, ErrApplicationNotFound)
	})

	t.Run("racing admins", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "teacher-1", models.RoleTeacher)
		app := submitted(t, env)

		var (
			wg   sync.WaitGroup
			errs [2]error
		)
		decide := func(i int, actor models.Actor, d Decision) {
			defer wg.Done()
			_, errs[i] = env.applications.Decide(ctx, actor, app.ID, d, "")
		}
		wg.Add(2)
		go decide(0, admin, DecisionApprove)
		go decide(1, admin2, DecisionReject)
		wg.Wait()

		assert.Equal(t, 1, countNil(errs[:]))
		assert.Equal(t, 1, countIs(errs[:], ErrNotInReview))

		current, err := env.applications.Get(ctx, app.ID)
		require.NoError(t, err)
		if errs[0] == nil {
			assert.Equal(t, models.StatusApproved, current.Status)
			assert.Equal(t, "admin-1", current.DecidedBy)
		} else {
			assert.Equal(t, models.StatusRejected, current.Status)
			assert.Equal(t, "admin-2", current.DecidedBy)
		}
		assert.Len(t, current.History, 3)
	})
}

func TestNextStatus(t *testing.T) {
	statuses := []models.ApplicationStatus{
		models.StatusDraft, models.StatusSubmitted, models.StatusApproved, models.StatusRejected,
	}
	events := []models.ApplicationEvent{
		models.EventSubmit, models.EventApprove, models.EventReject, models.EventEdit,
	}
	legal := map[models.ApplicationStatus]map[models.ApplicationEvent]models.ApplicationStatus{
		models.StatusDraft:     {models.EventSubmit: models.StatusSubmitted},
		models.StatusSubmitted: {models.EventApprove: models.StatusApproved, models.EventReject: models.StatusRejected},
		models.StatusRejected:  {models.EventEdit: models.StatusDraft},
	}

	for _, from := range statuses {
		for _, event := range events {
			to, ok := nextStatus(from, event)
			want, legalMove := legal[from][event]
			assert.Equal(t, legalMove, ok, "%s --%s-->", from, event)
			assert.Equal(t, want, to, "%s --%s-->", from, event)
		}
	}
}

func TestQRService_ContactCard(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "school-1", models.RoleSchool)
	env.register(t, "teacher-1", models.RoleTeacher)
	_, err := env.applications.SaveProfile(ctx, teacher, completeProfile())
	require.NoError(t, err)

	_, err = env.qr.ContactCard(ctx, "school-1", "teacher-1")
	assert.ErrorIs(t, err, ErrNotUnlocked)

	env.purchase(t, "school-1", "starter", "order-1")
	_, err = env.contacts.UnlockContact(ctx, "school-1", "teacher-1")
	require.NoError(t, err)

	png, err := env.qr.ContactCard(ctx, "school-1", "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}

func TestVCard(t *testing.T) {
	card := vCard("Okafor, Ada", "+234", "ada@example.com", "")
	assert.Contains(t, card, "FN:Okafor\\, Ada\r\n")
	assert.Contains(t, card, "TEL;TYPE=CELL:+234\r\n")
	assert.NotContains(t, card, "ADR")
}
