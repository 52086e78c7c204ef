package handlers

import (
	"net/http"

	"github.com/edulink/backend/internal/middleware"
	"github.com/edulink/backend/internal/models"
	"github.com/go-chi/chi/v5"
)

// API groups the handlers mounted under /api/v1.
type API struct {
	Accounts      *AccountHandler
	Credits       *CreditHandler
	Contacts      *ContactHandler
	Applications  *ApplicationHandler
	Notifications *NotificationHandler
}

// Routes builds the versioned router. authn puts the caller on the
// context; limit guards the routes that spend or grant credits.
func (api *API) Routes(authn, limit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	// Public endpoints (no auth required)
	r.Get("/credits/packages", api.Credits.Packages)

	// Protected endpoints (auth required)
	r.Group(func(r chi.Router) {
		r.Use(authn)

		r.Post("/accounts", api.Accounts.Register)
		r.Get("/accounts/me", api.Accounts.Me)
		r.Get("/credits/transactions", api.Credits.Transactions)
		r.Get("/contacts/{targetId}/access", api.Contacts.Access)
		r.Get("/contacts/{targetId}/qr", api.Contacts.ContactQR)
		r.Get("/jobs/access", api.Contacts.JobsAccess)
		r.Get("/notifications", api.Notifications.Drain)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleSchool, models.RoleTeacher))
			r.Use(limit)
			r.Post("/credits/purchase", api.Credits.Purchase)
			r.Post("/contacts/{targetId}/unlock", api.Contacts.Unlock)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleTeacher))
			r.Get("/applications/me", api.Applications.Mine)
			r.Put("/applications/me", api.Applications.SaveProfile)
			r.Post("/applications/me/submit", api.Applications.Submit)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Get("/applications/{applicationId}", api.Applications.Get)
			r.Post("/applications/{applicationId}/decision", api.Applications.Decide)
			r.Post("/accounts/{accountId}/refunds", api.Credits.Refund)
			r.Post("/accounts/{accountId}/subscription", api.Accounts.GrantSubscription)
			r.Delete("/accounts/{accountId}/subscription", api.Accounts.RevokeSubscription)
			r.Post("/accounts/{accountId}/deactivate", api.Accounts.Deactivate)
			r.Get("/accounts/{accountId}/ledger/verify", api.Credits.VerifyLedger)
		})
	})

	return r
}
