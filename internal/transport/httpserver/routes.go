package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"susu-app-go/internal/config"
	"susu-app-go/internal/transport/httpserver/handler"
	authmw "susu-app-go/internal/transport/httpserver/middleware"
	"susu-app-go/pkg/logger"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, tokens authmw.TokenValidator, metrics prometheus.Gatherer, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.CORSOrigins))

	if metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Route("/auth", func(r chi.Router) {
			r.With(httprate.LimitByIP(10, time.Minute)).Post("/signup", handlers.Signup)
			r.With(httprate.LimitByIP(10, time.Minute)).Post("/otp/send", handlers.SendOTP)
			r.With(httprate.LimitByIP(10, time.Minute)).Post("/otp/verify", handlers.VerifyOTP)
			r.With(httprate.LimitByIP(10, time.Minute)).Post("/login", handlers.Login)
			r.Post("/token/refresh", handlers.RefreshToken)
			r.With(httprate.LimitByIP(10, time.Minute)).Post("/password/forgot", handlers.ForgotPassword)
			r.With(httprate.LimitByIP(5, time.Minute)).Post("/password/reset", handlers.ResetPassword)
		})

		auth := authmw.NewJWTAuth(tokens, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.Me)

			r.Get("/groups", handlers.ListActiveGroups)
			r.Post("/groups", handlers.CreateGroup)
			r.Get("/groups/mine", handlers.ListMyGroups)
			r.Get("/groups/admin", handlers.ListAdminGroups)
			r.Get("/groups/{group_id}", handlers.GetGroup)
			r.Get("/groups/{group_id}/members", handlers.ListMembers)
			r.Get("/groups/{group_id}/progress", handlers.GetProgress)
			r.Get("/groups/{group_id}/payout-order", handlers.ListPayoutOrder)
			r.Get("/groups/{group_id}/payouts", handlers.ListPayouts)

			r.Post("/groups/{group_id}/join-requests", handlers.SubmitJoinRequest)
			r.Get("/groups/{group_id}/join-requests", handlers.ListPendingRequests)
			r.Post("/join-requests/{request_id}/cancel", handlers.CancelJoinRequest)
			r.Post("/join-requests/{request_id}/action", handlers.HandleJoinRequest)

			r.Post("/groups/{group_id}/contributions", handlers.SubmitContribution)
			r.Get("/groups/{group_id}/contributions", handlers.ListContributions)
			r.Post("/contributions/{contribution_id}/verify", handlers.VerifyContribution)

			r.Route("/admin", func(r chi.Router) {
				r.Use(authmw.RequireStaff)

				r.Post("/groups/{group_id}/approve", handlers.ApproveGroup)
				r.Post("/groups/{group_id}/suspend", handlers.SuspendGroup)
				r.Post("/groups/{group_id}/reject", handlers.RejectGroup)
				r.Post("/groups/{group_id}/payout-order", handlers.MaterializePayoutOrder)
				r.Post("/payouts/run", handlers.RunPayouts)
			})
		})
	})

	return r
}
