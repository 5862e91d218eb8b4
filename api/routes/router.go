package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/luisfigueroa/merchantflow-backend/api/controllers"
	"github.com/luisfigueroa/merchantflow-backend/api/middleware"
	"github.com/luisfigueroa/merchantflow-backend/internal/activities"
	"github.com/luisfigueroa/merchantflow-backend/internal/auth"
	"github.com/luisfigueroa/merchantflow-backend/internal/merchants"
	"github.com/luisfigueroa/merchantflow-backend/internal/onboarding"
	"github.com/luisfigueroa/merchantflow-backend/internal/payouts"
	"github.com/luisfigueroa/merchantflow-backend/internal/pipeline"
	"github.com/luisfigueroa/merchantflow-backend/pkg/config"
	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
	"github.com/luisfigueroa/merchantflow-backend/pkg/logger"
	"github.com/luisfigueroa/merchantflow-backend/pkg/redis"
)

// Services bundles the domain services served over HTTP.
type Services struct {
	Auth       auth.Service
	Merchants  merchants.Service
	Pipeline   pipeline.Service
	Onboarding onboarding.Service
	Activities activities.Service
	Payouts    payouts.Service
}

// NewRouter assembles the public HTTP surface.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger controllers.Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"postgres": dbPinger,
			"redis":    pingerOrNil(redisClient),
		}))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, rateLimiterOrNil(redisClient), logg)).
			Post("/login", controllers.AuthLogin(svcs.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStoreOrNil(redisClient), logg))

		r.Route("/merchants", func(r chi.Router) {
			r.Get("/", controllers.MerchantList(svcs.Merchants, logg))
			r.Post("/", controllers.MerchantCreate(svcs.Merchants, logg))

			r.Route("/{merchantID}", func(r chi.Router) {
				r.Get("/", controllers.MerchantGet(svcs.Merchants, logg))
				r.Patch("/", controllers.MerchantUpdate(svcs.Merchants, logg))
				r.With(managerOnly(logg)).Post("/reassign", controllers.MerchantReassign(svcs.Merchants, logg))

				r.Route("/pipeline", func(r chi.Router) {
					r.Get("/", controllers.PipelineGet(svcs.Pipeline, logg))
					r.Get("/history", controllers.PipelineHistory(svcs.Pipeline, logg))
					r.Post("/transition", controllers.PipelineTransition(svcs.Pipeline, logg))
				})

				r.Route("/onboarding", func(r chi.Router) {
					r.Get("/", controllers.OnboardingGet(svcs.Onboarding, logg))
					r.Patch("/checklist", controllers.OnboardingChecklistUpdate(svcs.Onboarding, logg))
					r.Post("/go-live", controllers.OnboardingGoLive(svcs.Onboarding, logg))
				})

				r.Route("/activities", func(r chi.Router) {
					r.Get("/", controllers.ActivityList(svcs.Activities, logg))
					r.Post("/", controllers.ActivityLog(svcs.Activities, logg))
				})

				r.With(managerOnly(logg)).Get("/payouts", controllers.MerchantPayouts(svcs.Payouts, logg))
			})
		})

		r.Route("/reps", func(r chi.Router) {
			r.Get("/me/payouts", controllers.RepPayouts(svcs.Payouts, logg))
		})
	})

	return r
}

func managerOnly(logg *logger.Logger) func(http.Handler) http.Handler {
	return middleware.RequireRole(logg, string(enums.UserRoleAdmin), string(enums.UserRoleManager))
}

func pingerOrNil(client *redis.Client) controllers.Pinger {
	if client == nil {
		return nil
	}
	return client
}

func rateLimiterOrNil(client *redis.Client) middleware.RateLimiter {
	if client == nil {
		return nil
	}
	return client
}

func idempotencyStoreOrNil(client *redis.Client) redis.IdempotencyStore {
	if client == nil {
		return nil
	}
	return client
}
