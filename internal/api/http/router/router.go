package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/healthmarket_backend/config"
	"github.com/Alijeyrad/healthmarket_backend/internal/api/http/handler"
	"github.com/Alijeyrad/healthmarket_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/admin"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/appointment"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/auth"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/dashboard"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/directory"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/establishment"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/faq"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/feedback"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/masterdata"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/notification"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/profile"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/scheduling"
	"github.com/Alijeyrad/healthmarket_backend/pkg/authorize"
	"github.com/Alijeyrad/healthmarket_backend/pkg/token"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg             *config.Config
	Redis           *redis.Client
	Auth            authorize.IAuthorization
	Tokens          *token.Manager
	AuthSvc         auth.Service
	ProfileSvc      profile.Service
	DirectorySvc    directory.Service
	EstablishSvc    establishment.Service
	SchedulingSvc   scheduling.Service
	AppointmentSvc  appointment.Service
	FeedbackSvc     feedback.Service
	NotificationSvc notification.Service
	MasterDataSvc   masterdata.Service
	FAQSvc          faq.Service
	DashboardSvc    dashboard.Service
	AdminSvc        admin.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

type permFunc func(authorize.Resource, authorize.Action) fiber.Handler

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Initialize Middlewares
	authRequired := middleware.AuthRequired(r.p.Tokens, r.p.AuthSvc)
	otpLimiter := middleware.NewOTPLimiter(r.p.Redis, r.p.Cfg.RateLimit)

	// Permission helper
	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	// 3. Initialize Handlers
	authH := handler.NewAuthHandler(r.p.AuthSvc)
	profileH := handler.NewProfileHandler(r.p.ProfileSvc)
	directoryH := handler.NewDirectoryHandler(r.p.DirectorySvc, r.p.SchedulingSvc)
	establishmentH := handler.NewEstablishmentHandler(r.p.EstablishSvc)
	appointmentH := handler.NewAppointmentHandler(r.p.AppointmentSvc)
	feedbackH := handler.NewFeedbackHandler(r.p.FeedbackSvc)
	notificationH := handler.NewNotificationHandler(r.p.NotificationSvc)
	masterDataH := handler.NewMasterDataHandler(r.p.MasterDataSvc)
	faqH := handler.NewFAQHandler(r.p.FAQSvc)
	dashboardH := handler.NewDashboardHandler(r.p.DashboardSvc)
	adminH := handler.NewAdminHandler(r.p.AdminSvc, r.p.DirectorySvc)

	api := app.Group("/api/v1")

	// 4. Delegate to sub-files
	r.registerAuthRoutes(api, authH, authRequired, otpLimiter, requirePerm)
	r.registerProfileRoutes(api, profileH, authRequired, requirePerm)
	r.registerDirectoryRoutes(api, directoryH, feedbackH)
	r.registerEstablishmentRoutes(api, establishmentH, authRequired, requirePerm)
	r.registerAppointmentRoutes(api, appointmentH, feedbackH, authRequired, requirePerm)
	r.registerNotificationRoutes(api, notificationH, authRequired, requirePerm)
	r.registerPublicContentRoutes(api, masterDataH, faqH, feedbackH, authRequired, requirePerm)
	r.registerDashboardRoutes(api, dashboardH, authRequired, requirePerm)
	r.registerAdminRoutes(api, adminH, masterDataH, faqH, feedbackH, authRequired, requirePerm)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool { return authorize.IsPolicyHealthy() },
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
