package app

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/healthmarket_backend/config"
	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
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
	"github.com/Alijeyrad/healthmarket_backend/pkg/events"
	"github.com/Alijeyrad/healthmarket_backend/pkg/search"
	"github.com/Alijeyrad/healthmarket_backend/pkg/sms"
	"github.com/Alijeyrad/healthmarket_backend/pkg/token"
	"github.com/Alijeyrad/healthmarket_backend/pkg/util/password"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideAuthService,
		ProvideProfileService,
		ProvideDirectoryService,
		ProvideEstablishmentService,
		ProvideSchedulingService,
		ProvideAppointmentService,
		ProvideFeedbackService,
		ProvideNotificationService,
		ProvideMasterDataService,
		ProvideFAQService,
		ProvideDashboardService,
		ProvideAdminService,
	),
)

func ProvideAuthService(
	db *repo.Client,
	rdb *redis.Client,
	smsCli *sms.Client,
	authz authorize.IAuthorization,
	tokens *token.Manager,
	hasher *password.Hasher,
	cfg *config.Config,
) auth.Service {
	return auth.New(
		db,
		auth.NewRedisState(rdb),
		smsCli,
		authorize.NewAccountRoles(authz),
		tokens,
		hasher,
		auth.OptionsFromConfig(cfg),
	)
}

func ProvideProfileService(db *repo.Client, bus events.Bus, dir directory.Service, cfg *config.Config) profile.Service {
	return profile.New(db, bus, dir, cfg.Authentication.DefaultPhoneRegion)
}

func ProvideDirectoryService(db *repo.Client, index search.DoctorIndex) directory.Service {
	return directory.New(db, index)
}

func ProvideEstablishmentService(db *repo.Client) establishment.Service {
	return establishment.New(db)
}

func ProvideSchedulingService(db *repo.Client, cfg *config.Config) scheduling.Service {
	return scheduling.New(db, scheduling.OptionsFromConfig(cfg.Booking))
}

func ProvideAppointmentService(db *repo.Client, slots scheduling.Service, bus events.Bus) appointment.Service {
	return appointment.New(db, slots, bus)
}

func ProvideFeedbackService(db *repo.Client) feedback.Service {
	return feedback.New(db)
}

func ProvideNotificationService(db *repo.Client, smsCli *sms.Client, cfg *config.Config) notification.Service {
	return notification.New(db, smsCli, cfg.Booking.Location())
}

func ProvideMasterDataService(db *repo.Client) masterdata.Service {
	return masterdata.New(db)
}

func ProvideFAQService(db *repo.Client) faq.Service {
	return faq.New(db)
}

func ProvideDashboardService(db *repo.Client, cfg *config.Config) dashboard.Service {
	return dashboard.New(db, cfg.Booking.Location())
}

func ProvideAdminService(db *repo.Client, sessions auth.Service, bus events.Bus, dir directory.Service) admin.Service {
	return admin.New(db, sessions, bus, dir)
}
