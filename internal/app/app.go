package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"susu-app-go/internal/auth"
	"susu-app-go/internal/clients/cloudinary"
	"susu-app-go/internal/clients/dawurobo"
	"susu-app-go/internal/config"
	"susu-app-go/internal/db"
	accountsdomain "susu-app-go/internal/domain/accounts"
	contributionsdomain "susu-app-go/internal/domain/contributions"
	groupsdomain "susu-app-go/internal/domain/groups"
	payoutsdomain "susu-app-go/internal/domain/payouts"
	"susu-app-go/internal/notify"
	"susu-app-go/internal/repository/inmemory"
	accountsrepo "susu-app-go/internal/repository/postgres/accounts"
	contributionsrepo "susu-app-go/internal/repository/postgres/contributions"
	groupsrepo "susu-app-go/internal/repository/postgres/groups"
	payoutsrepo "susu-app-go/internal/repository/postgres/payouts"
	"susu-app-go/internal/transport/httpserver"
	"susu-app-go/internal/transport/httpserver/handler"
	"susu-app-go/pkg/logger"
)

type App struct {
	cfg        config.Config
	log        logger.Logger
	db         *gorm.DB
	httpServer *http.Server
	scheduler  *payoutsdomain.Scheduler
	dispatcher *notify.Dispatcher
}

func New(cfg config.Config, log logger.Logger) (*App, error) {
	if cfg.DB.AutoMigrate {
		log.Info("app: applying migrations")
		if err := db.Migrate(cfg.DB, log); err != nil {
			return nil, err
		}
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	application := &App{cfg: cfg, log: log, db: dbConn}

	if err := application.wire(); err != nil {
		_ = application.Close(context.Background())
		return nil, err
	}
	return application, nil
}

func (a *App) wire() error {
	cfg, log := a.cfg, a.log
	loc := cfg.Scheduler.Location()

	accountsRepo := accountsrepo.NewPostgres(a.db)
	groupsRepo := groupsrepo.NewPostgres(a.db)
	contributionsRepo := contributionsrepo.NewPostgres(a.db)
	payoutsRepo := payoutsrepo.NewPostgres(a.db)

	providers := notify.ProvidersFromConfig(cfg.Email)
	if len(providers) == 0 {
		log.Warn("app: no email provider configured, notifications will be dropped")
	}
	dispatcher, err := notify.NewDispatcher(cfg.Notify, accountsdomain.NewDirectory(accountsRepo), providers, log)
	if err != nil {
		return fmt.Errorf("notify init: %w", err)
	}
	dispatcher.Start()
	a.dispatcher = dispatcher

	uploader, err := cloudinary.New(cfg.Cloudinary, log)
	if err != nil {
		return err
	}
	otp := dawurobo.New(cfg.Dawurobo, inmemory.NewOTPGuard(), log)
	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL, cfg.Auth.RememberMeFactor)

	accountsService := accountsdomain.NewService(accountsRepo, auth.NewBcryptHasher(0), tokens, otp, uploader, dispatcher, log)
	groupsService := groupsdomain.NewService(groupsRepo, uploader, dispatcher, log, groupsdomain.Config{
		Cache:    inmemory.NewGroupCache(),
		CacheTTL: cfg.Groups.CacheTTL,
		Location: loc,
	})
	contributionsService := contributionsdomain.NewService(contributionsRepo, groupsService, log, loc)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.scheduler = payoutsdomain.NewScheduler(groupsService, contributionsService, payoutsRepo, dispatcher,
		payoutsdomain.NewMetrics(registry), log, payoutsdomain.Config{
			Interval: cfg.Scheduler.Interval,
			Location: loc,
		})

	handlers := handler.New(accountsService, groupsService, contributionsService, a.scheduler, log)
	router := httpserver.NewRouter(cfg, handlers, tokens, registry, log)
	a.httpServer = httpserver.New(cfg, router, log)
	return nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Scheduler() *payoutsdomain.Scheduler {
	return a.scheduler
}

// Close drains queued notifications before closing the database pool.
func (a *App) Close(ctx context.Context) error {
	var errs *multierror.Error
	if a.dispatcher != nil {
		if err := a.dispatcher.Close(ctx); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("drain notifications: %w", err))
		}
	}
	if err := a.closeDB(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("close db: %w", err))
	}
	return errs.ErrorOrNil()
}

func (a *App) closeDB() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
