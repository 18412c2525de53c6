package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parishkit/chms-api/internal/config"
	"github.com/parishkit/chms-api/internal/email"
	authhandler "github.com/parishkit/chms-api/internal/handler/auth"
	cardhandler "github.com/parishkit/chms-api/internal/handler/card"
	exporthandler "github.com/parishkit/chms-api/internal/handler/export"
	orghandler "github.com/parishkit/chms-api/internal/handler/organization"
	prayerhandler "github.com/parishkit/chms-api/internal/handler/prayer"
	userhandler "github.com/parishkit/chms-api/internal/handler/user"
	volunteerhandler "github.com/parishkit/chms-api/internal/handler/volunteer"
	"github.com/parishkit/chms-api/internal/middleware"
	"github.com/parishkit/chms-api/internal/repository/postgres"
	"github.com/parishkit/chms-api/internal/router"
	auditservice "github.com/parishkit/chms-api/internal/service/audit"
	authservice "github.com/parishkit/chms-api/internal/service/auth"
	cardservice "github.com/parishkit/chms-api/internal/service/card"
	"github.com/parishkit/chms-api/internal/service/event"
	exportservice "github.com/parishkit/chms-api/internal/service/export"
	orgservice "github.com/parishkit/chms-api/internal/service/organization"
	prayerservice "github.com/parishkit/chms-api/internal/service/prayer"
	userservice "github.com/parishkit/chms-api/internal/service/user"
	volunteerservice "github.com/parishkit/chms-api/internal/service/volunteer"
	"github.com/parishkit/chms-api/internal/storage"
	"github.com/parishkit/chms-api/pkg/auth"
	"github.com/parishkit/chms-api/pkg/logger"
	"github.com/parishkit/chms-api/pkg/metrics"
	"github.com/parishkit/chms-api/pkg/security"
)

func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	base := postgres.NewBaseRepository(db)

	orgRepo := postgres.NewOrganizationRepository(base)
	locRepo := postgres.NewLocationRepository(base)
	userRepo := postgres.NewUserRepository(base)
	memberRepo := postgres.NewMemberRepository(base)
	cardRepo := postgres.NewCardRepository(base)
	batchRepo := postgres.NewBatchRepository(base)
	prayerRepo := postgres.NewPrayerRepository(base)
	volunteerRepo := postgres.NewVolunteerRepository(base)
	auditRepo := postgres.NewAuditRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)

	m := metrics.NewMetrics("chms", "api")
	emitter := event.NewEmitter(outboxRepo)
	auditor := auditservice.NewService(auditRepo, log)
	mailer := email.NewSender(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:             cfg.JWT.Secret,
		RefreshSecret:      cfg.JWT.RefreshSecret,
		ExpiryHours:        cfg.JWT.ExpiryHours,
		RefreshExpiryHours: cfg.JWT.RefreshExpiryHours,
	})
	hasher := security.NewBcryptHasher(security.BcryptConfig{
		Cost:           cfg.Security.BcryptCost,
		MinPasswordLen: cfg.Security.MinPasswordLen,
	})

	store, err := storage.NewS3Store(context.Background(), storage.S3Config{
		Bucket: cfg.Storage.Bucket,
		Region: cfg.Storage.Region,
		URLTTL: cfg.Storage.URLTTL,
	})
	if err != nil {
		log.Fatal(err, "failed to initialize object storage")
	}

	orgSvc := orgservice.NewService(orgRepo, locRepo)
	userSvc := userservice.NewService(userRepo, orgRepo, locRepo, hasher, mailer, auditor, log)
	authSvc := authservice.NewService(userRepo, jwtSvc, hasher, log)
	cardSvc := cardservice.NewService(cardRepo, batchRepo, memberRepo, prayerRepo, emitter, auditor, m, log)
	prayerSvc := prayerservice.NewService(prayerRepo, batchRepo, userRepo, emitter, mailer, auditor, log)
	volunteerSvc := volunteerservice.NewService(volunteerRepo, memberRepo, userRepo, emitter, mailer, auditor, log)
	exportSvc := exportservice.NewService(cardRepo, emitter, auditor, m, log)

	authMiddleware := middleware.NewAuthMiddleware(jwtSvc, userRepo)

	r := router.New(
		authMiddleware,
		router.Handlers{
			Auth:         authhandler.NewHandler(authSvc),
			Organization: orghandler.NewHandler(orgSvc),
			User:         userhandler.NewHandler(userSvc),
			Card:         cardhandler.NewHandler(cardSvc, store),
			Prayer:       prayerhandler.NewHandler(prayerSvc),
			Volunteer:    volunteerhandler.NewHandler(volunteerSvc),
			Export:       exporthandler.NewHandler(exportSvc),
		},
		db,
		log.ZL,
		router.Config{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimitRPS:     cfg.RateLimit.RequestsPerSecond,
			RateLimitBurst:   cfg.RateLimit.Burst,
			RequestTimeout:   cfg.Server.RequestTimeout,
			CORS:             middleware.DefaultCORSConfig(),
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "server forced to shutdown")
	}

	log.Info("server exited")
}
