package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"

	"github.com/jhoicas/seedor-api/internal/application/access"
	"github.com/jhoicas/seedor-api/internal/application/invitation"
	"github.com/jhoicas/seedor-api/internal/application/membership"
	"github.com/jhoicas/seedor-api/internal/application/ports"
	"github.com/jhoicas/seedor-api/internal/application/tenant"
	"github.com/jhoicas/seedor-api/internal/infrastructure/lock"
	"github.com/jhoicas/seedor-api/internal/infrastructure/metrics"
	"github.com/jhoicas/seedor-api/internal/infrastructure/postgres"
	"github.com/jhoicas/seedor-api/internal/infrastructure/supabase"
	httpRouter "github.com/jhoicas/seedor-api/internal/interfaces/http"
	"github.com/jhoicas/seedor-api/pkg/config"
	"github.com/jhoicas/seedor-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Locks: Redis si está configurado (varias instancias), si no en memoria del proceso.
	var locker ports.KeyLocker
	if cfg.Redis.Enabled() {
		rdb, err := lock.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, log)
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: locks en memoria, válido solo con una instancia")
		locker = lock.NewLocal()
	}

	if cfg.Supabase.URL == "" {
		log.Warn().Msg("SUPABASE_URL vacío: las operaciones de identidad fallarán")
	}
	identity := supabase.NewAuthClient(
		cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey, cfg.Supabase.JWTSecret, cfg.Supabase.Timeout, log,
	)

	collector := metrics.New(true)

	tenantRepo := postgres.NewTenantRepository(pool)
	membershipRepo := postgres.NewMembershipRepository(pool)
	workerRepo := postgres.NewWorkerRepository(pool)
	invitationRepo := postgres.NewInvitationRepository(pool)
	profileRepo := postgres.NewProfileRepository(pool)
	auditRepo := postgres.NewAuditLogRepository(pool)
	planRepo := postgres.NewPlanRepository(pool)
	txRunner := postgres.NewTxRunner(pool)
	guard := access.NewGuard(membershipRepo, workerRepo)

	tenantSvc := tenant.NewService(tenant.Deps{
		Tenants:     tenantRepo,
		Memberships: membershipRepo,
		Plans:       planRepo,
		Tx:          txRunner,
		Profiles:    profileRepo,
		Identity:    identity,
		Locker:      locker,
		Metrics:     collector,
		Logger:      log,
		LockTTL:     cfg.Invitation.LockTTL,
	})
	invitationSvc := invitation.NewService(invitation.Deps{
		Tenants:     tenantRepo,
		Memberships: membershipRepo,
		Invitations: invitationRepo,
		Profiles:    profileRepo,
		Audit:       auditRepo,
		Identity:    identity,
		Guard:       guard,
		Locker:      locker,
		Metrics:     collector,
		Logger:      log,
		BaseURL:     cfg.App.BaseURL,
		TTL:         cfg.Invitation.TTL,
		LockTTL:     cfg.Invitation.LockTTL,
	})
	memberSvc := membership.NewService(membership.Deps{
		Tenants:     tenantRepo,
		Memberships: membershipRepo,
		Workers:     workerRepo,
		Profiles:    profileRepo,
		Audit:       auditRepo,
		Identity:    identity,
		Guard:       guard,
		Locker:      locker,
		Metrics:     collector,
		Logger:      log,
		LockTTL:     cfg.Invitation.LockTTL,
	})

	app := httpRouter.NewApp(cfg.App.Name, log)

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Seedor API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Tenants:       tenantSvc,
		Invitations:   invitationSvc,
		Members:       memberSvc,
		Identity:      identity,
		Metrics:       collector,
		SignupLimiter: httpRouter.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, log),
		Logger:        log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
