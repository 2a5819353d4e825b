package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/acolhe/acolhe/internal/account"
	"github.com/acolhe/acolhe/internal/auth"
	"github.com/acolhe/acolhe/internal/campaign"
	"github.com/acolhe/acolhe/internal/config"
	"github.com/acolhe/acolhe/internal/donation"
	"github.com/acolhe/acolhe/internal/mail"
	"github.com/acolhe/acolhe/internal/middleware"
	"github.com/acolhe/acolhe/internal/organizer"
	"github.com/acolhe/acolhe/internal/pending"
	"github.com/acolhe/acolhe/internal/registration"
	"github.com/acolhe/acolhe/internal/verification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	Notifier mail.Notifier

	// Ctx bounds background work started here, such as the code sweeper.
	Ctx context.Context
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Ctx == nil {
		d.Ctx = context.Background()
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	// Stores
	var codeStore verification.Store
	var accountRepo account.Repository
	var organizerRepo organizer.Repository
	var campaignRepo campaign.Repository
	var donationRepo donation.Repository
	if d.DB != nil {
		codeStore = verification.NewPostgresStore(d.DB)
		accountRepo = account.NewPostgresRepository(d.DB)
		organizerRepo = organizer.NewPostgresRepository(d.DB)
		campaignRepo = campaign.NewPostgresRepository(d.DB)
		donationRepo = donation.NewPostgresRepository(d.DB)
	} else {
		codeStore = verification.NewMemoryStore()
		accountRepo = account.NewMemoryRepository()
		organizerRepo = organizer.NewMemoryRepository()
		campaignRepo = campaign.NewMemoryRepository()
		donationRepo = donation.NewMemoryRepository()
	}

	var pendingStore pending.Store
	if d.Cache != nil {
		pendingStore = pending.NewRedisStore(d.Cache)
	} else {
		pendingStore = pending.NewMemoryStore()
	}

	notifier := d.Notifier
	if notifier == nil {
		notifier = mail.NewLogNotifier(d.Logger)
	}

	// Services and handlers
	codeSvc := verification.NewService(codeStore, notifier,
		d.Cfg.CodeTTL, d.Cfg.CodeMaxAttempts, d.Cfg.CodeRetention, d.Logger)
	go codeSvc.RunSweeper(d.Ctx, d.Cfg.SweepInterval)

	issuer := auth.NewTokenIssuer(d.Cfg.JWTSecret, d.Cfg.RefreshSecret,
		d.Cfg.AccessTokenTTL, d.Cfg.RefreshTokenTTL)
	authSvc := auth.NewService(accountRepo, codeSvc, issuer, d.Logger)
	authHandler := auth.NewHandler(authSvc)

	registrationSvc := registration.NewService(accountRepo, pendingStore, codeSvc,
		organizerRepo, issuer, d.Cfg.PendingTTL, d.Logger)
	registrationHandler := registration.NewHandler(registrationSvc)

	listCache := campaign.NewListCache(d.Cache, d.Cfg.CampaignCacheTTL, d.Logger)
	campaignSvc := campaign.NewService(campaignRepo, organizerRepo, listCache)
	campaignHandler := campaign.NewHandler(campaignSvc)

	donationSvc := donation.NewService(donationRepo, campaignRepo)
	donationHandler := donation.NewHandler(donationSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterRegistrationRoutes(api, registrationHandler)
	RegisterAuthRoutes(api, authHandler)

	// Protected routes
	jwtmw := middleware.JWTAuth(issuer, accountRepo)
	protected := api.Group("", jwtmw)
	protected.Get("/me", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("account_id").(string)
		if uid == "" {
			return c.SendStatus(http.StatusUnauthorized)
		}
		acct, err := accountRepo.FindByID(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "account not found")
		}
		resp := fiber.Map{
			"account_id":   acct.ID,
			"username":     acct.Username,
			"email":        acct.Email,
			"name":         acct.Name,
			"display_name": acct.DisplayName,
			"type":         acct.Type,
			"created_at":   acct.CreatedAt,
		}
		if profile, err := organizerRepo.FindByAccount(c.UserContext(), uid); err == nil {
			resp["organizer_id"] = profile.ID
		}
		return c.JSON(resp)
	})
	RegisterCampaignRoutes(protected, campaignHandler, donationHandler)
	RegisterDonationRoutes(protected, donationHandler)

	return nil
}
