package router

import (
	"net/http"
	"strings"
	"time"

	acceptsvc "givehub-backend/internal/application/acceptance"
	authsvc "givehub-backend/internal/application/auth"
	campaignsvc "givehub-backend/internal/application/campaigns"
	donationsvc "givehub-backend/internal/application/donations"
	emailsvc "givehub-backend/internal/application/emails"
	healthsvc "givehub-backend/internal/application/health"
	eventsvc "givehub-backend/internal/application/marketevents"
	purchasesvc "givehub-backend/internal/application/purchases"
	quotesvc "givehub-backend/internal/application/quotations"
	requestsvc "givehub-backend/internal/application/requests"
	uploadsvc "givehub-backend/internal/application/uploads"
	usersvc "givehub-backend/internal/application/user"
	"givehub-backend/internal/config"
	"givehub-backend/internal/infrastructure/cache"
	"givehub-backend/internal/infrastructure/database"
	"givehub-backend/internal/infrastructure/ledger"
	authhandler "givehub-backend/internal/interfaces/handlers/auth"
	campaignhandler "givehub-backend/internal/interfaces/handlers/campaigns"
	donationhandler "givehub-backend/internal/interfaces/handlers/donations"
	healthhandler "givehub-backend/internal/interfaces/handlers/health"
	eventhandler "givehub-backend/internal/interfaces/handlers/marketevents"
	quotehandler "givehub-backend/internal/interfaces/handlers/quotations"
	requesthandler "givehub-backend/internal/interfaces/handlers/requests"
	txhandler "givehub-backend/internal/interfaces/handlers/transactions"
	uploadhandler "givehub-backend/internal/interfaces/handlers/uploads"
	userhandler "givehub-backend/internal/interfaces/handlers/user"
	"givehub-backend/internal/middleware"
	"givehub-backend/internal/pkg/constants"
	"givehub-backend/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP surface is built from. CreateApp fills them from
// config; tests pass in-memory stores and fakes.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Rdb      *redis.Client
	Ledger   ledger.Recorder
	Storage  uploadsvc.StorageClient
	Emails   emailsvc.Sender
	Registry *prometheus.Registry
	Now      func() time.Time
}

// CreateApp opens the database and Redis from cfg and returns the wired Fiber app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	rdb, err := cache.Open(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
	}

	var recorder ledger.Recorder
	if cfg.LedgerURL != "" {
		recorder = ledger.NewHTTPClient(cfg.LedgerURL, cfg.LedgerAPIKey)
	} else {
		log.Warn().Str("account", cfg.LedgerAccount).Msg("LEDGER_URL not set, recording donations locally")
		recorder = ledger.NewLocalRecorder(cfg.LedgerAccount)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app := NewApp(Deps{
		Config:   cfg,
		DB:       db,
		Rdb:      rdb,
		Ledger:   recorder,
		Storage:  uploadsvc.NewHTTPClient(cfg.SupabaseURL, cfg.SupabaseSecretKey),
		Emails:   emailsvc.NewBrevoClient(cfg.SendinblueAPIKey, cfg.MailFrom, cfg.AppBaseURL),
		Registry: reg,
	})
	return app, db, rdb, nil
}

// NewApp registers global middleware and every route on a fresh Fiber app.
func NewApp(d Deps) *fiber.App {
	cfg := d.Config
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.NewErrorHandler(d.Rdb),
		EnableTrustedProxyCheck: true,
	})

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.Timeout(cfg.RequestTimeout))
	app.Use(middleware.Session(sessionCfg, d.Rdb))
	app.Use(middleware.HealthMarker(d.Rdb))
	app.Use(middleware.RouteLogger())

	var mkt *metrics.Marketplace
	if d.Registry != nil {
		mkt = metrics.NewMarketplace(d.Registry)
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	// health
	probes := []healthsvc.Probe{{Name: "frontend", URL: cfg.AppBaseURL}}
	if cfg.LedgerURL != "" {
		probes = append(probes, healthsvc.Probe{Name: "ledger", URL: strings.TrimRight(cfg.LedgerURL, "/") + "/health"})
	}
	hh := &healthhandler.Handlers{
		Rdb:            d.Rdb,
		DB:             healthsvc.GormPinger{DB: d.DB},
		Probes:         probes,
		HealthAdminKey: cfg.HealthAdminKey,
		Store:          d.DB,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health", hh.Liveness)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	// donations control plane
	ds := &donationsvc.Service{DB: d.DB, Ledger: d.Ledger, Metrics: mkt, Now: d.Now}
	dh := &donationhandler.Handlers{Service: ds}
	dg := app.Group("/donations", middleware.RequireAPIKey(cfg.DonationsAPIKey))
	dg.Post("/", middleware.Idempotency(d.Rdb, cfg.IdempotencyTTL), dh.Record)
	dg.Get("/", dh.List)
	dg.Get("/:id", dh.Get)

	api := app.Group("/api/v1")

	ah := &authhandler.Handlers{
		UserFinder: &authsvc.GormUserFinder{DB: d.DB},
		Rdb:        d.Rdb,
		Config:     sessionCfg,
	}
	ag := api.Group("/auth")
	ag.Post("/login", ah.Login)
	ag.Get("/me", ah.Me)
	ag.Delete("/logout", ah.Logout)

	us := &usersvc.Service{DB: d.DB, Rdb: d.Rdb, Emails: d.Emails}
	uh := &userhandler.Handlers{Service: us, Config: sessionCfg}
	api.Post("/users/register", uh.Register)
	ug := api.Group("/users", middleware.RequireAuth())
	ug.Get("/me", uh.Me)
	ug.Patch("/me", uh.UpdateMe)

	cs := &campaignsvc.Service{DB: d.DB}
	ch := &campaignhandler.Handlers{Service: cs}
	cg := api.Group("/campaigns", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ManageCampaigns))
	cg.Post("/", ch.CreateCampaign)
	cg.Get("/mine", ch.ListMine)

	rs := &requestsvc.Service{DB: d.DB, Campaigns: cs, DefaultDeadline: cfg.DefaultRequestDeadline, Metrics: mkt, Now: d.Now}
	qs := &quotesvc.Service{DB: d.DB, Metrics: mkt, Now: d.Now}
	acc := &acceptsvc.Service{DB: d.DB, Notifier: d.Emails, Metrics: mkt, Now: d.Now}

	rh := &requesthandler.Handlers{Requests: rs, Quotations: qs}
	rg := api.Group("/requests", middleware.RequireAuth())
	rg.Post("/", middleware.AuthorizePermission(constants.ManageRequests), rh.Create)
	rg.Get("/mine", middleware.AuthorizePermission(constants.ManageRequests), rh.ListMine)
	rg.Get("/open", middleware.AuthorizePermission(constants.ViewRequests), rh.ListOpen)
	rg.Get("/:id", middleware.AuthorizePermission(constants.ViewRequests), rh.Get)
	rg.Post("/:id/close", middleware.AuthorizePermission(constants.ManageRequests), rh.Close)
	rg.Post("/:id/quotations", middleware.AuthorizePermission(constants.SubmitQuotation), rh.SubmitQuotation)
	rg.Get("/:id/quotations", middleware.AuthorizePermission(constants.ViewRequests), rh.ListQuotations)

	qh := &quotehandler.Handlers{Quotations: qs, Acceptance: acc}
	qg := api.Group("/quotations", middleware.RequireAuth())
	qg.Get("/mine", middleware.AuthorizePermission(constants.SubmitQuotation), qh.ListMine)
	qg.Delete("/:id", middleware.AuthorizePermission(constants.SubmitQuotation), qh.Delete)
	qg.Post("/:id/accept", middleware.AuthorizePermission(constants.AcceptQuotation), qh.Accept)

	ps := &purchasesvc.Service{DB: d.DB, Payments: d.Ledger, Notifier: d.Emails, Metrics: mkt, Now: d.Now}
	th := &txhandler.Handlers{Service: ps}
	tg := api.Group("/transactions", middleware.RequireAuth())
	tg.Get("/mine", middleware.AuthorizePermission(constants.ViewTransactions), th.ListMine)
	tg.Get("/:id", middleware.AuthorizePermission(constants.ViewTransactions), th.Get)
	tg.Post("/:id/ship", middleware.AuthorizePermission(constants.FulfilTransaction), th.Ship)
	tg.Post("/:id/deliver", middleware.AuthorizePermission(constants.FulfilTransaction), th.Deliver)
	tg.Post("/:id/release-payment", middleware.AuthorizePermission(constants.SettleTransaction), th.ReleasePayment)
	tg.Post("/:id/report-issue", middleware.AuthorizePermission(constants.SettleTransaction), th.ReportIssue)

	eh := &eventhandler.Handlers{Service: &eventsvc.Service{DB: d.DB}}
	api.Get("/market-events/:aggregate_id", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ViewMarketEvents), eh.ListForAggregate)

	uph := &uploadhandler.Handlers{Service: &uploadsvc.Service{Client: d.Storage, SupabaseURL: cfg.SupabaseURL, Now: d.Now}}
	upg := api.Group("/uploads", middleware.RequireAuth(), middleware.AuthorizePermission(constants.UploadVendorFiles))
	upg.Post("/quotation-attachment", uph.QuotationAttachment)
	upg.Post("/delivery-photo", uph.DeliveryPhoto)

	return app
}

// Handler exposes the app as a net/http handler for serverless entry points.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
