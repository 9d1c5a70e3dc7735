package config

import (
	"Smart-Picking/internal/api/handlers"
	"Smart-Picking/internal/api/routes"
	"Smart-Picking/internal/metrics"
	"Smart-Picking/internal/middleware"
	"Smart-Picking/internal/utils"
	"Smart-Picking/internal/utils/mailing"
	"Smart-Picking/internal/utils/storage"
	"Smart-Picking/pkg/catalog"
	"Smart-Picking/pkg/handover"
	"Smart-Picking/pkg/jwt"
	"Smart-Picking/pkg/ledger"
	"Smart-Picking/pkg/operator"
	"Smart-Picking/pkg/picking"
	"Smart-Picking/pkg/provision"
	"Smart-Picking/pkg/scanner"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

// Location resolves the configured TIMEZONE, falling back to UTC.
func Location() *time.Location {
	loc, err := time.LoadLocation(utils.GetConfig("TIMEZONE"))
	if err != nil {
		log.Warnf("unknown TIMEZONE %q, using UTC: %v", utils.GetConfig("TIMEZONE"), err)
		return time.UTC
	}
	return loc
}

// NewObjectStore builds the photo store selected by STORAGE_DRIVER.
func NewObjectStore() storage.ObjectStore {
	switch strings.ToLower(utils.GetConfig("STORAGE_DRIVER")) {
	case "memory":
		log.Warn("using in-memory photo storage, uploads are lost on restart")
		return storage.NewMemoryStore()
	default:
		return storage.NewAwsS3()
	}
}

// startSessionSweeper evicts sessions idle for longer than maxIdle until the app shuts down.
func startSessionSweeper(app *fiber.App, sessions interface{ EvictIdle(time.Duration) int }, maxIdle time.Duration) {
	ticker := time.NewTicker(time.Minute)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				sessions.EvictIdle(maxIdle)
			case <-done:
				return
			}
		}
	}()
	app.Hooks().OnShutdown(func() error {
		ticker.Stop()
		close(done)
		return nil
	})
}

func NewApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
		Immutable:         true,
		BodyLimit:         16 * 1024 * 1024,
	})
	validator := utils.Validate
	loc := Location()

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   loc.String(),
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Second,
	}))

	// utils
	store := NewObjectStore()
	registry := metrics.NewRegistry()
	alerter := mailing.NewSupervisorAlerter()

	// Repository
	operatorRepository := operator.NewOperatorRepository(db)
	catalogRepository := catalog.NewCatalogRepository(db)
	ledgerRepository := ledger.NewLedgerRepository(db)

	// Service
	jwtService := jwt.NewJWTService()
	operatorService := operator.NewOperatorService(operatorRepository, utils.GetBoolConfig("REQUIRE_OPERATOR_PASSWORD"))
	catalogService := catalog.NewCatalogService(catalogRepository)
	ledgerService := ledger.NewLedgerService(
		ledgerRepository,
		utils.GetConfig("LEDGER_SHEET_NAME"),
		utils.GetConfig("RIDER_SHEET_NAME"),
	)
	provisionService := provision.NewProvisionService(
		store,
		storage.RootFolder(utils.GetConfig("STORAGE_ROOT")),
		loc,
		provision.WithMetrics(registry),
	)
	pickingService := picking.NewPickingService(picking.Options{
		Catalog:     catalogService,
		Operators:   operatorService,
		Provisioner: provisionService,
		Store:       store,
		Ledger:      ledgerService,
		Decoder:     scanner.NewDecoder(),
		Tokens:      jwtService,
		Alerter:     alerter,
		Metrics:     registry,
		Policy: picking.Policy{
			Match: picking.MatcherByName(utils.GetConfig("LOCATION_MATCH_POLICY")),
			Quantity: picking.QuantityPolicy{
				DefaultFromMaster: strings.EqualFold(utils.GetConfig("QUANTITY_DEFAULT_SOURCE"), "master"),
				EnforceMaster:     utils.GetBoolConfig("QUANTITY_ENFORCE_MASTER"),
			},
		},
		Mode:     picking.ParseMode(utils.GetConfig("PICKING_MODE")),
		Location: loc,
	})
	handoverService := handover.NewHandoverService(provisionService, store, ledgerService, loc)
	startSessionSweeper(app, pickingService, jwt.TokenTTL)

	// Handler
	authHandler := handlers.NewAuthHandler(pickingService, validator)
	pickingHandler := handlers.NewPickingHandler(pickingService, validator)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService)
	handoverHandler := handlers.NewHandoverHandler(handoverService, validator)

	// routes
	routesConfig := routes.Config{
		App:             app,
		AuthHandler:     authHandler,
		PickingHandler:  pickingHandler,
		CatalogHandler:  catalogHandler,
		LedgerHandler:   ledgerHandler,
		HandoverHandler: handoverHandler,
		Middleware:      middleware.NewMiddleware(pickingService),
		JWTService:      jwtService,
		Metrics:         registry.Handler(),
	}
	routesConfig.Setup()
	return app, nil
}
