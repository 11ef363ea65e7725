package router

import (
	"time"

	"stocktrace/internal/config"
	"stocktrace/internal/handler"
	"stocktrace/internal/middleware"
	"stocktrace/internal/repository"
	"stocktrace/internal/service"
	"stocktrace/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// ── Repositories ─────────────────────────────────────────────────────────
	componentRepo := repository.NewComponentRepository(db)
	bomRepo := repository.NewBOMRepository(db)
	stockItemRepo := repository.NewStockItemRepository(db)
	boxRepo := repository.NewProductionBoxRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	buildRepo := repository.NewBuildRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	operatorRepo := repository.NewOperatorRepository(db)

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP
	r.Use(middleware.ActorContext(operatorRepo))

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	identitySvc := service.NewIdentityService(componentRepo)
	ledgerSvc := service.NewLedgerService(componentRepo, identitySvc)
	explosionSvc := service.NewExplosionService(componentRepo, bomRepo, stockItemRepo, identitySvc, ledgerSvc)
	associationSvc := service.NewAssociationService(stockItemRepo, auditRepo, identitySvc)
	buildSvc := service.NewBuildService(componentRepo, bomRepo, stockItemRepo, boxRepo, buildRepo,
		documentRepo, auditRepo, ledgerSvc, associationSvc, identitySvc, dispatcher)
	historySvc := service.NewHistoryService(componentRepo, bomRepo, stockItemRepo, buildRepo,
		auditRepo, documentRepo, identitySvc, associationSvc)
	reservationSvc := service.NewReservationService(componentRepo, reservationRepo, boxRepo,
		stockItemRepo, auditRepo, identitySvc)
	loadSvc := service.NewLoadService(componentRepo, boxRepo, stockItemRepo, auditRepo, ledgerSvc)
	alertSvc := service.NewAlertService(componentRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	productionH := handler.NewProductionHandler(reservationSvc, loadSvc, buildSvc, associationSvc,
		historySvc, cfg.PDFStoragePath)
	stockH := handler.NewStockHandler(explosionSvc, loadSvc, alertSvc, rdb,
		time.Duration(cfg.AvailabilityCacheTTL)*time.Second)
	historyH := handler.NewHistoryHandler(historySvc, reservationSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(db, rdb))

	v1 := r.Group("/v1")
	{
		v1.POST("/reservations", productionH.CreateReservation)
		v1.GET("/boxes/:id", productionH.GetBox)
		v1.POST("/boxes/:id/load", productionH.LoadBox)
		v1.POST("/associate", productionH.Associate)
		v1.POST("/builds", productionH.AttemptBuild)
		v1.GET("/builds/:id/report.pdf", productionH.BuildReport)

		v1.GET("/components/:id/availability", stockH.Availability)
		v1.POST("/components/:id/stock", stockH.Intake)
		v1.GET("/components/:id/history", historyH.GetHistory)
		v1.GET("/components/:id/events", historyH.ListEvents)

		v1.GET("/codes/*code", historyH.ResolveCode)
		v1.GET("/alerts", stockH.Alerts)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
