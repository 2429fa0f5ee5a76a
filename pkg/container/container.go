package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	assistantHandler "library-backend/internal/assistant/handler"
	"library-backend/internal/config"
	infraCache "library-backend/internal/infrastructure/cache"
	"library-backend/internal/infrastructure/database"
	"library-backend/pkg/cache"

	"library-backend/internal/assistant"
	borrowerHandler "library-backend/internal/domains/borrower/handler"
	borrowerRepo "library-backend/internal/domains/borrower/repository"
	borrowerService "library-backend/internal/domains/borrower/service"
	catalogHandler "library-backend/internal/domains/catalog/handler"
	catalogRepo "library-backend/internal/domains/catalog/repository"
	catalogService "library-backend/internal/domains/catalog/service"
	loanHandler "library-backend/internal/domains/loan/handler"
	loanRepo "library-backend/internal/domains/loan/repository"
	loanService "library-backend/internal/domains/loan/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container holds the full dependency graph. Everything in it is a
// singleton living for the life of the process.
type Container struct {
	// Infrastructure
	Config      *config.Config
	DB          *database.PostgresDB
	Cache       cache.Cache
	AsynqClient *asynq.Client

	// Repositories
	CatalogRepo  catalogRepo.RepositoryInterface
	BorrowerRepo borrowerRepo.RepositoryInterface
	LoanRepo     loanRepo.RepositoryInterface

	// Services
	CatalogService  catalogService.ServiceInterface
	BorrowerService borrowerService.ServiceInterface
	LoanService     loanService.ServiceInterface

	// Handlers
	CatalogHandler   *catalogHandler.Handler
	BorrowerHandler  *borrowerHandler.Handler
	LoanHandler      *loanHandler.Handler
	AssistantHandler *assistantHandler.Handler
}

// NewContainer builds the dependency graph in order: config, then
// infrastructure, then repositories, services, and handlers. Getting
// the order wrong panics on a nil dependency, so don't.
func NewContainer() (*Container, error) {
	log.Println("🔧 Initializing DI Container...")

	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("✅ Config loaded (Environment: %s)", cfg.App.Environment)

	// ========================================
	// STEP 2: INITIALIZE DATABASE
	// ========================================
	log.Println("🗄️  Connecting to PostgreSQL...")

	db := database.NewPostgresDB(&cfg.Database)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	c.DB = db
	log.Println("✅ Database connected")

	// ========================================
	// STEP 3: INITIALIZE CACHE + QUEUE
	// ========================================
	log.Println("🔴 Connecting to Redis...")

	redisCache := infraCache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisCache.Ping(context.Background()); err != nil {
		// Redis failure is non-critical: caching degrades, queue
		// dispatch is retried by the scheduled sweep.
		log.Printf("⚠️  Redis connection failed (non-critical): %v", err)
	} else {
		log.Println("✅ Redis connected")
	}
	c.Cache = redisCache

	c.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// ========================================
	// STEP 4: INITIALIZE REPOSITORIES
	// ========================================
	c.CatalogRepo = catalogRepo.NewPostgresRepository(c.DB.Pool, c.Cache)
	c.BorrowerRepo = borrowerRepo.NewPostgresRepository(c.DB.Pool)
	c.LoanRepo = loanRepo.NewPostgresRepository(c.DB.Pool)
	log.Println("✅ Repositories initialized")

	// ========================================
	// STEP 5: INITIALIZE SERVICES
	// ========================================
	c.CatalogService = catalogService.NewService(c.CatalogRepo)
	c.BorrowerService = borrowerService.NewService(c.BorrowerRepo)
	c.LoanService = loanService.NewService(
		c.LoanRepo,
		c.CatalogRepo,
		c.BorrowerRepo,
		c.AsynqClient,
		time.Now,
	)
	log.Println("✅ Services initialized")

	// ========================================
	// STEP 6: INITIALIZE HANDLERS
	// ========================================
	c.CatalogHandler = catalogHandler.NewHandler(c.CatalogService)
	c.BorrowerHandler = borrowerHandler.NewHandler(c.BorrowerService)
	c.LoanHandler = loanHandler.NewHandler(c.LoanService)

	registry := assistant.NewToolRegistry(c.CatalogService, c.BorrowerService, c.LoanService)
	c.AssistantHandler = assistantHandler.NewHandler(registry)
	log.Println("✅ Handlers initialized")

	log.Println("🎉 DI Container initialized successfully")
	return c, nil
}

// Cleanup releases infrastructure connections, last-in first-out.
func (c *Container) Cleanup() {
	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Printf("⚠️  Asynq client close failed: %v", err)
		}
	}

	if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
		if err := rc.Close(); err != nil {
			log.Printf("⚠️  Redis close failed: %v", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	log.Println("👋 Container cleaned up")
}
