package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/medsupply/backend/internal/delivery/http"
	"github.com/medsupply/backend/internal/domain"
	"github.com/medsupply/backend/internal/forecast"
	"github.com/medsupply/backend/internal/logging"
	"github.com/medsupply/backend/internal/repository/memory"
	"github.com/medsupply/backend/internal/repository/postgres"
	redisstore "github.com/medsupply/backend/internal/repository/redis"
	"github.com/medsupply/backend/internal/service"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	// Configuration
	cfg := loadConfig()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		log.Info("No .env file found, using system environment")
	}

	areas := domain.DefaultAreas()
	if err := forecast.ValidateAreas(areas); err != nil {
		log.WithError(err).Fatal("Invalid area hierarchy")
	}

	// Dependency Injection: Repositories
	store, closeStore := openStore(cfg, areas, log)
	defer closeStore()

	// Dependency Injection: Services
	estimatorCfg := forecast.DefaultEstimatorConfig()
	if cfg.CorrelationRules != "" {
		var rules []forecast.CorrelationRule
		if err := json.Unmarshal([]byte(cfg.CorrelationRules), &rules); err != nil {
			log.WithError(err).Fatal("Invalid CORRELATION_RULES")
		}
		estimatorCfg.Rules = rules
	}
	estimator := forecast.NewEstimator(estimatorCfg)

	remote := newRemoteAnalyzer(cfg, log)
	signalSvc := service.NewSignalService(cfg.OpenWeatherAPIKey, cfg.WeatherCity, log)
	inventorySvc := service.NewInventoryService(store, log)
	communitySvc := service.NewCommunityService(store, store, log)
	supplierSvc := service.NewSupplierService(store, log)
	regionSvc := service.NewRegionService(store, estimatorCfg.Thresholds, estimatorCfg.UnitsPerCase)
	analysisSvc := service.NewAnalysisService(store, remote, signalSvc, estimator, cfg.RemoteTimeout, log)
	dashboardSvc := service.NewDashboardService(inventorySvc, regionSvc, analysisSvc, log)

	var scheduler *service.Scheduler
	if cfg.AnalysisSchedule != "" {
		scheduler = service.NewScheduler(analysisSvc, log)
		if err := scheduler.Start(cfg.AnalysisSchedule); err != nil {
			log.WithError(err).Fatal("Failed to start analysis scheduler")
		}
	}

	// Fiber App
	app := http.NewApp(cfg.RemoteTimeout + 10*time.Second)

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Routes
	handler := http.NewHandler(http.Services{
		Inventory: inventorySvc,
		Community: communitySvc,
		Suppliers: supplierSvc,
		Regions:   regionSvc,
		Analysis:  analysisSvc,
		Dashboard: dashboardSvc,
	}, store, log)
	http.SetupRoutes(app, handler)

	// Graceful shutdown
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Fatal("Server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	if scheduler != nil {
		scheduler.Stop()
	}
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.WithError(err).Warn("Server forced to shutdown")
	}
	analysisSvc.WaitBackground()
	log.Info("Server exited gracefully")
}

type Config struct {
	Port              string
	Env               string
	LogLevel          string
	LogFormat         string
	StoreDriver       string
	DatabaseURL       string
	RedisAddress      string
	RedisPassword     string
	RedisDB           int
	RedisKeyPrefix    string
	AnalysisProvider  string
	GeminiAPIKey      string
	GeminiModel       string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	MLServiceURL      string
	RemoteTimeout     time.Duration
	AnalysisSchedule  string
	CorrelationRules  string
	OpenWeatherAPIKey string
	WeatherCity       string
}

func loadConfig() *Config {
	return &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("GO_ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", "memory")),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisAddress:      getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		RedisKeyPrefix:    getEnv("REDIS_KEY_PREFIX", redisstore.DefaultKeyPrefix),
		AnalysisProvider:  strings.ToLower(getEnv("ANALYSIS_PROVIDER", "gemini")),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		MLServiceURL:      getEnv("ML_SERVICE_URL", ""),
		RemoteTimeout:     getEnvDuration("REMOTE_TIMEOUT", 30*time.Second),
		AnalysisSchedule:  getEnv("ANALYSIS_SCHEDULE", ""),
		CorrelationRules:  getEnv("CORRELATION_RULES", ""),
		OpenWeatherAPIKey: getEnv("OPENWEATHER_API_KEY", ""),
		WeatherCity:       getEnv("WEATHER_CITY", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// openStore connects the configured store and seeds it. Any connection
// failure falls back to the in-memory store so the demo keeps running.
func openStore(cfg *Config, areas []domain.Area, log *logrus.Logger) (domain.Store, func()) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	now := time.Now().UTC()

	switch cfg.StoreDriver {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err == nil {
			err = pool.Ping(ctx)
		}
		if err != nil {
			log.WithError(err).Warn("Could not connect to database, running with in-memory data")
			if pool != nil {
				pool.Close()
			}
			break
		}

		repo := postgres.NewPostgresRepository(pool, areas)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.WithError(err).Fatal("Failed to prepare database schema")
		}
		if err := repo.Seed(ctx, domain.DefaultMedicines(now), domain.DefaultSuppliers()); err != nil {
			log.WithError(err).Fatal("Failed to seed database")
		}
		log.Info("Connected to PostgreSQL")
		return repo, pool.Close

	case "redis":
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("Could not connect to Redis, running with in-memory data")
			_ = rdb.Close()
			break
		}

		store := redisstore.NewStore(rdb, cfg.RedisKeyPrefix, areas)
		if err := store.Seed(ctx, domain.DefaultMedicines(now), nil, domain.DefaultSuppliers()); err != nil {
			log.WithError(err).Fatal("Failed to seed Redis")
		}
		log.WithField("address", cfg.RedisAddress).Info("Connected to Redis")
		return store, func() { _ = rdb.Close() }

	case "memory":
	default:
		log.WithField("driver", cfg.StoreDriver).Warn("Unknown store driver, using in-memory data")
	}

	return memory.NewSeededStore(now), func() {}
}

// newRemoteAnalyzer returns the configured remote analyzer, or nil to always use the local estimator
func newRemoteAnalyzer(cfg *Config, log *logrus.Logger) service.RemoteAnalyzer {
	var remote service.RemoteAnalyzer
	switch cfg.AnalysisProvider {
	case "gemini":
		remote = service.NewGeminiBridge(cfg.GeminiAPIKey, cfg.GeminiModel)
	case "openai":
		remote = service.NewOpenAIBridge(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	case "ml":
		bridge := service.NewMLBridge(cfg.MLServiceURL)
		if bridge.Available() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := bridge.Health(ctx); err != nil {
				log.WithError(err).Warn("ML service not reachable yet")
			}
			cancel()
		}
		remote = bridge
	case "none", "":
		log.Info("Remote analysis disabled, using local estimator")
		return nil
	default:
		log.WithField("provider", cfg.AnalysisProvider).Warn("Unknown analysis provider, using local estimator")
		return nil
	}

	if !remote.Available() {
		log.WithField("provider", remote.Name()).Warn("Remote analyzer has no credentials, analyses will use the local estimator")
	}
	return remote
}
