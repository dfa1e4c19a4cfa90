package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	appControllers "github.com/minhvu/attendly/internal/app/controllers"
	appMigrations "github.com/minhvu/attendly/internal/app/migrations"
	appRepos "github.com/minhvu/attendly/internal/app/repositories"
	appRoutes "github.com/minhvu/attendly/internal/app/routes"
	appServices "github.com/minhvu/attendly/internal/app/services"
	"github.com/minhvu/attendly/internal/config"
	"github.com/minhvu/attendly/internal/db"
	appMiddleware "github.com/minhvu/attendly/internal/middleware"
	pkgAuth "github.com/minhvu/attendly/internal/pkg/auth"
	"github.com/minhvu/attendly/internal/pkg/cache"
	"github.com/minhvu/attendly/internal/pkg/helpers"
	"github.com/minhvu/attendly/internal/pkg/logger"
	"github.com/minhvu/attendly/internal/pkg/recognizer"
	"github.com/minhvu/attendly/internal/seed"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService          *appServices.AuthService
	ScheduleService      *appServices.ScheduleService
	AttendanceService    *appServices.AttendanceService
	RequestService       *appServices.RequestService
	AuthController       *appControllers.AuthController
	ScheduleController   *appControllers.ScheduleController
	AttendanceController *appControllers.AttendanceController
	RequestController    *appControllers.RequestController
	AuthMiddleware       *appMiddleware.AuthMiddleware
	Repos                *appRepos.Repositories
	JWTService           *pkgAuth.JWTService
	ScheduleCache        *cache.ScheduleCache
	Recognizer           *recognizer.CommandRecognizer
	Logger               zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(context.Background(), dbPool, lgr); err != nil {
		// Log the error but don't fail the startup
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	// Schedule cache is optional; a nil *ScheduleCache is a no-op.
	if cfg.Redis.Enabled {
		scheduleCache, err := cache.NewScheduleCache(
			cfg.Redis.Addr,
			helpers.ParseDuration(cfg.Redis.TTL, 5*time.Minute),
		)
		if err != nil {
			lgr.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable, running without schedule cache")
		} else {
			deps.ScheduleCache = scheduleCache
			lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Schedule cache enabled")
		}
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	// The recognizer command is an external process; mark it ready up
	// front, flipping to not-ready is an operational escape hatch.
	command, args := splitCommand(cfg.Recognizer.Command)
	if command == "" {
		return nil, fmt.Errorf("recognizer command is empty")
	}
	deps.Recognizer = recognizer.NewCommandRecognizer(
		command,
		args,
		helpers.ParseDuration(cfg.Recognizer.Timeout, 60*time.Second),
	)
	deps.Recognizer.SetReady(true)

	deps.AuthService = appServices.NewAuthService(deps.Repos.UserRepository, deps.JWTService)
	deps.ScheduleService = appServices.NewScheduleService(
		deps.Repos.ClassRepository,
		deps.Repos.RequestRepository,
		deps.ScheduleCache,
	)
	deps.AttendanceService = appServices.NewAttendanceService(
		deps.Repos.AttendanceRepository,
		deps.Repos.ClassRepository,
		deps.ScheduleService,
		deps.Recognizer,
		helpers.ParseDuration(cfg.Attendance.LateAfter, 15*time.Minute),
		cfg.Attendance.Policy,
		cfg.Recognizer.MinConfidence,
	)
	deps.RequestService = appServices.NewRequestService(
		deps.Repos.RequestRepository,
		deps.Repos.ClassRepository,
		deps.Repos.SubjectRepository,
		deps.ScheduleCache,
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService)
	deps.ScheduleController = appControllers.NewScheduleController(deps.ScheduleService)
	deps.AttendanceController = appControllers.NewAttendanceController(deps.AttendanceService)
	deps.RequestController = appControllers.NewRequestController(deps.RequestService)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(appMiddleware.RequestLogger(), gin.Recovery())

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.ScheduleController,
		deps.AttendanceController,
		deps.RequestController,
		deps.AuthMiddleware,
	)

	// Test endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}

// splitCommand separates a configured command line into the executable
// and its arguments
func splitCommand(raw string) (string, []string) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}
