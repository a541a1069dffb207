package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/school-core/internal"
	"github.com/frahmantamala/school-core/internal/access"
	"github.com/frahmantamala/school-core/internal/audit"
	auditPostgres "github.com/frahmantamala/school-core/internal/audit/postgres"
	"github.com/frahmantamala/school-core/internal/auth"
	authPostgres "github.com/frahmantamala/school-core/internal/auth/postgres"
	"github.com/frahmantamala/school-core/internal/core/events"
	"github.com/frahmantamala/school-core/internal/rbac"
	rbacPostgres "github.com/frahmantamala/school-core/internal/rbac/postgres"
	"github.com/frahmantamala/school-core/internal/tenancy"
	tenancyPostgres "github.com/frahmantamala/school-core/internal/tenancy/postgres"
	"github.com/frahmantamala/school-core/internal/transport"
	"github.com/frahmantamala/school-core/internal/transport/rest"
	"github.com/frahmantamala/school-core/internal/transport/swagger"
	"github.com/frahmantamala/school-core/internal/upload"
	uploadPostgres "github.com/frahmantamala/school-core/internal/upload/postgres"
	"github.com/frahmantamala/school-core/pkg/logger"
	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer(cmd.Context())
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Gorm   *gorm.DB
	App    *application
	Logger *slog.Logger
}

type application struct {
	Router *chi.Mux
	Pool   *upload.Pool
	Bus    *events.EventBus
}

// drain lets running uploads and background event handlers finish.
func (a *application) drain() {
	a.Pool.Shutdown()
	a.Bus.Wait()
}

func startHTTPServer(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := initializeDependencies(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		return err
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           deps.App.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		deps.Logger.Info("Starting HTTP server", "address", addr, "env", deps.Config.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		deps.Logger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
		deps.App.drain()
		if err := deps.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		deps.Logger.Error("Server stopped with error", "error", err)
		return err
	}

	deps.Logger.Info("Server stopped")
	return nil
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, v, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg := logger.Init(config.Env, config.Observability.Logging.Level, config.Observability.Logging.Format)
	watchConfig(v, lg)

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	docs, err := swagger.Load(ctx, config.Server.OpenAPIPath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}

	app := wireApplication(config, db, gormDB, docs, lg)

	return &Dependencies{
		Config: config,
		DB:     db,
		Gorm:   gormDB,
		App:    app,
		Logger: lg,
	}, nil
}

// wireApplication builds every service on top of the given connections.
func wireApplication(config *internal.Config, db *sqlx.DB, gormDB *gorm.DB, docs *swagger.Document, lg *slog.Logger) *application {
	bus := events.NewEventBus(lg)
	registerEventSubscribers(bus, lg)

	projectRepo := tenancyPostgres.NewProjectRepository(gormDB)
	rbacRepo := rbacPostgres.NewRBACRepository(gormDB)
	uploadRepo := uploadPostgres.NewUploadRepository(gormDB)

	resolver := tenancy.NewResolver(projectRepo, lg)
	recorder := audit.NewRecorder(auditPostgres.NewAuditRepository(gormDB), lg)
	engine := rbac.NewEngine(rbacRepo, lg)
	guard := access.NewGuard(resolver, engine, recorder, bus, lg)

	pool := upload.NewPool(upload.PoolConfig{
		MaxWorkers:   config.Upload.MaxWorkers,
		JobQueueSize: config.Upload.JobQueueSize,
		JobTimeout:   config.Upload.JobTimeout,
	}, lg)

	tenancyService := tenancy.NewService(projectRepo, recorder, guard, bus, lg)
	rbacService := rbac.NewService(rbacRepo, guard, engine, recorder, lg)
	uploadService := upload.NewService(upload.NewPipeline(uploadRepo, uploadRepo, lg),
		uploadRepo, pool, guard, recorder, bus, config.Upload.MaxRows, lg)
	authService := auth.NewService(authPostgres.NewUserRepository(gormDB),
		auth.NewJWTTokenGeneratorFromConfig(config.Security), lg)

	base := transport.NewBaseHandler(lg)
	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.RouterConfig{
		AllowedOrigins:  config.Server.AllowedOrigins,
		Production:      config.IsProduction(),
		UploadRateLimit: config.Server.UploadRateLimit,
		Logger:          lg,
	}, rest.Handlers{
		Health:  rest.NewHealthHandler(db),
		Auth:    auth.NewHandler(base, authService),
		Tenancy: tenancy.NewHandler(base, tenancyService),
		RBAC:    rbac.NewHandler(base, rbacService),
		Upload:  upload.NewHandler(base, uploadService),
		Audit:   audit.NewHandler(base, recorder, guard),
		Docs:    docs,
	})

	return &application{Router: router, Pool: pool, Bus: bus}
}

// initDB opens the pgx pool through sqlx; gorm reuses the same *sql.DB.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return gormDB, nil
}
