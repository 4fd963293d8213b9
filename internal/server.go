package internal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/2beens/rehabtracker/internal/auth"
	"github.com/2beens/rehabtracker/internal/config"
	"github.com/2beens/rehabtracker/internal/db"
	"github.com/2beens/rehabtracker/internal/middleware"
	"github.com/2beens/rehabtracker/internal/program"
	"github.com/2beens/rehabtracker/internal/report"
	"github.com/2beens/rehabtracker/internal/telemetry/metrics"
	"github.com/2beens/rehabtracker/internal/telemetry/tracing"
	"github.com/2beens/rehabtracker/pkg"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server

	config *config.Config
	dbPool *pgxpool.Pool // set with the postgres driver
	sqlDB  *sql.DB       // set with the sqlite driver

	programStore program.Store
	artifacts    report.ArtifactStore
	resolver     auth.Resolver

	redisClient *redis.Client // optional

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	JWTSecret               string
	PostgresUser            string
	PostgresPassword        string
	RedisPassword           string
	S3AccessKeyID           string
	S3SecretAccessKey       string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "rehab-backend")
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:       cfg,
		otelShutdown: otelShutdown,
	}

	var pgxpoolCollector prometheus.Collector
	switch cfg.DBDriver {
	case config.DBDriverPostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         params.PostgresUser,
			DBPassword:     params.PostgresPassword,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}

		psqlRepo := program.NewPsqlRepo(dbPool)
		if err := psqlRepo.EnsureSchema(ctx); err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("ensure postgres schema: %w", err)
		}

		s.dbPool = dbPool
		s.programStore = psqlRepo
		pgxpoolCollector = pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		)
	case config.DBDriverSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}

		sqliteRepo := program.NewSQLiteRepo(sqlDB)
		if err := sqliteRepo.EnsureSchema(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("ensure sqlite schema: %w", err)
		}

		s.sqlDB = sqlDB
		s.programStore = sqliteRepo
	default:
		return nil, fmt.Errorf("unknown db driver: %s", cfg.DBDriver)
	}

	s.promRegistry = metrics.SetupPrometheus(pgxpoolCollector)
	s.metricsManager = metrics.NewManager("backend", "rehab", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	var revocations auth.RevocationChecker
	if cfg.RedisHost != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: params.RedisPassword,
			DB:       0, // use default DB
		})
		rdb.AddHook(redisotel.NewTracingHook())

		rdbStatus := rdb.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}

		s.redisClient = rdb
		revocations = auth.NewRedisRevocationList(rdb)
	} else {
		log.Warnln("redis not configured: token revocation and report rate limiting disabled")
	}

	if params.JWTSecret == "" {
		log.Errorln("jwt secret not set, every request will be rejected as unauthenticated")
	}
	s.resolver = auth.NewJWTResolver([]byte(params.JWTSecret), revocations)

	switch cfg.ArtifactsDriver {
	case config.ArtifactsDriverS3:
		s.artifacts, err = report.NewS3ArtifactStore(ctx, report.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			PathStyle:       cfg.S3PathStyle,
			AccessKeyID:     params.S3AccessKeyID,
			SecretAccessKey: params.S3SecretAccessKey,
		})
	default:
		s.artifacts, err = report.NewDiskArtifactStore(cfg.ReportsDir)
	}
	if err != nil {
		s.closeStores()
		return nil, fmt.Errorf("new artifact store [%s]: %w", cfg.ArtifactsDriver, err)
	}

	return s, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("rehab-router"))

	programHandler := program.NewHandler(
		program.NewService(s.programStore, s.metricsManager),
	)
	reportHandler := report.NewHandler(
		report.NewGenerator(s.programStore, s.artifacts, s.metricsManager),
	)

	var generateReport http.Handler = http.HandlerFunc(reportHandler.HandleGenerate)
	if s.redisClient != nil {
		generateReport = middleware.RateLimit(
			redis_rate.NewLimiter(s.redisClient),
			"generate-report",
			s.config.ReportRateLimitMin,
			s.metricsManager,
		)(generateReport)
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteJSONMessage(w, "ok", http.StatusOK)
	}).Methods("GET").Name("health")

	r.HandleFunc("/exercises_todo", programHandler.HandleCreate).Methods("POST", "OPTIONS").Name("new-exercise")
	r.HandleFunc("/exercises_todo/{id:[0-9]+}", programHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-exercise")
	r.HandleFunc("/exercises_todo/{id:[0-9]+}", programHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-exercise")
	r.HandleFunc("/exercises_todo/patient/{patientId}", programHandler.HandleList).Methods("GET", "OPTIONS").Name("list-exercises")
	r.HandleFunc("/exercises_todo/{id:[0-9]+}/completion_state", programHandler.HandleUpdateCompletionState).Methods("PUT", "OPTIONS").Name("update-completion-state")
	r.Handle("/reports/{patientId}", generateReport).Methods("GET", "OPTIONS").Name("generate-report")

	// routes kept for clients of the previous service
	r.HandleFunc("/add_exercise_todo", programHandler.HandleCreate).Methods("POST", "OPTIONS")
	r.HandleFunc("/update_exercise_todo/{id:[0-9]+}", programHandler.HandleUpdate).Methods("PUT", "OPTIONS")
	r.HandleFunc("/delete_exercise_todo/{id:[0-9]+}", programHandler.HandleDelete).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/get_exercises/{patientId}", programHandler.HandleList).Methods("GET", "OPTIONS")
	r.HandleFunc("/update_exercise_completion_state/{id:[0-9]+}", programHandler.HandleUpdateCompletionState).Methods("PUT", "OPTIONS")
	r.Handle("/generate_report/{patientId}", generateReport).Methods("GET", "OPTIONS")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.resolver)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.CorsAllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.LimitAndDrainRequest(middleware.DefaultMaxBodyBytes))

	return r, nil
}

func (s *Server) Serve(host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop taking requests before the stores go away
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	s.closeStores()

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
}

func (s *Server) closeStores() {
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if s.sqlDB != nil {
		if err := s.sqlDB.Close(); err != nil {
			log.Errorf("failed to close sqlite db: %s", err)
		}
	}
}
