package main

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/starcommerce/lms-auth/pkg/authcache"
	"github.com/starcommerce/lms-auth/pkg/authz"
	"github.com/starcommerce/lms-auth/pkg/config"
	"github.com/starcommerce/lms-auth/pkg/httputil"
	"github.com/starcommerce/lms-auth/pkg/menu"
	"github.com/starcommerce/lms-auth/pkg/observability"
	"github.com/starcommerce/lms-auth/pkg/registry"
	"github.com/starcommerce/lms-auth/pkg/relationship"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("Invalid log level %q, falling back to info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancel()
		logger.Fatalf("Failed to ping database: %v", err)
	}
	cancel()

	if err := authz.RunMigrations(ctx, db, logger); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	var backend authcache.Backend
	var redisClient *redis.Client
	switch cfg.Cache.Backend {
	case "redis":
		redisClient, err = authcache.NewRedisClient(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			// Cache reads fail open, so a dead Redis at boot is degraded
			// service, not a fatal error. Keep an unpinged client and let
			// each operation retry.
			logger.Warnf("Redis unavailable at startup: %v", err)
			redisClient = redis.NewClient(&redis.Options{
				Addr:     cfg.Cache.RedisAddr,
				Password: cfg.Cache.RedisPassword,
				DB:       cfg.Cache.RedisDB,
			})
		}
		backend = authcache.NewRedisBackend(redisClient)
	case "memory":
		memBackend, err := authcache.NewMemoryBackend(cfg.Cache.MemorySize)
		if err != nil {
			logger.Fatalf("Failed to create memory cache: %v", err)
		}
		backend = memBackend
	default:
		logger.Fatalf("Unknown cache backend: %s", cfg.Cache.Backend)
	}

	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)

	users := authcache.NewHash(backend, authcache.UserKeyPrefix, logger).WithStats(metrics.CacheStats())
	roles := authcache.NewHash(backend, authcache.RoleKeyPrefix, logger).WithStats(metrics.CacheStats())

	var client relationship.Client
	if cfg.Relationship.BaseURL != "" {
		client = relationship.NewHTTPClient(cfg.Relationship.BaseURL, cfg.Relationship.Timeout, logger).
			WithObserver(metrics.RelationshipObserver())
	} else {
		logger.Info("No relationship service configured, only unconditional mapping rules will apply")
	}

	store := authz.NewSQLStore(db)
	resolver := authz.NewResolver(store, users, roles, client, relationship.DefaultMapping(), logger)

	reg := registry.New()
	if err := authz.RegisterCapabilities(reg); err != nil {
		logger.Fatalf("Failed to register capabilities: %v", err)
	}
	resolver.WithProviders(authz.NewMappingProvider(reg, resolver))

	service := authz.NewService(store, resolver, logger)

	reconciler := &observedReconciler{
		inner:   registry.NewReconciler(reg, store, authz.PseudoPermissions(), logger),
		metrics: metrics,
	}

	if cfg.Reconcile.OnBoot {
		result, err := reconciler.Reconcile(ctx)
		if err != nil {
			logger.Fatalf("Boot reconcile failed: %v", err)
		}
		logger.WithFields(logrus.Fields{
			"created": result.Created,
			"updated": result.Updated,
			"deleted": result.Deleted,
		}).Info("Boot reconcile completed")
	}

	var scheduler *cron.Cron
	if cfg.Reconcile.Schedule != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.Reconcile.Schedule, func() {
			defer observability.RecoverPanic(logger, "scheduled reconcile")
			if _, err := reconciler.Reconcile(context.Background()); err != nil {
				logger.Errorf("Scheduled reconcile failed: %v", err)
			}
		})
		if err != nil {
			logger.Fatalf("Invalid reconcile schedule %q: %v", cfg.Reconcile.Schedule, err)
		}
		scheduler.Start()
		logger.WithField("schedule", cfg.Reconcile.Schedule).Info("Reconcile scheduler started")
	}

	router := mux.NewRouter()
	router.Use(httputil.RequestIDMiddleware)
	router.Use(observability.HTTPMetricsMiddleware(metrics))
	router.Use(httputil.LoggingMiddleware(logger))
	router.Use(httputil.RecoveryMiddleware(logger))
	router.Use(httputil.MaxBytesMiddleware(1 << 20))
	router.Use(principalMiddleware)

	mw := authz.NewMiddleware(resolver).WithObserver(metrics.CheckObserver())
	handlers := authz.NewHandlers(resolver, service, reconciler, menu.Default(), logger)
	handlers.RegisterRoutes(router, mw)

	healthMux := http.NewServeMux()
	checker := observability.NewHealthChecker(db, redisClient)
	observability.RegisterHealthRoutes(healthMux, checker)
	observability.RegisterMetricsEndpoint(healthMux, promRegistry)

	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}
	go func() {
		logger.WithField("addr", healthServer.Addr).Info("Health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Health server error: %v", err)
		}
	}()

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sm := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		if scheduler != nil {
			<-scheduler.Stop().Done()
		}
		return nil
	})
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		if redisClient != nil {
			return redisClient.Close()
		}
		return nil
	})
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		return db.Close()
	})

	go func() {
		logger.WithField("addr", server.Addr).Info("API server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("API server error: %v", err)
		}
	}()

	sm.WaitForShutdown()
}

// observedReconciler wraps the registry reconciler with run metrics.
type observedReconciler struct {
	inner   *registry.Reconciler
	metrics *observability.Metrics
}

func (r *observedReconciler) Reconcile(ctx context.Context) (registry.Result, error) {
	result, err := r.inner.Reconcile(ctx)
	r.metrics.RecordReconcile(result, err)
	return result, err
}

// principalMiddleware builds the request principal from the identity headers
// set by the authentication gateway in front of this service. Requests with
// no X-Auth-Username header run as the anonymous principal.
func principalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := authz.Anonymous()
		if username := r.Header.Get("X-Auth-Username"); username != "" {
			p = authz.Principal{
				Username:      username,
				Authenticated: true,
				Active:        headerBool(r, "X-Auth-Active", true),
				Staff:         headerBool(r, "X-Auth-Staff", false),
				Superuser:     headerBool(r, "X-Auth-Superuser", false),
			}
		}
		next.ServeHTTP(w, r.WithContext(authz.WithPrincipal(r.Context(), p)))
	})
}

func headerBool(r *http.Request, name string, fallback bool) bool {
	value := r.Header.Get(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
