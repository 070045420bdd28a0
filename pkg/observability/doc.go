// Package observability provides Prometheus metrics, health checks, and
// graceful shutdown helpers.
//
// # Overview
//
// This package centralizes observability infrastructure: metrics collection
// for permission checks, caches, the relationship client, and reconcile runs,
// plus health probes and shutdown handling.
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	metrics.PermissionChecksTotal.WithLabelValues("true").Inc()
//
// The adapter accessors plug the metrics into the rest of the system:
//
//	userCache := authcache.NewHash(backend, authcache.UserKeyPrefix, log).WithStats(metrics.CacheStats())
//	client := relationship.NewHTTPClient(baseURL, timeout, log).WithObserver(metrics.RelationshipObserver())
//	mw := authz.NewMiddleware(resolver).WithObserver(metrics.CheckObserver())
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, redisClient)
//	status := checker.Check(ctx)
//
// # Graceful Shutdown
//
//	sm := observability.NewShutdownManager(logger, server, 30*time.Second)
//	sm.RegisterShutdownFunc(func(ctx context.Context) error { return db.Close() })
//	sm.WaitForShutdown()
//
// # Related Packages
//
//   - pkg/authcache: cache hit/miss instrumentation
//   - pkg/relationship: upstream call instrumentation
package observability
