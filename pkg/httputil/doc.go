// Package httputil provides common HTTP middleware.
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.MaxBytesMiddleware(1<<20),
//	)
//
// RequestIDMiddleware stores the ID under contextkeys.RequestIDKey; handlers
// and downstream middleware read it with RequestIDFromContext.
package httputil
