package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/JiggerF/worship-ministry-app-sub000/internal/config"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/actor"
)

// requestLogger logs one line per request once the response is written
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("remote_ip", r.RemoteAddr),
			}
			if a := actor.FromContext(r.Context()); a != nil {
				fields = append(fields, zap.String("actor", a.Name), zap.String("role", string(a.Role)))
			}
			logger.Info("Handled request", fields...)
		})
	}
}

// resolveActor stores the caller's actor, or nil, in the request context
func resolveActor(resolver *actor.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a := resolver.Resolve(r)
			next.ServeHTTP(w, r.WithContext(actor.WithActor(r.Context(), a)))
		})
	}
}

// corsHandler allows the configured origins with credentials; development allows any origin
func corsHandler(cfg *config.Config) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(cfg.AllowedOrigins) == 0 && cfg.IsDevelopment() {
		opts.AllowedOrigins = []string{"*"}
		opts.AllowCredentials = false
	}
	return cors.Handler(opts)
}
