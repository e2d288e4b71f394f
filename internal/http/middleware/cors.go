package middleware

import (
	"net/http"

	"github.com/freelance-crm/relation-bot/internal/config"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Headers the dashboard always needs to read or send, whatever the config lists
var (
	alwaysExposed = []string{RequestIDHeader, "Location", "Content-Disposition"}
	alwaysAllowed = []string{"Authorization", "Content-Type", "X-API-Key", RequestIDHeader, SignatureHeader, TimestampHeader}
)

func isLocal(environment string) bool {
	return environment == "development" || environment == "local" || environment == ""
}

func allowAny(r *http.Request, origin string) bool {
	return origin != ""
}

func merge(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, h := range append(append([]string{}, base...), extra...) {
		key := http.CanonicalHeaderKey(h)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h)
	}
	return out
}

// CORS returns a CORS middleware for the dashboard. Locally every origin is allowed when none are
// configured; elsewhere an empty list denies all cross-origin requests.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   merge(cfg.AllowedHeaders, alwaysAllowed),
		ExposedHeaders:   merge(cfg.ExposedHeaders, alwaysExposed),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	wildcard := false
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			wildcard = true
			break
		}
	}

	switch {
	case wildcard:
		if !isLocal(environment) {
			logger.Warn("CORS configured with wildcard origin outside development",
				zap.String("environment", environment))
		}
		options.AllowOriginFunc = allowAny
	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS configured with explicit origins", zap.Strings("origins", cfg.AllowedOrigins))
	case isLocal(environment):
		options.AllowOriginFunc = allowAny
		logger.Info("CORS allows all origins in development mode")
	default:
		// an empty AllowedOrigins means "*" to go-chi/cors
		options.AllowOriginFunc = func(r *http.Request, origin string) bool { return false }
		logger.Warn("CORS has no allowed origins, cross-origin requests are denied",
			zap.String("environment", environment))
	}

	return cors.Handler(options)
}
