package app

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/unrolled/secure"

	"github.com/meridian-pos/meridian-pos/internal/observability"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Header names used by the caller-side authorization layer. Business
// membership is checked before requests reach this engine; these headers
// only carry attribution.
const (
	headerActorID    = "X-Actor-ID"
	headerBusinessID = "X-Business-ID"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
}

// MiddlewareStack installs the Meridian middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		FeaturePolicy:         "none",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	actorMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := shared.Actor{}
			if v := r.Header.Get(headerActorID); v != "" {
				actor.UserID, _ = strconv.ParseInt(v, 10, 64)
			}
			if v := r.Header.Get(headerBusinessID); v != "" {
				actor.BusinessID, _ = strconv.ParseInt(v, 10, 64)
			}
			ctx := shared.ContextWithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	timeoutMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Config == nil || cfg.Config.AppRequestTimeout <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), cfg.Config.AppRequestTimeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	stack := []func(http.Handler) http.Handler{
		secureMiddleware.Handler,
		actorMiddleware,
		timeoutMiddleware,
	}
	if cfg.Metrics != nil {
		stack = append(stack, cfg.Metrics.Middleware)
	}
	return stack
}
