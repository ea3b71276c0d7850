package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/balaguruva/internal"
	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

// sentryEnabled is set once by InitSentry. Every helper below is a no-op
// while it is false.
var sentryEnabled bool

// InitSentry configures the global Sentry client and returns a flush
// function for shutdown. A missing DSN disables capture.
func InitSentry(cfg internal.SentryConfig, logger *slog.Logger) (func(), error) {
	return initSentry(cfg, logger, nil)
}

func initSentry(cfg internal.SentryConfig, logger *slog.Logger, tune func(*sentry.ClientOptions)) (func(), error) {
	sentryEnabled = false
	if !cfg.Enabled || cfg.DSN == "" {
		logger.Info("Sentry disabled (SENTRY_ENABLED=false or DSN not configured)")
		return func() {}, nil
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 1.0
	}

	opts := sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		BeforeSend:       scrubEvent,
	}
	if tune != nil {
		tune(&opts)
	}
	if err := sentry.Init(opts); err != nil {
		return nil, fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	sentryEnabled = true

	logger.Info("Sentry initialized",
		"environment", cfg.Environment,
		"release", cfg.Release,
		"sample_rate", sampleRate,
	)
	return func() { sentry.Flush(flushTimeout) }, nil
}

// scrubEvent drops credentials before an event leaves the process.
func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event.Request != nil {
		delete(event.Request.Headers, "Authorization")
		delete(event.Request.Headers, "X-Razorpay-Signature")
	}
	return event
}

// IsEnabled reports whether events are being sent.
func IsEnabled() bool {
	return sentryEnabled
}

// SentryMiddleware gives each request its own hub carrying the request.
// Mount it outside router.Recovery so panic reports keep the request scope.
func SentryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sentryEnabled {
				next.ServeHTTP(w, r)
				return
			}
			hub := sentry.CurrentHub().Clone()
			hub.Scope().SetRequest(r)
			next.ServeHTTP(w, r.WithContext(sentry.SetHubOnContext(r.Context(), hub)))
		})
	}
}

// SentryContextMiddleware tags the request hub with the request id and the
// authenticated caller. Mount it after middleware.Authenticate.
func SentryContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub := sentry.GetHubFromContext(r.Context())
		if !sentryEnabled || hub == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		hub.ConfigureScope(func(scope *sentry.Scope) {
			if id := domain.RequestIDFromContext(ctx); id != "" {
				scope.SetTag("request_id", id)
			}
			if p := domain.PrincipalFromContext(ctx); p != nil {
				scope.SetUser(sentry.User{ID: p.UserID, Email: p.Email})
				if p.Admin {
					scope.SetTag("admin", "true")
				}
			}
		})
		next.ServeHTTP(w, r)
	})
}

// Breadcrumb records a business step on the request's hub so a later error
// report shows how the request got there. Outside a request it does nothing.
func Breadcrumb(ctx context.Context, category, message string, data map[string]interface{}) {
	if !sentryEnabled {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		return
	}
	hub.AddBreadcrumb(&sentry.Breadcrumb{
		Category:  category,
		Message:   message,
		Data:      data,
		Level:     sentry.LevelInfo,
		Timestamp: time.Now(),
	}, nil)
}

// CaptureErrorFromContext reports err on the request's hub, falling back to
// the global hub for background work.
func CaptureErrorFromContext(ctx context.Context, err error, extras map[string]interface{}) {
	if !sentryEnabled || err == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		if code := domain.ErrorCode(err); code != "" {
			scope.SetTag("error_code", code)
		}
		if op := domain.ErrorOp(err); op != "" {
			scope.SetTag("op", op)
		}
		for key, value := range extras {
			scope.SetExtra(key, value)
		}
		hub.CaptureException(err)
	})
}
