package adapthttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"heartscore/internal/app"
	"heartscore/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const (
	requestIDContextKey contextKey = "request_id"
	principalContextKey contextKey = "principal"
)

var errUnauthorized = errors.New("unauthorized")

// RequestIDFromContext returns the request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDContextKey).(string); ok {
		return v
	}
	return ""
}

// PrincipalFromContext returns the authenticated caller.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(domain.Principal)
	return p, ok
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" || len(reqID) > 128 {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDContextKey, reqID)))
	})
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// loggingMiddleware logs one line per request; 5xx at error, 4xx at warn.
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", RequestIDFromContext(r.Context()),
		}
		if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
			attrs = append(attrs, "trace_id", sc.TraceID().String())
		}

		level := slog.LevelInfo
		switch {
		case wrapped.statusCode >= 500:
			level = slog.LevelError
		case wrapped.statusCode >= 400:
			level = slog.LevelWarn
		}
		logger.Log(r.Context(), level, "http request", attrs...)
	})
}

var (
	tracer    = otel.Tracer("heartscore/http")
	httpMeter = otel.GetMeterProvider().Meter("heartscore/http")
)

// tracingMiddleware opens a span per request and records request count and
// duration.
func tracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.url", r.URL.Path),
				attribute.String("http.request_id", RequestIDFromContext(r.Context())),
			),
		)
		defer span.End()

		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", wrapped.statusCode))
		attrs := otelmetric.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.status_code", strconv.Itoa(wrapped.statusCode)),
		)
		if counter, err := httpMeter.Int64Counter("http.server.request_count"); err == nil {
			counter.Add(ctx, 1, attrs)
		}
		if hist, err := httpMeter.Float64Histogram("http.server.duration", otelmetric.WithUnit("ms")); err == nil {
			hist.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
		}
	})
}

// authed resolves the caller and rejects the request when there is none.
// Bearer tokens are tried first, then the Remote-User forward auth header,
// then the session cookie.
func (s *Server) authed(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := s.authenticate(r)
		if err != nil {
			if errors.Is(err, errUnauthorized) {
				writeError(w, http.StatusUnauthorized, errUnauthorized)
				return
			}
			s.writeServiceError(w, r, err)
			return
		}
		trace.SpanFromContext(r.Context()).SetAttributes(
			attribute.String("heartscore.role", string(p.Role)),
			attribute.Int64("heartscore.principal_user_id", p.UserID),
		)
		h(w, r.WithContext(context.WithValue(r.Context(), principalContextKey, p)))
	})
}

func (s *Server) authenticate(r *http.Request) (domain.Principal, error) {
	if s.fixed != nil {
		return *s.fixed, nil
	}

	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || s.tokens == nil {
			return domain.Principal{}, errUnauthorized
		}
		p, err := s.tokens.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			return domain.Principal{}, errUnauthorized
		}
		return p, nil
	}

	if s.svc.Auth == nil {
		return domain.Principal{}, errUnauthorized
	}

	if remoteUser := r.Header.Get("Remote-User"); remoteUser != "" {
		user, err := s.svc.Auth.ValidateForwardAuth(r.Context(), remoteUser)
		if err == nil && user != nil {
			return domain.Principal{UserID: user.ID, Role: domain.RoleUser}, nil
		}
	}

	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return domain.Principal{}, errUnauthorized
	}
	user, err := s.svc.Auth.ValidateSession(r.Context(), cookie.Value, r.UserAgent())
	switch {
	case errors.Is(err, app.ErrSessionNotFound), errors.Is(err, app.ErrSessionExpired), errors.Is(err, app.ErrUserNotFound):
		return domain.Principal{}, errUnauthorized
	case err != nil:
		return domain.Principal{}, err
	}
	return domain.Principal{UserID: user.ID, Role: domain.RoleUser}, nil
}

// target resolves which user a request acts on.
func target(r *http.Request, requested int64) (int64, error) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		return 0, domain.ErrForbidden
	}
	return p.Authorize(requested)
}
