// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"log/slog"
	"net/http"

	"heartscore/internal/app"
	"heartscore/internal/clock"
	"heartscore/internal/domain"
)

// Services are the application services the API exposes. Job and Auth may
// be nil; their routes then answer 404 and no session auth is offered.
type Services struct {
	Scores       *app.ScoreService
	Streaks      *app.StreakService
	Achievements *app.AchievementService
	Ledger       *app.LedgerService
	Readings     *app.ReadingService
	History      *app.HistoryService
	Job          *app.DailyJob
	Auth         *app.AuthService
}

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (domain.Principal, error)
}

// Options configure a Server.
type Options struct {
	WebDir       string
	OIDC         OIDCConfig
	Tokens       TokenValidator
	MaxBodyBytes int64
	// Clock defaults to the system clock.
	Clock clock.Clock
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	svc        Services
	oidcConfig OIDCConfig
	tokens     TokenValidator
	webDir     string
	maxBody    int64
	clock      clock.Clock
	logger     *slog.Logger

	// fixed, when set, replaces authentication with a constant principal.
	fixed *domain.Principal
}

// New creates a Server wired to the given application services.
func New(svc Services, opts Options, logger *slog.Logger) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	return &Server{
		svc:        svc,
		oidcConfig: opts.OIDC,
		tokens:     opts.Tokens,
		webDir:     opts.WebDir,
		maxBody:    opts.MaxBodyBytes,
		clock:      opts.Clock,
		logger:     logger,
	}
}

// WithoutAuth makes every request act as p. Used by tests.
func (s *Server) WithoutAuth(p domain.Principal) *Server {
	s.fixed = &p
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	api.HandleFunc("GET /config", s.handleConfig)

	api.HandleFunc("POST /auth/login", s.handleLogin)
	api.HandleFunc("POST /auth/logout", s.handleLogout)
	api.HandleFunc("POST /auth/setup", s.handleSetupUser)
	api.HandleFunc("GET /auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("GET /auth/sso/callback", s.handleSSOCallback)
	api.Handle("GET /auth/me", s.authed(s.handleMe))

	api.Handle("POST /calculate-score", s.authed(s.handleCalculateScore))
	api.Handle("GET /scores/daily", s.authed(s.handleScoresDaily))
	api.Handle("GET /scores/{date}", s.authed(s.handleScoreForDay))
	api.Handle("GET /rituals/{date}", s.authed(s.handleRituals))

	api.Handle("POST /streaks/record", s.authed(s.handleStreakRecord))
	api.Handle("GET /streaks", s.authed(s.handleStreakList))

	api.Handle("POST /achievements/evaluate", s.authed(s.handleAchievementsEvaluate))
	api.Handle("GET /achievements", s.authed(s.handleAchievementsList))

	api.Handle("POST /readings/bp", s.authed(s.handleRecordBP))
	api.Handle("POST /readings/glucose", s.authed(s.handleRecordGlucose))
	api.Handle("POST /behavior", s.authed(s.handleRecordBehavior))

	api.Handle("GET /agent-actions", s.authed(s.handleAgentActionList))
	api.Handle("POST /agent-actions", s.authed(s.handleAgentActionCreate))
	api.Handle("GET /agent-actions/{id}", s.authed(s.handleAgentActionGet))
	api.Handle("POST /agent-actions/{id}/revert", s.authed(s.handleAgentActionRevert))

	api.Handle("POST /jobs/daily", s.authed(s.handleDailyJob))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", s.limitBody(api)))
	// Unprefixed path for scoring callers.
	root.Handle("POST /calculate-score", s.limitBody(s.authed(s.handleCalculateScore)))
	if s.webDir != "" {
		root.Handle("/", spaFromDisk(s.webDir))
	}

	return requestIDMiddleware(tracingMiddleware(loggingMiddleware(s.logger, withNoCache(root))))
}
