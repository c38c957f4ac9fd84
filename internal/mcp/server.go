// Package mcp exposes the score, streak and badge services as Model Context
// Protocol tools for a single user over stdio.
package mcp

import (
	"context"
	"errors"

	"heartscore/internal/app"
	"heartscore/internal/clock"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Services are the application services the tools call.
type Services struct {
	Scores       *app.ScoreService
	Streaks      *app.StreakService
	Achievements *app.AchievementService
	History      *app.HistoryService
}

// Server wraps the MCP server. Every tool acts on userID.
type Server struct {
	mcpServer *mcp.Server
	svc       Services
	userID    int64
	clock     clock.Clock
}

// NewServer creates a server for userID and registers its tools.
func NewServer(svc Services, userID int64, c clock.Clock, version string) (*Server, error) {
	if userID <= 0 {
		return nil, errors.New("mcp: a positive user id is required")
	}
	if c == nil {
		c = clock.Real{}
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{Name: "heartscore", Version: version}, nil),
		svc:       svc,
		userID:    userID,
		clock:     c,
	}
	s.registerTools()
	return s, nil
}

// Serve runs the server on stdin/stdout until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
