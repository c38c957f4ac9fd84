package mcp

import (
	"context"
	"fmt"

	"heartscore/internal/domain"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "calculate_score",
		Description: "Compute and store the HeartScore (0-100) for a day from the logged readings",
	}, s.handleCalculateScore)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "record_activity",
		Description: "Record activity for a streak today and return the streak count",
	}, s.handleRecordActivity)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "evaluate_achievements",
		Description: "Award any badges the user has newly earned",
	}, s.handleEvaluateAchievements)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "score_history",
		Description: "List daily HeartScores for recent days, oldest first",
	}, s.handleScoreHistory)
}

type calculateScoreInput struct {
	Date string `json:"date,omitempty" jsonschema:"day as YYYY-MM-DD, defaults to today"`
}

type scoreOutput struct {
	Date       string         `json:"date"`
	HeartScore int            `json:"heart_score"`
	Breakdown  map[string]int `json:"breakdown"`
	Message    string         `json:"message"`
}

type recordActivityInput struct {
	StreakType string `json:"streak_type,omitempty" jsonschema:"streak to advance, defaults to daily_checkin"`
}

type streakOutput struct {
	StreakType    string `json:"streak_type"`
	Count         int    `json:"count"`
	LastLoggedDay string `json:"last_logged_day"`
	Message       string `json:"message"`
}

type evaluateInput struct{}

type badgesOutput struct {
	NewBadges []string `json:"new_badges"`
	Message   string   `json:"message"`
}

type historyInput struct {
	Days int `json:"days,omitempty" jsonschema:"number of days to return (default 7, max 366)"`
}

type historyPoint struct {
	Date       string `json:"date"`
	HeartScore *int   `json:"heart_score"`
}

type historyOutput struct {
	Days []historyPoint `json:"days"`
}

func (s *Server) handleCalculateScore(ctx context.Context, req *mcp.CallToolRequest, input calculateScoreInput) (*mcp.CallToolResult, scoreOutput, error) {
	day := input.Date
	if day == "" {
		day = s.svc.Scores.Today()
	}
	rec, err := s.svc.Scores.ComputeDailyScore(ctx, s.userID, day)
	if err != nil {
		return nil, scoreOutput{}, fmt.Errorf("calculate score: %w", err)
	}

	breakdown := make(map[string]int, len(rec.Breakdown))
	for c, v := range rec.Breakdown {
		breakdown[string(c)] = v
	}
	return nil, scoreOutput{
		Date:       rec.ScoreDate,
		HeartScore: rec.HeartScore,
		Breakdown:  breakdown,
		Message:    fmt.Sprintf("HeartScore for %s: %d", rec.ScoreDate, rec.HeartScore),
	}, nil
}

func (s *Server) handleRecordActivity(ctx context.Context, req *mcp.CallToolRequest, input recordActivityInput) (*mcp.CallToolResult, streakOutput, error) {
	streakType := input.StreakType
	if streakType == "" {
		streakType = domain.StreakDailyCheckin
	}
	st, err := s.svc.Streaks.RecordActivity(ctx, s.userID, streakType, s.clock.Now())
	if err != nil {
		return nil, streakOutput{}, fmt.Errorf("record activity: %w", err)
	}
	return nil, streakOutput{
		StreakType:    st.StreakType,
		Count:         st.Count,
		LastLoggedDay: st.LastLoggedDay,
		Message:       fmt.Sprintf("%s streak: %d day(s)", st.StreakType, st.Count),
	}, nil
}

func (s *Server) handleEvaluateAchievements(ctx context.Context, req *mcp.CallToolRequest, input evaluateInput) (*mcp.CallToolResult, badgesOutput, error) {
	badges, err := s.svc.Achievements.EvaluateAndAward(ctx, s.userID)
	if err != nil {
		return nil, badgesOutput{}, fmt.Errorf("evaluate achievements: %w", err)
	}

	out := badgesOutput{NewBadges: make([]string, 0, len(badges))}
	for _, b := range badges {
		out.NewBadges = append(out.NewBadges, string(b))
	}
	if len(badges) == 0 {
		out.Message = "No new badges."
	} else {
		out.Message = fmt.Sprintf("Earned %d new badge(s).", len(badges))
	}
	return nil, out, nil
}

func (s *Server) handleScoreHistory(ctx context.Context, req *mcp.CallToolRequest, input historyInput) (*mcp.CallToolResult, historyOutput, error) {
	if input.Days <= 0 {
		input.Days = 7
	}
	points, err := s.svc.History.GetDaily(ctx, s.userID, input.Days)
	if err != nil {
		return nil, historyOutput{}, fmt.Errorf("score history: %w", err)
	}

	out := historyOutput{Days: make([]historyPoint, 0, len(points))}
	for _, p := range points {
		out.Days = append(out.Days, historyPoint{Date: p.Day, HeartScore: p.HeartScore})
	}
	return nil, out, nil
}
