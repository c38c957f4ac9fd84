// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"heartscore/internal/domain"
)

type userKey struct {
	userID int64
	key    string
}

// DB implements an in-memory database storage. A single mutex serializes
// every operation, which makes each method atomic.
type DB struct {
	mu           sync.Mutex
	bp           []domain.BPReading
	glucose      []domain.GlucoseReading
	behavior     []domain.BehaviorLog
	scores       map[userKey]domain.HeartScoreRecord
	streaks      map[userKey]domain.Streak
	achievements []domain.Achievement
	actions      []domain.AgentActionLogEntry
	users        []*domain.User
	sessions     map[string]*domain.Session

	bpIDCounter          int64
	glucoseIDCounter     int64
	behaviorIDCounter    int64
	achievementIDCounter int64
	userIDCounter        int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		scores:   make(map[userKey]domain.HeartScoreRecord),
		streaks:  make(map[userKey]domain.Streak),
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.Store = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// Close is a no-op; it lets DB stand in for the SQL stores.
func (db *DB) Close() error { return nil }

// --- BPRepository ---

// AddBPReading stores a blood pressure reading.
func (db *DB) AddBPReading(ctx context.Context, r domain.BPReading) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.bpIDCounter++
	r.ID = db.bpIDCounter
	db.bp = append(db.bp, r)
	return r.ID, nil
}

// LatestBPForDay returns the most recently measured reading for the day.
func (db *DB) LatestBPForDay(ctx context.Context, userID int64, day string) (*domain.BPReading, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var latest *domain.BPReading
	for i := range db.bp {
		r := &db.bp[i]
		if r.UserID != userID || r.Day != day {
			continue
		}
		if latest == nil || !r.MeasuredAt.Before(latest.MeasuredAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	ret := *latest
	return &ret, nil
}

// ListBPBetween lists readings whose day is within [fromDay, toDay], oldest first.
func (db *DB) ListBPBetween(ctx context.Context, userID int64, fromDay, toDay string) ([]domain.BPReading, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.BPReading
	for _, r := range db.bp {
		if r.UserID == userID && r.Day >= fromDay && r.Day <= toDay {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MeasuredAt.Before(out[j].MeasuredAt) })
	return out, nil
}

// --- GlucoseRepository ---

// AddGlucoseReading stores a glucose reading.
func (db *DB) AddGlucoseReading(ctx context.Context, r domain.GlucoseReading) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.glucoseIDCounter++
	r.ID = db.glucoseIDCounter
	db.glucose = append(db.glucose, r)
	return r.ID, nil
}

// LatestGlucoseForDay returns the most recently measured reading for the day.
func (db *DB) LatestGlucoseForDay(ctx context.Context, userID int64, day string) (*domain.GlucoseReading, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var latest *domain.GlucoseReading
	for i := range db.glucose {
		r := &db.glucose[i]
		if r.UserID != userID || r.Day != day {
			continue
		}
		if latest == nil || !r.MeasuredAt.Before(latest.MeasuredAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	ret := *latest
	return &ret, nil
}

// ListGlucoseBetween lists readings whose day is within [fromDay, toDay], oldest first.
func (db *DB) ListGlucoseBetween(ctx context.Context, userID int64, fromDay, toDay string) ([]domain.GlucoseReading, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.GlucoseReading
	for _, r := range db.glucose {
		if r.UserID == userID && r.Day >= fromDay && r.Day <= toDay {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MeasuredAt.Before(out[j].MeasuredAt) })
	return out, nil
}

// --- BehaviorRepository ---

// AddBehaviorLog stores a ritual check-in.
func (db *DB) AddBehaviorLog(ctx context.Context, l domain.BehaviorLog) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.behaviorIDCounter++
	l.ID = db.behaviorIDCounter
	db.behavior = append(db.behavior, l)
	return l.ID, nil
}

// ListBehaviorForDay lists the day's logs in insertion order.
func (db *DB) ListBehaviorForDay(ctx context.Context, userID int64, day string) ([]domain.BehaviorLog, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.BehaviorLog
	for _, l := range db.behavior {
		if l.UserID == userID && l.LogDate == day {
			out = append(out, l)
		}
	}
	return out, nil
}

// --- HeartScoreRepository ---

// UpsertHeartScore stores rec, replacing any record for the same day.
func (db *DB) UpsertHeartScore(ctx context.Context, rec domain.HeartScoreRecord, at time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	rec.Breakdown = maps.Clone(rec.Breakdown)
	db.scores[userKey{rec.UserID, rec.ScoreDate}] = rec
	return nil
}

// GetHeartScore returns the stored score for a day.
func (db *DB) GetHeartScore(ctx context.Context, userID int64, day string) (*domain.HeartScoreRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rec, ok := db.scores[userKey{userID, day}]
	if !ok {
		return nil, nil
	}
	rec.Breakdown = maps.Clone(rec.Breakdown)
	return &rec, nil
}

// ListHeartScores lists scores within [fromDay, toDay], oldest first.
func (db *DB) ListHeartScores(ctx context.Context, userID int64, fromDay, toDay string) ([]domain.HeartScoreRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.HeartScoreRecord
	for k, rec := range db.scores {
		if k.userID == userID && k.key >= fromDay && k.key <= toDay {
			rec.Breakdown = maps.Clone(rec.Breakdown)
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScoreDate < out[j].ScoreDate })
	return out, nil
}

// --- StreakRepository ---

// AdvanceStreak applies one day of activity under the lock.
func (db *DB) AdvanceStreak(ctx context.Context, userID int64, streakType, day string, at time.Time) (*domain.Streak, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	k := userKey{userID, streakType}
	var cur *domain.Streak
	if st, ok := db.streaks[k]; ok {
		cur = &st
	}
	next, changed := cur.Advance(userID, streakType, day, at)
	if changed {
		db.streaks[k] = next
	}
	return &next, nil
}

// GetStreak returns one streak.
func (db *DB) GetStreak(ctx context.Context, userID int64, streakType string) (*domain.Streak, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	st, ok := db.streaks[userKey{userID, streakType}]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

// ListStreaks lists the user's streaks ordered by type.
func (db *DB) ListStreaks(ctx context.Context, userID int64) ([]domain.Streak, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.Streak
	for k, st := range db.streaks {
		if k.userID == userID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StreakType < out[j].StreakType })
	return out, nil
}

// --- AchievementRepository ---

// ListAchievements lists the user's badges in award order.
func (db *DB) ListAchievements(ctx context.Context, userID int64) ([]domain.Achievement, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.Achievement
	for _, a := range db.achievements {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

// InsertAchievement awards a badge once per user.
func (db *DB) InsertAchievement(ctx context.Context, a domain.Achievement) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, held := range db.achievements {
		if held.UserID == a.UserID && held.BadgeType == a.BadgeType {
			return 0, domain.ErrConflict
		}
	}
	db.achievementIDCounter++
	a.ID = db.achievementIDCounter
	db.achievements = append(db.achievements, a)
	return a.ID, nil
}

// --- AgentActionRepository ---

// AppendAgentAction appends a ledger entry.
func (db *DB) AppendAgentAction(ctx context.Context, e domain.AgentActionLogEntry) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, held := range db.actions {
		if held.ID == e.ID {
			return domain.ErrConflict
		}
	}
	db.actions = append(db.actions, e)
	return nil
}

// GetAgentAction returns one ledger entry.
func (db *DB) GetAgentAction(ctx context.Context, userID int64, id string) (*domain.AgentActionLogEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, e := range db.actions {
		if e.ID == id && e.UserID == userID {
			return &e, nil
		}
	}
	return nil, nil
}

// ListAgentActions lists the newest entries first.
func (db *DB) ListAgentActions(ctx context.Context, userID int64, limit int) ([]domain.AgentActionLogEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.AgentActionLogEntry
	for i := len(db.actions) - 1; i >= 0 && len(out) < limit; i-- {
		if db.actions[i].UserID == userID {
			out = append(out, db.actions[i])
		}
	}
	return out, nil
}

// MarkAgentActionReverted flips an entry to reverted unless it already is.
func (db *DB) MarkAgentActionReverted(ctx context.Context, userID int64, id, reason string, at time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.actions {
		e := &db.actions[i]
		if e.ID != id || e.UserID != userID {
			continue
		}
		if e.Status == domain.StatusReverted {
			return domain.ErrAlreadyReverted
		}
		e.Status = domain.StatusReverted
		e.RevertedAt = &at
		e.RevertReason = &reason
		return nil
	}
	return domain.ErrNotFound
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, domain.ErrConflict
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	return u, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// ListIDs returns every user ID in creation order.
func (db *DB) ListIDs(ctx context.Context) ([]int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	ids := make([]int64, 0, len(db.users))
	for _, u := range db.users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		ret := *s
		return &ret, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
