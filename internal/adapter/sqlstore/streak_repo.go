package sqlstore

import (
	"context"
	"time"

	"heartscore/internal/domain"
)

// advanceStreakSQL applies domain.Streak.Advance in one statement. The WHERE
// on the update leaves a same-day row untouched, in which case nothing is
// returned. $5 is the day before $3.
const advanceStreakSQL = `
INSERT INTO streaks (user_id, streak_type, streak_count, last_logged_day, last_logged_at)
VALUES ($1, $2, 1, $3, $4)
ON CONFLICT (user_id, streak_type) DO UPDATE SET
  streak_count = CASE WHEN streaks.last_logged_day = $5 THEN streaks.streak_count + 1 ELSE 1 END,
  last_logged_day = excluded.last_logged_day,
  last_logged_at = excluded.last_logged_at
WHERE streaks.last_logged_day <> excluded.last_logged_day
RETURNING user_id, streak_type, streak_count, last_logged_day, last_logged_at`

const streakColumns = "user_id, streak_type, streak_count, last_logged_day, last_logged_at"

func scanStreak(row interface{ Scan(...any) error }) (domain.Streak, error) {
	var st domain.Streak
	err := row.Scan(&st.UserID, &st.StreakType, &st.Count, &st.LastLoggedDay, timeCol{&st.LastLoggedAt})
	return st, err
}

// AdvanceStreak records activity on day without a read-modify-write race.
func (d *DB) AdvanceStreak(ctx context.Context, userID int64, streakType, day string, at time.Time) (*domain.Streak, error) {
	st, err := scanStreak(d.sql.QueryRowContext(ctx, advanceStreakSQL,
		userID, streakType, day, at.UTC(), domain.PrevDay(day),
	))
	if noRows(err) {
		// Already logged today.
		return d.GetStreak(ctx, userID, streakType)
	}
	if err != nil {
		return nil, storageErr("advance streak", err)
	}
	return &st, nil
}

// GetStreak returns one streak.
func (d *DB) GetStreak(ctx context.Context, userID int64, streakType string) (*domain.Streak, error) {
	st, err := scanStreak(d.sql.QueryRowContext(ctx,
		"SELECT "+streakColumns+" FROM streaks WHERE user_id = $1 AND streak_type = $2",
		userID, streakType,
	))
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get streak", err)
	}
	return &st, nil
}

// ListStreaks lists the user's streaks ordered by type.
func (d *DB) ListStreaks(ctx context.Context, userID int64) ([]domain.Streak, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+streakColumns+" FROM streaks WHERE user_id = $1 ORDER BY streak_type",
		userID,
	)
	if err != nil {
		return nil, storageErr("list streaks", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Streak
	for rows.Next() {
		st, err := scanStreak(rows)
		if err != nil {
			return nil, storageErr("scan streak", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list streaks", err)
	}
	return out, nil
}
