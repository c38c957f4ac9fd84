package sqlstore

import (
	"context"
	"encoding/json"
	"time"

	"heartscore/internal/domain"
)

// UpsertHeartScore inserts the day's score or overwrites the existing one in
// a single statement.
func (d *DB) UpsertHeartScore(ctx context.Context, rec domain.HeartScoreRecord, at time.Time) error {
	breakdown, err := json.Marshal(rec.Breakdown)
	if err != nil {
		return storageErr("encode breakdown", err)
	}
	_, err = d.sql.ExecContext(ctx,
		`INSERT INTO heart_scores (user_id, score_date, heart_score, breakdown, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, score_date) DO UPDATE SET
		   heart_score = excluded.heart_score,
		   breakdown = excluded.breakdown,
		   updated_at = excluded.updated_at`,
		rec.UserID, rec.ScoreDate, rec.HeartScore, string(breakdown), at.UTC(),
	)
	if err != nil {
		return storageErr("upsert heart score", err)
	}
	return nil
}

func scanScore(row interface{ Scan(...any) error }) (domain.HeartScoreRecord, error) {
	var (
		rec domain.HeartScoreRecord
		raw []byte
	)
	if err := row.Scan(&rec.UserID, &rec.ScoreDate, &rec.HeartScore, &raw); err != nil {
		return rec, err
	}
	if err := json.Unmarshal(raw, &rec.Breakdown); err != nil {
		return rec, err
	}
	return rec, nil
}

// GetHeartScore returns the stored score for a day.
func (d *DB) GetHeartScore(ctx context.Context, userID int64, day string) (*domain.HeartScoreRecord, error) {
	rec, err := scanScore(d.sql.QueryRowContext(ctx,
		"SELECT user_id, score_date, heart_score, breakdown FROM heart_scores WHERE user_id = $1 AND score_date = $2",
		userID, day,
	))
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get heart score", err)
	}
	return &rec, nil
}

// ListHeartScores lists scores within [fromDay, toDay], oldest first.
func (d *DB) ListHeartScores(ctx context.Context, userID int64, fromDay, toDay string) ([]domain.HeartScoreRecord, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT user_id, score_date, heart_score, breakdown FROM heart_scores
		 WHERE user_id = $1 AND score_date >= $2 AND score_date <= $3 ORDER BY score_date`,
		userID, fromDay, toDay,
	)
	if err != nil {
		return nil, storageErr("list heart scores", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.HeartScoreRecord
	for rows.Next() {
		rec, err := scanScore(rows)
		if err != nil {
			return nil, storageErr("scan heart score", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list heart scores", err)
	}
	return out, nil
}
