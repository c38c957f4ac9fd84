package sqlstore

import (
	"context"

	"heartscore/internal/domain"
)

// ListAchievements lists the user's badges in award order.
func (d *DB) ListAchievements(ctx context.Context, userID int64) ([]domain.Achievement, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, badge_type, earned_at, shared FROM achievements WHERE user_id = $1 ORDER BY earned_at, id",
		userID,
	)
	if err != nil {
		return nil, storageErr("list achievements", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Achievement
	for rows.Next() {
		var (
			a     domain.Achievement
			badge string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &badge, timeCol{&a.EarnedAt}, &a.Shared); err != nil {
			return nil, storageErr("scan achievement", err)
		}
		a.BadgeType = domain.BadgeType(badge)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list achievements", err)
	}
	return out, nil
}

// InsertAchievement awards a badge. The unique (user_id, badge_type) key
// turns a second award into domain.ErrConflict.
func (d *DB) InsertAchievement(ctx context.Context, a domain.Achievement) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		`INSERT INTO achievements (user_id, badge_type, earned_at, shared)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, badge_type) DO NOTHING
		 RETURNING id`,
		a.UserID, string(a.BadgeType), a.EarnedAt.UTC(), a.Shared,
	).Scan(&id)
	if noRows(err) || (err != nil && d.isUnique(err)) {
		return 0, domain.ErrConflict
	}
	if err != nil {
		return 0, storageErr("insert achievement", err)
	}
	return id, nil
}
