package sqlstore

import (
	"context"
	"database/sql"

	"heartscore/internal/domain"
)

// AddBPReading stores a blood pressure reading.
func (d *DB) AddBPReading(ctx context.Context, r domain.BPReading) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		`INSERT INTO bp_readings (user_id, day, systolic, diastolic, measured_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		r.UserID, r.Day, r.Systolic, r.Diastolic, r.MeasuredAt.UTC(), r.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, storageErr("add bp reading", err)
	}
	return id, nil
}

const bpColumns = "id, user_id, day, systolic, diastolic, measured_at, created_at"

func scanBP(row interface{ Scan(...any) error }) (domain.BPReading, error) {
	var r domain.BPReading
	err := row.Scan(&r.ID, &r.UserID, &r.Day, &r.Systolic, &r.Diastolic, timeCol{&r.MeasuredAt}, timeCol{&r.CreatedAt})
	return r, err
}

// LatestBPForDay returns the most recently measured reading for the day.
func (d *DB) LatestBPForDay(ctx context.Context, userID int64, day string) (*domain.BPReading, error) {
	r, err := scanBP(d.sql.QueryRowContext(ctx,
		"SELECT "+bpColumns+" FROM bp_readings WHERE user_id = $1 AND day = $2 ORDER BY measured_at DESC, id DESC LIMIT 1",
		userID, day,
	))
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("latest bp reading", err)
	}
	return &r, nil
}

// ListBPBetween lists readings whose day is within [fromDay, toDay], oldest first.
func (d *DB) ListBPBetween(ctx context.Context, userID int64, fromDay, toDay string) ([]domain.BPReading, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+bpColumns+" FROM bp_readings WHERE user_id = $1 AND day >= $2 AND day <= $3 ORDER BY measured_at, id",
		userID, fromDay, toDay,
	)
	if err != nil {
		return nil, storageErr("list bp readings", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.BPReading
	for rows.Next() {
		r, err := scanBP(rows)
		if err != nil {
			return nil, storageErr("scan bp reading", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list bp readings", err)
	}
	return out, nil
}

// AddGlucoseReading stores a glucose reading.
func (d *DB) AddGlucoseReading(ctx context.Context, r domain.GlucoseReading) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		`INSERT INTO glucose_readings (user_id, day, glucose_mg_dl, measurement_type, measured_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		r.UserID, r.Day, r.GlucoseMgDl, string(r.MeasurementType), r.MeasuredAt.UTC(), r.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, storageErr("add glucose reading", err)
	}
	return id, nil
}

const glucoseColumns = "id, user_id, day, glucose_mg_dl, measurement_type, measured_at, created_at"

func scanGlucose(row interface{ Scan(...any) error }) (domain.GlucoseReading, error) {
	var (
		r  domain.GlucoseReading
		mt string
	)
	err := row.Scan(&r.ID, &r.UserID, &r.Day, &r.GlucoseMgDl, &mt, timeCol{&r.MeasuredAt}, timeCol{&r.CreatedAt})
	r.MeasurementType = domain.MeasurementType(mt)
	return r, err
}

// LatestGlucoseForDay returns the most recently measured reading for the day.
func (d *DB) LatestGlucoseForDay(ctx context.Context, userID int64, day string) (*domain.GlucoseReading, error) {
	r, err := scanGlucose(d.sql.QueryRowContext(ctx,
		"SELECT "+glucoseColumns+" FROM glucose_readings WHERE user_id = $1 AND day = $2 ORDER BY measured_at DESC, id DESC LIMIT 1",
		userID, day,
	))
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("latest glucose reading", err)
	}
	return &r, nil
}

// ListGlucoseBetween lists readings whose day is within [fromDay, toDay], oldest first.
func (d *DB) ListGlucoseBetween(ctx context.Context, userID int64, fromDay, toDay string) ([]domain.GlucoseReading, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+glucoseColumns+" FROM glucose_readings WHERE user_id = $1 AND day >= $2 AND day <= $3 ORDER BY measured_at, id",
		userID, fromDay, toDay,
	)
	if err != nil {
		return nil, storageErr("list glucose readings", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.GlucoseReading
	for rows.Next() {
		r, err := scanGlucose(rows)
		if err != nil {
			return nil, storageErr("scan glucose reading", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list glucose readings", err)
	}
	return out, nil
}

// AddBehaviorLog stores a ritual check-in.
func (d *DB) AddBehaviorLog(ctx context.Context, l domain.BehaviorLog) (int64, error) {
	var (
		sleep  sql.NullFloat64
		stress sql.NullString
		mood   sql.NullString
		steps  sql.NullInt64
	)
	if l.SleepHours != nil {
		sleep = sql.NullFloat64{Float64: *l.SleepHours, Valid: true}
	}
	if l.StressLevel != nil {
		stress = sql.NullString{String: string(*l.StressLevel), Valid: true}
	}
	if l.Mood != nil {
		mood = sql.NullString{String: string(*l.Mood), Valid: true}
	}
	if l.Steps != nil {
		steps = sql.NullInt64{Int64: int64(*l.Steps), Valid: true}
	}

	var id int64
	err := d.sql.QueryRowContext(ctx,
		`INSERT INTO behavior_logs (user_id, log_date, ritual_type, sleep_hours, stress_level, mood, steps, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		l.UserID, l.LogDate, string(l.RitualType), sleep, stress, mood, steps, l.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, storageErr("add behavior log", err)
	}
	return id, nil
}

// ListBehaviorForDay lists the day's logs oldest first.
func (d *DB) ListBehaviorForDay(ctx context.Context, userID int64, day string) ([]domain.BehaviorLog, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, user_id, log_date, ritual_type, sleep_hours, stress_level, mood, steps, created_at
		 FROM behavior_logs WHERE user_id = $1 AND log_date = $2 ORDER BY created_at, id`,
		userID, day,
	)
	if err != nil {
		return nil, storageErr("list behavior logs", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.BehaviorLog
	for rows.Next() {
		var (
			l      domain.BehaviorLog
			ritual string
			sleep  sql.NullFloat64
			stress sql.NullString
			mood   sql.NullString
			steps  sql.NullInt64
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.LogDate, &ritual, &sleep, &stress, &mood, &steps, timeCol{&l.CreatedAt}); err != nil {
			return nil, storageErr("scan behavior log", err)
		}
		l.RitualType = domain.RitualType(ritual)
		if sleep.Valid {
			l.SleepHours = &sleep.Float64
		}
		if stress.Valid {
			s := domain.StressLevel(stress.String)
			l.StressLevel = &s
		}
		if mood.Valid {
			m := domain.Mood(mood.String)
			l.Mood = &m
		}
		if steps.Valid {
			n := int(steps.Int64)
			l.Steps = &n
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list behavior logs", err)
	}
	return out, nil
}
