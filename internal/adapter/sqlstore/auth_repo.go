package sqlstore

import (
	"context"
	"time"

	"heartscore/internal/domain"
)

const userColumns = "id, username, password_hash, created_at"

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, timeCol{&u.CreatedAt})
	return u, err
}

// GetByUsername retrieves a user by username.
func (d *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1", username))
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get user", err)
	}
	return &u, nil
}

// GetByID retrieves a user by ID.
func (d *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get user", err)
	}
	return &u, nil
}

// Create creates a new user. A taken username yields domain.ErrConflict.
func (d *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx,
		"INSERT INTO users (username, password_hash, created_at) VALUES ($1, $2, $3) RETURNING "+userColumns,
		username, passwordHash, time.Now().UTC(),
	))
	if err != nil && d.isUnique(err) {
		return nil, domain.ErrConflict
	}
	if err != nil {
		return nil, storageErr("create user", err)
	}
	return &u, nil
}

// Count returns the total number of users.
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	if err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, storageErr("count users", err)
	}
	return count, nil
}

// ListIDs returns every user ID in ascending order.
func (d *DB) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT id FROM users ORDER BY id")
	if err != nil {
		return nil, storageErr("list users", err)
	}
	defer rows.Close() //nolint:errcheck

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scan user id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list users", err)
	}
	return ids, nil
}

// SessionRepo implements session repository operations on DB.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps a DB as a SessionRepository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, user_agent, ip, expires_at, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		token, userID, userAgent, ip, expiresAt.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return storageErr("create session", err)
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT token, user_id, user_agent, ip, expires_at, created_at FROM sessions WHERE token = $1",
		token,
	).Scan(&s.Token, &s.UserID, &s.UserAgent, &s.IP, timeCol{&s.ExpiresAt}, timeCol{&s.CreatedAt})
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get session", err)
	}
	return &s, nil
}

// Delete deletes a session by token.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	if _, err := r.db.sql.ExecContext(ctx, "DELETE FROM sessions WHERE token = $1", token); err != nil {
		return storageErr("delete session", err)
	}
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	if _, err := r.db.sql.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < $1", time.Now().UTC()); err != nil {
		return storageErr("delete expired sessions", err)
	}
	return nil
}
