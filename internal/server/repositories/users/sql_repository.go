package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/dbx"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

const userColumns = `id, first_name, last_name, email, password_digest, created_at, updated_at`

// SQLRepository implements Repository with SQL that runs unchanged on
// PostgreSQL (pgx) and SQLite (modernc).
type SQLRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, now: time.Now}
}

func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, first_name, last_name, email, email_fold, password_digest, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 `

	now := r.now().UTC()
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Email, models.FoldEmail(user.Email), user.PasswordDigest, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return user, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *SQLRepository) FindByEmailFold(ctx context.Context, normalizedEmail string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE email_fold = $1
		 ORDER BY created_at, id
		 LIMIT 1
		 `
	return r.getOne(ctx, query, normalizedEmail)
}

func (r *SQLRepository) EmailTaken(ctx context.Context, email string, exceptID string) (bool, error) {
	query :=
		`SELECT COUNT(*) FROM users
		 WHERE email = $1 AND id <> $2
		 `

	var n int
	if err := r.db.QueryRowContext(ctx, query, email, exceptID).Scan(&n); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users
		 SET first_name = $1, last_name = $2, email = $3, email_fold = $4, password_digest = $5, updated_at = $6
		 WHERE id = $7
		 `

	now := r.now().UTC()
	res, err := r.db.ExecContext(ctx, query,
		user.FirstName, user.LastName, user.Email, models.FoldEmail(user.Email), user.PasswordDigest, now, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	user.UpdatedAt = now
	return nil
}

func (r *SQLRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.PasswordDigest,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(strings.ToLower(sqliteErr.Error()), "unique constraint failed")
		}
	}
	return false
}
