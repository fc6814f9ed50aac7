package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/user/redditclone-go/apperror"
	"github.com/user/redditclone-go/db"
)

// PostgresRepository stores users in the "user" table.
type PostgresRepository struct {
	db db.DBTX
}

func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

const userColumns = `id, username, email, password, created_at, updated_at`

// Create inserts the user and fills in the generated id and timestamps.
// Unique violations are translated into ErrDuplicateUsername / ErrDuplicateEmail
// based on the violated constraint.
func (r *PostgresRepository) Create(ctx context.Context, user *User) (*User, error) {
	query := `INSERT INTO "user" (username, email, password)
              VALUES ($1, $2, $3)
              RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, user.Username, user.Email, user.HashedPassword).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if constraint, ok := db.IsUniqueViolation(err); ok {
			if strings.Contains(constraint, "email") {
				return nil, ErrDuplicateEmail
			}
			return nil, ErrDuplicateUsername
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}
	return user, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM "user" WHERE id = $1`, id, fmt.Sprintf("user with id %d not found", id))
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM "user" WHERE username = $1`, username, fmt.Sprintf("user with username '%s' not found", username))
}

// FindByEmail matches case-insensitively; emails are stored lower-cased.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM "user" WHERE email = $1`, strings.ToLower(email), fmt.Sprintf("user with email '%s' not found", email))
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int, hashedPassword string) error {
	query := `UPDATE "user" SET password = $1, updated_at = now() WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, hashedPassword, id)
	if err != nil {
		return apperror.NewDatabaseError("failed to update password", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.NewDatabaseError("failed to update password", err)
	}
	if n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("user with id %d not found", id), nil)
	}
	return nil
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any, notFoundMsg string) (*User, error) {
	var user User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NewNotFoundError(notFoundMsg, nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}
	return &user, nil
}
