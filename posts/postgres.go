package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/user/redditclone-go/apperror"
	"github.com/user/redditclone-go/db"
)

// PostgresRepository stores posts in the `post` table.
type PostgresRepository struct {
	db db.DBTX
}

func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

const postColumns = `id, title, text, creator_id, created_at, updated_at`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*Post, error) {
	var p Post
	if err := s.Scan(&p.ID, &p.Title, &p.Text, &p.CreatorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns up to limit posts, newest first, ties broken by id.
// See Cursor for what a cursor selects.
func (r *PostgresRepository) List(ctx context.Context, limit int, cursor *Cursor) ([]Post, error) {
	var (
		rows *sql.Rows
		err  error
	)
	switch {
	case cursor == nil:
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+postColumns+` FROM post ORDER BY created_at DESC, id DESC LIMIT $1`,
			limit)
	case cursor.Keyset():
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+postColumns+` FROM post WHERE (created_at, id) < ($1, $2) ORDER BY created_at DESC, id DESC LIMIT $3`,
			cursor.CreatedAt, cursor.ID, limit)
	default:
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+postColumns+` FROM post WHERE created_at <= $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
			cursor.CreatedAt, limit)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list posts", err)
	}
	defer rows.Close()

	result := make([]Post, 0, limit)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, apperror.NewDatabaseError("failed to scan post", err)
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to iterate posts", err)
	}
	return result, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int) (*Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM post WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("post with id %d not found", id), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get post", err)
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, post *Post) (*Post, error) {
	query := `INSERT INTO post (title, text, creator_id)
              VALUES ($1, $2, $3)
              RETURNING ` + postColumns

	p, err := scanPost(r.db.QueryRowContext(ctx, query, post.Title, post.Text, post.CreatorID))
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to create post", err)
	}
	return p, nil
}

// UpdateTitle changes the title and returns the row as it is after the update.
func (r *PostgresRepository) UpdateTitle(ctx context.Context, id int, title string) (*Post, error) {
	query := `UPDATE post SET title = $1, updated_at = now()
              WHERE id = $2
              RETURNING ` + postColumns

	p, err := scanPost(r.db.QueryRowContext(ctx, query, title, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("post with id %d not found", id), nil)
		}
		return nil, apperror.NewDatabaseError("failed to update post", err)
	}
	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM post WHERE id = $1`, id); err != nil {
		return apperror.NewDatabaseError("failed to delete post", err)
	}
	return nil
}
