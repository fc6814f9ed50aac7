package posts

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/redditclone-go/apperror"
)

var postCols = []string{"id", "title", "text", "creator_id", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewPostgresRepository(sqlDB), mock
}

func TestPostgresList(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`FROM post ORDER BY created_at DESC, id DESC LIMIT \$1`).WithArgs(2).
		WillReturnRows(sqlmock.NewRows(postCols).
			AddRow(2, "second", "", 1, now, now).
			AddRow(1, "first", "body", 1, now.Add(-time.Minute), now))

	got, err := repo.List(context.Background(), 2, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Title)
	assert.Equal(t, "body", got[1].Text)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresList_WithTimestampCursor(t *testing.T) {
	repo, mock := newMockRepo(t)
	cursor := Cursor{CreatedAt: time.UnixMilli(1_700_000_000_000)}

	mock.ExpectQuery(`WHERE created_at <= \$1 ORDER BY created_at DESC, id DESC LIMIT \$2`).
		WithArgs(cursor.CreatedAt, 10).
		WillReturnRows(sqlmock.NewRows(postCols))

	got, err := repo.List(context.Background(), 10, &cursor)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresList_WithKeysetCursor(t *testing.T) {
	repo, mock := newMockRepo(t)
	cursor := Cursor{CreatedAt: time.UnixMicro(1_700_000_000_000_123), ID: 7}

	mock.ExpectQuery(`WHERE \(created_at, id\) < \(\$1, \$2\) ORDER BY created_at DESC, id DESC LIMIT \$3`).
		WithArgs(cursor.CreatedAt, 7, 10).
		WillReturnRows(sqlmock.NewRows(postCols))

	got, err := repo.List(context.Background(), 10, &cursor)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`FROM post WHERE id = \$1`).WithArgs(5).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 5)
	assert.True(t, apperror.IsNotFound(err))
}

func TestPostgresCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO post`).WithArgs("title", "text", 3).
		WillReturnRows(sqlmock.NewRows(postCols).AddRow(11, "title", "text", 3, now, now))

	p, err := repo.Create(context.Background(), &Post{Title: "title", Text: "text", CreatorID: 3})
	require.NoError(t, err)
	assert.Equal(t, 11, p.ID)
}

func TestPostgresUpdateTitle_ReturnsNewRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`UPDATE post SET title = \$1`).WithArgs("new", 4).
		WillReturnRows(sqlmock.NewRows(postCols).AddRow(4, "new", "", 1, now, now))

	p, err := repo.UpdateTitle(context.Background(), 4, "new")
	require.NoError(t, err)
	assert.Equal(t, "new", p.Title)
}

func TestPostgresDelete(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`DELETE FROM post WHERE id = \$1`).WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}
