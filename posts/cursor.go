package posts

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/user/redditclone-go/apperror"
)

// FormatTimestamp renders t the way timestamps travel over the API: the
// decimal number of milliseconds since the Unix epoch.
func FormatTimestamp(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// ParseTimestamp is the inverse of FormatTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}

// Cursor is a position in the newest-first post order.
//
// A keyset cursor (ID set) selects the posts strictly after the post it was
// taken from. A timestamp cursor (ID zero) selects every post created at or
// before CreatedAt.
type Cursor struct {
	CreatedAt time.Time
	ID        int
}

// Keyset reports whether c continues after a specific post.
func (c Cursor) Keyset() bool {
	return c.ID > 0
}

// CursorAfter returns the cursor of the page that follows p.
// It has the form "<unix microseconds>:<id>", the full precision Postgres
// stores created_at with.
func CursorAfter(p Post) string {
	return fmt.Sprintf("%d:%d", p.CreatedAt.UnixMicro(), p.ID)
}

// ParseCursor accepts a value from CursorAfter or a timestamp in the
// FormatTimestamp format. A timestamp covers its whole millisecond.
func ParseCursor(s string) (Cursor, error) {
	if micros, id, ok := strings.Cut(s, ":"); ok {
		us, err := strconv.ParseInt(micros, 10, 64)
		if err != nil {
			return Cursor{}, apperror.NewValidationError("invalid cursor", err)
		}
		n, err := strconv.Atoi(id)
		if err != nil || n <= 0 {
			return Cursor{}, apperror.NewValidationError("invalid cursor", err)
		}
		return Cursor{CreatedAt: time.UnixMicro(us), ID: n}, nil
	}

	t, err := ParseTimestamp(s)
	if err != nil {
		return Cursor{}, apperror.NewValidationError("invalid cursor", err)
	}
	return Cursor{CreatedAt: t.Add(time.Millisecond - time.Microsecond)}, nil
}

// Includes reports whether p belongs to the posts selected by c.
func (c Cursor) Includes(p Post) bool {
	if !c.Keyset() {
		return !p.CreatedAt.After(c.CreatedAt)
	}
	if p.CreatedAt.Equal(c.CreatedAt) {
		return p.ID < c.ID
	}
	return p.CreatedAt.Before(c.CreatedAt)
}
