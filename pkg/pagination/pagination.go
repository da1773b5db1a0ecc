package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100

	cursorPrefix = "id:"
)

// Params are the raw page inputs taken from a request.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points past the last row of the previous page. Host records use
// integer primary keys, so the id alone orders a page.
type Cursor struct {
	ID int64
}

// Window is a validated page request ready to drive a query.
type Window struct {
	Limit int
	After *Cursor
}

// Fetch is the row count to request so an extra row reveals a next page.
func (w Window) Fetch() int { return w.Limit + 1 }

// NewWindow normalizes params and decodes the cursor.
func NewWindow(params Params) (Window, error) {
	after, err := ParseCursor(params.Cursor)
	if err != nil {
		return Window{}, err
	}
	return Window{Limit: NormalizeLimit(params.Limit), After: after}, nil
}

// Page cuts rows fetched with w.Fetch() down to the window and returns the
// cursor for the following page, or "" on the last page.
func Page[T any](rows []T, w Window, id func(T) int64) ([]T, string) {
	if len(rows) <= w.Limit {
		return rows, ""
	}
	rows = rows[:w.Limit]
	return rows, EncodeCursor(Cursor{ID: id(rows[len(rows)-1])})
}

// NormalizeLimit clamps limit into [1, MaxLimit], defaulting to DefaultLimit.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

func EncodeCursor(cursor Cursor) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.FormatInt(cursor.ID, 10)))
}

// ParseCursor decodes an opaque cursor. A blank value yields nil.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	raw, ok := strings.CutPrefix(string(decoded), cursorPrefix)
	if !ok {
		return nil, fmt.Errorf("invalid cursor format")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid cursor id: %q", raw)
	}
	return &Cursor{ID: id}, nil
}
