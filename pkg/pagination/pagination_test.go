package pagination

import (
	"encoding/base64"
	"testing"
)

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -3: DefaultLimit, 10: 10, MaxLimit + 5: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestCursorRoundTrip(t *testing.T) {
	cursor, err := ParseCursor(EncodeCursor(Cursor{ID: 42}))
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if cursor == nil || cursor.ID != 42 {
		t.Fatalf("unexpected cursor %+v", cursor)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	if cursor, err := ParseCursor("  "); err != nil || cursor != nil {
		t.Fatalf("expected blank cursor to be nil, got %+v %v", cursor, err)
	}
	if _, err := ParseCursor("%%%"); err == nil {
		t.Fatalf("expected decode error")
	}
	for _, raw := range []string{"id:-4", "id|4", "id:x"} {
		if _, err := ParseCursor(base64.RawURLEncoding.EncodeToString([]byte(raw))); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestWindowAndPage(t *testing.T) {
	w, err := NewWindow(Params{Limit: 2, Cursor: EncodeCursor(Cursor{ID: 9})})
	if err != nil {
		t.Fatalf("new window: %v", err)
	}
	if w.Limit != 2 || w.Fetch() != 3 || w.After == nil || w.After.ID != 9 {
		t.Fatalf("unexpected window %+v", w)
	}

	id := func(v int64) int64 { return v }
	rows, next := Page([]int64{10, 11, 12}, w, id)
	if len(rows) != 2 || next != EncodeCursor(Cursor{ID: 11}) {
		t.Fatalf("expected trimmed page with cursor, got %v %q", rows, next)
	}
	rows, next = Page([]int64{10, 11}, w, id)
	if len(rows) != 2 || next != "" {
		t.Fatalf("expected last page, got %v %q", rows, next)
	}

	if _, err := NewWindow(Params{Cursor: "%%%"}); err == nil {
		t.Fatalf("expected cursor error")
	}
}
