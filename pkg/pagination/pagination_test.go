package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{in: 0, want: DefaultLimit},
		{in: -5, want: DefaultLimit},
		{in: 10, want: 10},
		{in: MaxLimit + 50, want: MaxLimit},
	}
	for _, tc := range cases {
		if got := NormalizeLimit(tc.in); got != tc.want {
			t.Errorf("NormalizeLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestCursorRoundTrip(t *testing.T) {
	original := Cursor{
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC),
		ID:        uuid.New(),
	}

	parsed, err := ParseCursor(EncodeCursor(original))
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if parsed == nil {
		t.Fatal("expected a cursor, got nil")
	}
	if !parsed.CreatedAt.Equal(original.CreatedAt) {
		t.Errorf("created_at = %v, want %v", parsed.CreatedAt, original.CreatedAt)
	}
	if parsed.ID != original.ID {
		t.Errorf("id = %v, want %v", parsed.ID, original.ID)
	}
}

func TestParseCursorEmptyMeansFirstPage(t *testing.T) {
	cursor, err := ParseCursor("  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cursor != nil {
		t.Fatalf("expected nil cursor, got %+v", cursor)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	for _, value := range []string{"not-base64!", "bm8tc2VwYXJhdG9y", "aGVsbG98d29ybGQ"} {
		if _, err := ParseCursor(value); err == nil {
			t.Errorf("ParseCursor(%q) should fail", value)
		}
	}
}
