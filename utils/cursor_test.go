package utils

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	loggedAt := time.Date(2025, 6, 18, 9, 15, 0, 0, time.UTC)
	encoded := EncodeCursor(loggedAt, 42)

	c, err := DecodeCursor(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !c.LoggedAt.Equal(loggedAt) {
		t.Fatalf("logged_at: expected %v, got %v", loggedAt, c.LoggedAt)
	}
	if c.EntryID != 42 {
		t.Fatalf("entry_id: expected 42, got %d", c.EntryID)
	}
}

func TestDecodeCursor_NotBase64(t *testing.T) {
	if _, err := DecodeCursor("%%% not base64 %%%"); !errors.Is(err, ErrInvalidCursor) {
		t.Fatalf("expected ErrInvalidCursor, got %v", err)
	}
}

func TestDecodeCursor_NotJSON(t *testing.T) {
	garbage := base64.RawURLEncoding.EncodeToString([]byte("not json at all"))
	if _, err := DecodeCursor(garbage); !errors.Is(err, ErrInvalidCursor) {
		t.Fatalf("expected ErrInvalidCursor, got %v", err)
	}
}

func TestDecodeCursor_MissingFields(t *testing.T) {
	cases := []string{
		`{}`,
		`{"entry_id":5}`,
		`{"logged_at":"2025-06-18T09:15:00Z"}`,
		`{"logged_at":"2025-06-18T09:15:00Z","entry_id":0}`,
	}
	for _, raw := range cases {
		encoded := base64.RawURLEncoding.EncodeToString([]byte(raw))
		if _, err := DecodeCursor(encoded); !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("payload %s: expected ErrInvalidCursor, got %v", raw, err)
		}
	}
}
