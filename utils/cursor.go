package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

// Cursor pins a pagination position at (logged_at, entry_id) of the last row
// of the previous page. The encoding is opaque to clients.
type Cursor struct {
	LoggedAt time.Time `json:"logged_at"`
	EntryID  uint      `json:"entry_id"`
}

var ErrInvalidCursor = errors.New("invalid cursor")

func EncodeCursor(loggedAt time.Time, entryID uint) string {
	raw, _ := json.Marshal(Cursor{LoggedAt: loggedAt, EntryID: entryID})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor rejects anything that does not decode to both required fields.
func DecodeCursor(s string) (*Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, ErrInvalidCursor
	}
	if c.LoggedAt.IsZero() || c.EntryID == 0 {
		return nil, ErrInvalidCursor
	}
	return &c, nil
}
