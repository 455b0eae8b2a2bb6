// Package pagination implements opaque keyset cursors for list endpoints.
package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

// ErrInvalidCursor is returned for cursors that do not decode.
var ErrInvalidCursor = errors.New("invalid cursor format")

// Cursor is the decoded position of the last item of the previous page.
type Cursor struct {
	LastID    string
	Timestamp time.Time
}

// Encode renders the cursor as an opaque URL-safe token.
func (c Cursor) Encode() string {
	if c.LastID == "" {
		return ""
	}
	raw := c.Timestamp.UTC().Format(time.RFC3339Nano) + "|" + c.LastID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// EncodeCursor builds and encodes a cursor in one step.
func EncodeCursor(lastID string, timestamp time.Time) string {
	return Cursor{LastID: lastID, Timestamp: timestamp}.Encode()
}

// DecodeCursor parses an encoded cursor. An empty string decodes to nil,
// meaning the first page.
func DecodeCursor(encoded string) (*Cursor, error) {
	if encoded == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	timestampPart, lastID, ok := strings.Cut(string(raw), "|")
	if !ok || lastID == "" {
		return nil, ErrInvalidCursor
	}

	timestamp, err := time.Parse(time.RFC3339Nano, timestampPart)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{LastID: lastID, Timestamp: timestamp}, nil
}

// PageResult is the wire shape of one page.
type PageResult[T any] struct {
	Items   []T    `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

// CreateNextCursor derives the next-page cursor from a full page of items.
// A short page means the listing is exhausted and yields no cursor.
func CreateNextCursor[T any](items []T, limit int, getID func(T) string, getTimestamp func(T) time.Time) string {
	if len(items) == 0 || len(items) < limit {
		return ""
	}
	last := items[len(items)-1]
	return Cursor{LastID: getID(last), Timestamp: getTimestamp(last)}.Encode()
}
