package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2026, 8, 1, 10, 30, 0, 123456789, time.UTC)
	encoded := EncodeCursor("doc-42", ts)
	require.NotEmpty(t, encoded)

	decoded, err := DecodeCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, "doc-42", decoded.LastID)
	assert.True(t, decoded.Timestamp.Equal(ts))
}

func TestDecodeCursorEmptyIsFirstPage(t *testing.T) {
	decoded, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, encoded := range []string{"not base64!!", "bm8tc2VwYXJhdG9y", "fHxvbmx5LXBpcGVz"} {
		_, err := DecodeCursor(encoded)
		assert.ErrorIs(t, err, ErrInvalidCursor, encoded)
	}
}

func TestCreateNextCursorShortPage(t *testing.T) {
	type doc struct {
		id string
		at time.Time
	}
	items := []doc{{id: "a", at: time.Now()}, {id: "b", at: time.Now()}}

	// page shorter than the limit means no further pages
	next := CreateNextCursor(items, 5,
		func(d doc) string { return d.id },
		func(d doc) time.Time { return d.at })
	assert.Empty(t, next)

	next = CreateNextCursor(items, 2,
		func(d doc) string { return d.id },
		func(d doc) time.Time { return d.at })
	require.NotEmpty(t, next)

	decoded, err := DecodeCursor(next)
	require.NoError(t, err)
	assert.Equal(t, "b", decoded.LastID)
}
