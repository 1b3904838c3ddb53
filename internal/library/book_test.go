package library

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleReadIsAnInvolution(t *testing.T) {
	for _, start := range []bool{false, true} {
		b := NewStore().Add(context.Background(), Fields{Title: TextOf("Emma"), Read: start})

		b.ToggleRead()
		assert.Equal(t, !start, b.Read())
		b.ToggleRead()
		assert.Equal(t, start, b.Read())
	}
}

func TestToggleReadKeepsIdentity(t *testing.T) {
	b := NewStore().Add(context.Background(), Fields{Title: TextOf("Emma")})
	id := b.ID()

	b.ToggleRead()
	assert.Equal(t, id, b.ID())
	assert.Equal(t, "Emma", b.Title().String())
}

func TestDetachedBookPanics(t *testing.T) {
	var b Book

	assert.PanicsWithValue(t, ErrDetachedBook, func() { b.ToggleRead() })
	assert.PanicsWithValue(t, ErrDetachedBook, func() { _ = b.ID() })

	var nilBook *Book
	assert.PanicsWithValue(t, ErrDetachedBook, func() { _ = nilBook.Record() })
}

func TestEmptyTitleIsStoredAsMissing(t *testing.T) {
	b := NewStore().Add(context.Background(), Fields{Title: TextOf("")})

	assert.True(t, b.Title().IsMissing())
	assert.Equal(t, Sentinel, b.Title().String())
	assert.NotEqual(t, "", b.Title().String())
}

func TestTextOf(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		missing bool
		display string
	}{
		{name: "empty", in: "", missing: true, display: Sentinel},
		{name: "blank", in: "   ", missing: true, display: Sentinel},
		{name: "text", in: "Horror", display: "Horror"},
		{name: "number", in: "412", display: "412"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TextOf(tt.in)
			assert.Equal(t, tt.missing, got.IsMissing())
			assert.Equal(t, tt.display, got.String())
		})
	}
}

func TestRecordJSON(t *testing.T) {
	b := NewStore().Add(context.Background(), Fields{
		Title: TextOf("Dracula"),
		Pages: TextOf("461"),
		Cover: CoverOf("./covers/dracula-cover.jpg"),
	})

	data, err := json.Marshal(b.Record())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Dracula", raw["title"])
	assert.Nil(t, raw["author"])
	assert.Equal(t, "461", raw["pages"])
	assert.Equal(t, "./covers/dracula-cover.jpg", raw["cover"])
	assert.Equal(t, false, raw["read"])
}

func TestTextUnmarshalAcceptsNumbers(t *testing.T) {
	var in struct {
		Pages   Text  `json:"pages"`
		Release Text  `json:"release"`
		Genre   Text  `json:"genre"`
		Cover   Cover `json:"cover"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"pages":412,"release":"1965","genre":null,"cover":null}`), &in))

	assert.Equal(t, "412", in.Pages.String())
	assert.Equal(t, "1965", in.Release.String())
	assert.True(t, in.Genre.IsMissing())
	_, ok := in.Cover.Ref()
	assert.False(t, ok)
}

func TestTextUnmarshalRejectsObjects(t *testing.T) {
	var txt Text
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &txt))
}
