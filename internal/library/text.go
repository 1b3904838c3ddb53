package library

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Sentinel is the placeholder glyph shown wherever descriptive text is missing.
const Sentinel = "–"

// Text is an optional piece of descriptive text.
// The zero value is missing.
type Text struct {
	value   string
	present bool
}

// Missing returns a missing Text.
func Missing() Text { return Text{} }

// Present returns a Text holding s, even if s is empty.
func Present(s string) Text { return Text{value: s, present: true} }

// TextOf resolves raw input: blank strings become missing.
func TextOf(s string) Text {
	if strings.TrimSpace(s) == "" {
		return Missing()
	}
	return Present(s)
}

// Value returns the raw text and whether it is present.
func (t Text) Value() (string, bool) { return t.value, t.present }

// IsMissing reports whether no text is held.
func (t Text) IsMissing() bool { return !t.present }

// String renders the text for display, using Sentinel when missing.
func (t Text) String() string {
	if !t.present {
		return Sentinel
	}
	return t.value
}

func (t Text) MarshalJSON() ([]byte, error) {
	if !t.present {
		return []byte("null"), nil
	}
	return json.Marshal(t.value)
}

// UnmarshalJSON accepts null, a string or a number. Numbers are kept
// verbatim as text: page counts and release years are opaque.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = Missing()
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = TextOf(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("text must be a string, a number or null: %w", err)
	}
	*t = Present(n.String())
	return nil
}

// Cover is an optional reference to a cover image (path or URL).
// Absent is a null reference, never the sentinel.
type Cover struct {
	ref string
}

// NoCover returns an absent cover.
func NoCover() Cover { return Cover{} }

// CoverOf returns a cover for ref; a blank ref yields NoCover.
func CoverOf(ref string) Cover {
	return Cover{ref: strings.TrimSpace(ref)}
}

// Ref returns the image reference and whether one is set.
func (c Cover) Ref() (string, bool) { return c.ref, c.ref != "" }

func (c Cover) MarshalJSON() ([]byte, error) {
	if c.ref == "" {
		return []byte("null"), nil
	}
	return json.Marshal(c.ref)
}

func (c *Cover) UnmarshalJSON(data []byte) error {
	var ref *string
	if err := json.Unmarshal(data, &ref); err != nil {
		return fmt.Errorf("cover must be a string or null: %w", err)
	}
	if ref == nil {
		*c = NoCover()
		return nil
	}
	*c = CoverOf(*ref)
	return nil
}
