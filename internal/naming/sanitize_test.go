// SPDX-License-Identifier: MIT

package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"windows illegal chars become dot", `a/b\c:d*e?f"g<h>i|j`, "a.b.c.d.e.f.g.h.i.j"},
		{"tilde becomes dash", "a~b", "a-b"},
		{"apostrophe stripped", "Let's Go", "Lets Go"},
		{"trailing bang stripped", "Hello!!!", "Hello"},
		{"leading bang stripped", "!!!Hello", "Hello"},
		{"interior bang kept", "K-ON! Live", "K-ON! Live"},
		{"dot runs collapse", "a...b....c", "a.b.c"},
		{"leading trailing dots and spaces trimmed", "  .a.b.  ", "a.b"},
		{"combo", "K-ON!.Live.Event.LET'S.GO!", "K-ON!.Live.Event.LETS.GO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitize_NoIllegalCharsOrDotRunsSurvive(t *testing.T) {
	in := `weird\\//::**??""<<>>||...name`
	out := Sanitize(in)
	for _, c := range `\/:*?"<>|` {
		assert.NotContains(t, out, string(c))
	}
	assert.NotContains(t, out, "..")
}
