// SPDX-License-Identifier: MIT

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeURIPathSegment(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "slashes untouched", in: "/a/b/c", want: "/a/b/c"},
		{name: "brackets encoded", in: "/series/[01].mkv", want: "/series/%5B01%5D.mkv"},
		{name: "spaces encoded", in: "/My Show/ep 1.mkv", want: "/My%20Show/ep%201.mkv"},
		{name: "safe punctuation untouched", in: "/a-b_c.d!e~f*g'h(i)j;k,l", want: "/a-b_c.d!e~f*g'h(i)j;k,l"},
		{name: "cjk encoded as utf8 bytes", in: "/剧集/片.mkv", want: "/%E5%89%A7%E9%9B%86/%E7%89%87.mkv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, encodeURIPathSegment(tt.in))
		})
	}
}
