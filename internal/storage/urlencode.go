// SPDX-License-Identifier: MIT

package storage

import "strings"

// encodeURIPathSegment percent-encodes a path the way JavaScript's
// encodeURI does: every character is left alone except the ones in this
// safe set (alphanumerics plus `-_.!~*'();/?:@&=+$,#`); everything else,
// including `[`, `]`, and spaces, is percent-encoded. Go's net/url package
// has no matching mode (url.PathEscape encodes more than this, and
// (*url.URL).String under-encodes brackets), hence this explicit
// implementation rather than relying on stdlib defaults.
func encodeURIPathSegment(path string) string {
	const safe = "-_.!~*'();/?:@&=+$,#"
	var b strings.Builder
	b.Grow(len(path))
	for _, r := range path {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case strings.ContainsRune(safe, r):
			b.WriteRune(r)
		default:
			for _, c := range []byte(string(r)) {
				b.WriteByte('%')
				b.WriteString(strings.ToUpper(hexByte(c)))
			}
		}
	}
	return b.String()
}

func hexByte(b byte) string {
	const hex = "0123456789abcdef"
	return string([]byte{hex[b>>4], hex[b&0x0f]})
}
