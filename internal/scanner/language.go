// SPDX-License-Identifier: MIT

package scanner

import "strings"

// compoundLanguages are multi-part codes kept verbatim rather than mapped.
var compoundLanguages = []string{"scjp", "tcjp", "chsjp", "chtjp", "chs_jp", "cht_jp"}

// languageCodes maps a single-part code to its normalized form.
var languageCodes = map[string]string{
	"chs": "chs", "chi": "chs", "sc": "chs", "gb": "chs", "zh-cn": "chs", "zho": "chs",
	"cht": "cht", "tc": "cht", "big5": "cht", "zh-tw": "cht",
	"eng": "eng", "en": "eng",
	"jpn": "jpn", "jap": "jpn", "jp": "jpn", "ja": "jpn",
	"kor": "kor", "ko": "kor",
}

// extractLanguage derives a subtitle's language code from its filename.
// name includes ext; ext is the already-lowercased extension to strip.
// Compound codes (e.g. "scjp") are kept verbatim; single codes are mapped
// through languageCodes; if no dot/underscore-delimited token matches,
// the default "und" is returned.
func extractLanguage(name, ext string) string {
	stem := strings.TrimSuffix(name, name[len(name)-len(ext):])
	lower := strings.ToLower(stem)

	parts := strings.Split(lower, ".")
	if len(parts) >= 2 {
		last := parts[len(parts)-1]
		if contains(compoundLanguages, last) {
			return last
		}
		if mapped, ok := languageCodes[last]; ok {
			return mapped
		}
	}

	for _, c := range compoundLanguages {
		if strings.Contains(lower, "."+c+".") || strings.Contains(lower, "_"+c+"_") {
			return c
		}
	}
	for code, lang := range languageCodes {
		if strings.Contains(lower, "."+code+".") || strings.Contains(lower, "_"+code+"_") {
			return lang
		}
	}

	return "und"
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}
