// SPDX-License-Identifier: MIT

package naming

import "strings"

// Subcategory is the second-level output folder classification.
type Subcategory string

const (
	SubcategoryAnimation   Subcategory = "animation"
	SubcategoryDocumentary Subcategory = "documentary"
	SubcategoryMusic       Subcategory = "music"
	SubcategoryVariety     Subcategory = "variety"
	SubcategoryDefault     Subcategory = "default"
)

// subcategoryRules is the ordered genre → subcategory table. The first rule
// whose keyword appears (case-insensitive) in a genre wins.
var subcategoryRules = []struct {
	keywords []string
	category Subcategory
}{
	{[]string{"animation", "动画"}, SubcategoryAnimation},
	{[]string{"documentary", "纪录", "纪录片"}, SubcategoryDocumentary},
	{[]string{"music", "音乐"}, SubcategoryMusic},
	{[]string{"reality", "talk", "真人秀", "脱口秀"}, SubcategoryVariety},
}

// DetermineSubcategory walks genres in order and returns the first matching
// subcategory, or SubcategoryDefault if none match.
func DetermineSubcategory(genres []string) Subcategory {
	for _, g := range genres {
		lower := strings.ToLower(g)
		for _, rule := range subcategoryRules {
			for _, kw := range rule.keywords {
				if strings.Contains(lower, strings.ToLower(kw)) {
					return rule.category
				}
			}
		}
	}
	return SubcategoryDefault
}

// Kind is the top-level media kind.
type Kind string

const (
	KindTV    Kind = "tv"
	KindMovie Kind = "movie"
)

// kindFolderNames is the (kind, language) → folder-name table.
var kindFolderNames = map[Kind]map[string]string{
	KindTV:    {"zh": "剧集", "en": "TV"},
	KindMovie: {"zh": "电影", "en": "Movies"},
}

// KindFolder resolves the top-level output folder for a media kind and
// naming language. Falls back to "en" for an unrecognized language.
func KindFolder(kind Kind, language string) string {
	names, ok := kindFolderNames[kind]
	if !ok {
		return string(kind)
	}
	if name, ok := names[language]; ok {
		return name
	}
	return names["en"]
}

// subcategoryFolderNames is the four-way (kind, subcategory, language) table.
var subcategoryFolderNames = map[Kind]map[Subcategory]map[string]string{
	KindTV: {
		SubcategoryAnimation:   {"zh": "动漫", "en": "Animation"},
		SubcategoryDocumentary: {"zh": "纪录片", "en": "Documentary"},
		SubcategoryMusic:       {"zh": "音乐", "en": "Music"},
		SubcategoryVariety:     {"zh": "综艺", "en": "Variety"},
		SubcategoryDefault:     {"zh": "电视剧", "en": "TV Shows"},
	},
	KindMovie: {
		SubcategoryAnimation:   {"zh": "动漫", "en": "Animation"},
		SubcategoryDocumentary: {"zh": "纪录片", "en": "Documentary"},
		SubcategoryMusic:       {"zh": "音乐", "en": "Music"},
		SubcategoryVariety:     {"zh": "综艺", "en": "Variety"},
		SubcategoryDefault:     {"zh": "电影", "en": "Movies"},
	},
}

// SubcategoryFolder resolves the second-level output folder for a
// (kind, subcategory, language) triple.
func SubcategoryFolder(kind Kind, sub Subcategory, language string) string {
	byKind, ok := subcategoryFolderNames[kind]
	if !ok {
		return string(sub)
	}
	names, ok := byKind[sub]
	if !ok {
		names = byKind[SubcategoryDefault]
	}
	if name, ok := names[language]; ok {
		return name
	}
	return names["en"]
}

// RootFolder joins the kind and subcategory folders under outputRoot.
func RootFolder(outputRoot string, kind Kind, sub Subcategory, language string) string {
	return outputRoot + "/" + KindFolder(kind, language) + "/" + SubcategoryFolder(kind, sub, language)
}

// DefaultSubtitleLanguagePriority is the order languages are tried when
// picking the one default (untagged) subtitle for a video.
var DefaultSubtitleLanguagePriority = []string{
	"chs", "sc", "chsjp", "scjp", "cht", "tc", "chtjp", "tcjp",
	"eng", "en", "jpn", "jap", "jp", "und",
}

// SelectDefaultSubtitle returns the index into langs of the subtitle that
// should be emitted as the video's default (untagged) subtitle, by walking
// DefaultSubtitleLanguagePriority. Returns -1 if langs is empty.
func SelectDefaultSubtitle(langs []string) int {
	for _, want := range DefaultSubtitleLanguagePriority {
		for i, lang := range langs {
			if strings.EqualFold(lang, want) {
				return i
			}
		}
	}
	if len(langs) > 0 {
		return 0
	}
	return -1
}
