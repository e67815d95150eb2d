// SPDX-License-Identifier: MIT

package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetermineSubcategory(t *testing.T) {
	tests := []struct {
		genres []string
		want   Subcategory
	}{
		{[]string{"Animation"}, SubcategoryAnimation},
		{[]string{"动画"}, SubcategoryAnimation},
		{[]string{"Documentary"}, SubcategoryDocumentary},
		{[]string{"纪录片"}, SubcategoryDocumentary},
		{[]string{"Music"}, SubcategoryMusic},
		{[]string{"Reality"}, SubcategoryVariety},
		{[]string{"Talk"}, SubcategoryVariety},
		{[]string{"真人秀"}, SubcategoryVariety},
		{[]string{"Drama"}, SubcategoryDefault},
		{nil, SubcategoryDefault},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetermineSubcategory(tt.genres))
	}
}

func TestDetermineSubcategory_FirstMatchWinsInProviderOrder(t *testing.T) {
	got := DetermineSubcategory([]string{"Drama", "Documentary"})
	assert.Equal(t, SubcategoryDocumentary, got, "must walk genres in provider order, returning the first rule match")
}

func TestKindFolder(t *testing.T) {
	assert.Equal(t, "剧集", KindFolder(KindTV, "zh"))
	assert.Equal(t, "电影", KindFolder(KindMovie, "zh"))
	assert.Equal(t, "TV", KindFolder(KindTV, "en"))
	assert.Equal(t, "Movies", KindFolder(KindMovie, "en"))
}

func TestSubcategoryFolder(t *testing.T) {
	assert.Equal(t, "动漫", SubcategoryFolder(KindTV, SubcategoryAnimation, "zh"))
	assert.Equal(t, "电视剧", SubcategoryFolder(KindTV, SubcategoryDefault, "zh"))
	assert.Equal(t, "电影", SubcategoryFolder(KindMovie, SubcategoryDefault, "zh"))
	assert.Equal(t, "Documentary", SubcategoryFolder(KindTV, SubcategoryDocumentary, "en"))
}

func TestRootFolder(t *testing.T) {
	assert.Equal(t, "/kuake/strm/剧集/动漫", RootFolder("/kuake/strm", KindTV, SubcategoryAnimation, "zh"))
	assert.Equal(t, "/media/TV/Documentary", RootFolder("/media", KindTV, SubcategoryDocumentary, "en"))
}

func TestSelectDefaultSubtitle(t *testing.T) {
	tests := []struct {
		langs []string
		want  int
	}{
		{[]string{"chs", "cht", "eng"}, 0},
		{[]string{"cht", "chs", "eng"}, 1},
		{[]string{"eng", "jpn"}, 0},
		{[]string{"und"}, 0},
		{nil, -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SelectDefaultSubtitle(tt.langs))
	}
}
