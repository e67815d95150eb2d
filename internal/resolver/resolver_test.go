// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlib/strmorg/internal/metadata"
)

func seriesWithSeasons(seriesID string, perSeason ...int) *metadata.Fake {
	f := metadata.NewFake()
	seasons := make(map[int][]metadata.EpisodeMeta)
	for s, n := range perSeason {
		eps := make([]metadata.EpisodeMeta, n)
		for i := 0; i < n; i++ {
			eps[i] = metadata.EpisodeMeta{Number: i + 1}
		}
		seasons[s+1] = eps
	}
	f.AddSeries(metadata.SeriesMeta{
		SeriesID: seriesID, Title: "Test Show", Kind: metadata.KindTV, TotalSeasons: len(perSeason),
	}, seasons)
	return f
}

func TestResolve_SingleSeasonCumulativeNumbering(t *testing.T) {
	Clear()
	f := seriesWithSeasons("X", 24)

	m, err := Resolve(context.Background(), f, "X")
	require.NoError(t, err)
	assert.Equal(t, 24, m.TotalEpisodes)

	seen := make(map[int]bool)
	for c := 1; c <= 24; c++ {
		info, ok := m.LookupCumulative(c)
		require.True(t, ok, "cumulative %d", c)
		seen[info.Cumulative] = true
		assert.Equal(t, 1, info.Season)
		assert.Equal(t, c, info.EpisodeInSeason)
	}
	assert.Len(t, seen, 24)
}

func TestResolve_MultiSeasonCumulativeIsMonotonic(t *testing.T) {
	Clear()
	f := seriesWithSeasons("Y", 13, 12)

	m, err := Resolve(context.Background(), f, "Y")
	require.NoError(t, err)
	assert.Equal(t, 25, m.TotalEpisodes)

	info, ok := m.Lookup(2, 1)
	require.True(t, ok)
	assert.Equal(t, 14, info.Cumulative)

	info, ok = m.Lookup(2, 12)
	require.True(t, ok)
	assert.Equal(t, 25, info.Cumulative)
}

func TestResolve_RoundTripCumulativeToSeasonEpisodeAndBack(t *testing.T) {
	Clear()
	f := seriesWithSeasons("Z", 13, 12)
	m, err := Resolve(context.Background(), f, "Z")
	require.NoError(t, err)

	for c := 1; c <= m.TotalEpisodes; c++ {
		viaCumulative, ok := m.LookupCumulative(c)
		require.True(t, ok)
		viaSeasonEpisode, ok := m.Lookup(viaCumulative.Season, viaCumulative.EpisodeInSeason)
		require.True(t, ok)
		if diff := cmp.Diff(viaCumulative, viaSeasonEpisode); diff != "" {
			t.Errorf("cumulative and season/episode lookups diverged (-cumulative +seasonEpisode):\n%s", diff)
		}
	}
}

func TestResolve_CanonicalEpisodeMayDifferFromEpisodeInSeason(t *testing.T) {
	Clear()
	f := metadata.NewFake()
	f.AddSeries(metadata.SeriesMeta{SeriesID: "R", Title: "Renumbered", Kind: metadata.KindTV, TotalSeasons: 1},
		map[int][]metadata.EpisodeMeta{1: {{Number: 101}, {Number: 102}}})

	m, err := Resolve(context.Background(), f, "R")
	require.NoError(t, err)

	info, ok := m.Lookup(1, 1)
	require.True(t, ok)
	assert.Equal(t, 1, info.EpisodeInSeason)
	assert.Equal(t, 101, info.CanonicalEpisode)
}

func TestResolve_SpecialsExcludedFromCumulativeButListedSeparately(t *testing.T) {
	Clear()
	f := metadata.NewFake()
	f.AddSeries(metadata.SeriesMeta{SeriesID: "S", Title: "WithSpecials", Kind: metadata.KindTV, TotalSeasons: 1},
		map[int][]metadata.EpisodeMeta{
			0: {{Number: 1}},
			1: {{Number: 1}, {Number: 2}},
		})

	m, err := Resolve(context.Background(), f, "S")
	require.NoError(t, err)
	assert.Equal(t, 2, m.TotalEpisodes)
	require.Len(t, m.Specials, 1)
	assert.Equal(t, 0, m.Specials[0].Season)

	_, ok := m.LookupCumulative(0)
	assert.False(t, ok)
}

func TestResolve_CachesAcrossCalls(t *testing.T) {
	Clear()
	f := seriesWithSeasons("C", 5)

	first, err := Resolve(context.Background(), f, "C")
	require.NoError(t, err)

	f.Series["C"] = metadata.SeriesMeta{SeriesID: "C", Title: "Mutated", Kind: metadata.KindTV, TotalSeasons: 5}
	second, err := Resolve(context.Background(), f, "C")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "Test Show", second.Title)
}

func TestResolve_ClearEmptiesCache(t *testing.T) {
	Clear()
	f := seriesWithSeasons("D", 3)
	first, err := Resolve(context.Background(), f, "D")
	require.NoError(t, err)

	Clear()
	second, err := Resolve(context.Background(), f, "D")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestResolve_UnknownSeriesReturnsError(t *testing.T) {
	Clear()
	f := metadata.NewFake()
	_, err := Resolve(context.Background(), f, "missing")
	assert.Error(t, err)
}
