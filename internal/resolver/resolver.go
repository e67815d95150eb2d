// SPDX-License-Identifier: MIT

// Package resolver builds, per series, a bidirectional table mapping
// cumulative episode number to (season, within-season episode), backed by
// a metadata.Provider and cached process-wide.
package resolver

import (
	"context"
	"fmt"
	"sync"

	"github.com/castlib/strmorg/internal/metadata"
)

// EpisodeInfo is one row of a SeriesMapping.
type EpisodeInfo struct {
	Season           int
	EpisodeInSeason  int
	CanonicalEpisode int
	Cumulative       int
}

type seasonEpisodeKey struct {
	season  int
	episode int
}

// SeriesMapping is the resolved, immutable lookup table for one series.
type SeriesMapping struct {
	SeriesID        string
	Title           string
	Kind            metadata.Kind
	ByCumulative    map[int]EpisodeInfo
	BySeasonEpisode map[seasonEpisodeKey]EpisodeInfo
	Specials        []EpisodeInfo
	TotalSeasons    int
	TotalEpisodes   int
}

// Lookup returns the EpisodeInfo for (season, episodeInSeason), the second
// return reporting whether it was present.
func (m *SeriesMapping) Lookup(season, episodeInSeason int) (EpisodeInfo, bool) {
	info, ok := m.BySeasonEpisode[seasonEpisodeKey{season, episodeInSeason}]
	return info, ok
}

// LookupCumulative returns the EpisodeInfo for a cumulative episode number.
func (m *SeriesMapping) LookupCumulative(cumulative int) (EpisodeInfo, bool) {
	info, ok := m.ByCumulative[cumulative]
	return info, ok
}

var (
	mu    sync.Mutex
	cache = make(map[string]*SeriesMapping)
)

// Clear empties the process-wide mapping cache. Tests only.
func Clear() {
	mu.Lock()
	defer mu.Unlock()
	cache = make(map[string]*SeriesMapping)
}

// Resolve returns the cached SeriesMapping for seriesID, building it from
// provider on first use. The constructed map is never mutated afterward.
func Resolve(ctx context.Context, provider metadata.Provider, seriesID string) (*SeriesMapping, error) {
	mu.Lock()
	if m, ok := cache[seriesID]; ok {
		mu.Unlock()
		return m, nil
	}
	mu.Unlock()

	m, err := build(ctx, provider, seriesID)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	if existing, ok := cache[seriesID]; ok {
		mu.Unlock()
		return existing, nil
	}
	cache[seriesID] = m
	mu.Unlock()
	return m, nil
}

func build(ctx context.Context, provider metadata.Provider, seriesID string) (*SeriesMapping, error) {
	series, err := provider.LookupSeries(ctx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("resolver: lookup series %q: %w", seriesID, err)
	}

	m := &SeriesMapping{
		SeriesID:        seriesID,
		Title:           series.Title,
		Kind:            series.Kind,
		ByCumulative:    make(map[int]EpisodeInfo),
		BySeasonEpisode: make(map[seasonEpisodeKey]EpisodeInfo),
		TotalSeasons:    series.TotalSeasons,
	}

	cumulative := 0
	for s := 1; s <= series.TotalSeasons; s++ {
		episodes, err := provider.LookupSeason(ctx, seriesID, s)
		if err != nil {
			return nil, fmt.Errorf("resolver: lookup season %d of %q: %w", s, seriesID, err)
		}
		for i, ep := range episodes {
			cumulative++
			info := EpisodeInfo{
				Season:           s,
				EpisodeInSeason:  i + 1,
				CanonicalEpisode: ep.Number,
				Cumulative:       cumulative,
			}
			m.ByCumulative[info.Cumulative] = info
			m.BySeasonEpisode[seasonEpisodeKey{s, info.EpisodeInSeason}] = info
		}
	}
	m.TotalEpisodes = cumulative

	if specials, err := provider.LookupSeason(ctx, seriesID, 0); err == nil {
		for i, ep := range specials {
			info := EpisodeInfo{
				Season:           0,
				EpisodeInSeason:  i + 1,
				CanonicalEpisode: ep.Number,
				Cumulative:       0,
			}
			m.Specials = append(m.Specials, info)
			m.BySeasonEpisode[seasonEpisodeKey{0, info.EpisodeInSeason}] = info
		}
	}

	return m, nil
}
