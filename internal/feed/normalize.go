package feed

import "strings"

// Normalize converts a classified payload into a flat item list. Empty
// payloads produce an empty, non-nil slice.
func Normalize(p Payload) []Item {
	items := []Item{}
	switch p.Shape {
	case ShapeList:
		for _, sub := range p.List {
			items = append(items, Normalize(sub)...)
		}
	case ShapeTracks:
		for _, track := range p.Tracks {
			items = append(items, normalizeRecord(track, PlatformSpotify))
		}
	case ShapeSavedTracks:
		for _, track := range p.SavedTracks {
			items = append(items, normalizeRecord(track, PlatformSpotify))
		}
	case ShapeRecommendations:
		for _, playlist := range p.Recommendations.Spotify.MoodPlaylists {
			items = append(items, normalizeRecord(playlist, PlatformSpotify))
		}
		for _, playlist := range p.Recommendations.Spotify.GenrePlaylists {
			items = append(items, normalizeRecord(playlist, PlatformSpotify))
		}
		for _, video := range p.Recommendations.YouTube {
			items = append(items, normalizeRecord(video, PlatformYouTube))
		}
	case ShapeSongs:
		for _, song := range p.Songs {
			items = append(items, normalizeRecord(song, PlatformSpotify))
		}
	case ShapeArtists:
		for _, bundle := range p.Artists {
			for _, track := range bundle.TopTracks {
				item := normalizeRecord(track, PlatformSpotify)
				name := bundle.Name
				item.ArtistName = &name
				item.Artists = []Artist{{Name: bundle.Name}}
				items = append(items, item)
			}
		}
	case ShapeRecord:
		items = append(items, normalizeFallback(p.Record))
	}
	return items
}

// normalizeRecord applies the uniform field extraction rules with an
// explicit platform tag.
func normalizeRecord(r Record, platform Platform) Item {
	names := r.Artists.Names()
	if len(names) == 0 && r.ArtistName != "" {
		names = []string{r.ArtistName}
	}

	item := Item{
		Name:           firstOf(r.Name, r.Title),
		Title:          firstOf(r.Title, r.Name),
		Artists:        structuredArtists(names),
		URL:            r.URL,
		Platform:       platform,
		RelatedArtists: normalizeRelated(r.RelatedArtists),
	}
	if len(names) > 0 {
		joined := strings.Join(names, ", ")
		item.ArtistName = &joined
	}
	if r.Album != "" {
		album := r.Album
		item.Album = &album
	}
	item.Image, item.Thumbnail = crossFill(r.Image, r.Thumbnail, platform)
	return item
}

// normalizeFallback treats the record itself as a single item. An explicit
// platform field is honored when present; otherwise a thumbnail marks the
// record as a video. Items that went through normalization once always carry
// the explicit field, so a second pass cannot reclassify them.
func normalizeFallback(r Record) Item {
	platform := Platform(r.Platform)
	if platform != PlatformSpotify && platform != PlatformYouTube {
		if r.Thumbnail != "" {
			platform = PlatformYouTube
		} else {
			platform = PlatformSpotify
		}
	}
	return normalizeRecord(r, platform)
}

// crossFill populates both image fields from whichever source is present so
// consumers never branch on which one a provider filled in.
func crossFill(image, thumbnail string, platform Platform) (*string, *string) {
	img := firstOf(image, thumbnail)
	thumb := firstOf(thumbnail, image)
	if img == "" {
		if platform == PlatformYouTube {
			img = PlaceholderThumbnail
		} else {
			img = PlaceholderImage
		}
	}
	if thumb == "" {
		thumb = PlaceholderThumbnail
	}
	return &img, &thumb
}

func normalizeRelated(raw []RawRelatedArtist) []RelatedArtist {
	related := []RelatedArtist{}
	for _, artist := range raw {
		tracks := []TopTrack{}
		for _, t := range artist.TopTracks {
			track := TopTrack{Name: t.Name, URL: t.URL}
			if t.Album != "" {
				album := t.Album
				track.Album = &album
			}
			if img := firstOf(t.Image, t.Thumbnail); img != "" {
				track.Image = &img
			}
			tracks = append(tracks, track)
		}
		related = append(related, RelatedArtist{Name: artist.Name, TopTracks: tracks})
	}
	return related
}

func structuredArtists(names []string) []Artist {
	artists := []Artist{}
	for _, name := range names {
		artists = append(artists, Artist{Name: name})
	}
	return artists
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
