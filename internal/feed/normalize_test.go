package feed

import (
	"encoding/json"
	"testing"
)

func classify(t *testing.T, raw string) Payload {
	t.Helper()
	p, err := ClassifyPayload([]byte(raw))
	if err != nil {
		t.Fatalf("expected payload to classify, got %v", err)
	}
	return p
}

func TestClassifyPayload(t *testing.T) {
	t.Run("Top Level Array", func(t *testing.T) {
		p := classify(t, `[{"name":"a"},{"name":"b"}]`)
		if p.Shape != ShapeList {
			t.Errorf("expected list shape, got %s", p.Shape)
		}
		if len(p.List) != 2 {
			t.Errorf("expected 2 elements, got %d", len(p.List))
		}
	})

	t.Run("Tracks", func(t *testing.T) {
		p := classify(t, `{"tracks":[{"name":"t"}]}`)
		if p.Shape != ShapeTracks {
			t.Errorf("expected tracks shape, got %s", p.Shape)
		}
	})

	t.Run("Tracks Items Envelope", func(t *testing.T) {
		p := classify(t, `{"tracks":{"items":[{"name":"t1"},{"name":"t2"}]}}`)
		if p.Shape != ShapeRecord {
			t.Errorf("expected record shape for non-array tracks, got %s", p.Shape)
		}
	})

	t.Run("Saved Tracks", func(t *testing.T) {
		p := classify(t, `{"savedTracks":[{"name":"t"}]}`)
		if p.Shape != ShapeSavedTracks {
			t.Errorf("expected savedTracks shape, got %s", p.Shape)
		}
	})

	t.Run("Recommendations", func(t *testing.T) {
		p := classify(t, `{"recommendations":{"spotify":{"moodPlaylists":[],"genrePlaylists":[]},"youtube":[]}}`)
		if p.Shape != ShapeRecommendations {
			t.Errorf("expected recommendations shape, got %s", p.Shape)
		}
	})

	t.Run("Songs", func(t *testing.T) {
		p := classify(t, `{"songs":[{"name":"s"}]}`)
		if p.Shape != ShapeSongs {
			t.Errorf("expected songs shape, got %s", p.Shape)
		}
	})

	t.Run("Artist Bundles", func(t *testing.T) {
		p := classify(t, `{"artists":[{"name":"x","topTracks":[{"name":"t"}]}]}`)
		if p.Shape != ShapeArtists {
			t.Errorf("expected artists shape, got %s", p.Shape)
		}
	})

	t.Run("Structured Artists Field Is Not A Bundle", func(t *testing.T) {
		p := classify(t, `{"name":"t","artists":[{"name":"x"}]}`)
		if p.Shape != ShapeRecord {
			t.Errorf("expected record shape, got %s", p.Shape)
		}
	})

	t.Run("Fallback Record", func(t *testing.T) {
		p := classify(t, `{"title":"v","thumbnail":"th"}`)
		if p.Shape != ShapeRecord {
			t.Errorf("expected record shape, got %s", p.Shape)
		}
	})

	t.Run("First Match Wins", func(t *testing.T) {
		p := classify(t, `{"tracks":[{"name":"t"}],"songs":[{"name":"s1"},{"name":"s2"}]}`)
		if p.Shape != ShapeTracks {
			t.Errorf("expected tracks shape to win, got %s", p.Shape)
		}
		if len(Normalize(p)) != 1 {
			t.Errorf("expected items from tracks arm only, got %d", len(Normalize(p)))
		}
	})
}

func TestNormalize(t *testing.T) {
	t.Run("Every Shape Yields Tagged Items", func(t *testing.T) {
		payloads := map[string]string{
			"list":            `[{"name":"a"}]`,
			"tracks":          `{"tracks":[{"name":"t","artists":["X"],"url":"u"}]}`,
			"savedTracks":     `{"savedTracks":[{"name":"t","artists":"X","url":"u"}]}`,
			"recommendations": `{"recommendations":{"spotify":{"moodPlaylists":[{"name":"A","url":"u"}],"genrePlaylists":[]},"youtube":[{"name":"B","url":"u"}]}}`,
			"songs":           `{"songs":[{"name":"s","artists":["X"],"url":"u"}]}`,
			"artists":         `{"artists":[{"name":"x","topTracks":[{"name":"t","url":"u"}]}]}`,
			"record":          `{"title":"v","thumbnail":"th","url":"u"}`,
		}

		for name, raw := range payloads {
			t.Run(name, func(t *testing.T) {
				items := Normalize(classify(t, raw))
				if len(items) == 0 {
					t.Fatal("expected at least one item")
				}
				for _, item := range items {
					if item.Platform != PlatformSpotify && item.Platform != PlatformYouTube {
						t.Errorf("expected a platform tag, got %q", item.Platform)
					}
					if item.Artists == nil {
						t.Error("expected artists to be a sequence, got nil")
					}
					if item.RelatedArtists == nil {
						t.Error("expected relatedArtists to be a sequence, got nil")
					}
					if item.Image == nil || item.Thumbnail == nil {
						t.Error("expected image and thumbnail to be cross-filled")
					}
				}
			})
		}
	})

	t.Run("Tracks Artist Join", func(t *testing.T) {
		p := classify(t, `{"tracks":[{"name":"T","artists":["X","Y"],"url":"u"}]}`)
		items := Normalize(p)
		if len(items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(items))
		}
		item := items[0]
		if item.ArtistName == nil || *item.ArtistName != "X, Y" {
			t.Errorf("expected artistName 'X, Y', got %v", item.ArtistName)
		}
		if len(item.Artists) != 2 || item.Artists[0].Name != "X" || item.Artists[1].Name != "Y" {
			t.Errorf("expected structured artists [X Y], got %v", item.Artists)
		}
		if item.Platform != PlatformSpotify {
			t.Errorf("expected Spotify platform, got %s", item.Platform)
		}
	})

	t.Run("Object Artists Decode", func(t *testing.T) {
		p := classify(t, `{"tracks":[{"name":"T","artists":[{"name":"X"},{"name":"Y"}],"url":"u"}]}`)
		items := Normalize(p)
		if items[0].ArtistName == nil || *items[0].ArtistName != "X, Y" {
			t.Errorf("expected artistName 'X, Y', got %v", items[0].ArtistName)
		}
	})

	t.Run("Scalar Artist Becomes Singleton", func(t *testing.T) {
		p := classify(t, `{"songs":[{"name":"s","artists":"Solo","url":"u"}]}`)
		items := Normalize(p)
		if len(items[0].Artists) != 1 || items[0].Artists[0].Name != "Solo" {
			t.Errorf("expected singleton artists, got %v", items[0].Artists)
		}
	})

	t.Run("Recommendations Bundle", func(t *testing.T) {
		raw := `{"recommendations":{
			"spotify":{"moodPlaylists":[{"name":"A","url":"u1","image":"i1"}],"genrePlaylists":[]},
			"youtube":[{"name":"B","url":"u2"}]}}`
		items := Normalize(classify(t, raw))
		if len(items) != 2 {
			t.Fatalf("expected exactly 2 items, got %d", len(items))
		}

		a, b := items[0], items[1]
		if a.Name != "A" || a.Platform != PlatformSpotify {
			t.Errorf("expected Spotify item A first, got %s on %s", a.Name, a.Platform)
		}
		if a.Image == nil || *a.Image != "i1" {
			t.Errorf("expected image i1, got %v", a.Image)
		}
		if b.Name != "B" || b.Platform != PlatformYouTube {
			t.Errorf("expected YouTube item B second, got %s on %s", b.Name, b.Platform)
		}
		if b.Image == nil || *b.Image != PlaceholderThumbnail {
			t.Errorf("expected placeholder image %s, got %v", PlaceholderThumbnail, b.Image)
		}
	})

	t.Run("Artist Bundle Carries Parent Name", func(t *testing.T) {
		raw := `{"artists":[{"name":"Band","topTracks":[{"name":"t1","url":"u1"},{"name":"t2","url":"u2"}]}]}`
		items := Normalize(classify(t, raw))
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		for _, item := range items {
			if item.ArtistName == nil || *item.ArtistName != "Band" {
				t.Errorf("expected artistName Band, got %v", item.ArtistName)
			}
			if item.Platform != PlatformSpotify {
				t.Errorf("expected Spotify platform, got %s", item.Platform)
			}
		}
	})

	t.Run("Fallback Platform Inference", func(t *testing.T) {
		t.Run("Thumbnail Means Video", func(t *testing.T) {
			items := Normalize(classify(t, `{"title":"v","thumbnail":"th","url":"u"}`))
			if items[0].Platform != PlatformYouTube {
				t.Errorf("expected YouTube, got %s", items[0].Platform)
			}
			if items[0].Name != "v" {
				t.Errorf("expected title to fill name, got %q", items[0].Name)
			}
		})

		t.Run("No Thumbnail Means Catalog", func(t *testing.T) {
			items := Normalize(classify(t, `{"name":"p","url":"u"}`))
			if items[0].Platform != PlatformSpotify {
				t.Errorf("expected Spotify, got %s", items[0].Platform)
			}
		})

		t.Run("Explicit Platform Preserved", func(t *testing.T) {
			items := Normalize(classify(t, `{"name":"p","url":"u","platform":"Spotify","thumbnail":"th"}`))
			if items[0].Platform != PlatformSpotify {
				t.Errorf("expected explicit platform to win over thumbnail, got %s", items[0].Platform)
			}
		})
	})

	t.Run("Related Artists Recursion", func(t *testing.T) {
		raw := `{"tracks":[{"name":"T","url":"u","relatedArtists":[
			{"name":"R","topTracks":[{"name":"rt","url":"ru","album":"ra","image":"ri"}]},
			{"name":"S"}]}]}`
		items := Normalize(classify(t, raw))
		related := items[0].RelatedArtists
		if len(related) != 2 {
			t.Fatalf("expected 2 related artists, got %d", len(related))
		}
		if related[0].Name != "R" || len(related[0].TopTracks) != 1 {
			t.Errorf("expected R with one top track, got %+v", related[0])
		}
		if related[1].TopTracks == nil {
			t.Error("expected missing topTracks to become an empty sequence")
		}
	})

	t.Run("Empty Inputs", func(t *testing.T) {
		for name, raw := range map[string]string{
			"empty array":  `[]`,
			"empty tracks": `{"tracks":[]}`,
			"empty songs":  `{"songs":[]}`,
		} {
			t.Run(name, func(t *testing.T) {
				items := Normalize(classify(t, raw))
				if items == nil {
					t.Fatal("expected empty slice, got nil")
				}
				if len(items) != 0 {
					t.Errorf("expected no items, got %d", len(items))
				}
			})
		}
	})

	t.Run("Idempotent On Normalized Items", func(t *testing.T) {
		raw := `[
			{"tracks":[{"name":"T","artists":["X","Y"],"url":"u","album":"al"}]},
			{"recommendations":{"spotify":{"moodPlaylists":[{"name":"A","url":"u1","image":"i1"}],"genrePlaylists":[]},"youtube":[{"name":"B","url":"u2"}]}},
			{"title":"v","thumbnail":"th","url":"u"}
		]`
		first := Normalize(classify(t, raw))

		encoded, err := json.Marshal(first)
		if err != nil {
			t.Fatalf("expected items to marshal, got %v", err)
		}
		second := Normalize(classify(t, string(encoded)))

		if len(second) != len(first) {
			t.Fatalf("expected %d items, got %d", len(first), len(second))
		}
		firstJSON, _ := json.Marshal(first)
		secondJSON, _ := json.Marshal(second)
		if string(firstJSON) != string(secondJSON) {
			t.Errorf("expected a second pass to be a no-op:\nfirst:  %s\nsecond: %s", firstJSON, secondJSON)
		}
	})
}
