package feed

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rama26012004/moodtunes/internal/shared"
)

// Shape is the classification of an upstream payload. Payloads are not
// self-describing, so the shape is determined once by structural predicates
// evaluated in a fixed priority order, first match wins.
type Shape int

const (
	// ShapeList is a top-level array, normalized elementwise and flattened.
	ShapeList Shape = iota
	// ShapeTracks is an object with an array field "tracks".
	ShapeTracks
	// ShapeSavedTracks is an object with an array field "savedTracks".
	ShapeSavedTracks
	// ShapeRecommendations is an object with a "recommendations" bundle.
	ShapeRecommendations
	// ShapeSongs is an object with an array field "songs".
	ShapeSongs
	// ShapeArtists is an object with an array field "artists" where every
	// entry carries top tracks.
	ShapeArtists
	// ShapeRecord is the fallback: the object itself is a single record.
	ShapeRecord
)

func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeTracks:
		return "tracks"
	case ShapeSavedTracks:
		return "savedTracks"
	case ShapeRecommendations:
		return "recommendations"
	case ShapeSongs:
		return "songs"
	case ShapeArtists:
		return "artists"
	default:
		return "record"
	}
}

// RawArtists is the performer field of an upstream record. Providers send it
// as a scalar string, a list of strings, or a list of {name} objects; all
// three decode into a flat name list.
type RawArtists struct {
	names []string
}

func (a *RawArtists) UnmarshalJSON(data []byte) error {
	a.names = nil

	var scalar string
	if err := json.Unmarshal(data, &scalar); err == nil {
		if scalar != "" {
			a.names = []string{scalar}
		}
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("unrecognized artists field: %s", string(data))
	}
	for _, entry := range entries {
		var name string
		if err := json.Unmarshal(entry, &name); err == nil {
			a.names = append(a.names, name)
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(entry, &obj); err != nil {
			return fmt.Errorf("unrecognized artist entry: %s", string(entry))
		}
		a.names = append(a.names, obj.Name)
	}
	return nil
}

// Names returns the flat performer name list, possibly empty.
func (a RawArtists) Names() []string { return a.names }

// ArtistNames builds a RawArtists from plain names. Adapters use this when
// assembling payloads in process rather than decoding them off the wire.
func ArtistNames(names ...string) RawArtists {
	return RawArtists{names: names}
}

// Record is one raw upstream entry before normalization. Every field is
// optional; absent strings stay empty.
type Record struct {
	Name           string             `json:"name"`
	Title          string             `json:"title"`
	Artists        RawArtists         `json:"artists"`
	ArtistName     string             `json:"artistName"`
	URL            string             `json:"url"`
	Album          string             `json:"album"`
	Image          string             `json:"image"`
	Thumbnail      string             `json:"thumbnail"`
	Platform       string             `json:"platform"`
	RelatedArtists []RawRelatedArtist `json:"relatedArtists"`
}

// RawRelatedArtist is the related artist enrichment of a raw record.
type RawRelatedArtist struct {
	Name      string   `json:"name"`
	TopTracks []Record `json:"topTracks"`
}

// ArtistBundle is one entry of an artists payload: a performer with their
// top tracks.
type ArtistBundle struct {
	Name      string   `json:"name"`
	TopTracks []Record `json:"topTracks"`
}

// Recommendations is the combined bundle assembled for workout, weather and
// fitness requests: Spotify mood and genre playlists plus YouTube entries.
type Recommendations struct {
	Spotify struct {
		MoodPlaylists  []Record `json:"moodPlaylists"`
		GenrePlaylists []Record `json:"genrePlaylists"`
	} `json:"spotify"`
	YouTube []Record `json:"youtube"`
}

// Payload is the tagged variant an upstream response classifies into. Only
// the arm named by Shape is populated.
type Payload struct {
	Shape           Shape
	List            []Payload
	Tracks          []Record
	SavedTracks     []Record
	Recommendations Recommendations
	Songs           []Record
	Artists         []ArtistBundle
	Record          Record
}

// UnmarshalJSON classifies raw JSON into a payload arm. Predicates run in
// priority order and the first match wins; a payload that incidentally
// satisfies a later predicate too is still decoded as the first, because
// providers shape responses consistently per endpoint. The fallback arm has
// no required fields, so classification never fails for a JSON object.
func (p *Payload) UnmarshalJSON(data []byte) error {
	*p = Payload{}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		p.Shape = ShapeList
		return nil
	}
	if trimmed[0] == '[' {
		p.Shape = ShapeList
		return json.Unmarshal(data, &p.List)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: payload is neither array nor object", shared.ErrInvalidInput)
	}

	if raw, ok := fields["tracks"]; ok && isArray(raw) {
		p.Shape = ShapeTracks
		return json.Unmarshal(raw, &p.Tracks)
	}
	if raw, ok := fields["savedTracks"]; ok && isArray(raw) {
		p.Shape = ShapeSavedTracks
		return json.Unmarshal(raw, &p.SavedTracks)
	}
	if raw, ok := fields["recommendations"]; ok && !isNull(raw) {
		p.Shape = ShapeRecommendations
		return json.Unmarshal(raw, &p.Recommendations)
	}
	if raw, ok := fields["songs"]; ok && isArray(raw) {
		p.Shape = ShapeSongs
		return json.Unmarshal(raw, &p.Songs)
	}
	if raw, ok := fields["artists"]; ok && isArtistBundleList(raw) {
		p.Shape = ShapeArtists
		return json.Unmarshal(raw, &p.Artists)
	}

	p.Shape = ShapeRecord
	return json.Unmarshal(data, &p.Record)
}

func isArray(data json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(data))
	return trimmed != "" && trimmed[0] == '['
}

func isNull(data json.RawMessage) bool {
	return strings.TrimSpace(string(data)) == "null"
}

// isArtistBundleList reports whether the artists field is a non-empty array
// whose every entry carries a topTracks key. A structured performer list on
// an already normalized item does not qualify, so re-normalizing items
// routes them through the fallback arm instead of silently dropping them.
func isArtistBundleList(data json.RawMessage) bool {
	if !isArray(data) {
		return false
	}
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return false
	}
	if len(entries) == 0 {
		return false
	}
	for _, entry := range entries {
		if _, ok := entry["topTracks"]; !ok {
			return false
		}
	}
	return true
}

// ClassifyPayload decodes and classifies one raw upstream response body.
func ClassifyPayload(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, err
	}
	return p, nil
}

// ListOf wraps records in a list payload. Adapters assembling responses in
// process use this instead of a JSON round trip.
func ListOf(records ...Record) Payload {
	list := make([]Payload, len(records))
	for i, r := range records {
		list[i] = Payload{Shape: ShapeRecord, Record: r}
	}
	return Payload{Shape: ShapeList, List: list}
}
