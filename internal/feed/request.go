package feed

import (
	"fmt"
	"strings"

	"github.com/rama26012004/moodtunes/internal/shared"
)

// Provider is an OAuth provider a caller may hold a session with.
type Provider string

const (
	ProviderSpotify Provider = "spotify"
	ProviderFitbit  Provider = "fitbit"
)

// AuthContext carries the caller's provider sessions for one generation
// request. The zero value is an unauthenticated caller.
type AuthContext struct {
	UserID      string
	AccessToken string
	Providers   map[Provider]bool
}

// HasProvider reports whether the caller holds a session with the provider.
func (a AuthContext) HasProvider(p Provider) bool {
	return a.Providers[p]
}

// SpotifySession reports whether the caller is authenticated against the
// streaming catalog, which gates the personal call plan variants.
func (a AuthContext) SpotifySession() bool {
	return a.HasProvider(ProviderSpotify) && a.AccessToken != ""
}

// Authenticated reports whether the caller holds any provider session.
func (a AuthContext) Authenticated() bool {
	for _, ok := range a.Providers {
		if ok {
			return true
		}
	}
	return false
}

// AuthenticatedProviders returns the held sessions in a fixed order.
func (a AuthContext) AuthenticatedProviders() []Provider {
	providers := []Provider{}
	for _, p := range []Provider{ProviderSpotify, ProviderFitbit} {
		if a.Providers[p] {
			providers = append(providers, p)
		}
	}
	return providers
}

// Key is a recognized clause key of the generation input string.
type Key string

const (
	KeyMood           Key = "mood"
	KeyGenre          Key = "genre"
	KeyArtist         Key = "artistName"
	KeyRelatedArtists Key = "relatedArtists"
	KeyLibraryMood    Key = "library_mood"
	KeyLibraryGenre   Key = "library_genre"
	KeyPlaylistMood   Key = "playlist_mood"
	KeyPlaylistGenre  Key = "playlist_genre"

	// KeyFreeText is the fallback clause carrying the raw input as a
	// free-text query when no recognized key parses.
	KeyFreeText Key = ""
)

var recognizedKeys = map[Key]bool{
	KeyMood:           true,
	KeyGenre:          true,
	KeyArtist:         true,
	KeyRelatedArtists: true,
	KeyLibraryMood:    true,
	KeyLibraryGenre:   true,
	KeyPlaylistMood:   true,
	KeyPlaylistGenre:  true,
}

// Clause is one parsed key=value pair of a generation request.
type Clause struct {
	Key   Key
	Value string
}

// ParseRequest splits a comma-separated key=value string into clauses.
// Unrecognized keys are skipped; if none remain, a single free-text clause
// carrying the whole input is returned. Empty or whitespace-only input is
// the only validation failure.
func ParseRequest(input string) ([]Clause, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty generation input", shared.ErrInvalidInput)
	}

	clauses := []Clause{}
	for _, part := range strings.Split(trimmed, ",") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		k := Key(strings.TrimSpace(key))
		v := strings.TrimSpace(value)
		if !recognizedKeys[k] || v == "" {
			continue
		}
		clauses = append(clauses, Clause{Key: k, Value: v})
	}

	if len(clauses) == 0 {
		clauses = append(clauses, Clause{Key: KeyFreeText, Value: trimmed})
	}
	return clauses, nil
}
