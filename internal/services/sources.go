package services

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/rama26012004/moodtunes/internal/feed"
	"github.com/rama26012004/moodtunes/internal/models"
	"github.com/rama26012004/moodtunes/internal/repositories"
	"github.com/rama26012004/moodtunes/internal/shared"
)

// FeedSources adapts the provider services to the feed dispatcher. It owns
// the user lookup and picks the personal or public catalog variant based on
// the caller's session.
type FeedSources struct {
	spotify *SpotifyService
	youtube *YouTubeService
	fitbit  *FitbitService
	bundles *BundleService
	users   *repositories.UserRepository
	logger  *log.Logger
}

var _ feed.Sources = (*FeedSources)(nil)

func NewFeedSources(
	spotify *SpotifyService,
	youtube *YouTubeService,
	fitbit *FitbitService,
	bundles *BundleService,
	users *repositories.UserRepository,
	logger *log.Logger,
) *FeedSources {
	return &FeedSources{
		spotify: spotify,
		youtube: youtube,
		fitbit:  fitbit,
		bundles: bundles,
		users:   users,
		logger:  logger,
	}
}

// sessionUser resolves the caller's user record for personal catalog calls.
func (f *FeedSources) sessionUser(ctx context.Context, auth feed.AuthContext) (*models.User, error) {
	if auth.UserID == "" {
		return nil, shared.ErrUserNotFound
	}
	return f.users.Get(ctx, auth.UserID)
}

// SearchByMood uses the caller's own catalog when a session is present and
// falls back to the public catalog otherwise.
func (f *FeedSources) SearchByMood(ctx context.Context, mood string, auth feed.AuthContext) (feed.Payload, error) {
	if auth.SpotifySession() {
		if user, err := f.sessionUser(ctx, auth); err == nil {
			return f.spotify.SearchPlaylists(ctx, user, mood)
		}
	}
	return f.spotify.PublicPlaylists(ctx, mood)
}

func (f *FeedSources) SearchByGenre(ctx context.Context, genre string, auth feed.AuthContext) (feed.Payload, error) {
	if auth.SpotifySession() {
		if user, err := f.sessionUser(ctx, auth); err == nil {
			return f.spotify.SearchPlaylistsByGenre(ctx, user, genre)
		}
	}
	return f.spotify.PublicPlaylistsByGenre(ctx, genre)
}

func (f *FeedSources) SearchByArtist(ctx context.Context, artist string, auth feed.AuthContext) (feed.Payload, error) {
	if auth.SpotifySession() {
		if user, err := f.sessionUser(ctx, auth); err == nil {
			return f.spotify.ArtistSongs(ctx, user, artist)
		}
	}
	return f.spotify.PublicArtistSongs(ctx, artist)
}

func (f *FeedSources) RelatedArtists(ctx context.Context, artist string) (feed.Payload, error) {
	return f.spotify.RelatedArtists(ctx, artist)
}

func (f *FeedSources) LibraryByMood(ctx context.Context, mood string, auth feed.AuthContext) (feed.Payload, error) {
	user, err := f.sessionUser(ctx, auth)
	if err != nil {
		return feed.Payload{}, err
	}
	return f.spotify.LibraryByMood(ctx, user, mood)
}

func (f *FeedSources) LibraryByGenre(ctx context.Context, genre string, auth feed.AuthContext) (feed.Payload, error) {
	user, err := f.sessionUser(ctx, auth)
	if err != nil {
		return feed.Payload{}, err
	}
	return f.spotify.LibraryByGenre(ctx, user, genre)
}

func (f *FeedSources) UserPlaylistsByMood(ctx context.Context, mood string, auth feed.AuthContext) (feed.Payload, error) {
	user, err := f.sessionUser(ctx, auth)
	if err != nil {
		return feed.Payload{}, err
	}
	return f.spotify.UserPlaylistsByMood(ctx, user, mood)
}

func (f *FeedSources) UserPlaylistsByGenre(ctx context.Context, genre string, auth feed.AuthContext) (feed.Payload, error) {
	user, err := f.sessionUser(ctx, auth)
	if err != nil {
		return feed.Payload{}, err
	}
	return f.spotify.UserPlaylistsByGenre(ctx, user, genre)
}

func (f *FeedSources) VideosByMood(ctx context.Context, mood string) (feed.Payload, error) {
	return f.youtube.VideosByMood(ctx, mood)
}

func (f *FeedSources) VideosByGenre(ctx context.Context, genre string) (feed.Payload, error) {
	return f.youtube.VideosByGenre(ctx, genre)
}

func (f *FeedSources) VideosByArtist(ctx context.Context, artist string) (feed.Payload, error) {
	return f.youtube.VideosByArtist(ctx, artist)
}

// Search handles free-text input with a public playlist search over the raw
// query.
func (f *FeedSources) Search(ctx context.Context, query string) (feed.Payload, error) {
	return f.spotify.PublicPlaylists(ctx, query)
}

// PersonalizedRecommendations issues the per-provider second pass: saved
// tracks for a Spotify session, an activity-derived bundle for a Fitbit
// one.
func (f *FeedSources) PersonalizedRecommendations(ctx context.Context, provider feed.Provider, auth feed.AuthContext) (feed.Payload, error) {
	user, err := f.sessionUser(ctx, auth)
	if err != nil {
		return feed.Payload{}, err
	}

	switch provider {
	case feed.ProviderSpotify:
		return f.spotify.SavedTracks(ctx, user)
	case feed.ProviderFitbit:
		activities, err := f.fitbit.Activities(ctx, user)
		if err != nil {
			return feed.Payload{}, err
		}
		names := make([]string, len(activities.Activities))
		for i, a := range activities.Activities {
			names[i] = a.Name
		}
		mood, genre := FitnessMoodGenre(activities.Steps, names)
		return f.bundles.Recommendations(ctx, mood, genre), nil
	default:
		return feed.Payload{}, fmt.Errorf("%w: unknown provider %q", shared.ErrInvalidInput, provider)
	}
}
