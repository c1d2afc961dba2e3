// Spotify API adapter.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/rama26012004/moodtunes/internal/feed"
	"github.com/rama26012004/moodtunes/internal/models"
	"github.com/rama26012004/moodtunes/internal/repositories"
	"github.com/rama26012004/moodtunes/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	searchLimit = 5

	// placeholderLink stands in for playlists the catalog returns without a
	// canonical URL.
	placeholderLink = "#"
)

type spotifyImage struct {
	URL string `json:"url"`
}

type spotifyExternalURLs struct {
	Spotify string `json:"spotify"`
}

type spotifyOwner struct {
	DisplayName string `json:"display_name"`
}

type spotifyPlaylist struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	ExternalURLs spotifyExternalURLs `json:"external_urls"`
	Images       []spotifyImage      `json:"images"`
	Owner        spotifyOwner        `json:"owner"`
	Tracks       struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

type spotifyArtist struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Genres       []string            `json:"genres"`
	Images       []spotifyImage      `json:"images"`
	ExternalURLs spotifyExternalURLs `json:"external_urls"`
}

type spotifyAlbum struct {
	Name   string         `json:"name"`
	Images []spotifyImage `json:"images"`
}

type spotifyTrack struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Artists      []spotifyArtist     `json:"artists"`
	Album        spotifyAlbum        `json:"album"`
	ExternalURLs spotifyExternalURLs `json:"external_urls"`
}

type spotifyPlaylistPage struct {
	Items []spotifyPlaylist `json:"items"`
	Total int               `json:"total"`
}

type spotifyTrackPage struct {
	Items []spotifyTrack `json:"items"`
	Total int            `json:"total"`
}

type spotifyArtistPage struct {
	Items []spotifyArtist `json:"items"`
	Total int             `json:"total"`
}

type spotifySearchResponse struct {
	Playlists spotifyPlaylistPage `json:"playlists"`
	Tracks    spotifyTrackPage    `json:"tracks"`
	Artists   spotifyArtistPage   `json:"artists"`
}

type spotifySavedTrack struct {
	Track spotifyTrack `json:"track"`
}

type spotifySavedTrackPage struct {
	Items []spotifySavedTrack `json:"items"`
}

type spotifyPlaylistTrack struct {
	Track spotifyTrack `json:"track"`
}

type spotifyPlaylistTrackPage struct {
	Items []spotifyPlaylistTrack `json:"items"`
}

type spotifyTopTracks struct {
	Tracks []spotifyTrack `json:"tracks"`
}

// SpotifyProfile is the subset of the user profile the callback flow needs.
type SpotifyProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// SpotifyService is the typed client for the Spotify web API. Public catalog
// calls run on a cached client-credentials app token; personal calls run on
// the user's bearer token and retry once through a refresh when it expires.
type SpotifyService struct {
	config     *oauth2.Config
	appConfig  *clientcredentials.Config
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	users      *repositories.UserRepository
	logger     *log.Logger

	mu       sync.Mutex
	appToken *oauth2.Token
}

func NewSpotifyService(creds shared.SpotifyConfig, users *repositories.UserRepository, logger *log.Logger) (*SpotifyService, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: spotify client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_secret", shared.ErrMissingCredentials)
	}

	config := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Scopes: []string{
			"user-library-read",
			"user-read-email",
			"playlist-read-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	appConfig := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     spotifyTokenURL,
	}

	return &SpotifyService{
		config:     config,
		appConfig:  appConfig,
		baseURL:    spotifyBaseURL,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(10), 1),
		users:      users,
		logger:     logger,
	}, nil
}

func (s *SpotifyService) Name() string { return "Spotify" }

// AuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token pair.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Profile fetches the profile of the user the access token belongs to.
func (s *SpotifyService) Profile(ctx context.Context, accessToken string) (*SpotifyProfile, error) {
	var profile SpotifyProfile
	if err := s.doRequest(ctx, accessToken, "/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// appAccessToken returns the cached client-credentials token, fetching a
// fresh one when the cache is empty or expired. Refreshing is idempotent;
// concurrent callers serialize on the mutex and the last fetch wins.
func (s *SpotifyService) appAccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appToken != nil && s.appToken.Valid() {
		return s.appToken.AccessToken, nil
	}

	token, err := s.appConfig.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: client credentials grant: %v", shared.ErrAuthFailed, err)
	}
	s.appToken = token
	return token.AccessToken, nil
}

func (s *SpotifyService) invalidateAppToken() {
	s.mu.Lock()
	s.appToken = nil
	s.mu.Unlock()
}

// doRequest performs one authenticated GET against the Spotify API and
// decodes the JSON response into result.
func (s *SpotifyService) doRequest(ctx context.Context, token, endpoint string, params url.Values, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	apiURL := s.baseURL + endpoint
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return shared.ErrTokenExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// appRequest runs a request on the app token, refreshing it once when the
// catalog reports it expired.
func (s *SpotifyService) appRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	token, err := s.appAccessToken(ctx)
	if err != nil {
		return err
	}

	err = s.doRequest(ctx, token, endpoint, params, result)
	if errors.Is(err, shared.ErrTokenExpired) {
		s.invalidateAppToken()
		token, err = s.appAccessToken(ctx)
		if err != nil {
			return err
		}
		return s.doRequest(ctx, token, endpoint, params, result)
	}
	return err
}

// userRequest runs a request on the user's bearer token. A 401 triggers one
// refresh-token grant; the new access token is persisted before the retry so
// sibling calls in the same batch pick it up.
func (s *SpotifyService) userRequest(ctx context.Context, user *models.User, endpoint string, params url.Values, result any) error {
	err := s.doRequest(ctx, user.SpotifyTokens().AccessToken, endpoint, params, result)
	if !errors.Is(err, shared.ErrTokenExpired) {
		return err
	}

	token, err := s.refreshUserToken(ctx, user)
	if err != nil {
		return err
	}
	return s.doRequest(ctx, token, endpoint, params, result)
}

func (s *SpotifyService) refreshUserToken(ctx context.Context, user *models.User) (string, error) {
	refresh := user.SpotifyTokens().RefreshToken
	if refresh == "" {
		return "", shared.ErrNoRefreshToken
	}

	token, err := s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refresh}).Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	user.SetSpotifyAccessToken(token.AccessToken)
	if s.users != nil {
		if err := s.users.UpdateSpotifyAccessToken(ctx, user.ID(), token.AccessToken); err != nil {
			s.logger.Warn("failed to persist refreshed token", "user", user.ID(), "error", err)
		}
	}
	return token.AccessToken, nil
}

// CheckToken validates the user's stored access token against the profile
// endpoint, refreshing it when expired, and returns a usable token.
func (s *SpotifyService) CheckToken(ctx context.Context, user *models.User) (string, error) {
	var profile SpotifyProfile
	if err := s.userRequest(ctx, user, "/me", nil, &profile); err != nil {
		return "", err
	}
	return user.SpotifyTokens().AccessToken, nil
}

func searchParams(query, kind string, limit, offset int) url.Values {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", kind)
	params.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	return params
}

// playlistRecords maps catalog playlists into raw records, skipping the null
// entries the search API pads result pages with.
func playlistRecords(items []spotifyPlaylist, defaultLink bool) []feed.Record {
	present := lo.Filter(items, func(p spotifyPlaylist, _ int) bool { return p.Name != "" })
	return lo.Map(present, func(p spotifyPlaylist, _ int) feed.Record {
		link := p.ExternalURLs.Spotify
		if link == "" && defaultLink {
			link = placeholderLink
		}
		return feed.Record{Name: p.Name, URL: link, Image: firstImage(p.Images)}
	})
}

func trackRecord(t spotifyTrack) feed.Record {
	names := lo.Map(t.Artists, func(a spotifyArtist, _ int) string { return a.Name })
	return feed.Record{
		Name:    t.Name,
		Artists: feed.ArtistNames(names...),
		URL:     t.ExternalURLs.Spotify,
		Album:   t.Album.Name,
		Image:   firstImage(t.Album.Images),
	}
}

func firstImage(images []spotifyImage) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

// SearchPlaylists searches the catalog for playlists with the user's token,
// using a random offset so repeated generations surface different pages.
func (s *SpotifyService) SearchPlaylists(ctx context.Context, user *models.User, query string) (feed.Payload, error) {
	var resp spotifySearchResponse
	params := searchParams(query, "playlist", searchLimit, rand.Intn(1000))
	if err := s.userRequest(ctx, user, "/search", params, &resp); err != nil {
		return feed.Payload{}, err
	}
	return feed.ListOf(playlistRecords(resp.Playlists.Items, false)...), nil
}

// PublicPlaylists searches for playlists on the app token. The total result
// count is probed first so the random offset stays within range.
func (s *SpotifyService) PublicPlaylists(ctx context.Context, query string) (feed.Payload, error) {
	var probe spotifySearchResponse
	if err := s.appRequest(ctx, "/search", searchParams(query, "playlist", 1, 0), &probe); err != nil {
		return feed.Payload{}, err
	}
	total := probe.Playlists.Total
	if total == 0 {
		return feed.Payload{}, fmt.Errorf("%w: no playlists for %q", shared.ErrNoResults, query)
	}

	offset := rand.Intn(max(total-searchLimit, 1))
	var resp spotifySearchResponse
	if err := s.appRequest(ctx, "/search", searchParams(query, "playlist", searchLimit, offset), &resp); err != nil {
		return feed.Payload{}, err
	}

	records := playlistRecords(resp.Playlists.Items, true)
	if len(records) == 0 {
		return feed.Payload{}, fmt.Errorf("%w: no playlists for %q", shared.ErrNoResults, query)
	}
	return feed.ListOf(records...), nil
}

// SearchPlaylistsByGenre searches playlists with a genre filter query.
func (s *SpotifyService) SearchPlaylistsByGenre(ctx context.Context, user *models.User, genre string) (feed.Payload, error) {
	var resp spotifySearchResponse
	params := searchParams(genreQuery(genre), "playlist", searchLimit, rand.Intn(1000))
	if err := s.userRequest(ctx, user, "/search", params, &resp); err != nil {
		return feed.Payload{}, err
	}
	return feed.ListOf(playlistRecords(resp.Playlists.Items, false)...), nil
}

// PublicPlaylistsByGenre searches playlists by genre on the app token. The
// offset tops out at 995 so limit plus offset stays within the API's cap.
func (s *SpotifyService) PublicPlaylistsByGenre(ctx context.Context, genre string) (feed.Payload, error) {
	var resp spotifySearchResponse
	params := searchParams(genreQuery(genre), "playlist", searchLimit, rand.Intn(995))
	if err := s.appRequest(ctx, "/search", params, &resp); err != nil {
		return feed.Payload{}, err
	}

	records := playlistRecords(resp.Playlists.Items, true)
	if len(records) == 0 {
		return feed.Payload{}, fmt.Errorf("%w: no playlists for genre %q", shared.ErrNoResults, genre)
	}
	return feed.ListOf(records...), nil
}

// ArtistSongs searches for tracks matching the artist with the user's token.
func (s *SpotifyService) ArtistSongs(ctx context.Context, user *models.User, artist string) (feed.Payload, error) {
	var resp spotifySearchResponse
	params := searchParams(artist, "track", searchLimit, rand.Intn(1000))
	if err := s.userRequest(ctx, user, "/search", params, &resp); err != nil {
		return feed.Payload{}, err
	}
	return songsPayload(resp.Tracks.Items), nil
}

// PublicArtistSongs searches for tracks matching the artist on the app token.
func (s *SpotifyService) PublicArtistSongs(ctx context.Context, artist string) (feed.Payload, error) {
	var resp spotifySearchResponse
	params := searchParams(artist, "track", searchLimit, rand.Intn(1000))
	if err := s.appRequest(ctx, "/search", params, &resp); err != nil {
		return feed.Payload{}, err
	}
	return songsPayload(resp.Tracks.Items), nil
}

func songsPayload(tracks []spotifyTrack) feed.Payload {
	return feed.Payload{
		Shape: feed.ShapeSongs,
		Songs: lo.Map(tracks, func(t spotifyTrack, _ int) feed.Record { return trackRecord(t) }),
	}
}

// LibraryByMood filters the user's saved tracks by track names containing
// the mood.
func (s *SpotifyService) LibraryByMood(ctx context.Context, user *models.User, mood string) (feed.Payload, error) {
	var page spotifySavedTrackPage
	params := url.Values{"limit": {"50"}}
	if err := s.userRequest(ctx, user, "/me/tracks", params, &page); err != nil {
		return feed.Payload{}, err
	}

	needle := strings.ToLower(mood)
	matches := lo.Filter(page.Items, func(item spotifySavedTrack, _ int) bool {
		return strings.Contains(strings.ToLower(item.Track.Name), needle)
	})
	return feed.Payload{
		Shape:       feed.ShapeSavedTracks,
		SavedTracks: lo.Map(matches, func(item spotifySavedTrack, _ int) feed.Record { return trackRecord(item.Track) }),
	}, nil
}

// LibraryByGenre keeps the user's saved tracks whose lead artist is tagged
// with the genre. Each distinct lead artist costs one catalog lookup.
func (s *SpotifyService) LibraryByGenre(ctx context.Context, user *models.User, genre string) (feed.Payload, error) {
	var page spotifySavedTrackPage
	params := url.Values{"limit": {"50"}}
	if err := s.userRequest(ctx, user, "/me/tracks", params, &page); err != nil {
		return feed.Payload{}, err
	}

	needle := strings.ToLower(genre)
	genreCache := map[string]bool{}
	tracks := []feed.Record{}
	for _, item := range page.Items {
		if len(item.Track.Artists) == 0 || item.Track.Artists[0].ID == "" {
			continue
		}
		artistID := item.Track.Artists[0].ID

		matched, seen := genreCache[artistID]
		if !seen {
			var artist spotifyArtist
			if err := s.userRequest(ctx, user, "/artists/"+artistID, nil, &artist); err != nil {
				return feed.Payload{}, err
			}
			matched = lo.Contains(artist.Genres, needle)
			genreCache[artistID] = matched
		}
		if matched {
			tracks = append(tracks, trackRecord(item.Track))
		}
	}
	return feed.Payload{Shape: feed.ShapeTracks, Tracks: tracks}, nil
}

// UserPlaylistsByMood filters the user's own playlists by name.
func (s *SpotifyService) UserPlaylistsByMood(ctx context.Context, user *models.User, mood string) (feed.Payload, error) {
	var page spotifyPlaylistPage
	params := url.Values{"limit": {"20"}}
	if err := s.userRequest(ctx, user, "/me/playlists", params, &page); err != nil {
		return feed.Payload{}, err
	}

	needle := strings.ToLower(mood)
	matches := lo.Filter(page.Items, func(p spotifyPlaylist, _ int) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	})
	return feed.ListOf(playlistRecords(matches, false)...), nil
}

// UserPlaylistsByGenre keeps the user's playlists containing at least one
// track whose lead artist is tagged with the genre.
func (s *SpotifyService) UserPlaylistsByGenre(ctx context.Context, user *models.User, genre string) (feed.Payload, error) {
	var page spotifyPlaylistPage
	params := url.Values{"limit": {"20"}}
	if err := s.userRequest(ctx, user, "/me/playlists", params, &page); err != nil {
		return feed.Payload{}, err
	}

	needle := strings.ToLower(genre)
	matched := []spotifyPlaylist{}
	for _, playlist := range page.Items {
		if playlist.ID == "" {
			continue
		}

		var tracks spotifyPlaylistTrackPage
		params := url.Values{"limit": {"50"}}
		if err := s.userRequest(ctx, user, "/playlists/"+playlist.ID+"/tracks", params, &tracks); err != nil {
			return feed.Payload{}, err
		}

		for _, item := range tracks.Items {
			if len(item.Track.Artists) == 0 || item.Track.Artists[0].ID == "" {
				continue
			}
			var artist spotifyArtist
			if err := s.userRequest(ctx, user, "/artists/"+item.Track.Artists[0].ID, nil, &artist); err != nil {
				return feed.Payload{}, err
			}
			if lo.Contains(artist.Genres, needle) {
				matched = append(matched, playlist)
				break
			}
		}
	}
	return feed.ListOf(playlistRecords(matched, false)...), nil
}

// RelatedArtists resolves the artist, finds five genre-mates through the
// search API, and bundles each with three shuffled top tracks.
func (s *SpotifyService) RelatedArtists(ctx context.Context, artist string) (feed.Payload, error) {
	var lookup spotifySearchResponse
	if err := s.appRequest(ctx, "/search", searchParams(artist, "artist", 1, 0), &lookup); err != nil {
		return feed.Payload{}, err
	}
	if len(lookup.Artists.Items) == 0 {
		return feed.Payload{}, fmt.Errorf("%w: %q", shared.ErrArtistNotFound, artist)
	}

	seed := lookup.Artists.Items[0]
	if len(seed.Genres) == 0 {
		return feed.Payload{}, fmt.Errorf("%w: %q has no genre tags", shared.ErrNoResults, artist)
	}

	var related spotifySearchResponse
	if err := s.appRequest(ctx, "/search", searchParams(genreQuery(seed.Genres[0]), "artist", searchLimit, 0), &related); err != nil {
		return feed.Payload{}, err
	}

	bundles := []feed.ArtistBundle{}
	for _, candidate := range related.Artists.Items {
		var top spotifyTopTracks
		params := url.Values{"market": {"US"}}
		if err := s.appRequest(ctx, "/artists/"+candidate.ID+"/top-tracks", params, &top); err != nil {
			s.logger.Warn("failed to fetch top tracks", "artist", candidate.Name, "error", err)
			bundles = append(bundles, feed.ArtistBundle{Name: candidate.Name, TopTracks: []feed.Record{}})
			continue
		}

		tracks := shared.Shuffle(top.Tracks)
		if len(tracks) > 3 {
			tracks = tracks[:3]
		}
		bundles = append(bundles, feed.ArtistBundle{
			Name: candidate.Name,
			TopTracks: lo.Map(tracks, func(t spotifyTrack, _ int) feed.Record {
				return feed.Record{Name: t.Name, Album: t.Album.Name, URL: t.ExternalURLs.Spotify, Image: firstImage(t.Album.Images)}
			}),
		})
	}

	return feed.Payload{Shape: feed.ShapeArtists, Artists: shared.Shuffle(bundles)}, nil
}

// SavedTracks returns the user's saved tracks unfiltered. The personalized
// pass uses it as the catalog's recommendation source.
func (s *SpotifyService) SavedTracks(ctx context.Context, user *models.User) (feed.Payload, error) {
	var page spotifySavedTrackPage
	params := url.Values{"limit": {"50"}}
	if err := s.userRequest(ctx, user, "/me/tracks", params, &page); err != nil {
		return feed.Payload{}, err
	}
	return feed.Payload{
		Shape:       feed.ShapeSavedTracks,
		SavedTracks: lo.Map(page.Items, func(item spotifySavedTrack, _ int) feed.Record { return trackRecord(item.Track) }),
	}, nil
}

// BundlePlaylists searches playlist records for a recommendations bundle on
// the app token, keeping only fully populated entries.
func (s *SpotifyService) BundlePlaylists(ctx context.Context, query string) ([]feed.Record, error) {
	var resp spotifySearchResponse
	params := searchParams(query, "playlist", searchLimit, rand.Intn(1000))
	if err := s.appRequest(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}

	complete := lo.Filter(resp.Playlists.Items, func(p spotifyPlaylist, _ int) bool {
		return p.Name != "" && p.ExternalURLs.Spotify != "" && firstImage(p.Images) != ""
	})
	return lo.Map(complete, func(p spotifyPlaylist, _ int) feed.Record {
		return feed.Record{Name: p.Name, URL: p.ExternalURLs.Spotify, Image: firstImage(p.Images)}
	}), nil
}

func genreQuery(genre string) string {
	return fmt.Sprintf("genre:%q", genre)
}
