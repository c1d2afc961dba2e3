package server

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/rama26012004/moodtunes/internal/models"
	"github.com/rama26012004/moodtunes/internal/repositories"
	"github.com/rama26012004/moodtunes/internal/services"
	"github.com/rama26012004/moodtunes/internal/shared"
)

// stateStore tracks outstanding OAuth state tokens across the redirect
// round-trip. States are single use.
type stateStore struct {
	mu     sync.Mutex
	states map[string]bool
}

func newStateStore() *stateStore {
	return &stateStore{states: map[string]bool{}}
}

func (s *stateStore) issue() string {
	state := shared.GenerateID()
	s.mu.Lock()
	s.states[state] = true
	s.mu.Unlock()
	return state
}

func (s *stateStore) consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.states[state] {
		return false
	}
	delete(s.states, state)
	return true
}

// SpotifyAuthHandler drives the Spotify authorization code flow for the
// browser client. The callback links the Spotify account to a user record
// and bounces back to the client origin with the user ID.
type SpotifyAuthHandler struct {
	spotify      *services.SpotifyService
	users        *repositories.UserRepository
	clientOrigin string
	states       *stateStore
	logger       *log.Logger
}

func NewSpotifyAuthHandler(spotify *services.SpotifyService, users *repositories.UserRepository, clientOrigin string, logger *log.Logger) *SpotifyAuthHandler {
	return &SpotifyAuthHandler{
		spotify:      spotify,
		users:        users,
		clientOrigin: clientOrigin,
		states:       newStateStore(),
		logger:       logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *SpotifyAuthHandler) Routes() []string {
	return []string{"/login", "/callback"}
}

func (h *SpotifyAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/login":
		http.Redirect(w, r, h.spotify.AuthURL(h.states.issue()), http.StatusTemporaryRedirect)
	case "/callback":
		h.callback(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *SpotifyAuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Get("error") != "" || !h.states.consume(query.Get("state")) {
		h.logger.Warn("spotify authorization rejected", "error", query.Get("error"))
		h.redirectError(w, r)
		return
	}

	token, err := h.spotify.Exchange(r.Context(), query.Get("code"))
	if err != nil {
		h.logger.Error("spotify code exchange failed", "error", err)
		h.redirectError(w, r)
		return
	}

	profile, err := h.spotify.Profile(r.Context(), token.AccessToken)
	if err != nil {
		h.logger.Error("spotify profile fetch failed", "error", err)
		h.redirectError(w, r)
		return
	}

	user, err := h.users.UpsertSpotify(r.Context(), profile.ID, models.ProviderTokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}, profile.DisplayName, profile.Email)
	if err != nil {
		h.logger.Error("failed to link spotify account", "spotifyID", profile.ID, "error", err)
		h.redirectError(w, r)
		return
	}

	params := url.Values{"spotify": {"true"}, "userId": {user.ID()}}
	http.Redirect(w, r, h.clientOrigin+"/?"+params.Encode(), http.StatusTemporaryRedirect)
}

func (h *SpotifyAuthHandler) redirectError(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.clientOrigin+"/?error=spotify_authentication_failed", http.StatusTemporaryRedirect)
}

// FitbitAuthHandler drives the Fitbit authorization code flow, mirroring the
// Spotify handler.
type FitbitAuthHandler struct {
	fitbit       *services.FitbitService
	users        *repositories.UserRepository
	clientOrigin string
	states       *stateStore
	logger       *log.Logger
}

func NewFitbitAuthHandler(fitbit *services.FitbitService, users *repositories.UserRepository, clientOrigin string, logger *log.Logger) *FitbitAuthHandler {
	return &FitbitAuthHandler{
		fitbit:       fitbit,
		users:        users,
		clientOrigin: clientOrigin,
		states:       newStateStore(),
		logger:       logger,
	}
}

func (h *FitbitAuthHandler) Routes() []string {
	return []string{"/fitbit-login", "/fitbit-callback"}
}

func (h *FitbitAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/fitbit-login":
		http.Redirect(w, r, h.fitbit.AuthURL(h.states.issue()), http.StatusTemporaryRedirect)
	case "/fitbit-callback":
		h.callback(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *FitbitAuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Get("error") != "" || !h.states.consume(query.Get("state")) {
		h.logger.Warn("fitbit authorization rejected", "error", query.Get("error"))
		h.redirectError(w, r)
		return
	}

	token, err := h.fitbit.Exchange(r.Context(), query.Get("code"))
	if err != nil {
		h.logger.Error("fitbit code exchange failed", "error", err)
		h.redirectError(w, r)
		return
	}

	profile, err := h.fitbit.Profile(r.Context(), token.AccessToken)
	if err != nil {
		h.logger.Error("fitbit profile fetch failed", "error", err)
		h.redirectError(w, r)
		return
	}

	user, err := h.users.UpsertFitbit(r.Context(), profile.EncodedID, models.ProviderTokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}, profile.FullName, profile.Email)
	if err != nil {
		h.logger.Error("failed to link fitbit account", "fitbitID", profile.EncodedID, "error", err)
		h.redirectError(w, r)
		return
	}

	params := url.Values{"fitbit": {"true"}, "userId": {user.ID()}}
	http.Redirect(w, r, h.clientOrigin+"/?"+params.Encode(), http.StatusTemporaryRedirect)
}

func (h *FitbitAuthHandler) redirectError(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.clientOrigin+"/?error=fitbit_authentication_failed", http.StatusTemporaryRedirect)
}
