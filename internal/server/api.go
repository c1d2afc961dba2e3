package server

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/rama26012004/moodtunes/internal/feed"
	"github.com/rama26012004/moodtunes/internal/models"
	"github.com/rama26012004/moodtunes/internal/repositories"
	"github.com/rama26012004/moodtunes/internal/services"
)

// APIHandler serves the JSON API: recommendation generation, the surprise
// and keyword video feeds, and the workout, weather and fitness bundles.
type APIHandler struct {
	generator *feed.Generator
	session   *feed.Session
	spotify   *services.SpotifyService
	youtube   *services.YouTubeService
	fitbit    *services.FitbitService
	weather   *services.WeatherService
	bundles   *services.BundleService
	users     *repositories.UserRepository
	logger    *log.Logger
}

func NewAPIHandler(
	generator *feed.Generator,
	spotify *services.SpotifyService,
	youtube *services.YouTubeService,
	fitbit *services.FitbitService,
	weather *services.WeatherService,
	bundles *services.BundleService,
	users *repositories.UserRepository,
	logger *log.Logger,
) *APIHandler {
	return &APIHandler{
		generator: generator,
		session:   feed.NewSession(),
		spotify:   spotify,
		youtube:   youtube,
		fitbit:    fitbit,
		weather:   weather,
		bundles:   bundles,
		users:     users,
		logger:    logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *APIHandler) Routes() []string {
	return []string{
		"/api/generate",
		"/api/surprise",
		"/api/keyword-videos",
		"/api/workout-music",
		"/api/weather-music",
		"/api/fitness-music",
		"/api/token-status",
		"/healthz",
	}
}

func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/generate":
		h.generate(w, r)
	case "/api/surprise":
		h.surprise(w, r)
	case "/api/keyword-videos":
		h.keywordVideos(w, r)
	case "/api/workout-music":
		h.workoutMusic(w, r)
	case "/api/weather-music":
		h.weatherMusic(w, r)
	case "/api/fitness-music":
		h.fitnessMusic(w, r)
	case "/api/token-status":
		h.tokenStatus(w, r)
	case "/healthz":
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	default:
		http.NotFound(w, r)
	}
}

// authContext resolves the optional userId parameter into the auth context
// the dispatcher plans with. Anonymous requests get an empty context.
func (h *APIHandler) authContext(ctx context.Context, userID string) feed.AuthContext {
	auth := feed.AuthContext{Providers: map[feed.Provider]bool{}}
	if userID == "" {
		return auth
	}

	user, err := h.users.Get(ctx, userID)
	if err != nil {
		h.logger.Warn("unknown user on request", "userID", userID, "error", err)
		return auth
	}

	auth.UserID = user.ID()
	auth.AccessToken = user.SpotifyTokens().AccessToken
	auth.Providers[feed.ProviderSpotify] = user.HasSpotify()
	auth.Providers[feed.ProviderFitbit] = user.HasFitbit()
	return auth
}

func (h *APIHandler) generate(w http.ResponseWriter, r *http.Request) {
	input := r.URL.Query().Get("input")
	auth := h.authContext(r.Context(), r.URL.Query().Get("userId"))

	token := h.session.Begin()
	items, err := h.generator.Generate(r.Context(), input, auth)
	if err != nil {
		writeError(w, err)
		return
	}
	h.session.Publish(token, items)

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *APIHandler) surprise(w http.ResponseWriter, r *http.Request) {
	payload, err := h.youtube.Surprise(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": feed.Normalize(payload)})
}

func (h *APIHandler) keywordVideos(w http.ResponseWriter, r *http.Request) {
	keyword, payload, err := h.youtube.KeywordVideos(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"keyword": keyword,
		"items":   feed.Normalize(payload),
	})
}

func (h *APIHandler) workoutMusic(w http.ResponseWriter, r *http.Request) {
	mood, genre := services.WorkoutMoodGenre(r.URL.Query().Get("workout"))
	h.writeBundle(w, r, mood, genre)
}

func (h *APIHandler) weatherMusic(w http.ResponseWriter, r *http.Request) {
	conditions, err := h.weather.Current(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		writeError(w, err)
		return
	}

	mood, genre := services.WeatherMoodGenre(conditions.Temp, conditions.Condition)
	h.writeBundle(w, r, mood, genre)
}

func (h *APIHandler) fitnessMusic(w http.ResponseWriter, r *http.Request) {
	user, err := h.fitnessUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	activities, err := h.fitbit.Activities(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	names := make([]string, len(activities.Activities))
	for i, a := range activities.Activities {
		names[i] = a.Name
	}
	mood, genre := services.FitnessMoodGenre(activities.Steps, names)
	h.writeBundle(w, r, mood, genre)
}

func (h *APIHandler) fitnessUser(r *http.Request) (*models.User, error) {
	return h.users.Get(r.Context(), r.URL.Query().Get("userId"))
}

func (h *APIHandler) writeBundle(w http.ResponseWriter, r *http.Request, mood, genre string) {
	payload := h.bundles.Recommendations(r.Context(), mood, genre)
	writeJSON(w, http.StatusOK, map[string]any{
		"mood":            mood,
		"genre":           genre,
		"recommendations": payload.Recommendations,
	})
}

func (h *APIHandler) tokenStatus(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}

	accessToken, err := h.spotify.CheckToken(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"userId":      user.ID(),
		"accessToken": accessToken,
	})
}
