package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/rama26012004/moodtunes/internal/shared"
)

const weatherBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// WeatherConditions is the slice of an OpenWeatherMap response that mood
// inference needs.
type WeatherConditions struct {
	City      string
	Temp      float64
	Condition string
}

// WeatherService reads current conditions for a city.
type WeatherService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

func NewWeatherService(apiKey string, logger *log.Logger) (*WeatherService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: openweathermap api_key", shared.ErrMissingCredentials)
	}
	return &WeatherService{
		apiKey:     apiKey,
		baseURL:    weatherBaseURL,
		httpClient: http.DefaultClient,
		logger:     logger,
	}, nil
}

// Current fetches metric-unit conditions for a city.
func (w *WeatherService) Current(ctx context.Context, city string) (*WeatherConditions, error) {
	if strings.TrimSpace(city) == "" {
		return nil, fmt.Errorf("%w: empty city", shared.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", city)
	params.Set("units", "metric")
	params.Set("appid", w.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: city %q", shared.ErrNoResults, city)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: weather API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var payload struct {
		Name string `json:"name"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	conditions := &WeatherConditions{City: payload.Name, Temp: payload.Main.Temp}
	if len(payload.Weather) > 0 {
		conditions.Condition = payload.Weather[0].Main
	}
	return conditions, nil
}

// WeatherMoodGenre maps temperature bands to a mood and genre pair, with
// condition-specific overrides applied on top.
func WeatherMoodGenre(temp float64, condition string) (mood, genre string) {
	switch {
	case temp < 10:
		mood, genre = "relaxed", "acoustic"
	case temp <= 20:
		mood, genre = "calm", "classical"
	default:
		mood, genre = "energetic", "summer"
	}

	switch strings.ToLower(condition) {
	case "rain", "drizzle":
		return "reflective", "lo-fi"
	case "snow":
		return "cozy", "holiday"
	case "clear":
		if temp > 20 {
			return "upbeat", "party"
		}
	}
	return mood, genre
}
