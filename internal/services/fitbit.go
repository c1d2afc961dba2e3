package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/rama26012004/moodtunes/internal/models"
	"github.com/rama26012004/moodtunes/internal/repositories"
	"github.com/rama26012004/moodtunes/internal/shared"
)

const (
	fitbitAuthURL  = "https://www.fitbit.com/oauth2/authorize"
	fitbitTokenURL = "https://api.fitbit.com/oauth2/token"
	fitbitBaseURL  = "https://api.fitbit.com"
)

// FitbitProfile is the subset of the profile endpoint the linker needs.
type FitbitProfile struct {
	EncodedID string
	FullName  string
	Email     string
}

// FitbitActivity is one recent-activity entry from the activities endpoint.
type FitbitActivity struct {
	Name string `json:"name"`
}

// FitbitActivities carries lifetime step totals and the recent activity
// list used for mood inference.
type FitbitActivities struct {
	Steps      int
	Activities []FitbitActivity
	Raw        string
}

// FitbitService links Fitbit accounts and reads activity data for
// fitness-based recommendations.
type FitbitService struct {
	config     *oauth2.Config
	baseURL    string
	httpClient *http.Client
	users      *repositories.UserRepository
	logger     *log.Logger
}

func NewFitbitService(creds shared.FitbitConfig, users *repositories.UserRepository, logger *log.Logger) (*FitbitService, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: fitbit client_id and client_secret", shared.ErrMissingCredentials)
	}
	return &FitbitService{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURI,
			Scopes:       []string{"activity", "profile", "heartrate", "location"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   fitbitAuthURL,
				TokenURL:  fitbitTokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		baseURL:    fitbitBaseURL,
		httpClient: http.DefaultClient,
		users:      users,
		logger:     logger,
	}, nil
}

func (f *FitbitService) Name() string { return "Fitbit" }

// AuthURL builds the authorization redirect for the login flow.
func (f *FitbitService) AuthURL(state string) string {
	return f.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for tokens.
func (f *FitbitService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := f.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

func (f *FitbitService) doRequest(ctx context.Context, accessToken, endpoint string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, shared.ErrTokenExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: fitbit API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Profile fetches the authenticated user's Fitbit identity.
func (f *FitbitService) Profile(ctx context.Context, accessToken string) (*FitbitProfile, error) {
	body, err := f.doRequest(ctx, accessToken, "/1/user/-/profile.json")
	if err != nil {
		return nil, err
	}

	var payload struct {
		User struct {
			EncodedID string `json:"encodedId"`
			FullName  string `json:"fullName"`
			Email     string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &FitbitProfile{
		EncodedID: payload.User.EncodedID,
		FullName:  payload.User.FullName,
		Email:     payload.User.Email,
	}, nil
}

// Activities reads lifetime steps and recent workouts, and persists the raw
// document on the user record for later requests.
func (f *FitbitService) Activities(ctx context.Context, user *models.User) (*FitbitActivities, error) {
	body, err := f.doRequest(ctx, user.FitbitTokens().AccessToken, "/1/user/-/activities.json")
	if err != nil {
		return nil, err
	}

	var payload struct {
		Lifetime struct {
			Total struct {
				Steps int `json:"steps"`
			} `json:"total"`
		} `json:"lifetime"`
		RecentActivities []FitbitActivity `json:"recentActivities"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode activities: %w", err)
	}

	user.SetFitbitData(string(body))
	if f.users != nil {
		if _, err := f.users.Update(ctx, user); err != nil {
			f.logger.Warn("failed to persist fitbit data", "userID", user.ID(), "error", err)
		}
	}

	return &FitbitActivities{
		Steps:      payload.Lifetime.Total.Steps,
		Activities: payload.RecentActivities,
		Raw:        string(body),
	}, nil
}

// FitnessMoodGenre maps step totals and recent activity names to a mood and
// genre pair. Activity overrides beat the step-count baseline.
func FitnessMoodGenre(steps int, activityNames []string) (mood, genre string) {
	switch {
	case steps > 12000:
		mood, genre = "energetic", "pop"
	case steps > 5000:
		mood, genre = "happy", "indie"
	default:
		mood, genre = "relaxed", "classical"
	}

	for _, name := range activityNames {
		switch strings.ToLower(name) {
		case "hiit", "circuit training":
			return "focused", "electronic"
		case "pilates", "yoga":
			return "relaxed", "ambient"
		case "weight training", "strength training":
			return "motivational", "rock"
		case "running", "cycling":
			return "energetic", "dance"
		case "walking", "functional training":
			return "peaceful", "acoustic"
		}
	}
	return mood, genre
}
