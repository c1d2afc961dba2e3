package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/rama26012004/moodtunes/internal/models"
	"github.com/rama26012004/moodtunes/internal/shared"
)

func testFitbitService(t *testing.T, baseURL string) *FitbitService {
	t.Helper()
	srv, err := NewFitbitService(shared.FitbitConfig{
		ClientID:     "test_client_id",
		ClientSecret: "test_client_secret",
		RedirectURI:  "http://localhost:3000/fitbit-callback",
	}, nil, log.New(io.Discard))
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	if baseURL != "" {
		srv.baseURL = baseURL
	}
	return srv
}

func TestFitbitService(t *testing.T) {
	t.Run("NewFitbitService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv := testFitbitService(t, "")
			if srv.Name() != "Fitbit" {
				t.Errorf("expected service name 'Fitbit', got %s", srv.Name())
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			_, err := NewFitbitService(shared.FitbitConfig{}, nil, log.New(io.Discard))
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("AuthURL", func(t *testing.T) {
		srv := testFitbitService(t, "")
		authURL := srv.AuthURL("test_state")

		if !strings.Contains(authURL, "www.fitbit.com/oauth2/authorize") {
			t.Error("auth URL should target the Fitbit authorize endpoint")
		}
		if !strings.Contains(authURL, "activity") {
			t.Error("auth URL should request the activity scope")
		}
		if !strings.Contains(authURL, "test_state") {
			t.Error("auth URL should contain state")
		}
	})

	t.Run("Profile", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/1/user/-/profile.json" {
				t.Errorf("expected profile path, got %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer fitbit-token" {
				t.Errorf("expected bearer token, got %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"user": map[string]any{"encodedId": "FB123", "fullName": "Test Person", "email": "test@example.com"},
			})
		}))
		defer server.Close()

		srv := testFitbitService(t, server.URL)
		profile, err := srv.Profile(context.Background(), "fitbit-token")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if profile.EncodedID != "FB123" || profile.FullName != "Test Person" {
			t.Errorf("unexpected profile %+v", profile)
		}
	})

	t.Run("Activities", func(t *testing.T) {
		t.Run("Reads Steps And Recent Workouts", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/1/user/-/activities.json" {
					t.Errorf("expected activities path, got %s", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"lifetime":         map[string]any{"total": map[string]any{"steps": 15000}},
					"recentActivities": []map[string]any{{"name": "Running"}},
				})
			}))
			defer server.Close()

			srv := testFitbitService(t, server.URL)
			user := models.NewUser(1)
			user.SetID("user-1")
			user.LinkFitbit("FB123", models.ProviderTokens{AccessToken: "fitbit-token"}, "Test Person", "test@example.com")

			activities, err := srv.Activities(context.Background(), user)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if activities.Steps != 15000 {
				t.Errorf("expected 15000 steps, got %d", activities.Steps)
			}
			if len(activities.Activities) != 1 || activities.Activities[0].Name != "Running" {
				t.Errorf("unexpected activities %+v", activities.Activities)
			}
			if user.FitbitData() == "" {
				t.Error("expected the raw document stored on the user")
			}
		})

		t.Run("Expired Token", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			srv := testFitbitService(t, server.URL)
			user := models.NewUser(1)
			user.LinkFitbit("FB123", models.ProviderTokens{AccessToken: "expired"}, "", "")

			_, err := srv.Activities(context.Background(), user)
			if !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired, got %v", err)
			}
		})
	})

	t.Run("FitnessMoodGenre", func(t *testing.T) {
		cases := []struct {
			name       string
			steps      int
			activities []string
			mood       string
			genre      string
		}{
			{"High Steps", 13000, nil, "energetic", "pop"},
			{"Moderate Steps", 6000, nil, "happy", "indie"},
			{"Low Steps", 2000, nil, "relaxed", "classical"},
			{"HIIT Overrides Steps", 13000, []string{"HIIT"}, "focused", "electronic"},
			{"Yoga Overrides Steps", 13000, []string{"Yoga"}, "relaxed", "ambient"},
			{"Strength Training", 100, []string{"Strength Training"}, "motivational", "rock"},
			{"Running", 100, []string{"Running"}, "energetic", "dance"},
			{"Walking", 100, []string{"Walking"}, "peaceful", "acoustic"},
			{"Unknown Activity Keeps Baseline", 6000, []string{"Juggling"}, "happy", "indie"},
		}

		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				mood, genre := FitnessMoodGenre(c.steps, c.activities)
				if mood != c.mood || genre != c.genre {
					t.Errorf("FitnessMoodGenre(%d, %v) = (%s, %s), want (%s, %s)",
						c.steps, c.activities, mood, genre, c.mood, c.genre)
				}
			})
		}
	})
}
