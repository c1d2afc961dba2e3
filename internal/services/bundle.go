package services

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/rama26012004/moodtunes/internal/feed"
)

// BundleService assembles the mixed-provider recommendation bundles served
// by the workout, weather, and fitness endpoints.
type BundleService struct {
	spotify *SpotifyService
	youtube *YouTubeService
	logger  *log.Logger
}

func NewBundleService(spotify *SpotifyService, youtube *YouTubeService, logger *log.Logger) *BundleService {
	return &BundleService{spotify: spotify, youtube: youtube, logger: logger}
}

// Recommendations fetches mood playlists, genre playlists, and YouTube
// playlists concurrently. A failed sub-fetch leaves its section empty
// rather than failing the bundle.
func (b *BundleService) Recommendations(ctx context.Context, mood, genre string) feed.Payload {
	var recs feed.Recommendations
	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		records, err := b.spotify.BundlePlaylists(ctx, "mood:"+mood)
		if err != nil {
			b.logger.Warn("mood playlist fetch failed", "mood", mood, "error", err)
			return
		}
		recs.Spotify.MoodPlaylists = records
	}()
	go func() {
		defer wg.Done()
		records, err := b.spotify.BundlePlaylists(ctx, genreQuery(genre))
		if err != nil {
			b.logger.Warn("genre playlist fetch failed", "genre", genre, "error", err)
			return
		}
		recs.Spotify.GenrePlaylists = records
	}()
	go func() {
		defer wg.Done()
		records, err := b.youtube.BundlePlaylists(ctx, mood+" playlist")
		if err != nil {
			b.logger.Warn("youtube playlist fetch failed", "mood", mood, "error", err)
			return
		}
		recs.YouTube = records
	}()
	wg.Wait()

	return feed.Payload{Shape: feed.ShapeRecommendations, Recommendations: recs}
}

// WorkoutMoodGenre maps a workout type to a mood and genre pair. Unknown
// workouts fall back to an upbeat default.
func WorkoutMoodGenre(workout string) (mood, genre string) {
	switch strings.ToLower(strings.TrimSpace(workout)) {
	case "cardio training", "running", "cycling":
		return "energetic", "dance"
	case "weight training", "strength training", "squats", "lunge":
		return "motivational", "rock"
	case "pilates", "yoga", "dynamic stretching", "flexibility training":
		return "relaxed", "ambient"
	case "circuit training", "hiit":
		return "intense", "hardcore"
	case "swimming", "functional training":
		return "peaceful", "classical"
	default:
		return "happy", "pop"
	}
}
