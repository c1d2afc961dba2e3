package feed_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/rama26012004/moodtunes/internal/feed"
	"github.com/rama26012004/moodtunes/internal/shared"
	tu "github.com/rama26012004/moodtunes/internal/testing"
)

func spotifyAuth() feed.AuthContext {
	return feed.AuthContext{
		UserID:      "user-1",
		AccessToken: "token",
		Providers:   map[feed.Provider]bool{feed.ProviderSpotify: true},
	}
}

func sorted(calls []string) []string {
	out := make([]string, len(calls))
	copy(out, calls)
	sort.Strings(out)
	return out
}

func TestParseRequest(t *testing.T) {
	t.Run("Recognized Keys", func(t *testing.T) {
		clauses, err := feed.ParseRequest("mood=happy, genre=pop")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(clauses) != 2 {
			t.Fatalf("expected 2 clauses, got %d", len(clauses))
		}
		if clauses[0].Key != feed.KeyMood || clauses[0].Value != "happy" {
			t.Errorf("expected mood=happy, got %+v", clauses[0])
		}
		if clauses[1].Key != feed.KeyGenre || clauses[1].Value != "pop" {
			t.Errorf("expected genre=pop, got %+v", clauses[1])
		}
	})

	t.Run("Empty Input", func(t *testing.T) {
		for name, input := range map[string]string{
			"empty":      "",
			"whitespace": "   \t ",
		} {
			t.Run(name, func(t *testing.T) {
				_, err := feed.ParseRequest(input)
				if !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
			})
		}
	})

	t.Run("Unrecognized Keys Fall Back To Free Text", func(t *testing.T) {
		clauses, err := feed.ParseRequest("something upbeat")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(clauses) != 1 {
			t.Fatalf("expected a single clause, got %d", len(clauses))
		}
		if clauses[0].Key != feed.KeyFreeText || clauses[0].Value != "something upbeat" {
			t.Errorf("expected free-text clause, got %+v", clauses[0])
		}
	})

	t.Run("Unknown Key Among Recognized Is Skipped", func(t *testing.T) {
		clauses, err := feed.ParseRequest("mood=happy, tempo=fast")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(clauses) != 1 || clauses[0].Key != feed.KeyMood {
			t.Errorf("expected only the mood clause, got %+v", clauses)
		}
	})
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("Mood Fans Out To Catalog And Video", func(t *testing.T) {
		sources := tu.NewMockSources()
		d := feed.NewDispatcher(sources)

		outcomes := d.Dispatch(ctx, []feed.Clause{{Key: feed.KeyMood, Value: "happy"}}, feed.AuthContext{})
		if len(outcomes) != 2 {
			t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
		}

		calls := sorted(sources.Calls())
		want := []string{"searchByMood", "videosByMood"}
		for i, name := range want {
			if calls[i] != name {
				t.Errorf("expected call %s, got %s", name, calls[i])
			}
		}
	})

	t.Run("Personal Variants Skipped Without Session", func(t *testing.T) {
		sources := tu.NewMockSources()
		d := feed.NewDispatcher(sources)

		clauses := []feed.Clause{
			{Key: feed.KeyLibraryMood, Value: "happy"},
			{Key: feed.KeyPlaylistGenre, Value: "pop"},
		}
		outcomes := d.Dispatch(ctx, clauses, feed.AuthContext{})
		if len(outcomes) != 0 {
			t.Errorf("expected no calls without a catalog session, got %d", len(outcomes))
		}
		if len(sources.Calls()) != 0 {
			t.Errorf("expected no adapter calls, got %v", sources.Calls())
		}
	})

	t.Run("Personal Variants Issued With Session", func(t *testing.T) {
		sources := tu.NewMockSources()
		d := feed.NewDispatcher(sources)

		clauses := []feed.Clause{
			{Key: feed.KeyLibraryMood, Value: "happy"},
			{Key: feed.KeyLibraryGenre, Value: "pop"},
			{Key: feed.KeyPlaylistMood, Value: "sad"},
			{Key: feed.KeyPlaylistGenre, Value: "rock"},
		}
		outcomes := d.Dispatch(ctx, clauses, spotifyAuth())
		if len(outcomes) != 4 {
			t.Fatalf("expected 4 outcomes, got %d", len(outcomes))
		}
	})

	t.Run("Free Text Issues Exactly One Call", func(t *testing.T) {
		sources := tu.NewMockSources()
		d := feed.NewDispatcher(sources)

		clauses, err := feed.ParseRequest("play me something")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		outcomes := d.Dispatch(ctx, clauses, spotifyAuth())
		if len(outcomes) != 1 {
			t.Fatalf("expected exactly 1 outcome, got %d", len(outcomes))
		}
		if calls := sources.Calls(); len(calls) != 1 || calls[0] != "search" {
			t.Errorf("expected a single generic search call, got %v", calls)
		}
	})

	t.Run("Outcome Order Matches Plan Order", func(t *testing.T) {
		sources := tu.NewMockSources()
		sources.Payloads["searchByMood"] = feed.ListOf(feed.Record{Name: "catalog"})
		sources.Payloads["videosByMood"] = feed.ListOf(feed.Record{Name: "video", Thumbnail: "th"})
		sources.Payloads["relatedArtists"] = feed.ListOf(feed.Record{Name: "related"})
		d := feed.NewDispatcher(sources)

		clauses := []feed.Clause{
			{Key: feed.KeyMood, Value: "happy"},
			{Key: feed.KeyRelatedArtists, Value: "x"},
		}
		outcomes := d.Dispatch(ctx, clauses, feed.AuthContext{})
		if len(outcomes) != 3 {
			t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
		}

		names := []string{
			outcomes[0].Payload.List[0].Record.Name,
			outcomes[1].Payload.List[0].Record.Name,
			outcomes[2].Payload.List[0].Record.Name,
		}
		want := []string{"catalog", "video", "related"}
		for i := range want {
			if names[i] != want[i] {
				t.Errorf("expected outcome %d to be %s, got %s", i, want[i], names[i])
			}
		}
	})

	t.Run("One Failure Never Blocks Siblings", func(t *testing.T) {
		sources := tu.NewMockSources()
		sources.Fail["videosByMood"] = true
		sources.Payloads["searchByMood"] = feed.ListOf(feed.Record{Name: "ok"})
		d := feed.NewDispatcher(sources)

		outcomes := d.Dispatch(ctx, []feed.Clause{{Key: feed.KeyMood, Value: "happy"}}, feed.AuthContext{})
		if !outcomes[0].Fulfilled() {
			t.Errorf("expected first outcome fulfilled, got %v", outcomes[0].Err)
		}
		if outcomes[1].Fulfilled() {
			t.Error("expected second outcome rejected")
		}
	})

	t.Run("Personalized Pass Per Provider", func(t *testing.T) {
		sources := tu.NewMockSources()
		d := feed.NewDispatcher(sources)

		auth := feed.AuthContext{
			UserID:      "user-1",
			AccessToken: "token",
			Providers: map[feed.Provider]bool{
				feed.ProviderSpotify: true,
				feed.ProviderFitbit:  true,
			},
		}
		outcomes := d.Personalized(ctx, auth)
		if len(outcomes) != 2 {
			t.Fatalf("expected one call per provider, got %d", len(outcomes))
		}
		calls := sorted(sources.Calls())
		if calls[0] != "personalizedRecommendations:fitbit" || calls[1] != "personalizedRecommendations:spotify" {
			t.Errorf("unexpected personalized calls %v", calls)
		}
	})
}
