// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/rama26012004/moodtunes/internal/feed"
)

// MockSources is a test double for [feed.Sources]. Every call records its
// name and returns the configured payload keyed by call name, or Err when
// the name is listed in Fail.
type MockSources struct {
	mu       sync.Mutex
	calls    []string
	Payloads map[string]feed.Payload
	Fail     map[string]bool
	Err      error
}

func NewMockSources() *MockSources {
	return &MockSources{
		Payloads: map[string]feed.Payload{},
		Fail:     map[string]bool{},
		Err:      errors.New("upstream unavailable"),
	}
}

// Calls returns the recorded call names in invocation order.
func (m *MockSources) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.calls))
	copy(calls, m.calls)
	return calls
}

func (m *MockSources) record(name string) (feed.Payload, error) {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	failed := m.Fail[name]
	payload := m.Payloads[name]
	m.mu.Unlock()
	if failed {
		return feed.Payload{}, m.Err
	}
	return payload, nil
}

func (m *MockSources) SearchByMood(ctx context.Context, mood string, auth feed.AuthContext) (feed.Payload, error) {
	return m.record("searchByMood")
}

func (m *MockSources) SearchByGenre(ctx context.Context, genre string, auth feed.AuthContext) (feed.Payload, error) {
	return m.record("searchByGenre")
}

func (m *MockSources) SearchByArtist(ctx context.Context, artist string, auth feed.AuthContext) (feed.Payload, error) {
	return m.record("searchByArtist")
}

func (m *MockSources) RelatedArtists(ctx context.Context, artist string) (feed.Payload, error) {
	return m.record("relatedArtists")
}

func (m *MockSources) LibraryByMood(ctx context.Context, mood string, auth feed.AuthContext) (feed.Payload, error) {
	return m.record("libraryByMood")
}

func (m *MockSources) LibraryByGenre(ctx context.Context, genre string, auth feed.AuthContext) (feed.Payload, error) {
	return m.record("libraryByGenre")
}

func (m *MockSources) UserPlaylistsByMood(ctx context.Context, mood string, auth feed.AuthContext) (feed.Payload, error) {
	return m.record("userPlaylistsByMood")
}

func (m *MockSources) UserPlaylistsByGenre(ctx context.Context, genre string, auth feed.AuthContext) (feed.Payload, error) {
	return m.record("userPlaylistsByGenre")
}

func (m *MockSources) VideosByMood(ctx context.Context, mood string) (feed.Payload, error) {
	return m.record("videosByMood")
}

func (m *MockSources) VideosByGenre(ctx context.Context, genre string) (feed.Payload, error) {
	return m.record("videosByGenre")
}

func (m *MockSources) VideosByArtist(ctx context.Context, artist string) (feed.Payload, error) {
	return m.record("videosByArtist")
}

func (m *MockSources) Search(ctx context.Context, query string) (feed.Payload, error) {
	return m.record("search")
}

func (m *MockSources) PersonalizedRecommendations(ctx context.Context, provider feed.Provider, auth feed.AuthContext) (feed.Payload, error) {
	return m.record("personalizedRecommendations:" + string(provider))
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}
