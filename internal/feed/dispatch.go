package feed

import (
	"context"
	"fmt"
	"sync"
)

// Sources is the set of upstream adapter calls the dispatcher plans over.
// Each call returns one classified payload or fails; failures surface as
// rejected outcomes, never as panics or batch aborts. Adapters enforce their
// own request timeouts.
type Sources interface {
	SearchByMood(ctx context.Context, mood string, auth AuthContext) (Payload, error)
	SearchByGenre(ctx context.Context, genre string, auth AuthContext) (Payload, error)
	SearchByArtist(ctx context.Context, artist string, auth AuthContext) (Payload, error)
	RelatedArtists(ctx context.Context, artist string) (Payload, error)
	LibraryByMood(ctx context.Context, mood string, auth AuthContext) (Payload, error)
	LibraryByGenre(ctx context.Context, genre string, auth AuthContext) (Payload, error)
	UserPlaylistsByMood(ctx context.Context, mood string, auth AuthContext) (Payload, error)
	UserPlaylistsByGenre(ctx context.Context, genre string, auth AuthContext) (Payload, error)
	VideosByMood(ctx context.Context, mood string) (Payload, error)
	VideosByGenre(ctx context.Context, genre string) (Payload, error)
	VideosByArtist(ctx context.Context, artist string) (Payload, error)
	Search(ctx context.Context, query string) (Payload, error)
	PersonalizedRecommendations(ctx context.Context, provider Provider, auth AuthContext) (Payload, error)
}

// Outcome is one settled upstream call: either a payload or a reason.
type Outcome struct {
	Call    string
	Payload Payload
	Err     error
}

// Fulfilled reports whether the call produced a payload.
func (o Outcome) Fulfilled() bool { return o.Err == nil }

type call struct {
	name string
	run  func(ctx context.Context) (Payload, error)
}

// Dispatcher derives the upstream call plan for a request and issues every
// call concurrently.
type Dispatcher struct {
	sources Sources
}

func NewDispatcher(sources Sources) *Dispatcher {
	return &Dispatcher{sources: sources}
}

// Dispatch builds the call plan for the parsed clauses and settles every
// call. Outcome order matches plan order, not completion order, and one
// failure never cancels or blocks siblings.
func (d *Dispatcher) Dispatch(ctx context.Context, clauses []Clause, auth AuthContext) []Outcome {
	return settle(ctx, d.plan(clauses, auth))
}

// plan maps clauses to adapter calls. Clauses gated on a catalog session are
// silently skipped when the caller holds none.
func (d *Dispatcher) plan(clauses []Clause, auth AuthContext) []call {
	s := d.sources
	calls := []call{}
	for _, clause := range clauses {
		value := clause.Value
		switch clause.Key {
		case KeyMood:
			calls = append(calls,
				call{fmt.Sprintf("searchByMood(%s)", value), func(ctx context.Context) (Payload, error) {
					return s.SearchByMood(ctx, value, auth)
				}},
				call{fmt.Sprintf("videosByMood(%s)", value), func(ctx context.Context) (Payload, error) {
					return s.VideosByMood(ctx, value)
				}},
			)
		case KeyGenre:
			calls = append(calls,
				call{fmt.Sprintf("searchByGenre(%s)", value), func(ctx context.Context) (Payload, error) {
					return s.SearchByGenre(ctx, value, auth)
				}},
				call{fmt.Sprintf("videosByGenre(%s)", value), func(ctx context.Context) (Payload, error) {
					return s.VideosByGenre(ctx, value)
				}},
			)
		case KeyArtist:
			calls = append(calls,
				call{fmt.Sprintf("searchByArtist(%s)", value), func(ctx context.Context) (Payload, error) {
					return s.SearchByArtist(ctx, value, auth)
				}},
				call{fmt.Sprintf("videosByArtist(%s)", value), func(ctx context.Context) (Payload, error) {
					return s.VideosByArtist(ctx, value)
				}},
			)
		case KeyRelatedArtists:
			calls = append(calls, call{fmt.Sprintf("relatedArtists(%s)", value), func(ctx context.Context) (Payload, error) {
				return s.RelatedArtists(ctx, value)
			}})
		case KeyLibraryMood:
			if auth.SpotifySession() {
				calls = append(calls, call{fmt.Sprintf("libraryByMood(%s)", value), func(ctx context.Context) (Payload, error) {
					return s.LibraryByMood(ctx, value, auth)
				}})
			}
		case KeyLibraryGenre:
			if auth.SpotifySession() {
				calls = append(calls, call{fmt.Sprintf("libraryByGenre(%s)", value), func(ctx context.Context) (Payload, error) {
					return s.LibraryByGenre(ctx, value, auth)
				}})
			}
		case KeyPlaylistMood:
			if auth.SpotifySession() {
				calls = append(calls, call{fmt.Sprintf("userPlaylistsByMood(%s)", value), func(ctx context.Context) (Payload, error) {
					return s.UserPlaylistsByMood(ctx, value, auth)
				}})
			}
		case KeyPlaylistGenre:
			if auth.SpotifySession() {
				calls = append(calls, call{fmt.Sprintf("userPlaylistsByGenre(%s)", value), func(ctx context.Context) (Payload, error) {
					return s.UserPlaylistsByGenre(ctx, value, auth)
				}})
			}
		case KeyFreeText:
			calls = append(calls, call{fmt.Sprintf("search(%s)", value), func(ctx context.Context) (Payload, error) {
				return s.Search(ctx, value)
			}})
		}
	}
	return calls
}

// Personalized is the second fan-out pass: one recommendation call per
// authenticated provider, settled the same way as the general batch.
func (d *Dispatcher) Personalized(ctx context.Context, auth AuthContext) []Outcome {
	s := d.sources
	calls := []call{}
	for _, provider := range auth.AuthenticatedProviders() {
		provider := provider
		calls = append(calls, call{fmt.Sprintf("personalizedRecommendations(%s)", provider), func(ctx context.Context) (Payload, error) {
			return s.PersonalizedRecommendations(ctx, provider, auth)
		}})
	}
	return settle(ctx, calls)
}

// settle runs every call concurrently and waits for all of them. Each
// goroutine writes only its own slot, so outcome order is plan order and no
// locking is needed.
func settle(ctx context.Context, calls []call) []Outcome {
	outcomes := make([]Outcome, len(calls))
	var wg sync.WaitGroup
	for i, c := range calls {
		wg.Add(1)
		go func(i int, c call) {
			defer wg.Done()
			payload, err := c.run(ctx)
			outcomes[i] = Outcome{Call: c.name, Payload: payload, Err: err}
		}(i, c)
	}
	wg.Wait()
	return outcomes
}
