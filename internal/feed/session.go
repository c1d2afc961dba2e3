package feed

import "sync"

// Session holds the most recent generation's items with last-writer-wins
// semantics. Starting a new generation clears the previous results right
// away and bumps the generation counter; an older in-flight generation can
// still finish its network calls, but its publish attempt is refused, so a
// stale batch never overwrites a newer one.
type Session struct {
	mu         sync.Mutex
	generation uint64
	items      []Item
}

func NewSession() *Session {
	return &Session{}
}

// Begin starts a new generation, discarding prior results, and returns the
// token the finished batch must present to Publish.
func (s *Session) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.items = nil
	return s.generation
}

// Publish stores the items if gen is still the current generation. It
// reports whether the batch was accepted.
func (s *Session) Publish(gen uint64, items []Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.items = items
	return true
}

// Results returns the current generation's items, empty until a batch has
// published.
func (s *Session) Results() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]Item, len(s.items))
	copy(items, s.items)
	return items
}
