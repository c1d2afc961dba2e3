package feed

import (
	"context"

	"github.com/charmbracelet/log"
)

// Generator runs the full pipeline for one generation request: parse,
// dispatch, aggregate, then the personalized pass.
type Generator struct {
	dispatcher *Dispatcher
	logger     *log.Logger
}

func NewGenerator(sources Sources, logger *log.Logger) *Generator {
	return &Generator{dispatcher: NewDispatcher(sources), logger: logger}
}

// Aggregate normalizes fulfilled outcomes in plan order into one item list.
// Rejected outcomes are logged and contribute nothing; partial failure is
// not an error, and all calls failing yields a valid empty result.
func (g *Generator) Aggregate(outcomes []Outcome) []Item {
	items := []Item{}
	for _, outcome := range outcomes {
		if !outcome.Fulfilled() {
			g.logger.Error("upstream call failed", "call", outcome.Call, "error", outcome.Err)
			continue
		}
		items = append(items, Normalize(outcome.Payload)...)
	}
	return items
}

// Generate produces the item list for one raw input string. Only input
// validation can fail; every upstream error is absorbed as a rejected
// outcome. The personalized batch is appended after the general batch.
func (g *Generator) Generate(ctx context.Context, input string, auth AuthContext) ([]Item, error) {
	clauses, err := ParseRequest(input)
	if err != nil {
		return nil, err
	}

	items := g.Aggregate(g.dispatcher.Dispatch(ctx, clauses, auth))
	if auth.Authenticated() {
		items = append(items, g.Aggregate(g.dispatcher.Personalized(ctx, auth))...)
	}
	return items, nil
}
