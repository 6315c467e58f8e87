package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"

	"shipgraph/backend/internal/graph"
	"shipgraph/backend/internal/metrics"
	"shipgraph/backend/pkg/logger"
)

// Match is one executed candidate with its result rows
type Match struct {
	Query      string         `json:"query"`
	Params     map[string]any `json:"params"`
	Similarity float64        `json:"similarity,omitempty"`
	Matched    string         `json:"matched,omitempty"`
	Rows       []graph.Row    `json:"rows"`
}

// Answer is the result of one question
type Answer struct {
	Strategy string  `json:"strategy"`
	Question string  `json:"question"`
	Matches  []Match `json:"matches"`
}

// Resolver executes the queries a caller-selected strategy plans
type Resolver struct {
	store      graph.Store
	strategies map[string]Strategy
	logger     *zap.Logger
}

// NewResolver creates a resolver over store with the given strategies
func NewResolver(store graph.Store, strategies ...Strategy) *Resolver {
	r := &Resolver{
		store:      store,
		strategies: make(map[string]Strategy, len(strategies)),
		logger:     logger.Get(),
	}
	for _, s := range strategies {
		r.strategies[s.Name()] = s
	}
	return r
}

// Strategies returns the registered strategy names, sorted
func (r *Resolver) Strategies() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ask plans text with the named strategy and runs every candidate query
func (r *Resolver) Ask(ctx context.Context, strategy, text string) (*Answer, error) {
	s, ok := r.strategies[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	candidates, err := s.Plan(ctx, text)
	if err != nil {
		status := metrics.StatusError
		if errors.Is(err, ErrNoMatch) {
			status = metrics.StatusNoMatch
		}
		metrics.QueriesResolved.WithLabelValues(strategy, status).Inc()
		r.logger.Info("Question not planned",
			zap.String("strategy", strategy),
			zap.String("question", text),
			zap.Error(err),
		)
		return nil, err
	}

	answer := &Answer{Strategy: strategy, Question: text, Matches: make([]Match, 0, len(candidates))}
	for _, c := range candidates {
		rows, err := r.store.Query(ctx, c.Query)
		if err != nil {
			metrics.QueriesResolved.WithLabelValues(strategy, metrics.StatusError).Inc()
			return nil, err
		}
		answer.Matches = append(answer.Matches, Match{
			Query:      graph.Summary(c.Query.Cypher),
			Params:     c.Query.Params,
			Similarity: c.Similarity,
			Matched:    c.Matched,
			Rows:       rows,
		})
	}

	metrics.QueriesResolved.WithLabelValues(strategy, metrics.StatusOK).Inc()
	r.logger.Info("Question answered",
		zap.String("strategy", strategy),
		zap.Int("matches", len(answer.Matches)),
	)
	return answer, nil
}

// Ships lists the distinct ship names recorded as answers to the ship
// identity question, in store order
func (r *Resolver) Ships(ctx context.Context) ([]string, error) {
	rows, err := r.store.Query(ctx, graph.ListShips())
	if err != nil {
		return nil, err
	}

	ships := make([]string, 0, len(rows))
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, row := range rows {
		name := strings.TrimSpace(graph.GetString(row, "answer"))
		if name == "" || seen.Contains(name) {
			continue
		}
		seen.Add(name)
		ships = append(ships, name)
	}
	return ships, nil
}
