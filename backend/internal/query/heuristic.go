package query

import (
	"context"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/jdkato/prose/v2"

	"shipgraph/backend/internal/constants"
	"shipgraph/backend/internal/graph"
)

// Intent is the coarse purpose of a question
type Intent string

const (
	IntentCount   Intent = "count"
	IntentFetch   Intent = "fetch"
	IntentUnknown Intent = "unknown"
)

// ClassifyIntent reads the intent from keywords: "how many" counts, "find"
// or "show" fetches
func ClassifyIntent(text string) Intent {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "how many"):
		return IntentCount
	case strings.Contains(lower, "find"), strings.Contains(lower, "show"):
		return IntentFetch
	default:
		return IntentUnknown
	}
}

// Annotator extracts entity strings from text, most relevant first
type Annotator interface {
	Entities(text string) ([]string, error)
}

var (
	nounTags    = mapset.NewSet("NN", "NNS", "NNP", "NNPS")
	intentWords = mapset.NewSet("how", "many", "find", "show")
)

// dropIntentWords removes the intent keywords from entity text so "Show"
// tagged as a proper noun never becomes the label candidate
func dropIntentWords(entity string) string {
	var kept []string
	for _, word := range strings.Fields(entity) {
		if !intentWords.Contains(strings.ToLower(word)) {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

// ProseAnnotator uses the prose tagger: named entities first, then nouns
// not already covered by an entity
type ProseAnnotator struct{}

// Entities implements Annotator
func (ProseAnnotator) Entities(text string) ([]string, error) {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, fmt.Errorf("failed to annotate text: %w", err)
	}

	var entities []string
	covered := mapset.NewThreadUnsafeSet[string](intentWords.ToSlice()...)
	for _, ent := range doc.Entities() {
		name := dropIntentWords(ent.Text)
		if name == "" {
			continue
		}
		entities = append(entities, name)
		for _, word := range strings.Fields(name) {
			covered.Add(strings.ToLower(word))
		}
	}
	for _, tok := range doc.Tokens() {
		word := strings.ToLower(tok.Text)
		if !nounTags.Contains(tok.Tag) || covered.Contains(word) {
			continue
		}
		covered.Add(word)
		entities = append(entities, tok.Text)
	}
	return entities, nil
}

// NormalizeLabel maps entity text such as "ships" or "Categories" onto a
// schema label. Text that names no label is an ErrUnknownLabel.
func NormalizeLabel(entity string) (string, error) {
	word := strings.ToLower(strings.TrimSpace(entity))
	candidates := []string{word}
	if strings.HasSuffix(word, "ies") {
		candidates = append(candidates, strings.TrimSuffix(word, "ies")+"y")
	}
	if strings.HasSuffix(word, "es") {
		candidates = append(candidates, strings.TrimSuffix(word, "es"))
	}
	if strings.HasSuffix(word, "s") {
		candidates = append(candidates, strings.TrimSuffix(word, "s"))
	}

	labels := graph.SchemaLabels.ToSlice()
	for _, candidate := range candidates {
		for _, label := range labels {
			if candidate == strings.ToLower(label) {
				return label, nil
			}
		}
	}
	return "", graph.ErrUnknownLabel{Label: entity}
}

// HeuristicStrategy maps keyword intent and the first entity onto a
// label-scoped count or fetch
type HeuristicStrategy struct {
	annotator Annotator
}

// NewHeuristicStrategy creates the strategy; a nil annotator uses ProseAnnotator
func NewHeuristicStrategy(annotator Annotator) *HeuristicStrategy {
	if annotator == nil {
		annotator = ProseAnnotator{}
	}
	return &HeuristicStrategy{annotator: annotator}
}

// Name implements Strategy
func (s *HeuristicStrategy) Name() string {
	return constants.StrategyHeuristic
}

// Plan implements Strategy
func (s *HeuristicStrategy) Plan(ctx context.Context, text string) ([]Candidate, error) {
	intent := ClassifyIntent(text)
	if intent == IntentUnknown {
		return nil, ErrInvalidQuery
	}

	entities, err := s.annotator.Entities(text)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, ErrNoEntity
	}

	label, err := NormalizeLabel(entities[0])
	if err != nil {
		return nil, err
	}

	var q graph.Query
	switch intent {
	case IntentCount:
		q, err = graph.CountByLabel(label)
	case IntentFetch:
		q, err = graph.FetchByLabel(label)
	}
	if err != nil {
		return nil, err
	}
	return []Candidate{{Query: q}}, nil
}
