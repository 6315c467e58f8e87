package graph

import (
	"context"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"

	"shipgraph/backend/internal/survey"
	apperrors "shipgraph/backend/pkg/errors"
	"shipgraph/backend/pkg/logger"
)

// ResolveShip returns the ship name a fragment belongs to. Every answer to
// the identity question is considered: blank and mapping answers are
// ignored, repeated identical names collapse, differing names are an error.
func ResolveShip(f *survey.Fragment) (string, error) {
	names := make([]string, 0)
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, answer := range f.ShipIdentityAnswers() {
		text, ok := answer.Text()
		if !ok {
			continue
		}
		name := strings.TrimSpace(text)
		if name == "" || seen.Contains(name) {
			continue
		}
		seen.Add(name)
		names = append(names, name)
	}

	switch len(names) {
	case 0:
		return "", apperrors.NewMissingShipIdentity(f.DocumentName)
	case 1:
		return names[0], nil
	default:
		return "", apperrors.NewAmbiguousShipIdentity(f.DocumentName, names)
	}
}

// Plan resolves the ship and builds the full mutation sequence for one
// fragment. Nothing is written; a fragment that cannot be resolved yields
// no mutations at all.
func Plan(f *survey.Fragment) (string, []Mutation, error) {
	ship, err := ResolveShip(f)
	if err != nil {
		return "", nil, err
	}

	mutations := make([]Mutation, 0, 3+2*len(f.Categories)+f.QuestionCount())
	mutations = append(mutations,
		MergeDocument(f.DocumentName, f.DocumentVersion),
		MergeShip(ship),
	)

	for _, cat := range f.Categories {
		mutations = append(mutations, MergeCategory(f.DocumentName, cat.Name))
		for _, q := range cat.Questions {
			answer, err := q.Answer.Format()
			if err != nil {
				return "", nil, apperrors.NewStructuringParse(0, 0, string(mustMarshal(q.Answer)), err)
			}
			mutations = append(mutations, CreateQuestion(cat.Name, q.Number, q.Text, answer))
		}
	}

	mutations = append(mutations, LinkShipDocument(ship, f.DocumentName))

	linked := mapset.NewThreadUnsafeSet[string]()
	for _, cat := range f.Categories {
		if linked.Contains(cat.Name) {
			continue
		}
		linked.Add(cat.Name)
		mutations = append(mutations, LinkShipCategory(ship, cat.Name))
	}

	return ship, mutations, nil
}

func mustMarshal(a survey.Answer) []byte {
	raw, _ := a.MarshalJSON()
	return raw
}

// Populator writes structured fragments into a Store
type Populator struct {
	store  Store
	logger *zap.Logger
}

// NewPopulator creates a populator over store
func NewPopulator(store Store) *Populator {
	return &Populator{
		store:  store,
		logger: logger.Get(),
	}
}

// Populate writes one fragment in a single transaction. Ship resolution
// happens before anything is sent to the store.
func (p *Populator) Populate(ctx context.Context, f *survey.Fragment) (*PopulateResult, error) {
	ship, mutations, err := Plan(f)
	if err != nil {
		p.logger.Warn("Fragment rejected",
			zap.String("document", f.DocumentName),
			zap.String("version", f.DocumentVersion),
			zap.Error(err),
		)
		return nil, err
	}

	if err := p.store.Apply(ctx, mutations); err != nil {
		p.logger.Error("Fragment write rolled back",
			zap.String("document", f.DocumentName),
			zap.String("ship", ship),
			zap.Error(err),
		)
		return nil, err
	}

	result := &PopulateResult{
		Ship:            ship,
		DocumentName:    f.DocumentName,
		DocumentVersion: f.DocumentVersion,
		Categories:      len(f.Categories),
		Questions:       f.QuestionCount(),
		Mutations:       len(mutations),
	}

	p.logger.Info("Fragment populated",
		zap.String("document", result.DocumentName),
		zap.String("version", result.DocumentVersion),
		zap.String("ship", result.Ship),
		zap.Int("categories", result.Categories),
		zap.Int("questions", result.Questions),
	)
	return result, nil
}
