package graph

import (
	"context"
	"fmt"
	"sync"

	"shipgraph/backend/internal/constants"
	apperrors "shipgraph/backend/pkg/errors"
)

// ============================================================================
// In-memory store
// ============================================================================

// MemoryNode is a node held by MemoryStore
type MemoryNode struct {
	ID    string
	Label string
	Props map[string]any
}

// MemoryEdge is a relationship held by MemoryStore
type MemoryEdge struct {
	From string
	Type string
	To   string
}

type memoryState struct {
	nodes  []*MemoryNode
	edges  []MemoryEdge
	nextID int
}

func (s *memoryState) clone() *memoryState {
	out := &memoryState{
		nodes:  make([]*MemoryNode, len(s.nodes)),
		edges:  append([]MemoryEdge(nil), s.edges...),
		nextID: s.nextID,
	}
	for i, n := range s.nodes {
		props := make(map[string]any, len(n.Props))
		for k, v := range n.Props {
			props[k] = v
		}
		out.nodes[i] = &MemoryNode{ID: n.ID, Label: n.Label, Props: props}
	}
	return out
}

// MemoryStore interprets the fixed statement set against an in-process graph.
// It backs STORE_BACKEND=memory and the tests. Apply is all-or-nothing like
// the Neo4j transaction.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memoryState

	// FailOn, when set, is consulted before each mutation; a non-nil error
	// aborts the transaction. Used to exercise rollback.
	FailOn func(m Mutation) error
}

// NewMemoryStore creates an empty in-memory graph
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memoryState{}}
}

// Close is a no-op
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// EnsureSchema is a no-op; identity is enforced by the MERGE emulation
func (s *MemoryStore) EnsureSchema(ctx context.Context) error {
	return nil
}

// Apply runs mutations against a copy and swaps it in only on success
func (s *MemoryStore) Apply(ctx context.Context, mutations []Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	for _, m := range mutations {
		if err := ctx.Err(); err != nil {
			return apperrors.NewContextCancelled("memory transaction", err)
		}
		if s.FailOn != nil {
			if err := s.FailOn(m); err != nil {
				return apperrors.NewGraphWrite(Summary(m.Cypher), err)
			}
		}
		if err := work.apply(m); err != nil {
			return apperrors.NewGraphWrite(Summary(m.Cypher), err)
		}
	}
	s.state = work
	return nil
}

func (s *memoryState) apply(m Mutation) error {
	str := func(key string) string {
		v, _ := m.Params[key].(string)
		return v
	}

	switch m.Kind {
	case MutationMergeDocument:
		s.merge(constants.LabelDocument, map[string]any{"name": str("name"), "version": str("version")})
	case MutationMergeCategory:
		docs := s.match(constants.LabelDocument, map[string]any{"name": str("document")})
		if len(docs) == 0 {
			return nil
		}
		cat := s.merge(constants.LabelCategory, map[string]any{"name": str("category")})
		for _, d := range docs {
			s.mergeEdge(d.ID, constants.RelHasCategory, cat.ID)
		}
	case MutationCreateQuestion:
		for _, c := range s.match(constants.LabelCategory, map[string]any{"name": str("category")}) {
			q := s.create(constants.LabelQuestion, map[string]any{
				"number": str("number"),
				"text":   str("text"),
				"answer": str("answer"),
			})
			s.mergeEdge(c.ID, constants.RelHasQuestion, q.ID)
		}
	case MutationMergeShip:
		s.merge(constants.LabelShip, map[string]any{"name": str("ship")})
	case MutationLinkShipDocument:
		s.linkAll(constants.LabelShip, str("ship"), constants.RelHasDocument, constants.LabelDocument, str("document"))
	case MutationLinkShipCategory:
		s.linkAll(constants.LabelShip, str("ship"), constants.RelHasCategory, constants.LabelCategory, str("category"))
	case MutationSetEmbedding:
		embedding, ok := m.Params["embedding"].([]float64)
		if !ok {
			return fmt.Errorf("embedding must be []float64, got %T", m.Params["embedding"])
		}
		for _, n := range s.nodes {
			if n.ID == str("id") && n.Label == constants.LabelQuestion {
				n.Props["embedding"] = append([]float64(nil), embedding...)
			}
		}
	default:
		return fmt.Errorf("unsupported mutation %s", m.Kind)
	}
	return nil
}

func (s *memoryState) match(label string, props map[string]any) []*MemoryNode {
	var out []*MemoryNode
	for _, n := range s.nodes {
		if n.Label != label {
			continue
		}
		ok := true
		for k, v := range props {
			if n.Props[k] != v {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, n)
		}
	}
	return out
}

func (s *memoryState) create(label string, props map[string]any) *MemoryNode {
	s.nextID++
	n := &MemoryNode{ID: fmt.Sprintf("mem:%d", s.nextID), Label: label, Props: props}
	s.nodes = append(s.nodes, n)
	return n
}

func (s *memoryState) merge(label string, props map[string]any) *MemoryNode {
	if found := s.match(label, props); len(found) > 0 {
		return found[0]
	}
	return s.create(label, props)
}

func (s *memoryState) mergeEdge(from, rel, to string) {
	for _, e := range s.edges {
		if e.From == from && e.Type == rel && e.To == to {
			return
		}
	}
	s.edges = append(s.edges, MemoryEdge{From: from, Type: rel, To: to})
}

func (s *memoryState) linkAll(fromLabel, fromName, rel, toLabel, toName string) {
	froms := s.match(fromLabel, map[string]any{"name": fromName})
	tos := s.match(toLabel, map[string]any{"name": toName})
	for _, f := range froms {
		for _, t := range tos {
			s.mergeEdge(f.ID, rel, t.ID)
		}
	}
}

// Query answers the fixed read statements
func (s *MemoryStore) Query(ctx context.Context, q Query) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewContextCancelled("memory query", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]Row, 0)
	switch q.Kind {
	case QueryListShips:
		number, _ := q.Params["number"].(string)
		for _, n := range s.state.match(constants.LabelQuestion, map[string]any{"number": number}) {
			rows = append(rows, Row{"answer": n.Props["answer"]})
		}
	case QueryCountLabel:
		rows = append(rows, Row{"count": int64(len(s.state.match(q.Label, nil)))})
	case QueryFetchLabel:
		for _, n := range s.state.match(q.Label, nil) {
			rows = append(rows, Row{"n": s.view(n).ToRow()})
		}
	case QueryEmbeddedQuestions:
		for _, n := range s.state.match(constants.LabelQuestion, nil) {
			embedding, ok := n.Props["embedding"].([]float64)
			if !ok {
				continue
			}
			values := make([]any, len(embedding))
			for i, f := range embedding {
				values[i] = f
			}
			rows = append(rows, Row{"id": n.ID, "text": n.Props["text"], "embedding": values})
		}
	case QueryUnembeddedQuestions:
		for _, n := range s.state.match(constants.LabelQuestion, nil) {
			if _, ok := n.Props["embedding"]; ok {
				continue
			}
			rows = append(rows, Row{"id": n.ID, "text": n.Props["text"]})
		}
	case QueryAnswerByText:
		text, _ := q.Params["text"].(string)
		for _, n := range s.state.match(constants.LabelQuestion, map[string]any{"text": text}) {
			rows = append(rows, Row{"answer": n.Props["answer"]})
		}
	default:
		return nil, apperrors.NewGraphQueryFailed(Summary(q.Cypher), fmt.Errorf("unsupported query %s", q.Kind))
	}
	return rows, nil
}

func (s *MemoryStore) view(n *MemoryNode) NodeView {
	props := make(map[string]any, len(n.Props))
	for k, v := range n.Props {
		props[k] = v
	}
	return NodeView{ElementID: n.ID, Labels: []string{n.Label}, Properties: props}
}

// Nodes returns copies of the nodes carrying label, in creation order
func (s *MemoryStore) Nodes(label string) []MemoryNode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []MemoryNode
	for _, n := range s.state.match(label, nil) {
		v := s.view(n)
		out = append(out, MemoryNode{ID: n.ID, Label: n.Label, Props: v.Properties})
	}
	return out
}

// Edges returns the relationships of one type, in creation order
func (s *MemoryStore) Edges(relType string) []MemoryEdge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []MemoryEdge
	for _, e := range s.state.edges {
		if e.Type == relType {
			out = append(out, e)
		}
	}
	return out
}

// HasEdge reports whether a relationship exists between the named nodes.
// Nodes are identified by their "name" property, or "text" for questions.
func (s *MemoryStore) HasEdge(fromLabel, fromName, relType, toLabel, toName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byName := func(n *MemoryNode, name string) bool {
		if n.Label == constants.LabelQuestion {
			return n.Props["text"] == name
		}
		return n.Props["name"] == name
	}
	index := make(map[string]*MemoryNode, len(s.state.nodes))
	for _, n := range s.state.nodes {
		index[n.ID] = n
	}
	for _, e := range s.state.edges {
		if e.Type != relType {
			continue
		}
		from, to := index[e.From], index[e.To]
		if from == nil || to == nil {
			continue
		}
		if from.Label == fromLabel && to.Label == toLabel && byName(from, fromName) && byName(to, toName) {
			return true
		}
	}
	return false
}
