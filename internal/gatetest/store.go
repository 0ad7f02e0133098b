// Package gatetest is an in-memory Gate API for tests and local demos.
package gatetest

import (
	"errors"
	"sort"
	"sync"

	"github.com/davidahmann/gate/internal/policy"
	"github.com/davidahmann/gate/pkg/types"
)

var (
	ErrNotFound      = errors.New("proposal not found")
	ErrStageMismatch = errors.New("stage mismatch")
	ErrNotDecidable  = errors.New("proposal is not awaiting a decision")
)

// Proposal is one stored proposal. Summary.Stage is the current stage.
type Proposal struct {
	Summary   types.ProposalSummary
	Payload   map[string]any
	Decisions []types.ProposalDecision
}

func (p Proposal) Stage() policy.Stage {
	return policy.Stage(p.Summary.Stage)
}

func (p Proposal) clone() Proposal {
	out := p
	out.Decisions = append([]types.ProposalDecision(nil), p.Decisions...)
	if p.Payload != nil {
		out.Payload = make(map[string]any, len(p.Payload))
		for k, v := range p.Payload {
			out.Payload[k] = v
		}
	}
	return out
}

type Store struct {
	mu        sync.Mutex
	proposals map[string]Proposal
}

func NewStore() *Store {
	return &Store{proposals: make(map[string]Proposal)}
}

func (s *Store) Put(p Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[p.Summary.ProposalID] = p.clone()
}

func (s *Store) Get(id string) (Proposal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok {
		return Proposal{}, false
	}
	return p.clone(), true
}

// List returns the proposals at stage ordered by id. An empty stage lists
// everything.
func (s *Store) List(stage policy.Stage) []Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Proposal{}
	for _, p := range s.proposals {
		if stage != "" && p.Stage() != stage {
			continue
		}
		out = append(out, p.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Summary.ProposalID < out[j].Summary.ProposalID
	})
	return out
}

// SetStage moves a proposal without recording a decision, the way another
// reviewer's decision would.
func (s *Store) SetStage(id string, stage policy.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok {
		return ErrNotFound
	}
	p.Summary.Stage = string(stage)
	s.proposals[id] = p
	return nil
}

// AppendDecision records a decision if the proposal is still at the stage
// the decision targeted, then advances it. It returns the new stage.
func (s *Store) AppendDecision(id string, payload types.DecisionPayload, decidedAt string) (policy.Stage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[id]
	if !ok {
		return "", ErrNotFound
	}
	if p.Stage() != policy.Stage(payload.Stage) {
		return p.Stage(), ErrStageMismatch
	}
	next, ok := policy.NextStage(p.Stage(), policy.DecisionKind(payload.Decision))
	if !ok {
		return p.Stage(), ErrNotDecidable
	}

	p.Decisions = append(append([]types.ProposalDecision(nil), p.Decisions...), types.ProposalDecision{
		Stage:     payload.Stage,
		Decision:  payload.Decision,
		Reasons:   append([]string(nil), payload.Reasons...),
		Comment:   payload.Comment,
		UserID:    payload.UserID,
		DecidedAt: decidedAt,
	})
	p.Summary.Stage = string(next)
	s.proposals[id] = p
	return next, nil
}
