package querycache

import (
	"context"

	"github.com/davidahmann/gate/internal/policy"
	"github.com/davidahmann/gate/pkg/types"
)

// ProposalsPrefix is shared by every proposal query key, so invalidating it
// drops both lists and details.
const ProposalsPrefix = "/api/gate/proposals"

func ListKey(stage policy.Stage) string {
	return ProposalsPrefix + "|" + string(stage)
}

func DetailKey(proposalID string) string {
	return ProposalsPrefix + "/" + proposalID
}

// Source is the read side of the Gate API. *gateclient.Client implements it.
type Source interface {
	ListProposals(ctx context.Context, stage policy.Stage) ([]types.ProposalSummary, error)
	GetProposal(ctx context.Context, proposalID string) (*types.ProposalDetail, error)
}

// Proposals is a cached Source.
type Proposals struct {
	source Source
	cache  *Cache
}

func NewProposals(source Source, cache *Cache) *Proposals {
	if cache == nil {
		cache = New(DefaultFreshFor)
	}
	return &Proposals{source: source, cache: cache}
}

func (p *Proposals) ListProposals(ctx context.Context, stage policy.Stage) ([]types.ProposalSummary, error) {
	return Fetch(ctx, p.cache, ListKey(stage), func(ctx context.Context) ([]types.ProposalSummary, error) {
		return p.source.ListProposals(ctx, stage)
	})
}

func (p *Proposals) GetProposal(ctx context.Context, proposalID string) (*types.ProposalDetail, error) {
	return Fetch(ctx, p.cache, DetailKey(proposalID), func(ctx context.Context) (*types.ProposalDetail, error) {
		return p.source.GetProposal(ctx, proposalID)
	})
}

// Refetch drops the cached detail of one proposal and loads it again. Used
// after a stage conflict.
func (p *Proposals) Refetch(ctx context.Context, proposalID string) (*types.ProposalDetail, error) {
	p.cache.Forget(DetailKey(proposalID))
	return p.GetProposal(ctx, proposalID)
}

// InvalidateAll drops every cached proposal read. Used after a decision
// lands.
func (p *Proposals) InvalidateAll() {
	p.cache.Invalidate(ProposalsPrefix)
}
