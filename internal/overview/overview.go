// Package overview builds the home dashboard: proposal counts per workflow
// stage plus the optional business metrics.
package overview

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/davidahmann/gate/internal/gateclient"
	"github.com/davidahmann/gate/internal/policy"
	"github.com/davidahmann/gate/pkg/types"
)

type Lister interface {
	ListProposals(ctx context.Context, stage policy.Stage) ([]types.ProposalSummary, error)
}

// MetricsFetcher is optional. *gateclient.Client implements it.
type MetricsFetcher interface {
	FetchMetrics(ctx context.Context, period string) *types.Metrics
}

// StageCount is the count for one stage. Err is set when that stage could
// not be loaded; Count is then zero.
type StageCount struct {
	Stage policy.Stage
	Count int
	Err   error
}

type Overview struct {
	Stages  []StageCount
	Metrics *types.Metrics
}

func (o Overview) Count(stage policy.Stage) int {
	for _, sc := range o.Stages {
		if sc.Stage == stage {
			return sc.Count
		}
	}
	return 0
}

// Completed is APPROVED plus REJECTED.
func (o Overview) Completed() int {
	return o.Count(policy.StageApproved) + o.Count(policy.StageRejected)
}

// Errors lists the stages that failed to load.
func (o Overview) Errors() []StageCount {
	out := []StageCount{}
	for _, sc := range o.Stages {
		if sc.Err != nil {
			out = append(out, sc)
		}
	}
	return out
}

type Builder struct {
	Lister  Lister
	Metrics MetricsFetcher
	Period  string
	Logger  *zap.Logger
}

// Build loads the four canonical stages concurrently. A failing stage never
// fails the others; Build itself only errors when the API is not configured.
func (b Builder) Build(ctx context.Context) (Overview, error) {
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	stages := policy.Stages()
	counts := make([]StageCount, len(stages))
	var metrics *types.Metrics

	g, gctx := errgroup.WithContext(ctx)
	for i, stage := range stages {
		g.Go(func() error {
			list, err := listWithRetry(gctx, b.Lister, stage)
			if gateclient.IsNotConfigured(err) {
				return err
			}
			counts[i] = StageCount{Stage: stage, Count: len(list), Err: err}
			if err != nil {
				logger.Warn("stage count unavailable", zap.String("stage", string(stage)), zap.Error(err))
			}
			return nil
		})
	}
	if b.Metrics != nil {
		g.Go(func() error {
			metrics = b.Metrics.FetchMetrics(gctx, b.Period)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return Overview{Stages: counts, Metrics: metrics}, nil
}

// listWithRetry tries a stage list twice when the first failure may be
// transient.
func listWithRetry(ctx context.Context, l Lister, stage policy.Stage) ([]types.ProposalSummary, error) {
	list, err := l.ListProposals(ctx, stage)
	if err == nil || !gateclient.IsRetryable(err) || errors.Is(ctx.Err(), context.Canceled) {
		return list, err
	}
	return l.ListProposals(ctx, stage)
}
