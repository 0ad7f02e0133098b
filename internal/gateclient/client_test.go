package gateclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidahmann/gate/internal/auth"
	"github.com/davidahmann/gate/internal/gatetest"
	"github.com/davidahmann/gate/internal/policy"
	"github.com/davidahmann/gate/pkg/types"
)

var opsIdentity = auth.Static{RoleValue: policy.RoleOps, ID: "user-ops"}

func fakeGate(t *testing.T, opts ...gatetest.Option) (*gatetest.Server, *httptest.Server) {
	t.Helper()
	store := gatetest.NewStore()
	gatetest.Seed(store)
	gate := gatetest.NewServer(store, opts...)
	srv := httptest.NewServer(gate)
	t.Cleanup(srv.Close)
	return gate, srv
}

func TestNotConfiguredDoesNoIO(t *testing.T) {
	for _, base := range []string{"", "   ", "not a url", "ftp//x"} {
		client := New(base, opsIdentity)
		_, err := client.ListProposals(context.Background(), policy.StageDocReview)
		require.Error(t, err, base)
		assert.True(t, IsNotConfigured(err), base)
		assert.Nil(t, client.FetchMetrics(context.Background(), "month"))
	}
}

func TestHeadersOnEveryCall(t *testing.T) {
	gate, srv := fakeGate(t)
	client := New(srv.URL+"/", auth.Static{RoleValue: policy.RoleRisk, ID: "user-risk"})
	ctx := context.Background()

	_, err := client.CheckHealth(ctx)
	require.NoError(t, err)
	_, err = client.ListProposals(ctx, policy.StageRiskReview)
	require.NoError(t, err)
	_, err = client.GetProposal(ctx, "P-1003")
	require.NoError(t, err)

	reqs := gate.Requests()
	require.Len(t, reqs, 3)
	for _, req := range reqs {
		assert.Equal(t, "RISK", req.Role, req.Path)
		assert.Equal(t, "user-risk", req.UserID, req.Path)
	}
	assert.Equal(t, "stage=RISK_REVIEW", reqs[1].Query)
}

func TestListProposalsShapes(t *testing.T) {
	for _, shape := range []gatetest.ListShape{gatetest.ShapeBare, gatetest.ShapeProposals, gatetest.ShapeItems} {
		t.Run(string(shape), func(t *testing.T) {
			_, srv := fakeGate(t, gatetest.WithListShape(shape))
			client := New(srv.URL, opsIdentity)

			list, err := client.ListProposals(context.Background(), policy.StageDocReview)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "P-1001", list[0].ProposalID)
			assert.Equal(t, "Maria Lopez", list[0].LeaderName)
			require.NotNil(t, list[0].TotalAmount)
			assert.Equal(t, 15000.0, *list[0].TotalAmount)
		})
	}
}

func TestListProposalsUnexpectedShapeIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":"nope"}`))
	}))
	defer srv.Close()

	list, err := New(srv.URL, opsIdentity).ListProposals(context.Background(), policy.StageDocReview)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestGetProposalNormalizesDetail(t *testing.T) {
	_, srv := fakeGate(t)
	client := New(srv.URL, opsIdentity)

	detail, err := client.GetProposal(context.Background(), "P-1001")
	require.NoError(t, err)
	assert.Equal(t, "DOC_REVIEW", detail.Stage)
	assert.Contains(t, detail.Payload, "members")
	assert.NotNil(t, detail.Decisions)

	_, err = client.GetProposal(context.Background(), "missing")
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)

	_, err = client.GetProposal(context.Background(), " ")
	require.ErrorIs(t, err, ErrMissingProposalID)
}

func TestErrorMapping(t *testing.T) {
	gate, srv := fakeGate(t)
	client := New(srv.URL, opsIdentity)
	ctx := context.Background()

	gate.FailNext(http.StatusInternalServerError)
	_, err := client.ListProposals(ctx, policy.StageDocReview)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Contains(t, err.Error(), "500")
	assert.True(t, IsRetryable(err))
	assert.False(t, IsStageConflict(err))

	gate.FailNext(http.StatusConflict)
	_, err = client.SubmitDecision(ctx, "P-1001", types.DecisionPayload{Stage: "DOC_REVIEW", Decision: "APPROVE", UserID: "user-ops"})
	assert.True(t, IsStageConflict(err))
	assert.False(t, IsRetryable(err))
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := New(base, opsIdentity).CheckHealth(context.Background())
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.True(t, IsRetryable(err))
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := New(srv.URL, opsIdentity, WithTimeout(50*time.Millisecond))
	_, err := client.CheckHealth(context.Background())
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 50*time.Millisecond, timeoutErr.Timeout)
}

func TestCallerCancellationIsNotTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	_, err := New(srv.URL, opsIdentity).CheckHealth(ctx)
	require.ErrorIs(t, err, context.Canceled)
	var timeoutErr *TimeoutError
	assert.False(t, errors.As(err, &timeoutErr))
}

func TestDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL, opsIdentity).CheckHealth(context.Background())
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestSubmitDecisionRoundTrip(t *testing.T) {
	gate, srv := fakeGate(t, gatetest.WithNow(func() time.Time {
		return time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	}))
	client := New(srv.URL, opsIdentity)
	ctx := context.Background()

	payload := types.DecisionPayload{
		Stage:    "DOC_REVIEW",
		Decision: "REJECT",
		Reasons:  []string{"Incomplete documents"},
		Comment:  "Missing payslip",
		UserID:   "user-ops",
	}
	res, err := client.SubmitDecision(ctx, "P-1001", payload)
	require.NoError(t, err)
	assert.True(t, res.Success)

	reqs := gate.Requests()
	var sent map[string]any
	require.NoError(t, json.Unmarshal(reqs[len(reqs)-1].Body, &sent))
	assert.Equal(t, map[string]any{
		"stage":    "DOC_REVIEW",
		"decision": "REJECT",
		"reasons":  []any{"Incomplete documents"},
		"comment":  "Missing payslip",
		"userId":   "user-ops",
	}, sent)

	detail, err := client.GetProposal(ctx, "P-1001")
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", detail.Stage)
	require.Len(t, detail.Decisions, 1)
	assert.Equal(t, types.ProposalDecision{
		Stage:     "DOC_REVIEW",
		Decision:  "REJECT",
		Reasons:   []string{"Incomplete documents"},
		Comment:   "Missing payslip",
		UserID:    "user-ops",
		DecidedAt: "2024-03-02T09:00:00Z",
	}, detail.Decisions[0])
}

func TestSubmitDecisionAfterStageMovedConflicts(t *testing.T) {
	gate, srv := fakeGate(t)
	require.NoError(t, gate.Store.SetStage("P-1002", policy.StageRiskReview))
	client := New(srv.URL, opsIdentity)

	_, err := client.SubmitDecision(context.Background(), "P-1002", types.DecisionPayload{
		Stage:    "DOC_REVIEW",
		Decision: "APPROVE",
		UserID:   "user-ops",
	})
	require.Error(t, err)
	assert.True(t, IsStageConflict(err))

	p, ok := gate.Store.Get("P-1002")
	require.True(t, ok)
	assert.Empty(t, p.Decisions)
}

func TestSubmitDecisionSendsEmptyReasons(t *testing.T) {
	gate, srv := fakeGate(t)
	client := New(srv.URL, opsIdentity)

	_, err := client.SubmitDecision(context.Background(), "P-1002", types.DecisionPayload{
		Stage:    "DOC_REVIEW",
		Decision: "APPROVE",
		UserID:   "user-ops",
	})
	require.NoError(t, err)

	reqs := gate.Requests()
	assert.JSONEq(t, `{"stage":"DOC_REVIEW","decision":"APPROVE","reasons":[],"comment":"","userId":"user-ops"}`, string(reqs[len(reqs)-1].Body))
}

func TestFetchMetricsIsBestEffort(t *testing.T) {
	_, srv := fakeGate(t)
	assert.Nil(t, New(srv.URL, opsIdentity).FetchMetrics(context.Background(), ""))

	count := 42.0
	gate, srv := fakeGate(t, gatetest.WithMetrics(types.Metrics{ApprovedCount: &count}))
	m := New(srv.URL, opsIdentity).FetchMetrics(context.Background(), "")
	require.NotNil(t, m)
	require.NotNil(t, m.ApprovedCount)
	assert.Equal(t, 42.0, *m.ApprovedCount)
	assert.Nil(t, m.PortfolioSize)

	reqs := gate.Requests()
	assert.Equal(t, "period=month", reqs[len(reqs)-1].Query)
}
