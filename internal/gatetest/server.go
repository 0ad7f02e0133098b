package gatetest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/davidahmann/gate/internal/auth"
	"github.com/davidahmann/gate/internal/decision"
	"github.com/davidahmann/gate/internal/policy"
	"github.com/davidahmann/gate/pkg/types"
)

// ListShape picks how the list endpoint wraps its results. The real API has
// used all three.
type ListShape string

const (
	ShapeBare      ListShape = "bare"
	ShapeProposals ListShape = "proposals"
	ShapeItems     ListShape = "items"
)

// Request is a recorded inbound request.
type Request struct {
	Method string
	Path   string
	Query  string
	Role   string
	UserID string
	Body   []byte
}

type Server struct {
	Store *Store
	Now   func() time.Time

	router  chi.Router
	logger  *zap.Logger
	shape   ListShape
	metrics *types.Metrics
	before  func(proposalID string)

	mu       sync.Mutex
	requests []Request
	faults   []int
}

type Option func(*Server)

func WithListShape(shape ListShape) Option {
	return func(s *Server) { s.shape = shape }
}

// WithMetrics enables the metrics endpoint. Without it the endpoint is 404.
func WithMetrics(m types.Metrics) Option {
	return func(s *Server) { s.metrics = &m }
}

// WithBeforeDecision runs fn after a decision passes validation and before
// it is stored. Tests use it to move the proposal underneath a reviewer.
func WithBeforeDecision(fn func(proposalID string)) Option {
	return func(s *Server) { s.before = fn }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithNow(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.Now = now
		}
	}
}

func NewServer(store *Store, opts ...Option) *Server {
	if store == nil {
		store = NewStore()
	}
	s := &Server{
		Store:  store,
		Now:    func() time.Time { return time.Now().UTC() },
		logger: zap.NewNop(),
		shape:  ShapeBare,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Get("/api/health", s.health)
	r.Route("/api/gate", func(r chi.Router) {
		r.Use(identityMiddleware)
		r.Get("/proposals", s.listProposals)
		r.Get("/proposals/{id}", s.getProposal)
		r.Post("/proposals/{id}/decision", s.submitDecision)
		r.Get("/metrics", s.getMetrics)
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// FailNext makes the next len(statuses) requests answer with those statuses.
func (s *Server) FailNext(statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, statuses...)
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo counts recorded requests with the given method and path.
func (s *Server) RequestsTo(method, path string) int {
	n := 0
	for _, req := range s.Requests() {
		if req.Method == method && req.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = readAll(r)
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Role:   r.Header.Get(auth.HeaderRole),
			UserID: r.Header.Get(auth.HeaderUserID),
			Body:   body,
		})
		fault := 0
		if len(s.faults) > 0 {
			fault = s.faults[0]
			s.faults = s.faults[1:]
		}
		s.mu.Unlock()

		if fault != 0 {
			writeJSON(w, fault, map[string]string{"error": http.StatusText(fault)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type claimsKey struct{}

func identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := auth.FromRequest(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

func claimsFrom(r *http.Request) auth.Claims {
	claims, _ := r.Context().Value(claimsKey{}).(auth.Claims)
	return claims
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, types.HealthResponse{Status: "ok", Service: "gate-api"})
}

func (s *Server) listProposals(w http.ResponseWriter, r *http.Request) {
	stage := policy.Stage(strings.TrimSpace(r.URL.Query().Get("stage")))
	summaries := []types.ProposalSummary{}
	for _, p := range s.Store.List(stage) {
		summaries = append(summaries, p.Summary)
	}

	switch s.shape {
	case ShapeProposals:
		writeJSON(w, http.StatusOK, map[string]any{"proposals": summaries})
	case ShapeItems:
		writeJSON(w, http.StatusOK, map[string]any{"items": summaries, "total": len(summaries)})
	default:
		writeJSON(w, http.StatusOK, summaries)
	}
}

func (s *Server) getProposal(w http.ResponseWriter, r *http.Request) {
	p, ok := s.Store.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": ErrNotFound.Error()})
		return
	}
	writeJSON(w, http.StatusOK, detailBody(p))
}

func (s *Server) submitDecision(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	claims := claimsFrom(r)

	var payload types.DecisionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if payload.UserID != claims.UserID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "userId does not match identity"})
		return
	}
	stage := policy.Stage(payload.Stage)
	if !policy.CanDecide(claims.Role, stage) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": policy.DenyReason(claims.Role, stage)})
		return
	}
	draft := decision.Draft{
		Decision: policy.DecisionKind(payload.Decision),
		Reasons:  payload.Reasons,
		Comment:  payload.Comment,
	}
	if errs := decision.Validate(draft); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid decision", "fields": errs})
		return
	}

	if s.before != nil {
		s.before(id)
	}
	next, err := s.Store.AppendDecision(id, payload, s.Now().UTC().Format(time.RFC3339))
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, ErrStageMismatch):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error(), "currentStage": string(next)})
		return
	case err != nil:
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	s.logger.Info("decision recorded",
		zap.String("proposal_id", id),
		zap.String("decision", payload.Decision),
		zap.String("stage", string(next)))
	writeJSON(w, http.StatusOK, types.DecisionResult{Success: true})
}

func (s *Server) getMetrics(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "metrics not available"})
		return
	}
	writeJSON(w, http.StatusOK, s.metrics)
}

func detailBody(p Proposal) map[string]any {
	body := map[string]any{
		"proposalId": p.Summary.ProposalID,
		"stage":      p.Summary.Stage,
		"payload":    p.Payload,
		"decisions":  p.Decisions,
	}
	if p.Summary.GroupID != "" {
		body["groupId"] = p.Summary.GroupID
	}
	if p.Summary.SubmittedAt != "" {
		body["submittedAt"] = p.Summary.SubmittedAt
	}
	if p.Payload == nil {
		body["payload"] = map[string]any{}
	}
	if p.Decisions == nil {
		body["decisions"] = []types.ProposalDecision{}
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
