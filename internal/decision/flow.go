package decision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/davidahmann/gate/internal/policy"
	"github.com/davidahmann/gate/pkg/types"
)

type State string

const (
	StateIdle                 State = "idle"
	StateDrafting             State = "drafting"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateSubmitting           State = "submitting"
	StateResolved             State = "resolved"
	StateConflict             State = "conflict"
	StateFailed               State = "failed"
)

var (
	ErrNotPermitted      = errors.New("role may not decide at this stage")
	ErrInFlight          = errors.New("a decision is already being submitted")
	ErrFinished          = errors.New("decision flow already finished")
	ErrInvalidTransition = errors.New("invalid decision flow transition")
	ErrRejected          = errors.New("server did not accept the decision")
)

// Submitter is the one mutating API call of the flow.
type Submitter interface {
	SubmitDecision(ctx context.Context, proposalID string, payload types.DecisionPayload) (*types.DecisionResult, error)
}

// Hooks run after a submission settles. OnResolved should drop cached
// proposal lists; OnConflict should refetch the proposal.
type Hooks struct {
	OnResolved func(proposalID string)
	OnConflict func(proposalID string)
}

type Input struct {
	ProposalID string
	Stage      policy.Stage
	Role       policy.Role
	UserID     string
	// Reasons are the suggestions offered; empty means the built-in list
	// for Role.
	Reasons    []string
	Submitter  Submitter
	Hooks      Hooks
	Logger     *zap.Logger
}

// Flow is the decision form of one proposal. It is safe for concurrent use;
// at most one submission is in flight.
type Flow struct {
	proposalID string
	stage      policy.Stage
	role       policy.Role
	userID     string
	reasons    []string
	submitter  Submitter
	hooks      Hooks
	logger     *zap.Logger

	mu        sync.Mutex
	state     State
	draft     Draft
	touched   map[Field]bool
	attempted bool
	lastErr   error
}

func NewFlow(in Input) (*Flow, error) {
	if strings.TrimSpace(in.ProposalID) == "" {
		return nil, errors.New("missing proposal id")
	}
	if in.Submitter == nil {
		return nil, errors.New("missing submitter")
	}
	if !policy.CanDecide(in.Role, in.Stage) {
		return nil, fmt.Errorf("%w: %s", ErrNotPermitted, policy.DenyReason(in.Role, in.Stage))
	}
	logger := in.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reasons := append([]string(nil), in.Reasons...)
	if len(reasons) == 0 {
		reasons = policy.RejectionReasons(in.Role)
	}
	return &Flow{
		proposalID: in.ProposalID,
		stage:      in.Stage,
		role:       in.Role,
		userID:     in.UserID,
		reasons:    reasons,
		submitter:  in.Submitter,
		hooks:      in.Hooks,
		logger:     logger,
		state:      StateIdle,
		touched:    map[Field]bool{},
	}, nil
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Busy reports whether decision controls must be disabled.
func (f *Flow) Busy() bool {
	return f.State() == StateSubmitting
}

func (f *Flow) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Draft{
		Decision: f.draft.Decision,
		Reasons:  append([]string(nil), f.draft.Reasons...),
		Comment:  f.draft.Comment,
	}
}

// Err is the error of the last failed submission.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Reasons lists the suggested rejection reasons for the flow's role.
func (f *Flow) Reasons() []string {
	return append([]string(nil), f.reasons...)
}

func (f *Flow) Choose(kind policy.DecisionKind) error {
	if kind != policy.DecisionApprove && kind != policy.DecisionReject {
		return fmt.Errorf("unknown decision %q", string(kind))
	}
	return f.edit(func() {
		f.draft.Decision = kind
		f.touched[FieldDecision] = true
	}, true)
}

func (f *Flow) SetComment(comment string) error {
	return f.edit(func() {
		f.draft.Comment = comment
	}, false)
}

func (f *Flow) ToggleReason(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil
	}
	return f.edit(func() {
		f.draft.Reasons = toggle(f.draft.Reasons, reason)
		f.touched[FieldReasons] = true
	}, false)
}

// Touch marks field as interacted with so its errors become visible.
func (f *Flow) Touch(field Field) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched[field] = true
}

// edit applies fn in any editable state. Editing a draft that awaits
// confirmation or failed sends it back to Drafting.
func (f *Flow) edit(fn func(), startsDraft bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateSubmitting:
		return ErrInFlight
	case StateResolved, StateConflict:
		return ErrFinished
	}

	fn()
	switch {
	case f.state == StateIdle && startsDraft:
		f.state = StateDrafting
	case f.state == StateAwaitingConfirmation, f.state == StateFailed:
		f.state = StateDrafting
	}
	return nil
}

func (f *Flow) Valid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(Validate(f.draft)) == 0
}

// Errors returns every current field error.
func (f *Flow) Errors() FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Validate(f.draft)
}

// VisibleErrors returns errors for touched fields, or all of them once a
// confirmation was attempted.
func (f *Flow) VisibleErrors() FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()

	errs := Validate(f.draft)
	if f.attempted {
		return errs
	}
	visible := FieldErrors{}
	for field, msg := range errs {
		if f.touched[field] {
			visible[field] = msg
		}
	}
	return visible
}

// RequestConfirmation moves a valid draft to AwaitingConfirmation. An invalid
// draft stays where it is and the field errors come back as *ValidationError.
func (f *Flow) RequestConfirmation() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateSubmitting:
		return ErrInFlight
	case StateResolved, StateConflict:
		return ErrFinished
	case StateAwaitingConfirmation:
		return nil
	}

	f.attempted = true
	if errs := Validate(f.draft); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	f.state = StateAwaitingConfirmation
	return nil
}

// Cancel closes the confirmation step and keeps the draft.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateAwaitingConfirmation {
		return fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, f.state)
	}
	f.state = StateDrafting
	return nil
}

// Payload is what Confirm will send.
func (f *Flow) Payload() types.DecisionPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return BuildPayload(f.stage, f.draft, f.userID)
}

// Confirm submits the draft exactly once. A failed submission keeps the
// draft and may be confirmed again; a conflict or success ends the flow.
func (f *Flow) Confirm(ctx context.Context) error {
	f.mu.Lock()
	switch f.state {
	case StateAwaitingConfirmation, StateFailed:
	case StateSubmitting:
		f.mu.Unlock()
		return ErrInFlight
	case StateResolved, StateConflict:
		f.mu.Unlock()
		return ErrFinished
	default:
		state := f.state
		f.mu.Unlock()
		return fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, state)
	}
	if errs := Validate(f.draft); len(errs) > 0 {
		f.mu.Unlock()
		return &ValidationError{Fields: errs}
	}
	payload := BuildPayload(f.stage, f.draft, f.userID)
	f.state = StateSubmitting
	f.lastErr = nil
	f.mu.Unlock()

	f.logger.Info("submitting decision",
		zap.String("proposal_id", f.proposalID),
		zap.String("stage", payload.Stage),
		zap.String("decision", payload.Decision),
		zap.Int("reasons", len(payload.Reasons)))

	result, err := f.submitter.SubmitDecision(ctx, f.proposalID, payload)
	if err == nil && (result == nil || !result.Success) {
		err = ErrRejected
	}

	f.mu.Lock()
	var hook func(string)
	switch {
	case err == nil:
		f.state = StateResolved
		hook = f.hooks.OnResolved
	case isStageConflict(err):
		f.state = StateConflict
		f.lastErr = err
		hook = f.hooks.OnConflict
	default:
		f.state = StateFailed
		f.lastErr = err
	}
	state := f.state
	f.mu.Unlock()

	f.logger.Info("decision settled",
		zap.String("proposal_id", f.proposalID),
		zap.String("state", string(state)),
		zap.Error(err))

	if hook != nil {
		hook(f.proposalID)
	}
	return err
}

type stageConflict interface {
	StageConflict() bool
}

func isStageConflict(err error) bool {
	var conflict stageConflict
	return errors.As(err, &conflict) && conflict.StageConflict()
}
