// Package session persists the reviewer's role and a stable reviewer id.
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davidahmann/gate/internal/policy"
)

const (
	RoleKey   = "gateRole"
	UserIDKey = "gateUserId"
)

// Session is the reviewer context handed to the client and the decision
// flow. It has no package-level state; callers construct one per storage.
type Session struct {
	storage Storage
	newID   func() string
	logger  *zap.Logger

	mu sync.Mutex
}

type Option func(*Session)

// WithIDGenerator replaces the uuid generator, mostly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Session) {
		s.newID = fn
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(storage Storage, opts ...Option) *Session {
	s := &Session{
		storage: storage,
		newID:   func() string { return uuid.NewString() },
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Role returns the stored role. Missing, invalid or unreadable values all
// read as OPS.
func (s *Session) Role() policy.Role {
	raw, ok, err := s.storage.Get(RoleKey)
	if err != nil || !ok {
		return policy.RoleOps
	}
	switch policy.Role(raw) {
	case policy.RoleOps, policy.RoleRisk:
		return policy.Role(raw)
	default:
		return policy.RoleOps
	}
}

func (s *Session) SetRole(role policy.Role) error {
	if role != policy.RoleOps && role != policy.RoleRisk {
		return fmt.Errorf("unknown role %q", string(role))
	}
	return s.storage.Set(RoleKey, string(role))
}

// DefaultStage is the inbox stage for the current role.
func (s *Session) DefaultStage() policy.Stage {
	return policy.DefaultStageFor(s.Role())
}

// UserID returns the persisted reviewer id, generating and storing one on
// first use. An unreadable session reads as empty, like Role, so a fresh id
// replaces it.
func (s *Session) UserID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok, err := s.storage.Get(UserIDKey)
	if err != nil {
		s.logger.Warn("session unreadable, issuing a new user id", zap.Error(err))
	} else if ok && id != "" {
		return id, nil
	}

	id = s.newID()
	if err := s.storage.Set(UserIDKey, id); err != nil {
		return "", fmt.Errorf("persist user id: %w", err)
	}
	return id, nil
}
