// Package auth carries the reviewer identity headers. Gate identities are
// client-side preferences; nothing here verifies them.
package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/davidahmann/gate/internal/policy"
)

const (
	HeaderRole   = "x-gate-role"
	HeaderUserID = "x-gate-user-id"
)

var (
	ErrMissingRole   = errors.New("missing x-gate-role header")
	ErrInvalidRole   = errors.New("invalid x-gate-role header")
	ErrMissingUserID = errors.New("missing x-gate-user-id header")
)

// Identity supplies the header values for every outbound request.
// *session.Session implements it.
type Identity interface {
	Role() policy.Role
	UserID() (string, error)
}

type Claims struct {
	Role   policy.Role
	UserID string
}

// Static is a fixed Identity.
type Static struct {
	RoleValue policy.Role
	ID        string
}

func (s Static) Role() policy.Role {
	return s.RoleValue
}

func (s Static) UserID() (string, error) {
	return s.ID, nil
}

// Apply stamps the identity headers on req.
func Apply(req *http.Request, id Identity) error {
	if id == nil {
		return nil
	}
	userID, err := id.UserID()
	if err != nil {
		return err
	}
	req.Header.Set(HeaderRole, string(id.Role()))
	req.Header.Set(HeaderUserID, userID)
	return nil
}

// FromRequest reads the identity headers from an inbound request.
func FromRequest(r *http.Request) (Claims, error) {
	rawRole := strings.TrimSpace(r.Header.Get(HeaderRole))
	if rawRole == "" {
		return Claims{}, ErrMissingRole
	}
	role := policy.Role(rawRole)
	if role != policy.RoleOps && role != policy.RoleRisk {
		return Claims{}, ErrInvalidRole
	}
	userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if userID == "" {
		return Claims{}, ErrMissingUserID
	}
	return Claims{Role: role, UserID: userID}, nil
}
