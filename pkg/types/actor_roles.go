package types

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// ActorRoleAdmin represents administrators allowed to moderate profiles.
	ActorRoleAdmin = "admin"
	// ActorRoleRecruiter represents recruiter accounts; read-only surfaces.
	ActorRoleRecruiter = "recruiter"
	// ActorRoleCandidate represents candidate accounts (signup flows).
	ActorRoleCandidate = "candidate"
	// ActorRoleAnonymous represents unauthenticated callers.
	ActorRoleAnonymous = "anonymous"
)

// ActorRef identifies who or what is initiating an operation.
type ActorRef struct {
	ID   uuid.UUID
	Type string
}

// RoleName normalizes the actor role for comparisons.
func (a ActorRef) RoleName() string {
	return normalizeRole(a.Type)
}

// IsRole reports whether the actor matches the provided role.
func (a ActorRef) IsRole(role string) bool {
	role = normalizeRole(role)
	if role == "" {
		return a.RoleName() == ""
	}
	return a.RoleName() == role
}

// IsAdmin reports whether the actor holds the administrator capability.
func (a ActorRef) IsAdmin() bool {
	return a.IsRole(ActorRoleAdmin)
}

// IsCandidate reports whether the actor is a candidate account.
func (a ActorRef) IsCandidate() bool {
	return a.IsRole(ActorRoleCandidate)
}

// IsAnonymous reports whether the actor is unauthenticated.
func (a ActorRef) IsAnonymous() bool {
	return a.Type == "" || a.IsRole(ActorRoleAnonymous)
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
