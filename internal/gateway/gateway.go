// Package gateway declares the external collaborator contracts the
// engine depends on. Concrete adapters live with the chat-platform
// gateway process; this service ships logging stubs for development.
package gateway

import (
	"context"

	"github.com/spec-kit/community-tickets/internal/domain"
)

// GrantTarget distinguishes who a visibility grant applies to.
type GrantTarget string

const (
	GrantEveryone GrantTarget = "everyone"
	GrantRole     GrantTarget = "role"
	GrantMember   GrantTarget = "member"
)

// VisibilityGrant is one channel permission entry. Allow=false denies
// visibility (used for the everyone baseline).
type VisibilityGrant struct {
	Target GrantTarget `json:"target"`
	ID     string      `json:"id,omitempty"`
	Allow  bool        `json:"allow"`
}

// RoutingProvider creates and manages the channels backing tickets.
// All calls are fallible; failures after a committed state transition
// are logged and non-fatal.
type RoutingProvider interface {
	CreateChannel(ctx context.Context, communityID, name string, parentHint *string, grants []VisibilityGrant) (string, error)
	RenameChannel(ctx context.Context, channelID, name string) error
	DeleteChannel(ctx context.Context, channelID string) error
	GrantAccess(ctx context.Context, channelID, memberID string) error
	RevokeAccess(ctx context.Context, channelID, memberID string) error
}

// NotificationSink delivers best-effort user-facing messages. Failure
// never rolls back a committed transition.
type NotificationSink interface {
	Post(ctx context.Context, channelID, content string) error
	DM(ctx context.Context, memberID, content string) error
}

// AuditSink records lifecycle actions to the community's log channel or
// an external audit trail. Best-effort.
type AuditSink interface {
	Record(ctx context.Context, communityID string, action string, ticket *domain.Ticket, actor domain.Actor, details string) error
}

// TranscriptRequester renders and delivers a ticket transcript,
// returning an opaque reference to the stored artifact.
type TranscriptRequester interface {
	Request(ctx context.Context, ticket *domain.Ticket) (string, error)
}
