package events

import (
	"time"

	"github.com/spec-kit/community-tickets/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketOpened       EventType = "ticket_opened"
	EventTicketClaimed      EventType = "ticket_claimed"
	EventTicketUnclaimed    EventType = "ticket_unclaimed"
	EventTicketTransferred  EventType = "ticket_transferred"
	EventTicketClosed       EventType = "ticket_closed"
	EventTicketRenamed      EventType = "ticket_renamed"
	EventParticipantAdded   EventType = "participant_added"
	EventParticipantRemoved EventType = "participant_removed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	MemberID string `json:"member_id"`
	Username string `json:"username"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	CommunityID string      `json:"community_id"`
	TicketID    string      `json:"ticket_id"`
	ChannelID   string      `json:"channel_id"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// TicketOpenedPayload payload.
type TicketOpenedPayload struct {
	Number       int    `json:"number"`
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	RequesterID  string `json:"requester_id"`
}

// TicketClaimedPayload payload.
type TicketClaimedPayload struct {
	Number     int    `json:"number"`
	ClaimantID string `json:"claimant_id"`
}

// TicketUnclaimedPayload payload.
type TicketUnclaimedPayload struct {
	Number           int    `json:"number"`
	PreviousClaimant string `json:"previous_claimant"`
}

// TicketTransferredPayload payload.
type TicketTransferredPayload struct {
	Number           int     `json:"number"`
	PreviousClaimant *string `json:"previous_claimant,omitempty"`
	NewClaimant      string  `json:"new_claimant"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	Number      int    `json:"number"`
	RequesterID string `json:"requester_id"`
	Reason      string `json:"reason,omitempty"`
}

// TicketRenamedPayload payload.
type TicketRenamedPayload struct {
	Number  int    `json:"number"`
	NewName string `json:"new_name"`
}

// ParticipantChangedPayload payload for add/remove.
type ParticipantChangedPayload struct {
	Number   int    `json:"number"`
	MemberID string `json:"member_id"`
}

// ActorOf converts a domain actor to event metadata.
func ActorOf(actor domain.Actor) Actor {
	return Actor{MemberID: actor.ID, Username: actor.Username}
}
