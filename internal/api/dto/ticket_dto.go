package dto

import (
	"time"

	"github.com/spec-kit/community-tickets/internal/domain"
)

// ActorPayload is an identity snapshot supplied by the gateway for
// operation targets (e.g. transfer recipients).
type ActorPayload struct {
	MemberID       string   `json:"member_id"`
	Username       string   `json:"username"`
	Roles          []string `json:"roles"`
	Administrator  bool     `json:"administrator"`
	ManageChannels bool     `json:"manage_channels"`
}

// ToActor converts the payload to a domain actor.
func (p ActorPayload) ToActor() domain.Actor {
	return domain.Actor{
		ID:             p.MemberID,
		Username:       p.Username,
		Roles:          p.Roles,
		Administrator:  p.Administrator,
		ManageChannels: p.ManageChannels,
	}
}

// OpenTicketRequest creates a ticket.
type OpenTicketRequest struct {
	CategoryID    string                `json:"category_id"`
	FormResponses []domain.FormResponse `json:"form_responses"`
}

// CloseTicketRequest closes a ticket.
type CloseTicketRequest struct {
	Reason string `json:"reason"`
}

// TransferTicketRequest moves a claim.
type TransferTicketRequest struct {
	Target ActorPayload `json:"target"`
}

// ParticipantRequest adds or removes a member.
type ParticipantRequest struct {
	MemberID string `json:"member_id"`
	Username string `json:"username"`
}

// RenameTicketRequest renames the backing channel.
type RenameTicketRequest struct {
	Name string `json:"name"`
}

// ClaimResponse mirrors a claim record.
type ClaimResponse struct {
	MemberID  string    `json:"member_id"`
	Username  string    `json:"username"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// TicketResponse is the API view of a ticket.
type TicketResponse struct {
	ID            string                `json:"id"`
	CommunityID   string                `json:"community_id"`
	Number        int                   `json:"number"`
	ChannelID     string                `json:"channel_id"`
	RequesterID   string                `json:"requester_id"`
	RequesterName string                `json:"requester_name"`
	CategoryID    string                `json:"category_id"`
	CategoryName  string                `json:"category_name"`
	FormResponses []domain.FormResponse `json:"form_responses,omitempty"`
	Status        domain.TicketStatus   `json:"status"`
	Claim         *ClaimResponse        `json:"claim,omitempty"`
	Participants  []domain.Participant  `json:"participants,omitempty"`
	History       []domain.HistoryEntry `json:"history,omitempty"`
	ClosedBy      *domain.Closure       `json:"closed_by,omitempty"`
	ClosedAt      *time.Time            `json:"closed_at,omitempty"`
	TranscriptRef *string               `json:"transcript_ref,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// TicketFromDomain maps a domain ticket to its API view.
func TicketFromDomain(ticket *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:            ticket.ID,
		CommunityID:   ticket.CommunityID,
		Number:        ticket.Number,
		ChannelID:     ticket.ChannelID,
		RequesterID:   ticket.RequesterID,
		RequesterName: ticket.RequesterName,
		CategoryID:    ticket.CategoryID,
		CategoryName:  ticket.CategoryName,
		FormResponses: ticket.FormResponses,
		Status:        ticket.Status,
		Participants:  ticket.Participants,
		History:       ticket.History,
		ClosedBy:      ticket.ClosedBy,
		ClosedAt:      ticket.ClosedAt,
		TranscriptRef: ticket.TranscriptRef,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
	}
	if ticket.Claim != nil {
		resp.Claim = &ClaimResponse{
			MemberID:  ticket.Claim.MemberID,
			Username:  ticket.Claim.Username,
			ClaimedAt: ticket.Claim.ClaimedAt,
		}
	}
	return resp
}

// TicketsFromDomain maps a slice of tickets.
func TicketsFromDomain(tickets []domain.Ticket) []TicketResponse {
	result := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		result = append(result, TicketFromDomain(&tickets[i]))
	}
	return result
}
