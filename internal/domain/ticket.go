package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "open"
	TicketStatusClaimed TicketStatus = "claimed"
	TicketStatusClosed  TicketStatus = "closed"
)

// HistoryAction enumerates recorded lifecycle actions.
type HistoryAction string

const (
	ActionCreated       HistoryAction = "created"
	ActionClaimed       HistoryAction = "claimed"
	ActionUnclaimed     HistoryAction = "unclaimed"
	ActionTransferred   HistoryAction = "transferred"
	ActionClosed        HistoryAction = "closed"
	ActionReopened      HistoryAction = "reopened"
	ActionMemberAdded   HistoryAction = "member_added"
	ActionMemberRemoved HistoryAction = "member_removed"
	ActionRenamed       HistoryAction = "renamed"
)

// FormResponse is one answered category form field.
type FormResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ClaimRecord identifies the support member handling a ticket.
// Present iff Status == claimed.
type ClaimRecord struct {
	MemberID  string    `json:"member_id"`
	Username  string    `json:"username"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// Participant is a member explicitly added to a ticket beyond the
// requester and support roles.
type Participant struct {
	MemberID string    `json:"member_id"`
	Username string    `json:"username"`
	AddedBy  string    `json:"added_by"`
	AddedAt  time.Time `json:"added_at"`
}

// HistoryEntry is an immutable audit record of one lifecycle action.
type HistoryEntry struct {
	Action    HistoryAction `json:"action"`
	MemberID  string        `json:"member_id"`
	Username  string        `json:"username"`
	Timestamp time.Time     `json:"timestamp"`
	Details   string        `json:"details,omitempty"`
}

// Closure records who closed a ticket.
type Closure struct {
	MemberID string `json:"member_id"`
	Username string `json:"username"`
}

// Ticket is the aggregate for support requests. (CommunityID, Number) is
// unique per community; ChannelID is unique system-wide.
type Ticket struct {
	ID            string
	CommunityID   string
	Number        int
	ChannelID     string
	RequesterID   string
	RequesterName string
	CategoryID    string
	CategoryName  string
	FormResponses []FormResponse
	Status        TicketStatus
	Claim         *ClaimRecord
	Participants  []Participant
	History       []HistoryEntry
	ClosedBy      *Closure
	ClosedAt      *time.Time
	TranscriptRef *string
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsClaimed reports whether the ticket currently has a claimant.
func (t *Ticket) IsClaimed() bool {
	return t.Status == TicketStatusClaimed && t.Claim != nil
}

// HasParticipant reports whether the member was explicitly added.
func (t *Ticket) HasParticipant(memberID string) bool {
	for _, p := range t.Participants {
		if p.MemberID == memberID {
			return true
		}
	}
	return false
}

// AppendHistory records a lifecycle action. History is append-only.
func (t *Ticket) AppendHistory(action HistoryAction, memberID, username, details string) {
	t.History = append(t.History, HistoryEntry{
		Action:    action,
		MemberID:  memberID,
		Username:  username,
		Timestamp: time.Now(),
		Details:   details,
	})
}
