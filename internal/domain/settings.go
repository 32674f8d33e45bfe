package domain

import "time"

// CommunitySettings holds per-community ticket configuration. Created
// lazily on first access; the sequence counter is mutated only through
// the atomic allocator path.
type CommunitySettings struct {
	CommunityID          string
	TicketCounter        int
	MaxTicketsPerUser    int
	LogChannelID         *string
	TranscriptChannelID  *string
	AdminRoles           []string
	SupportRoles         []string
	TranscriptsEnabled   bool
	DMTranscriptsEnabled bool
	AutoTagEnabled       bool
	ClaimEnabled         bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// DefaultSettings returns the settings a community starts with.
func DefaultSettings(communityID string) *CommunitySettings {
	return &CommunitySettings{
		CommunityID:          communityID,
		TicketCounter:        0,
		MaxTicketsPerUser:    3,
		TranscriptsEnabled:   true,
		DMTranscriptsEnabled: true,
		AutoTagEnabled:       true,
		ClaimEnabled:         true,
	}
}
