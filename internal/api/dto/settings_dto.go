package dto

import (
	"time"

	"github.com/spec-kit/community-tickets/internal/domain"
	"github.com/spec-kit/community-tickets/internal/service"
)

// UpdateSettingsRequest carries community configuration changes.
type UpdateSettingsRequest struct {
	MaxTicketsPerUser    int      `json:"max_tickets_per_user"`
	LogChannelID         *string  `json:"log_channel_id"`
	TranscriptChannelID  *string  `json:"transcript_channel_id"`
	AdminRoles           []string `json:"admin_roles"`
	SupportRoles         []string `json:"support_roles"`
	TranscriptsEnabled   bool     `json:"transcripts_enabled"`
	DMTranscriptsEnabled bool     `json:"dm_transcripts_enabled"`
	AutoTagEnabled       bool     `json:"auto_tag_enabled"`
	ClaimEnabled         bool     `json:"claim_enabled"`
}

// ToInput converts the request to a service input.
func (r UpdateSettingsRequest) ToInput() service.SettingsInput {
	return service.SettingsInput{
		MaxTicketsPerUser:    r.MaxTicketsPerUser,
		LogChannelID:         r.LogChannelID,
		TranscriptChannelID:  r.TranscriptChannelID,
		AdminRoles:           r.AdminRoles,
		SupportRoles:         r.SupportRoles,
		TranscriptsEnabled:   r.TranscriptsEnabled,
		DMTranscriptsEnabled: r.DMTranscriptsEnabled,
		AutoTagEnabled:       r.AutoTagEnabled,
		ClaimEnabled:         r.ClaimEnabled,
	}
}

// SettingsResponse is the API view of community settings.
type SettingsResponse struct {
	CommunityID          string    `json:"community_id"`
	TicketCounter        int       `json:"ticket_counter"`
	MaxTicketsPerUser    int       `json:"max_tickets_per_user"`
	LogChannelID         *string   `json:"log_channel_id,omitempty"`
	TranscriptChannelID  *string   `json:"transcript_channel_id,omitempty"`
	AdminRoles           []string  `json:"admin_roles"`
	SupportRoles         []string  `json:"support_roles"`
	TranscriptsEnabled   bool      `json:"transcripts_enabled"`
	DMTranscriptsEnabled bool      `json:"dm_transcripts_enabled"`
	AutoTagEnabled       bool      `json:"auto_tag_enabled"`
	ClaimEnabled         bool      `json:"claim_enabled"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// SettingsFromDomain maps settings to their API view.
func SettingsFromDomain(settings *domain.CommunitySettings) SettingsResponse {
	return SettingsResponse{
		CommunityID:          settings.CommunityID,
		TicketCounter:        settings.TicketCounter,
		MaxTicketsPerUser:    settings.MaxTicketsPerUser,
		LogChannelID:         settings.LogChannelID,
		TranscriptChannelID:  settings.TranscriptChannelID,
		AdminRoles:           settings.AdminRoles,
		SupportRoles:         settings.SupportRoles,
		TranscriptsEnabled:   settings.TranscriptsEnabled,
		DMTranscriptsEnabled: settings.DMTranscriptsEnabled,
		AutoTagEnabled:       settings.AutoTagEnabled,
		ClaimEnabled:         settings.ClaimEnabled,
		UpdatedAt:            settings.UpdatedAt,
	}
}
