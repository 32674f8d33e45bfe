package service

import (
	"context"

	"github.com/spec-kit/community-tickets/internal/auth"
	"github.com/spec-kit/community-tickets/internal/domain"
	"github.com/spec-kit/community-tickets/internal/repository"
	apperrors "github.com/spec-kit/community-tickets/pkg/util"
)

// SettingsService manages community-level configuration.
type SettingsService struct {
	settings repository.SettingsRepository
}

// NewSettingsService constructs the service.
func NewSettingsService(settings repository.SettingsRepository) *SettingsService {
	return &SettingsService{settings: settings}
}

// SettingsInput describes updatable configuration. The sequence counter
// is deliberately absent; it only moves through the allocator.
type SettingsInput struct {
	MaxTicketsPerUser    int
	LogChannelID         *string
	TranscriptChannelID  *string
	AdminRoles           []string
	SupportRoles         []string
	TranscriptsEnabled   bool
	DMTranscriptsEnabled bool
	AutoTagEnabled       bool
	ClaimEnabled         bool
}

// Get returns the community's settings, creating defaults on first use.
func (s *SettingsService) Get(ctx context.Context, communityID string) (*domain.CommunitySettings, error) {
	settings, err := s.settings.GetOrCreate(ctx, communityID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return settings, nil
}

// Update applies configuration changes. Admin-gated.
func (s *SettingsService) Update(ctx context.Context, communityID string, actor domain.Actor, input SettingsInput) (*domain.CommunitySettings, error) {
	settings, err := s.settings.GetOrCreate(ctx, communityID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !auth.IsAdmin(actor, settings) {
		return nil, apperrors.NewForbidden("only admins can change ticket settings")
	}
	if input.MaxTicketsPerUser <= 0 {
		return nil, apperrors.NewValidationError("max tickets per user must be positive",
			map[string]any{"max_tickets_per_user": input.MaxTicketsPerUser})
	}

	settings.MaxTicketsPerUser = input.MaxTicketsPerUser
	settings.LogChannelID = input.LogChannelID
	settings.TranscriptChannelID = input.TranscriptChannelID
	settings.AdminRoles = input.AdminRoles
	settings.SupportRoles = input.SupportRoles
	settings.TranscriptsEnabled = input.TranscriptsEnabled
	settings.DMTranscriptsEnabled = input.DMTranscriptsEnabled
	settings.AutoTagEnabled = input.AutoTagEnabled
	settings.ClaimEnabled = input.ClaimEnabled

	if err := s.settings.Update(ctx, settings); err != nil {
		return nil, apperrors.MapError(err)
	}
	return settings, nil
}
