package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/community-tickets/internal/auth"
	"github.com/spec-kit/community-tickets/internal/domain"
	"github.com/spec-kit/community-tickets/internal/events"
	"github.com/spec-kit/community-tickets/internal/gateway"
	"github.com/spec-kit/community-tickets/internal/repository"
	"github.com/spec-kit/community-tickets/internal/sequence"
	apperrors "github.com/spec-kit/community-tickets/pkg/util"
)

// ProvisioningService orchestrates ticket creation: authorization,
// numbering, channel provisioning, persistence, then best-effort side
// effects. Quota and numbering run before the external channel request
// so an over-quota attempt never leaves an orphaned channel.
type ProvisioningService struct {
	tickets       repository.TicketRepository
	settings      repository.SettingsRepository
	categories    repository.CategoryRepository
	allocator     sequence.Allocator
	routing       gateway.RoutingProvider
	notifications gateway.NotificationSink
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// ProvisioningDependencies bundles collaborators.
type ProvisioningDependencies struct {
	TicketRepo    repository.TicketRepository
	SettingsRepo  repository.SettingsRepository
	CategoryRepo  repository.CategoryRepository
	Allocator     sequence.Allocator
	Routing       gateway.RoutingProvider
	Notifications gateway.NotificationSink
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// OpenInput describes a ticket creation request.
type OpenInput struct {
	CommunityID   string
	CategoryID    string
	FormResponses []domain.FormResponse
}

// NewProvisioningService constructs the coordinator.
func NewProvisioningService(deps ProvisioningDependencies) *ProvisioningService {
	return &ProvisioningService{
		tickets:       deps.TicketRepo,
		settings:      deps.SettingsRepo,
		categories:    deps.CategoryRepo,
		allocator:     deps.Allocator,
		routing:       deps.Routing,
		notifications: deps.Notifications,
		dispatcher:    deps.Dispatcher,
		logger:        deps.Logger,
	}
}

// Open creates a ticket for the requester.
func (s *ProvisioningService) Open(ctx context.Context, requester domain.Actor, input OpenInput) (*domain.Ticket, error) {
	settings, err := s.settings.GetOrCreate(ctx, input.CommunityID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	category, err := s.categories.GetByID(ctx, input.CommunityID, input.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket category", map[string]any{"category_id": input.CategoryID})
		}
		return nil, apperrors.MapError(err)
	}
	if !category.Enabled {
		return nil, apperrors.NewFeatureDisabled("this ticket category")
	}

	if err := validateFormResponses(category, input.FormResponses); err != nil {
		return nil, err
	}

	openCount, err := s.tickets.CountOpen(ctx, input.CommunityID, requester.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if openCount >= settings.MaxTicketsPerUser {
		return nil, apperrors.NewQuotaExceeded(openCount, settings.MaxTicketsPerUser)
	}

	number, err := s.allocator.Next(ctx, input.CommunityID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	grants := buildGrants(requester.ID, auth.RoutableRoles(settings, category), category.AutoAddMembers)
	channelID, err := s.routing.CreateChannel(ctx, input.CommunityID,
		fmt.Sprintf("ticket-%d", number), category.DestinationChannelID, grants)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	ticket := &domain.Ticket{
		CommunityID:   input.CommunityID,
		Number:        number,
		ChannelID:     channelID,
		RequesterID:   requester.ID,
		RequesterName: requester.Username,
		CategoryID:    category.ID,
		CategoryName:  category.Name,
		FormResponses: input.FormResponses,
		Status:        domain.TicketStatusOpen,
	}
	for _, memberID := range category.AutoAddMembers {
		if memberID == requester.ID {
			continue
		}
		ticket.Participants = append(ticket.Participants, domain.Participant{
			MemberID: memberID,
			Username: memberID,
			AddedBy:  requester.ID,
			AddedAt:  time.Now(),
		})
	}
	ticket.AppendHistory(domain.ActionCreated, requester.ID, requester.Username, "")

	if err := s.tickets.Create(ctx, ticket); err != nil {
		// The channel exists but the ticket does not; clean up so the
		// failure leaves no unreachable channel behind. A crash at this
		// point instead leaves a detectable orphan.
		if cleanupErr := s.routing.DeleteChannel(ctx, channelID); cleanupErr != nil {
			s.logger.Warn("orphaned channel cleanup failed",
				zap.String("channel_id", channelID),
				zap.Error(cleanupErr))
		}
		return nil, apperrors.MapError(err)
	}

	s.postWelcome(ctx, ticket, settings, category)
	s.publishOpened(ctx, ticket, requester)
	return ticket, nil
}

// validateFormResponses checks answers against the category's form
// descriptors: question order, required flags and length bounds.
func validateFormResponses(category *domain.Category, responses []domain.FormResponse) error {
	if len(category.FormFields) == 0 {
		return nil
	}
	if len(responses) != len(category.FormFields) {
		return apperrors.NewValidationError("form responses do not match the category form",
			map[string]any{"expected": len(category.FormFields), "got": len(responses)})
	}
	for i, field := range category.FormFields {
		answer := strings.TrimSpace(responses[i].Answer)
		if responses[i].Question != field.Label {
			return apperrors.NewValidationError("unexpected form question",
				map[string]any{"question": responses[i].Question})
		}
		if field.Required && answer == "" {
			return apperrors.NewValidationError("required field missing",
				map[string]any{"field": field.Label})
		}
		if answer == "" {
			continue
		}
		if field.MinLength > 0 && len(answer) < field.MinLength {
			return apperrors.NewValidationError("answer too short",
				map[string]any{"field": field.Label, "min_length": field.MinLength})
		}
		if field.MaxLength > 0 && len(answer) > field.MaxLength {
			return apperrors.NewValidationError("answer too long",
				map[string]any{"field": field.Label, "max_length": field.MaxLength})
		}
	}
	return nil
}

// buildGrants denies the community baseline, then allows the requester,
// the routable roles, and any auto-added members.
func buildGrants(requesterID string, roleIDs []string, autoAddMembers []string) []gateway.VisibilityGrant {
	grants := []gateway.VisibilityGrant{
		{Target: gateway.GrantEveryone, Allow: false},
		{Target: gateway.GrantMember, ID: requesterID, Allow: true},
	}
	for _, roleID := range roleIDs {
		grants = append(grants, gateway.VisibilityGrant{Target: gateway.GrantRole, ID: roleID, Allow: true})
	}
	for _, memberID := range autoAddMembers {
		if memberID == requesterID {
			continue
		}
		grants = append(grants, gateway.VisibilityGrant{Target: gateway.GrantMember, ID: memberID, Allow: true})
	}
	return grants
}

// postWelcome sends the category welcome message, tagging routable
// roles when auto-tag is on. Best-effort.
func (s *ProvisioningService) postWelcome(ctx context.Context, ticket *domain.Ticket, settings *domain.CommunitySettings, category *domain.Category) {
	content := category.WelcomeMessage
	if content == "" {
		content = "Thank you for creating a ticket! Our team will be with you shortly."
	}
	mentions := []string{mentionMember(ticket.RequesterID)}
	if settings.AutoTagEnabled {
		for _, roleID := range auth.RoutableRoles(settings, category) {
			mentions = append(mentions, mentionRole(roleID))
		}
	}
	message := strings.Join(mentions, " ") + "\n" + content

	if err := s.notifications.Post(ctx, ticket.ChannelID, message); err != nil {
		s.logger.Warn("welcome message failed",
			zap.String("channel_id", ticket.ChannelID),
			zap.Error(err))
	}
}

func (s *ProvisioningService) publishOpened(ctx context.Context, ticket *domain.Ticket, requester domain.Actor) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:          uuid.NewString(),
		Type:        events.EventTicketOpened,
		CommunityID: ticket.CommunityID,
		TicketID:    ticket.ID,
		ChannelID:   ticket.ChannelID,
		Actor:       events.ActorOf(requester),
		Timestamp:   time.Now(),
		Payload: events.TicketOpenedPayload{
			Number:       ticket.Number,
			CategoryID:   ticket.CategoryID,
			CategoryName: ticket.CategoryName,
			RequesterID:  ticket.RequesterID,
		},
	})
}

func mentionMember(id string) string {
	return "<@" + id + ">"
}

func mentionRole(id string) string {
	return "<@&" + id + ">"
}
