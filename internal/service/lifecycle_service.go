package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/community-tickets/internal/auth"
	"github.com/spec-kit/community-tickets/internal/domain"
	"github.com/spec-kit/community-tickets/internal/events"
	"github.com/spec-kit/community-tickets/internal/gateway"
	"github.com/spec-kit/community-tickets/internal/repository"
	apperrors "github.com/spec-kit/community-tickets/pkg/util"
)

// casAttempts bounds how often a mutation is retried after losing an
// optimistic-concurrency race. Each retry re-fetches and re-validates,
// so a losing claim racer surfaces ALREADY_CLAIMED rather than
// overwriting the winner.
const casAttempts = 3

// TeardownScheduler queues a channel for deferred deletion.
type TeardownScheduler interface {
	Schedule(channelID string)
}

// MemberRef identifies a community member targeted by an operation.
type MemberRef struct {
	ID       string
	Username string
}

// LifecycleService owns the ticket state machine: open -> claimed ->
// closed, plus the non-status mutations. Every operation validates its
// guard before mutating and fails fast otherwise.
type LifecycleService struct {
	tickets    repository.TicketRepository
	settings   repository.SettingsRepository
	categories repository.CategoryRepository
	routing    gateway.RoutingProvider
	dispatcher events.Dispatcher
	teardown   TeardownScheduler
	logger     *zap.Logger
}

// LifecycleDependencies bundles collaborators for the engine.
type LifecycleDependencies struct {
	TicketRepo   repository.TicketRepository
	SettingsRepo repository.SettingsRepository
	CategoryRepo repository.CategoryRepository
	Routing      gateway.RoutingProvider
	Dispatcher   events.Dispatcher
	Teardown     TeardownScheduler
	Logger       *zap.Logger
}

// NewLifecycleService constructs the engine.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		tickets:    deps.TicketRepo,
		settings:   deps.SettingsRepo,
		categories: deps.CategoryRepo,
		routing:    deps.Routing,
		dispatcher: deps.Dispatcher,
		teardown:   deps.Teardown,
		logger:     deps.Logger,
	}
}

// ticketContext is one consistent snapshot for guard evaluation.
type ticketContext struct {
	ticket   *domain.Ticket
	settings *domain.CommunitySettings
	category *domain.Category
}

func (s *LifecycleService) load(ctx context.Context, channelID string) (*ticketContext, error) {
	ticket, err := s.tickets.GetByChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"channel_id": channelID})
		}
		return nil, apperrors.MapError(err)
	}
	settings, err := s.settings.GetOrCreate(ctx, ticket.CommunityID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	// The category may have been deleted after the ticket was opened;
	// guards fall back to the community-level role sets.
	category, err := s.categories.GetByID(ctx, ticket.CommunityID, ticket.CategoryID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		category = nil
	}
	return &ticketContext{ticket: ticket, settings: settings, category: category}, nil
}

// mutate runs the fetch/guard/write cycle under optimistic concurrency.
func (s *LifecycleService) mutate(ctx context.Context, channelID string, apply func(*ticketContext) error) (*domain.Ticket, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		tc, err := s.load(ctx, channelID)
		if err != nil {
			return nil, err
		}
		if err := apply(tc); err != nil {
			return nil, err
		}
		err = s.tickets.Update(ctx, tc.ticket)
		if err == nil {
			return tc.ticket, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.MapError(err)
		}
	}
	return nil, apperrors.NewConflict("ticket was modified concurrently", nil)
}

// Claim assigns the ticket to the acting support member.
func (s *LifecycleService) Claim(ctx context.Context, channelID string, actor domain.Actor) (*domain.Ticket, error) {
	ticket, err := s.mutate(ctx, channelID, func(tc *ticketContext) error {
		if !auth.IsSupport(actor, tc.settings, tc.category) {
			return apperrors.NewForbidden("only support staff can claim tickets")
		}
		if !tc.settings.ClaimEnabled {
			return apperrors.NewFeatureDisabled("claim system")
		}
		switch {
		case tc.ticket.Status == domain.TicketStatusClosed:
			return apperrors.NewAlreadyClosed()
		case tc.ticket.IsClaimed():
			return apperrors.NewAlreadyClaimed(tc.ticket.Claim.MemberID)
		}
		tc.ticket.Status = domain.TicketStatusClaimed
		tc.ticket.Claim = &domain.ClaimRecord{
			MemberID:  actor.ID,
			Username:  actor.Username,
			ClaimedAt: time.Now(),
		}
		tc.ticket.AppendHistory(domain.ActionClaimed, actor.ID, actor.Username, "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.renameChannel(ctx, ticket.ChannelID, fmt.Sprintf("claimed-%d", ticket.Number))
	s.publish(ctx, events.EventTicketClaimed, ticket, actor, events.TicketClaimedPayload{
		Number:     ticket.Number,
		ClaimantID: actor.ID,
	})
	return ticket, nil
}

// Unclaim releases a claimed ticket back to open. Only the claimant or
// an admin may release it.
func (s *LifecycleService) Unclaim(ctx context.Context, channelID string, actor domain.Actor) (*domain.Ticket, error) {
	var previousClaimant string
	ticket, err := s.mutate(ctx, channelID, func(tc *ticketContext) error {
		if tc.ticket.Status == domain.TicketStatusClosed {
			return apperrors.NewAlreadyClosed()
		}
		if !tc.ticket.IsClaimed() {
			return apperrors.NewNotClaimed()
		}
		if tc.ticket.Claim.MemberID != actor.ID && !auth.IsAdmin(actor, tc.settings) {
			return apperrors.NewForbidden("only the claimant or an admin can unclaim this ticket")
		}
		previousClaimant = tc.ticket.Claim.MemberID
		tc.ticket.Status = domain.TicketStatusOpen
		tc.ticket.Claim = nil
		tc.ticket.AppendHistory(domain.ActionUnclaimed, actor.ID, actor.Username, "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.renameChannel(ctx, ticket.ChannelID, fmt.Sprintf("ticket-%d", ticket.Number))
	s.publish(ctx, events.EventTicketUnclaimed, ticket, actor, events.TicketUnclaimedPayload{
		Number:           ticket.Number,
		PreviousClaimant: previousClaimant,
	})
	return ticket, nil
}

// Transfer moves the claim to another support member.
func (s *LifecycleService) Transfer(ctx context.Context, channelID string, actor domain.Actor, target domain.Actor) (*domain.Ticket, error) {
	var previousClaimant *string
	ticket, err := s.mutate(ctx, channelID, func(tc *ticketContext) error {
		if !auth.IsSupport(actor, tc.settings, tc.category) {
			return apperrors.NewForbidden("only support staff can transfer tickets")
		}
		if !auth.IsSupport(target, tc.settings, tc.category) {
			return apperrors.NewForbidden("tickets can only be transferred to support staff")
		}
		if tc.ticket.Status == domain.TicketStatusClosed {
			return apperrors.NewAlreadyClosed()
		}
		if !tc.ticket.IsClaimed() {
			return apperrors.NewNotClaimed()
		}
		previous := tc.ticket.Claim.MemberID
		previousClaimant = &previous
		tc.ticket.Claim = &domain.ClaimRecord{
			MemberID:  target.ID,
			Username:  target.Username,
			ClaimedAt: time.Now(),
		}
		tc.ticket.AppendHistory(domain.ActionTransferred, actor.ID, actor.Username,
			fmt.Sprintf("Transferred to %s", target.Username))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTicketTransferred, ticket, actor, events.TicketTransferredPayload{
		Number:           ticket.Number,
		PreviousClaimant: previousClaimant,
		NewClaimant:      target.ID,
	})
	return ticket, nil
}

// Close moves the ticket to its terminal state, then schedules channel
// teardown. Closing an already-closed ticket fails with ALREADY_CLOSED
// and leaves the original closure untouched.
func (s *LifecycleService) Close(ctx context.Context, channelID string, actor domain.Actor, reason string) (*domain.Ticket, error) {
	ticket, err := s.mutate(ctx, channelID, func(tc *ticketContext) error {
		if tc.ticket.Status == domain.TicketStatusClosed {
			return apperrors.NewAlreadyClosed()
		}
		if !auth.CanManage(actor, tc.ticket, tc.settings, tc.category) {
			return apperrors.NewForbidden("you do not have permission to close this ticket")
		}
		now := time.Now()
		tc.ticket.Status = domain.TicketStatusClosed
		tc.ticket.Claim = nil
		tc.ticket.ClosedAt = &now
		tc.ticket.ClosedBy = &domain.Closure{MemberID: actor.ID, Username: actor.Username}
		tc.ticket.AppendHistory(domain.ActionClosed, actor.ID, actor.Username, reason)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTicketClosed, ticket, actor, events.TicketClosedPayload{
		Number:      ticket.Number,
		RequesterID: ticket.RequesterID,
		Reason:      reason,
	})
	if s.teardown != nil {
		s.teardown.Schedule(ticket.ChannelID)
	}
	return ticket, nil
}

// AddParticipant grants a member access to the ticket.
func (s *LifecycleService) AddParticipant(ctx context.Context, channelID string, actor domain.Actor, target MemberRef) (*domain.Ticket, error) {
	ticket, err := s.mutate(ctx, channelID, func(tc *ticketContext) error {
		if tc.ticket.Status == domain.TicketStatusClosed {
			return apperrors.NewAlreadyClosed()
		}
		if !auth.CanManage(actor, tc.ticket, tc.settings, tc.category) {
			return apperrors.NewForbidden("you do not have permission to add members to this ticket")
		}
		if target.ID == tc.ticket.RequesterID {
			return apperrors.NewOwnerImmutable()
		}
		if tc.ticket.HasParticipant(target.ID) {
			return apperrors.NewDuplicateParticipant(target.ID)
		}
		tc.ticket.Participants = append(tc.ticket.Participants, domain.Participant{
			MemberID: target.ID,
			Username: target.Username,
			AddedBy:  actor.ID,
			AddedAt:  time.Now(),
		})
		tc.ticket.AppendHistory(domain.ActionMemberAdded, actor.ID, actor.Username,
			fmt.Sprintf("Added %s", target.Username))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.routing.GrantAccess(ctx, ticket.ChannelID, target.ID); err != nil {
		s.logger.Warn("participant grant failed",
			zap.String("channel_id", ticket.ChannelID),
			zap.String("member_id", target.ID),
			zap.Error(err))
	}
	s.publish(ctx, events.EventParticipantAdded, ticket, actor, events.ParticipantChangedPayload{
		Number:   ticket.Number,
		MemberID: target.ID,
	})
	return ticket, nil
}

// RemoveParticipant revokes a member's access. The requester can never
// be removed from their own ticket.
func (s *LifecycleService) RemoveParticipant(ctx context.Context, channelID string, actor domain.Actor, target MemberRef) (*domain.Ticket, error) {
	ticket, err := s.mutate(ctx, channelID, func(tc *ticketContext) error {
		if tc.ticket.Status == domain.TicketStatusClosed {
			return apperrors.NewAlreadyClosed()
		}
		if !auth.IsSupport(actor, tc.settings, tc.category) {
			return apperrors.NewForbidden("only support staff can remove members from tickets")
		}
		if target.ID == tc.ticket.RequesterID {
			return apperrors.NewOwnerImmutable()
		}
		if !tc.ticket.HasParticipant(target.ID) {
			return apperrors.NewNotFound("participant", map[string]any{"member_id": target.ID})
		}
		kept := tc.ticket.Participants[:0]
		for _, p := range tc.ticket.Participants {
			if p.MemberID != target.ID {
				kept = append(kept, p)
			}
		}
		tc.ticket.Participants = kept
		tc.ticket.AppendHistory(domain.ActionMemberRemoved, actor.ID, actor.Username,
			fmt.Sprintf("Removed %s", target.Username))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.routing.RevokeAccess(ctx, ticket.ChannelID, target.ID); err != nil {
		s.logger.Warn("participant revoke failed",
			zap.String("channel_id", ticket.ChannelID),
			zap.String("member_id", target.ID),
			zap.Error(err))
	}
	s.publish(ctx, events.EventParticipantRemoved, ticket, actor, events.ParticipantChangedPayload{
		Number:   ticket.Number,
		MemberID: target.ID,
	})
	return ticket, nil
}

// Rename changes the backing channel's name and records the action.
func (s *LifecycleService) Rename(ctx context.Context, channelID string, actor domain.Actor, name string) (*domain.Ticket, error) {
	ticket, err := s.mutate(ctx, channelID, func(tc *ticketContext) error {
		if tc.ticket.Status == domain.TicketStatusClosed {
			return apperrors.NewAlreadyClosed()
		}
		if !auth.IsSupport(actor, tc.settings, tc.category) {
			return apperrors.NewForbidden("only support staff can rename tickets")
		}
		tc.ticket.AppendHistory(domain.ActionRenamed, actor.ID, actor.Username,
			fmt.Sprintf("Renamed to %s", name))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.renameChannel(ctx, ticket.ChannelID, name)
	s.publish(ctx, events.EventTicketRenamed, ticket, actor, events.TicketRenamedPayload{
		Number:  ticket.Number,
		NewName: name,
	})
	return ticket, nil
}

// Get returns a ticket the actor may view.
func (s *LifecycleService) Get(ctx context.Context, channelID string, actor domain.Actor) (*domain.Ticket, error) {
	tc, err := s.load(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !auth.CanManage(actor, tc.ticket, tc.settings, tc.category) {
		return nil, apperrors.NewForbidden("you do not have access to this ticket")
	}
	return tc.ticket, nil
}

// GetByNumber resolves a ticket by its per-community number. Staff
// tooling references tickets by number rather than channel.
func (s *LifecycleService) GetByNumber(ctx context.Context, communityID string, number int, actor domain.Actor) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByNumber(ctx, communityID, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"number": number})
		}
		return nil, apperrors.MapError(err)
	}
	return s.Get(ctx, ticket.ChannelID, actor)
}

// List returns tickets in a community. Non-support actors only see
// their own tickets.
func (s *LifecycleService) List(ctx context.Context, communityID string, actor domain.Actor, filter repository.TicketFilter) ([]domain.Ticket, error) {
	settings, err := s.settings.GetOrCreate(ctx, communityID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !auth.IsSupport(actor, settings, nil) {
		requester := actor.ID
		filter.RequesterID = &requester
	}
	tickets, err := s.tickets.ListByCommunity(ctx, communityID, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// renameChannel is best-effort; the state transition is already
// committed when it runs.
func (s *LifecycleService) renameChannel(ctx context.Context, channelID, name string) {
	if err := s.routing.RenameChannel(ctx, channelID, name); err != nil {
		s.logger.Warn("channel rename failed",
			zap.String("channel_id", channelID),
			zap.String("name", name),
			zap.Error(err))
	}
}

func (s *LifecycleService) publish(ctx context.Context, eventType events.EventType, ticket *domain.Ticket, actor domain.Actor, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		CommunityID: ticket.CommunityID,
		TicketID:    ticket.ID,
		ChannelID:   ticket.ChannelID,
		Actor:       events.ActorOf(actor),
		Timestamp:   time.Now(),
		Payload:     payload,
	})
}
