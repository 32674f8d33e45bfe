package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/community-tickets/internal/events"
	"github.com/spec-kit/community-tickets/internal/gateway"
	"github.com/spec-kit/community-tickets/internal/repository"
)

// TranscriptService requests a transcript after a ticket closes, when
// the community has transcripts enabled. Runs asynchronously off the
// close event; failures are logged, never surfaced to the closer.
type TranscriptService struct {
	dispatcher    events.Dispatcher
	tickets       repository.TicketRepository
	settings      repository.SettingsRepository
	transcripts   gateway.TranscriptRequester
	notifications gateway.NotificationSink
	logger        *zap.Logger
}

// TranscriptDependencies bundles collaborators.
type TranscriptDependencies struct {
	Dispatcher    events.Dispatcher
	TicketRepo    repository.TicketRepository
	SettingsRepo  repository.SettingsRepository
	Transcripts   gateway.TranscriptRequester
	Notifications gateway.NotificationSink
	Logger        *zap.Logger
}

// NewTranscriptService creates the service.
func NewTranscriptService(deps TranscriptDependencies) *TranscriptService {
	return &TranscriptService{
		dispatcher:    deps.Dispatcher,
		tickets:       deps.TicketRepo,
		settings:      deps.SettingsRepo,
		transcripts:   deps.Transcripts,
		notifications: deps.Notifications,
		logger:        deps.Logger,
	}
}

// RegisterHandlers subscribes to close events.
func (t *TranscriptService) RegisterHandlers() {
	if t.dispatcher == nil {
		return
	}
	t.dispatcher.Subscribe(events.EventTicketClosed, t.handleClosed)
}

func (t *TranscriptService) handleClosed(ctx context.Context, event events.Event) error {
	settings, err := t.settings.GetOrCreate(ctx, event.CommunityID)
	if err != nil {
		t.logger.Warn("transcript settings lookup failed",
			zap.String("community_id", event.CommunityID),
			zap.Error(err))
		return nil
	}
	if !settings.TranscriptsEnabled {
		return nil
	}

	ticket, err := t.tickets.GetByChannel(ctx, event.ChannelID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			t.logger.Warn("transcript ticket lookup failed",
				zap.String("channel_id", event.ChannelID),
				zap.Error(err))
		}
		return nil
	}

	ref, err := t.transcripts.Request(ctx, ticket)
	if err != nil {
		t.logger.Warn("transcript request failed",
			zap.String("channel_id", ticket.ChannelID),
			zap.Int("ticket_number", ticket.Number),
			zap.Error(err))
		return nil
	}

	ticket.TranscriptRef = &ref
	if err := t.tickets.Update(ctx, ticket); err != nil {
		// The transcript still exists; only the back-reference is lost.
		t.logger.Warn("transcript reference save failed",
			zap.String("channel_id", ticket.ChannelID),
			zap.Error(err))
	}

	if settings.DMTranscriptsEnabled {
		if err := t.notifications.DM(ctx, ticket.RequesterID, "Your ticket transcript: "+ref); err != nil {
			t.logger.Warn("transcript dm failed",
				zap.String("member_id", ticket.RequesterID),
				zap.Error(err))
		}
	}
	return nil
}
