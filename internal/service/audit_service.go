package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/community-tickets/internal/domain"
	"github.com/spec-kit/community-tickets/internal/events"
	"github.com/spec-kit/community-tickets/internal/gateway"
	"github.com/spec-kit/community-tickets/internal/repository"
)

// AuditService forwards lifecycle events to the audit sink. Everything
// here is best-effort: a failed record never affects the transition
// that produced it.
type AuditService struct {
	dispatcher events.Dispatcher
	tickets    repository.TicketRepository
	sink       gateway.AuditSink
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, tickets repository.TicketRepository, sink gateway.AuditSink, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		tickets:    tickets,
		sink:       sink,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to every lifecycle event.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventTicketOpened,
		events.EventTicketClaimed,
		events.EventTicketUnclaimed,
		events.EventTicketTransferred,
		events.EventTicketClosed,
		events.EventTicketRenamed,
		events.EventParticipantAdded,
		events.EventParticipantRemoved,
	} {
		a.dispatcher.Subscribe(eventType, a.handle)
	}
}

func (a *AuditService) handle(ctx context.Context, event events.Event) error {
	ticket, err := a.tickets.GetByChannel(ctx, event.ChannelID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			a.logger.Warn("audit ticket lookup failed",
				zap.String("channel_id", event.ChannelID),
				zap.Error(err))
		}
		return nil
	}

	actor := domain.Actor{ID: event.Actor.MemberID, Username: event.Actor.Username}
	if err := a.sink.Record(ctx, event.CommunityID, string(event.Type), ticket, actor, detailOf(event)); err != nil {
		a.logger.Warn("audit record failed",
			zap.String("community_id", event.CommunityID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
	return nil
}

func detailOf(event events.Event) string {
	switch payload := event.Payload.(type) {
	case events.TicketClosedPayload:
		return payload.Reason
	case events.TicketRenamedPayload:
		return payload.NewName
	case events.ParticipantChangedPayload:
		return payload.MemberID
	case events.TicketTransferredPayload:
		return payload.NewClaimant
	default:
		return ""
	}
}
