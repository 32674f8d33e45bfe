package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/community-tickets/internal/domain"
)

// LoggingStub implements every collaborator interface by logging the
// call. Used when no gateway endpoint is configured, mirroring how the
// notification stubs behave in development.
type LoggingStub struct {
	logger *zap.Logger
}

// NewLoggingStub builds the stub.
func NewLoggingStub(logger *zap.Logger) *LoggingStub {
	return &LoggingStub{logger: logger}
}

func (s *LoggingStub) CreateChannel(ctx context.Context, communityID, name string, parentHint *string, grants []VisibilityGrant) (string, error) {
	channelID := "stub-" + uuid.NewString()
	s.logger.Info("stub create channel",
		zap.String("community_id", communityID),
		zap.String("name", name),
		zap.String("channel_id", channelID),
		zap.Int("grants", len(grants)))
	return channelID, nil
}

func (s *LoggingStub) RenameChannel(ctx context.Context, channelID, name string) error {
	s.logger.Info("stub rename channel", zap.String("channel_id", channelID), zap.String("name", name))
	return nil
}

func (s *LoggingStub) DeleteChannel(ctx context.Context, channelID string) error {
	s.logger.Info("stub delete channel", zap.String("channel_id", channelID))
	return nil
}

func (s *LoggingStub) GrantAccess(ctx context.Context, channelID, memberID string) error {
	s.logger.Info("stub grant access", zap.String("channel_id", channelID), zap.String("member_id", memberID))
	return nil
}

func (s *LoggingStub) RevokeAccess(ctx context.Context, channelID, memberID string) error {
	s.logger.Info("stub revoke access", zap.String("channel_id", channelID), zap.String("member_id", memberID))
	return nil
}

func (s *LoggingStub) Post(ctx context.Context, channelID, content string) error {
	s.logger.Info("stub post", zap.String("channel_id", channelID), zap.Int("length", len(content)))
	return nil
}

func (s *LoggingStub) DM(ctx context.Context, memberID, content string) error {
	s.logger.Info("stub dm", zap.String("member_id", memberID), zap.Int("length", len(content)))
	return nil
}

func (s *LoggingStub) Record(ctx context.Context, communityID string, action string, ticket *domain.Ticket, actor domain.Actor, details string) error {
	s.logger.Info("stub audit record",
		zap.String("community_id", communityID),
		zap.String("action", action),
		zap.Int("ticket_number", ticket.Number),
		zap.String("actor", actor.ID),
		zap.String("details", details))
	return nil
}

func (s *LoggingStub) Request(ctx context.Context, ticket *domain.Ticket) (string, error) {
	ref := fmt.Sprintf("stub-transcript-%s-%d", ticket.CommunityID, ticket.Number)
	s.logger.Info("stub transcript request",
		zap.String("community_id", ticket.CommunityID),
		zap.Int("ticket_number", ticket.Number),
		zap.String("ref", ref))
	return ref, nil
}
