package sequence

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/community-tickets/internal/repository"
)

// seededIncr initializes the counter key from the persisted value before
// incrementing, so a fresh redis instance continues the community's
// existing sequence instead of restarting at 1.
var seededIncr = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
    redis.call('SET', KEYS[1], ARGV[1])
end
return redis.call('INCR', KEYS[1])
`)

// redisAllocator allocates numbers with an atomic INCR, mirroring the
// result back to the settings store so the persisted counter stays a
// usable seed.
type redisAllocator struct {
	client   *redis.Client
	settings repository.SettingsRepository
	logger   *zap.Logger
}

// NewRedisAllocator builds a redis-backed allocator.
func NewRedisAllocator(client *redis.Client, settings repository.SettingsRepository, logger *zap.Logger) Allocator {
	return &redisAllocator{client: client, settings: settings, logger: logger}
}

func (a *redisAllocator) Next(ctx context.Context, communityID string) (int, error) {
	settings, err := a.settings.GetOrCreate(ctx, communityID)
	if err != nil {
		return 0, err
	}

	key := "ticket_seq:" + communityID
	number, err := seededIncr.Run(ctx, a.client, []string{key}, settings.TicketCounter).Int()
	if err != nil {
		return 0, err
	}

	if err := a.settings.SetSequence(ctx, communityID, number); err != nil {
		a.logger.Warn("sequence writeback failed",
			zap.String("community_id", communityID),
			zap.Int("number", number),
			zap.Error(err))
	}
	return number, nil
}
