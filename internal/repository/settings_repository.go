package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/community-tickets/internal/domain"
)

// SettingsRepository manages per-community settings, including the
// ticket sequence counter.
type SettingsRepository interface {
	GetOrCreate(ctx context.Context, communityID string) (*domain.CommunitySettings, error)
	Update(ctx context.Context, settings *domain.CommunitySettings) error
	// IncrementSequence atomically advances and returns the community's
	// ticket counter in a single statement. Creates the settings row if
	// the community has none yet.
	IncrementSequence(ctx context.Context, communityID string) (int, error)
	// SetSequence overwrites the persisted counter. Used by the redis
	// allocator to mirror its value back for visibility.
	SetSequence(ctx context.Context, communityID string, value int) error
}

type settingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository builds the repository.
func NewSettingsRepository(pool *pgxpool.Pool) SettingsRepository {
	return &settingsRepository{pool: pool}
}

const settingsColumns = `community_id, ticket_counter, max_tickets_per_user, log_channel_id,
               transcript_channel_id, admin_roles, support_roles, transcripts_enabled,
               dm_transcripts_enabled, auto_tag_enabled, claim_enabled, created_at, updated_at`

func (r *settingsRepository) GetOrCreate(ctx context.Context, communityID string) (*domain.CommunitySettings, error) {
	defaults := domain.DefaultSettings(communityID)
	const insert = `
        INSERT INTO communities (community_id, ticket_counter, max_tickets_per_user,
                                 admin_roles, support_roles, transcripts_enabled,
                                 dm_transcripts_enabled, auto_tag_enabled, claim_enabled)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (community_id) DO NOTHING`
	if _, err := r.pool.Exec(ctx, insert,
		defaults.CommunityID,
		defaults.TicketCounter,
		defaults.MaxTicketsPerUser,
		[]string{},
		[]string{},
		defaults.TranscriptsEnabled,
		defaults.DMTranscriptsEnabled,
		defaults.AutoTagEnabled,
		defaults.ClaimEnabled,
	); err != nil {
		return nil, err
	}

	query := `SELECT ` + settingsColumns + ` FROM communities WHERE community_id=$1`
	var settings domain.CommunitySettings
	if err := r.pool.QueryRow(ctx, query, communityID).Scan(
		&settings.CommunityID,
		&settings.TicketCounter,
		&settings.MaxTicketsPerUser,
		&settings.LogChannelID,
		&settings.TranscriptChannelID,
		&settings.AdminRoles,
		&settings.SupportRoles,
		&settings.TranscriptsEnabled,
		&settings.DMTranscriptsEnabled,
		&settings.AutoTagEnabled,
		&settings.ClaimEnabled,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) Update(ctx context.Context, settings *domain.CommunitySettings) error {
	const query = `
        UPDATE communities SET max_tickets_per_user=$1, log_channel_id=$2, transcript_channel_id=$3,
            admin_roles=$4, support_roles=$5, transcripts_enabled=$6, dm_transcripts_enabled=$7,
            auto_tag_enabled=$8, claim_enabled=$9, updated_at=NOW()
        WHERE community_id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		settings.MaxTicketsPerUser,
		settings.LogChannelID,
		settings.TranscriptChannelID,
		settings.AdminRoles,
		settings.SupportRoles,
		settings.TranscriptsEnabled,
		settings.DMTranscriptsEnabled,
		settings.AutoTagEnabled,
		settings.ClaimEnabled,
		settings.CommunityID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *settingsRepository) IncrementSequence(ctx context.Context, communityID string) (int, error) {
	// Upsert keeps the counter path lazy-creating like GetOrCreate while
	// staying a single atomic read-modify-write.
	const query = `
        INSERT INTO communities (community_id, ticket_counter)
        VALUES ($1, 1)
        ON CONFLICT (community_id)
        DO UPDATE SET ticket_counter = communities.ticket_counter + 1, updated_at = NOW()
        RETURNING ticket_counter`
	var counter int
	if err := r.pool.QueryRow(ctx, query, communityID).Scan(&counter); err != nil {
		return 0, err
	}
	return counter, nil
}

func (r *settingsRepository) SetSequence(ctx context.Context, communityID string, value int) error {
	const query = `
        UPDATE communities SET ticket_counter = GREATEST(ticket_counter, $1), updated_at = NOW()
        WHERE community_id = $2`
	_, err := r.pool.Exec(ctx, query, value, communityID)
	return err
}
