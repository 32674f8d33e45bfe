package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/community-tickets/internal/domain"
)

// ErrVersionConflict signals a lost optimistic-concurrency race. The
// caller must re-fetch and re-validate before retrying.
var ErrVersionConflict = errors.New("ticket version conflict")

// TicketFilter captures listing parameters.
type TicketFilter struct {
	RequesterID *string
	CategoryID  *string
	Statuses    []domain.TicketStatus
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence. Tickets are never
// deleted; closed tickets persist for audit and transcripts.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByChannel(ctx context.Context, channelID string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, communityID string, number int) (*domain.Ticket, error)
	CountOpen(ctx context.Context, communityID, requesterID string) (int, error)
	ListByCommunity(ctx context.Context, communityID string, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, community_id, number, channel_id, requester_id, requester_name,
               category_id, category_name, form_responses, status, claim, participants,
               history, closed_by, closed_at, transcript_ref, version, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (community_id, number, channel_id, requester_id, requester_name,
                             category_id, category_name, form_responses, status, claim,
                             participants, history, closed_by, closed_at, transcript_ref, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,1)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.CommunityID,
		ticket.Number,
		ticket.ChannelID,
		ticket.RequesterID,
		ticket.RequesterName,
		ticket.CategoryID,
		ticket.CategoryName,
		ticket.FormResponses,
		ticket.Status,
		ticket.Claim,
		ticket.Participants,
		ticket.History,
		ticket.ClosedBy,
		ticket.ClosedAt,
		ticket.TranscriptRef,
	).Scan(&ticket.ID, &ticket.Version, &ticket.CreatedAt, &ticket.UpdatedAt)
}

// Update writes the ticket only if the version read is still current.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, claim=$2, participants=$3, history=$4,
            closed_by=$5, closed_at=$6, transcript_ref=$7, version=version+1, updated_at=NOW()
        WHERE id=$8 AND version=$9`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Status,
		ticket.Claim,
		ticket.Participants,
		ticket.History,
		ticket.ClosedBy,
		ticket.ClosedAt,
		ticket.TranscriptRef,
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	ticket.Version++
	return nil
}

func (r *ticketRepository) GetByChannel(ctx context.Context, channelID string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE channel_id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, channelID)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, communityID string, number int) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE community_id=$1 AND number=$2`, ticketColumns)
	return r.fetchSingle(ctx, query, communityID, number)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&ticket.ID,
		&ticket.CommunityID,
		&ticket.Number,
		&ticket.ChannelID,
		&ticket.RequesterID,
		&ticket.RequesterName,
		&ticket.CategoryID,
		&ticket.CategoryName,
		&ticket.FormResponses,
		&ticket.Status,
		&ticket.Claim,
		&ticket.Participants,
		&ticket.History,
		&ticket.ClosedBy,
		&ticket.ClosedAt,
		&ticket.TranscriptRef,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// CountOpen counts a requester's tickets that are not closed.
func (r *ticketRepository) CountOpen(ctx context.Context, communityID, requesterID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM tickets
        WHERE community_id=$1 AND requester_id=$2 AND status <> 'closed'`
	var count int
	if err := r.pool.QueryRow(ctx, query, communityID, requesterID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) ListByCommunity(ctx context.Context, communityID string, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"community_id=$1"}
	args := []any{communityID}

	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_id=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY number DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.CommunityID,
			&ticket.Number,
			&ticket.ChannelID,
			&ticket.RequesterID,
			&ticket.RequesterName,
			&ticket.CategoryID,
			&ticket.CategoryName,
			&ticket.FormResponses,
			&ticket.Status,
			&ticket.Claim,
			&ticket.Participants,
			&ticket.History,
			&ticket.ClosedBy,
			&ticket.ClosedAt,
			&ticket.TranscriptRef,
			&ticket.Version,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
