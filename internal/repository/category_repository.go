package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/community-tickets/internal/domain"
)

// CategoryRepository manages ticket category persistence.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, communityID, categoryID string) error
	GetByID(ctx context.Context, communityID, categoryID string) (*domain.Category, error)
	ListByCommunity(ctx context.Context, communityID string, enabledOnly bool) ([]domain.Category, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository builds the repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

const categoryColumns = `id, community_id, name, description, emoji, destination_channel_id,
               support_roles, form_fields, welcome_message, auto_add_members, enabled,
               display_order, created_at, updated_at`

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	const query = `
        INSERT INTO ticket_categories (id, community_id, name, description, emoji,
                                       destination_channel_id, support_roles, form_fields,
                                       welcome_message, auto_add_members, enabled, display_order)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		category.ID,
		category.CommunityID,
		category.Name,
		category.Description,
		category.Emoji,
		category.DestinationChannelID,
		category.SupportRoles,
		category.FormFields,
		category.WelcomeMessage,
		category.AutoAddMembers,
		category.Enabled,
		category.DisplayOrder,
	).Scan(&category.CreatedAt, &category.UpdatedAt)
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	const query = `
        UPDATE ticket_categories SET name=$1, description=$2, emoji=$3, destination_channel_id=$4,
            support_roles=$5, form_fields=$6, welcome_message=$7, auto_add_members=$8,
            enabled=$9, display_order=$10, updated_at=NOW()
        WHERE community_id=$11 AND id=$12`
	cmd, err := r.pool.Exec(ctx, query,
		category.Name,
		category.Description,
		category.Emoji,
		category.DestinationChannelID,
		category.SupportRoles,
		category.FormFields,
		category.WelcomeMessage,
		category.AutoAddMembers,
		category.Enabled,
		category.DisplayOrder,
		category.CommunityID,
		category.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, communityID, categoryID string) error {
	const query = `DELETE FROM ticket_categories WHERE community_id=$1 AND id=$2`
	cmd, err := r.pool.Exec(ctx, query, communityID, categoryID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, communityID, categoryID string) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM ticket_categories WHERE community_id=$1 AND id=$2`
	var category domain.Category
	if err := r.pool.QueryRow(ctx, query, communityID, categoryID).Scan(
		&category.ID,
		&category.CommunityID,
		&category.Name,
		&category.Description,
		&category.Emoji,
		&category.DestinationChannelID,
		&category.SupportRoles,
		&category.FormFields,
		&category.WelcomeMessage,
		&category.AutoAddMembers,
		&category.Enabled,
		&category.DisplayOrder,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) ListByCommunity(ctx context.Context, communityID string, enabledOnly bool) ([]domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM ticket_categories WHERE community_id=$1`
	if enabledOnly {
		query += ` AND enabled = TRUE`
	}
	query += ` ORDER BY display_order ASC, name ASC`

	rows, err := r.pool.Query(ctx, query, communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(
			&category.ID,
			&category.CommunityID,
			&category.Name,
			&category.Description,
			&category.Emoji,
			&category.DestinationChannelID,
			&category.SupportRoles,
			&category.FormFields,
			&category.WelcomeMessage,
			&category.AutoAddMembers,
			&category.Enabled,
			&category.DisplayOrder,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}
