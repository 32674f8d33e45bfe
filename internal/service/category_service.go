package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/community-tickets/internal/auth"
	"github.com/spec-kit/community-tickets/internal/domain"
	"github.com/spec-kit/community-tickets/internal/repository"
	apperrors "github.com/spec-kit/community-tickets/pkg/util"
)

// CategoryService manages ticket categories. All mutations are
// admin-gated.
type CategoryService struct {
	categories repository.CategoryRepository
	settings   repository.SettingsRepository
}

// NewCategoryService constructs the service.
func NewCategoryService(categories repository.CategoryRepository, settings repository.SettingsRepository) *CategoryService {
	return &CategoryService{categories: categories, settings: settings}
}

// CategoryInput describes category creation/update payload.
type CategoryInput struct {
	Name                 string
	Description          string
	Emoji                string
	DestinationChannelID *string
	SupportRoles         []string
	FormFields           []domain.FormField
	WelcomeMessage       string
	AutoAddMembers       []string
	Enabled              bool
	DisplayOrder         int
}

func (s *CategoryService) requireAdmin(ctx context.Context, communityID string, actor domain.Actor) (*domain.CommunitySettings, error) {
	settings, err := s.settings.GetOrCreate(ctx, communityID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !auth.IsAdmin(actor, settings) {
		return nil, apperrors.NewForbidden("only admins can manage ticket categories")
	}
	return settings, nil
}

// Create adds a category to a community.
func (s *CategoryService) Create(ctx context.Context, communityID string, actor domain.Actor, input CategoryInput) (*domain.Category, error) {
	if _, err := s.requireAdmin(ctx, communityID, actor); err != nil {
		return nil, err
	}
	if err := validateCategoryInput(input); err != nil {
		return nil, err
	}

	category := &domain.Category{
		ID:                   uuid.NewString(),
		CommunityID:          communityID,
		Name:                 strings.TrimSpace(input.Name),
		Description:          strings.TrimSpace(input.Description),
		Emoji:                input.Emoji,
		DestinationChannelID: input.DestinationChannelID,
		SupportRoles:         input.SupportRoles,
		FormFields:           normalizeFormFields(input.FormFields),
		WelcomeMessage:       strings.TrimSpace(input.WelcomeMessage),
		AutoAddMembers:       input.AutoAddMembers,
		Enabled:              input.Enabled,
		DisplayOrder:         input.DisplayOrder,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// Update edits an existing category.
func (s *CategoryService) Update(ctx context.Context, communityID, categoryID string, actor domain.Actor, input CategoryInput) (*domain.Category, error) {
	if _, err := s.requireAdmin(ctx, communityID, actor); err != nil {
		return nil, err
	}
	if err := validateCategoryInput(input); err != nil {
		return nil, err
	}

	category, err := s.categories.GetByID(ctx, communityID, categoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket category", map[string]any{"category_id": categoryID})
		}
		return nil, apperrors.MapError(err)
	}

	category.Name = strings.TrimSpace(input.Name)
	category.Description = strings.TrimSpace(input.Description)
	category.Emoji = input.Emoji
	category.DestinationChannelID = input.DestinationChannelID
	category.SupportRoles = input.SupportRoles
	category.FormFields = normalizeFormFields(input.FormFields)
	category.WelcomeMessage = strings.TrimSpace(input.WelcomeMessage)
	category.AutoAddMembers = input.AutoAddMembers
	category.Enabled = input.Enabled
	category.DisplayOrder = input.DisplayOrder

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// Delete removes a category. Existing tickets keep their denormalized
// category name and remain manageable.
func (s *CategoryService) Delete(ctx context.Context, communityID, categoryID string, actor domain.Actor) error {
	if _, err := s.requireAdmin(ctx, communityID, actor); err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, communityID, categoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket category", map[string]any{"category_id": categoryID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// List returns a community's categories ordered for display.
func (s *CategoryService) List(ctx context.Context, communityID string, enabledOnly bool) ([]domain.Category, error) {
	categories, err := s.categories.ListByCommunity(ctx, communityID, enabledOnly)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return categories, nil
}

func validateCategoryInput(input CategoryInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return apperrors.NewValidationError("category name is required", nil)
	}
	if len(input.FormFields) > domain.MaxFormFields {
		return apperrors.NewValidationError("too many form fields",
			map[string]any{"max": domain.MaxFormFields, "got": len(input.FormFields)})
	}
	for _, field := range input.FormFields {
		if strings.TrimSpace(field.Label) == "" {
			return apperrors.NewValidationError("form field label is required", nil)
		}
		if field.Style != domain.FieldStyleShort && field.Style != domain.FieldStyleParagraph && field.Style != "" {
			return apperrors.NewValidationError("invalid form field style",
				map[string]any{"style": string(field.Style)})
		}
		if field.MinLength < 0 || field.MaxLength < 0 || (field.MaxLength > 0 && field.MinLength > field.MaxLength) {
			return apperrors.NewValidationError("invalid form field length bounds",
				map[string]any{"field": field.Label})
		}
	}
	return nil
}

func normalizeFormFields(fields []domain.FormField) []domain.FormField {
	normalized := make([]domain.FormField, 0, len(fields))
	for _, field := range fields {
		if field.Style == "" {
			field.Style = domain.FieldStyleShort
		}
		if field.MinLength <= 0 {
			field.MinLength = 1
		}
		if field.MaxLength <= 0 {
			field.MaxLength = 1000
		}
		normalized = append(normalized, field)
	}
	return normalized
}
