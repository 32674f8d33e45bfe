package dto

import (
	"time"

	"github.com/spec-kit/community-tickets/internal/domain"
	"github.com/spec-kit/community-tickets/internal/service"
)

// CategoryRequest creates or updates a category.
type CategoryRequest struct {
	Name                 string             `json:"name"`
	Description          string             `json:"description"`
	Emoji                string             `json:"emoji"`
	DestinationChannelID *string            `json:"destination_channel_id"`
	SupportRoles         []string           `json:"support_roles"`
	FormFields           []domain.FormField `json:"form_fields"`
	WelcomeMessage       string             `json:"welcome_message"`
	AutoAddMembers       []string           `json:"auto_add_members"`
	Enabled              bool               `json:"enabled"`
	DisplayOrder         int                `json:"display_order"`
}

// ToInput converts the request to a service input.
func (r CategoryRequest) ToInput() service.CategoryInput {
	return service.CategoryInput{
		Name:                 r.Name,
		Description:          r.Description,
		Emoji:                r.Emoji,
		DestinationChannelID: r.DestinationChannelID,
		SupportRoles:         r.SupportRoles,
		FormFields:           r.FormFields,
		WelcomeMessage:       r.WelcomeMessage,
		AutoAddMembers:       r.AutoAddMembers,
		Enabled:              r.Enabled,
		DisplayOrder:         r.DisplayOrder,
	}
}

// CategoryResponse is the API view of a category.
type CategoryResponse struct {
	ID                   string             `json:"id"`
	CommunityID          string             `json:"community_id"`
	Name                 string             `json:"name"`
	Description          string             `json:"description"`
	Emoji                string             `json:"emoji"`
	DestinationChannelID *string            `json:"destination_channel_id,omitempty"`
	SupportRoles         []string           `json:"support_roles"`
	FormFields           []domain.FormField `json:"form_fields"`
	WelcomeMessage       string             `json:"welcome_message"`
	AutoAddMembers       []string           `json:"auto_add_members"`
	Enabled              bool               `json:"enabled"`
	DisplayOrder         int                `json:"display_order"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// CategoryFromDomain maps a category to its API view.
func CategoryFromDomain(category *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:                   category.ID,
		CommunityID:          category.CommunityID,
		Name:                 category.Name,
		Description:          category.Description,
		Emoji:                category.Emoji,
		DestinationChannelID: category.DestinationChannelID,
		SupportRoles:         category.SupportRoles,
		FormFields:           category.FormFields,
		WelcomeMessage:       category.WelcomeMessage,
		AutoAddMembers:       category.AutoAddMembers,
		Enabled:              category.Enabled,
		DisplayOrder:         category.DisplayOrder,
		CreatedAt:            category.CreatedAt,
		UpdatedAt:            category.UpdatedAt,
	}
}

// CategoriesFromDomain maps a slice of categories.
func CategoriesFromDomain(categories []domain.Category) []CategoryResponse {
	result := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		result = append(result, CategoryFromDomain(&categories[i]))
	}
	return result
}
