package domain

import "time"

// FieldStyle enumerates form input styles.
type FieldStyle string

const (
	FieldStyleShort     FieldStyle = "short"
	FieldStyleParagraph FieldStyle = "paragraph"
)

// MaxFormFields caps the number of form fields per category.
const MaxFormFields = 5

// FormField describes one question asked when opening a ticket.
type FormField struct {
	Label       string     `json:"label"`
	Placeholder string     `json:"placeholder,omitempty"`
	Style       FieldStyle `json:"style"`
	Required    bool       `json:"required"`
	MinLength   int        `json:"min_length"`
	MaxLength   int        `json:"max_length"`
}

// Category groups tickets and carries creation-time configuration.
// Tickets reference categories by ID only; a category may be deleted
// while its tickets live on.
type Category struct {
	ID                   string
	CommunityID          string
	Name                 string
	Description          string
	Emoji                string
	DestinationChannelID *string
	SupportRoles         []string
	FormFields           []FormField
	WelcomeMessage       string
	AutoAddMembers       []string
	Enabled              bool
	DisplayOrder         int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
