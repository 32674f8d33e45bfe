package auth

import (
	"github.com/spec-kit/community-tickets/internal/domain"
)

// IsAdmin reports whether the actor has administrative authority: either
// the platform administrator capability or one of the community's
// configured admin roles.
func IsAdmin(actor domain.Actor, settings *domain.CommunitySettings) bool {
	if actor.Administrator {
		return true
	}
	if settings != nil && actor.HasAnyRole(settings.AdminRoles) {
		return true
	}
	return false
}

// IsSupport reports whether the actor has support authority. Support is
// the union of four grant sources: admin authority, community support
// roles, category-scoped support roles, and the channel-management
// capability. Any one source suffices.
func IsSupport(actor domain.Actor, settings *domain.CommunitySettings, category *domain.Category) bool {
	if IsAdmin(actor, settings) {
		return true
	}
	if settings != nil && actor.HasAnyRole(settings.SupportRoles) {
		return true
	}
	if category != nil && actor.HasAnyRole(category.SupportRoles) {
		return true
	}
	return actor.ManageChannels
}

// CanManage reports whether the actor may manage the given ticket. The
// requester may manage their own ticket; otherwise support authority is
// required.
func CanManage(actor domain.Actor, ticket *domain.Ticket, settings *domain.CommunitySettings, category *domain.Category) bool {
	if ticket != nil && actor.ID == ticket.RequesterID {
		return true
	}
	return IsSupport(actor, settings, category)
}

// RoutableRoles returns the deduplicated union of community support
// roles, community admin roles, and category support roles. These roles
// receive visibility grants on ticket channels.
func RoutableRoles(settings *domain.CommunitySettings, category *domain.Category) []string {
	seen := make(map[string]struct{})
	var roles []string
	add := func(ids []string) {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			roles = append(roles, id)
		}
	}
	if settings != nil {
		add(settings.SupportRoles)
		add(settings.AdminRoles)
	}
	if category != nil {
		add(category.SupportRoles)
	}
	return roles
}
