package auth

import (
	"reflect"
	"testing"

	"github.com/spec-kit/community-tickets/internal/domain"
)

func testSettings() *domain.CommunitySettings {
	return &domain.CommunitySettings{
		CommunityID:  "community-1",
		AdminRoles:   []string{"admin-role"},
		SupportRoles: []string{"support-role"},
	}
}

func testCategory() *domain.Category {
	return &domain.Category{
		ID:           "cat-1",
		CommunityID:  "community-1",
		SupportRoles: []string{"cat-role"},
	}
}

func TestIsSupportGrantSources(t *testing.T) {
	tests := []struct {
		name     string
		actor    domain.Actor
		settings *domain.CommunitySettings
		category *domain.Category
		want     bool
	}{
		{
			name:     "platform administrator",
			actor:    domain.Actor{ID: "a", Administrator: true},
			settings: testSettings(),
			want:     true,
		},
		{
			name:     "community admin role",
			actor:    domain.Actor{ID: "a", Roles: []string{"admin-role"}},
			settings: testSettings(),
			want:     true,
		},
		{
			name:     "community support role",
			actor:    domain.Actor{ID: "a", Roles: []string{"support-role"}},
			settings: testSettings(),
			want:     true,
		},
		{
			name:     "category support role",
			actor:    domain.Actor{ID: "a", Roles: []string{"cat-role"}},
			settings: testSettings(),
			category: testCategory(),
			want:     true,
		},
		{
			name:     "channel management capability",
			actor:    domain.Actor{ID: "a", ManageChannels: true},
			settings: testSettings(),
			want:     true,
		},
		{
			name:     "category role without category context",
			actor:    domain.Actor{ID: "a", Roles: []string{"cat-role"}},
			settings: testSettings(),
			want:     false,
		},
		{
			name:     "no grants",
			actor:    domain.Actor{ID: "a", Roles: []string{"member-role"}},
			settings: testSettings(),
			category: testCategory(),
			want:     false,
		},
		{
			name:  "nil settings and category",
			actor: domain.Actor{ID: "a", Roles: []string{"support-role"}},
			want:  false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsSupport(tc.actor, tc.settings, tc.category); got != tc.want {
				t.Fatalf("IsSupport = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanManage(t *testing.T) {
	ticket := &domain.Ticket{RequesterID: "owner"}

	if !CanManage(domain.Actor{ID: "owner"}, ticket, testSettings(), nil) {
		t.Fatal("requester should manage their own ticket")
	}
	if !CanManage(domain.Actor{ID: "staff", Roles: []string{"support-role"}}, ticket, testSettings(), nil) {
		t.Fatal("support should manage any ticket")
	}
	if CanManage(domain.Actor{ID: "stranger"}, ticket, testSettings(), nil) {
		t.Fatal("stranger should not manage the ticket")
	}
}

func TestRoutableRolesDeduplicates(t *testing.T) {
	settings := &domain.CommunitySettings{
		AdminRoles:   []string{"admin-role", "shared-role"},
		SupportRoles: []string{"support-role", "shared-role"},
	}
	category := &domain.Category{SupportRoles: []string{"cat-role", "support-role"}}

	got := RoutableRoles(settings, category)
	want := []string{"support-role", "shared-role", "admin-role", "cat-role"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RoutableRoles = %v, want %v", got, want)
	}

	if roles := RoutableRoles(nil, nil); len(roles) != 0 {
		t.Fatalf("RoutableRoles(nil, nil) = %v, want empty", roles)
	}
}
