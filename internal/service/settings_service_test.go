package service

import (
	"context"
	"testing"

	apperrors "github.com/spec-kit/community-tickets/pkg/util"
)

func TestSettingsGetCreatesDefaults(t *testing.T) {
	svc := NewSettingsService(newFakeSettingsRepo())

	settings, err := svc.Get(context.Background(), "fresh-community")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if settings.MaxTicketsPerUser != 3 || !settings.ClaimEnabled || settings.TicketCounter != 0 {
		t.Fatalf("defaults = %+v", settings)
	}
}

func TestSettingsUpdate(t *testing.T) {
	repo := newFakeSettingsRepo()
	svc := NewSettingsService(repo)

	input := SettingsInput{
		MaxTicketsPerUser: 5,
		SupportRoles:      []string{"helpers"},
		ClaimEnabled:      true,
	}

	if _, err := svc.Update(context.Background(), testCommunity, supporter, input); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("update as non-admin = %v, want FORBIDDEN", err)
	}

	updated, err := svc.Update(context.Background(), testCommunity, adminUser, input)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.MaxTicketsPerUser != 5 || len(updated.SupportRoles) != 1 {
		t.Fatalf("updated = %+v", updated)
	}

	input.MaxTicketsPerUser = 0
	if _, err := svc.Update(context.Background(), testCommunity, adminUser, input); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("update with zero quota = %v, want VALIDATION_FAILED", err)
	}
}

func TestSettingsUpdateDoesNotTouchCounter(t *testing.T) {
	repo := newFakeSettingsRepo()
	svc := NewSettingsService(repo)

	if _, err := repo.IncrementSequence(context.Background(), testCommunity); err != nil {
		t.Fatalf("increment: %v", err)
	}

	updated, err := svc.Update(context.Background(), testCommunity, adminUser, SettingsInput{MaxTicketsPerUser: 4})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.TicketCounter != 1 {
		t.Fatalf("counter = %d, want 1 preserved", updated.TicketCounter)
	}
}
