package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/community-tickets/internal/domain"
	"github.com/spec-kit/community-tickets/internal/events"
	"github.com/spec-kit/community-tickets/internal/gateway"
	apperrors "github.com/spec-kit/community-tickets/pkg/util"
)

type provisioningFixture struct {
	service    *ProvisioningService
	tickets    *fakeTicketRepo
	settings   *fakeSettingsRepo
	categories *fakeCategoryRepo
	routing    *fakeRouting
	notifier   *fakeNotifier
	allocator  *fakeAllocator
	published  *[]events.Event
}

func newProvisioningFixture(t *testing.T) *provisioningFixture {
	t.Helper()
	tickets := newFakeTicketRepo()
	settings := newFakeSettingsRepo()
	categories := newFakeCategoryRepo()
	routing := newFakeRouting()
	notifier := &fakeNotifier{}
	allocator := &fakeAllocator{}
	dispatcher := events.NewInMemoryDispatcher()

	var published []events.Event
	dispatcher.Subscribe(events.EventTicketOpened, func(ctx context.Context, event events.Event) error {
		published = append(published, event)
		return nil
	})

	communitySettings := domain.DefaultSettings(testCommunity)
	communitySettings.SupportRoles = []string{"support-role"}
	settings.put(communitySettings)

	if err := categories.Create(context.Background(), &domain.Category{
		ID:          "cat-1",
		CommunityID: testCommunity,
		Name:        "General Support",
		Enabled:     true,
	}); err != nil {
		t.Fatalf("seed category: %v", err)
	}

	svc := NewProvisioningService(ProvisioningDependencies{
		TicketRepo:    tickets,
		SettingsRepo:  settings,
		CategoryRepo:  categories,
		Allocator:     allocator,
		Routing:       routing,
		Notifications: notifier,
		Dispatcher:    dispatcher,
		Logger:        zap.NewNop(),
	})
	return &provisioningFixture{
		service:    svc,
		tickets:    tickets,
		settings:   settings,
		categories: categories,
		routing:    routing,
		notifier:   notifier,
		allocator:  allocator,
		published:  &published,
	}
}

func openInput() OpenInput {
	return OpenInput{CommunityID: testCommunity, CategoryID: "cat-1"}
}

func TestOpenCreatesTicket(t *testing.T) {
	f := newProvisioningFixture(t)

	ticket, err := f.service.Open(context.Background(), requester, openInput())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if ticket.Number != 1 {
		t.Fatalf("number = %d, want 1", ticket.Number)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %s, want open", ticket.Status)
	}
	if ticket.ChannelID != "chan-ticket-1" {
		t.Fatalf("channel = %s", ticket.ChannelID)
	}
	if len(ticket.History) != 1 || ticket.History[0].Action != domain.ActionCreated {
		t.Fatalf("history = %+v, want single created entry", ticket.History)
	}
	if len(f.routing.created) != 1 || f.routing.created[0].name != "ticket-1" {
		t.Fatalf("created channels = %+v", f.routing.created)
	}
	if len(*f.published) != 1 {
		t.Fatalf("published %d events, want 1", len(*f.published))
	}

	// The channel baseline denies everyone, then admits the requester
	// and the support roles.
	grants := f.routing.created[0].grants
	if grants[0].Target != gateway.GrantEveryone || grants[0].Allow {
		t.Fatalf("first grant = %+v, want everyone deny", grants[0])
	}
	foundRequester, foundRole := false, false
	for _, grant := range grants[1:] {
		if grant.Target == gateway.GrantMember && grant.ID == requester.ID && grant.Allow {
			foundRequester = true
		}
		if grant.Target == gateway.GrantRole && grant.ID == "support-role" && grant.Allow {
			foundRole = true
		}
	}
	if !foundRequester || !foundRole {
		t.Fatalf("grants = %+v, missing requester or support role", grants)
	}
}

func TestOpenWelcomeMentions(t *testing.T) {
	f := newProvisioningFixture(t)

	if _, err := f.service.Open(context.Background(), requester, openInput()); err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(f.notifier.posts) != 1 {
		t.Fatalf("posts = %+v, want 1", f.notifier.posts)
	}
	msg := f.notifier.posts[0].content
	if !strings.Contains(msg, "<@"+requester.ID+">") {
		t.Fatalf("welcome %q missing requester mention", msg)
	}
	if !strings.Contains(msg, "<@&support-role>") {
		t.Fatalf("welcome %q missing support role mention", msg)
	}

	// With auto-tag off only the requester is mentioned.
	s, _ := f.settings.GetOrCreate(context.Background(), testCommunity)
	s.AutoTagEnabled = false
	f.settings.put(s)
	if _, err := f.service.Open(context.Background(), supporter, openInput()); err != nil {
		t.Fatalf("open: %v", err)
	}
	msg = f.notifier.posts[1].content
	if strings.Contains(msg, "<@&") {
		t.Fatalf("welcome %q mentions roles with auto-tag disabled", msg)
	}
}

func TestOpenQuota(t *testing.T) {
	f := newProvisioningFixture(t)

	s, _ := f.settings.GetOrCreate(context.Background(), testCommunity)
	s.MaxTicketsPerUser = 1
	f.settings.put(s)

	if _, err := f.service.Open(context.Background(), requester, openInput()); err != nil {
		t.Fatalf("first open: %v", err)
	}
	_, err := f.service.Open(context.Background(), requester, openInput())
	if !apperrors.HasCode(err, apperrors.CodeQuotaExceeded) {
		t.Fatalf("second open error = %v, want QUOTA_EXCEEDED", err)
	}

	// A rejected attempt consumes no sequence number and creates no
	// channel.
	if f.allocator.calls != 1 {
		t.Fatalf("allocator called %d times, want 1", f.allocator.calls)
	}
	if len(f.routing.created) != 1 {
		t.Fatalf("channels created = %d, want 1", len(f.routing.created))
	}

	// Closing the ticket frees the slot.
	closed := f.tickets.get("ticket-id-chan-ticket-1")
	closed.Status = domain.TicketStatusClosed
	f.tickets.seed(closed)
	if _, err := f.service.Open(context.Background(), requester, openInput()); err != nil {
		t.Fatalf("open after close: %v", err)
	}
}

func TestOpenCategoryGuards(t *testing.T) {
	f := newProvisioningFixture(t)

	_, err := f.service.Open(context.Background(), requester, OpenInput{CommunityID: testCommunity, CategoryID: "missing"})
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("open error = %v, want NOT_FOUND", err)
	}

	if err := f.categories.Create(context.Background(), &domain.Category{
		ID:          "cat-off",
		CommunityID: testCommunity,
		Name:        "Disabled",
		Enabled:     false,
	}); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	_, err = f.service.Open(context.Background(), requester, OpenInput{CommunityID: testCommunity, CategoryID: "cat-off"})
	if !apperrors.HasCode(err, apperrors.CodeFeatureDisabled) {
		t.Fatalf("open error = %v, want FEATURE_DISABLED", err)
	}
}

func TestOpenFormValidation(t *testing.T) {
	f := newProvisioningFixture(t)
	if err := f.categories.Create(context.Background(), &domain.Category{
		ID:          "cat-form",
		CommunityID: testCommunity,
		Name:        "Bug Reports",
		Enabled:     true,
		FormFields: []domain.FormField{
			{Label: "What happened?", Style: domain.FieldStyleParagraph, Required: true, MinLength: 10, MaxLength: 500},
			{Label: "Steps to reproduce", Style: domain.FieldStyleParagraph, Required: false},
		},
	}); err != nil {
		t.Fatalf("seed category: %v", err)
	}

	open := func(responses []domain.FormResponse) error {
		_, err := f.service.Open(context.Background(), requester, OpenInput{
			CommunityID:   testCommunity,
			CategoryID:    "cat-form",
			FormResponses: responses,
		})
		return err
	}

	tests := []struct {
		name      string
		responses []domain.FormResponse
		wantErr   bool
	}{
		{
			name: "valid submission",
			responses: []domain.FormResponse{
				{Question: "What happened?", Answer: "The widget exploded on login."},
				{Question: "Steps to reproduce", Answer: ""},
			},
		},
		{
			name:      "missing answers",
			responses: nil,
			wantErr:   true,
		},
		{
			name: "required field empty",
			responses: []domain.FormResponse{
				{Question: "What happened?", Answer: "   "},
				{Question: "Steps to reproduce", Answer: ""},
			},
			wantErr: true,
		},
		{
			name: "answer below minimum length",
			responses: []domain.FormResponse{
				{Question: "What happened?", Answer: "bad"},
				{Question: "Steps to reproduce", Answer: ""},
			},
			wantErr: true,
		},
		{
			name: "question mismatch",
			responses: []domain.FormResponse{
				{Question: "Unexpected", Answer: "The widget exploded on login."},
				{Question: "Steps to reproduce", Answer: ""},
			},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := open(tc.responses)
			if tc.wantErr && !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Fatalf("open error = %v, want VALIDATION_FAILED", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("open: %v", err)
			}
		})
	}
}

func TestOpenAutoAddMembers(t *testing.T) {
	f := newProvisioningFixture(t)
	if err := f.categories.Create(context.Background(), &domain.Category{
		ID:             "cat-vip",
		CommunityID:    testCommunity,
		Name:           "VIP",
		Enabled:        true,
		AutoAddMembers: []string{"helper-1", requester.ID},
	}); err != nil {
		t.Fatalf("seed category: %v", err)
	}

	ticket, err := f.service.Open(context.Background(), requester, OpenInput{CommunityID: testCommunity, CategoryID: "cat-vip"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	// The requester is never duplicated as a participant.
	if len(ticket.Participants) != 1 || ticket.Participants[0].MemberID != "helper-1" {
		t.Fatalf("participants = %+v, want only helper-1", ticket.Participants)
	}
}

func TestOpenCleansUpOnPersistFailure(t *testing.T) {
	f := newProvisioningFixture(t)
	f.tickets.createErr = errors.New("insert failed")

	_, err := f.service.Open(context.Background(), requester, openInput())
	if err == nil {
		t.Fatal("open succeeded, want error")
	}
	if len(f.routing.deleted) != 1 || f.routing.deleted[0] != "chan-ticket-1" {
		t.Fatalf("deleted = %v, want orphaned channel removed", f.routing.deleted)
	}
	if len(*f.published) != 0 {
		t.Fatalf("published = %+v, want none", *f.published)
	}
}
