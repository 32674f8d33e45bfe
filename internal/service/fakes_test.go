package service

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/community-tickets/internal/domain"
	"github.com/spec-kit/community-tickets/internal/gateway"
	"github.com/spec-kit/community-tickets/internal/repository"
)

// In-memory fakes matching the repository and gateway contracts. The
// ticket fake enforces the same version check as the pgx implementation
// so concurrency paths can be exercised without a database.

type fakeTicketRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Ticket
	nextID int

	createErr error
	// conflictsLeft makes Update fail with ErrVersionConflict, invoking
	// onConflict first so a test can play the winning racer.
	conflictsLeft int
	onConflict    func(repo *fakeTicketRepo)
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{byID: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	ticket.ID = "ticket-id-" + ticket.ChannelID
	ticket.Version = 1
	stored := *ticket
	r.byID[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		hook := r.onConflict
		r.mu.Unlock()
		if hook != nil {
			hook(r)
		}
		return repository.ErrVersionConflict
	}
	defer r.mu.Unlock()
	stored, ok := r.byID[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != ticket.Version {
		return repository.ErrVersionConflict
	}
	updated := *ticket
	updated.Version++
	r.byID[ticket.ID] = &updated
	ticket.Version++
	return nil
}

func (r *fakeTicketRepo) GetByChannel(ctx context.Context, channelID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.byID {
		if ticket.ChannelID == channelID {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) GetByNumber(ctx context.Context, communityID string, number int) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.byID {
		if ticket.CommunityID == communityID && ticket.Number == number {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) CountOpen(ctx context.Context, communityID, requesterID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, ticket := range r.byID {
		if ticket.CommunityID == communityID && ticket.RequesterID == requesterID &&
			ticket.Status != domain.TicketStatusClosed {
			count++
		}
	}
	return count, nil
}

func (r *fakeTicketRepo) ListByCommunity(ctx context.Context, communityID string, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.byID {
		if ticket.CommunityID != communityID {
			continue
		}
		if filter.RequesterID != nil && ticket.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.CategoryID != nil && ticket.CategoryID != *filter.CategoryID {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

// seed installs a ticket directly, bypassing Create.
func (r *fakeTicketRepo) seed(ticket domain.Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket.Version == 0 {
		ticket.Version = 1
	}
	r.byID[ticket.ID] = &ticket
}

func (r *fakeTicketRepo) get(id string) domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.byID[id]
}

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings map[string]*domain.CommunitySettings
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: map[string]*domain.CommunitySettings{}}
}

func (r *fakeSettingsRepo) GetOrCreate(ctx context.Context, communityID string) (*domain.CommunitySettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.settings[communityID]; ok {
		copied := *existing
		return &copied, nil
	}
	created := domain.DefaultSettings(communityID)
	r.settings[communityID] = created
	copied := *created
	return &copied, nil
}

func (r *fakeSettingsRepo) Update(ctx context.Context, settings *domain.CommunitySettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.settings[settings.CommunityID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *settings
	r.settings[settings.CommunityID] = &copied
	return nil
}

func (r *fakeSettingsRepo) IncrementSequence(ctx context.Context, communityID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.settings[communityID]
	if !ok {
		existing = domain.DefaultSettings(communityID)
		r.settings[communityID] = existing
	}
	existing.TicketCounter++
	return existing.TicketCounter, nil
}

func (r *fakeSettingsRepo) SetSequence(ctx context.Context, communityID string, value int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.settings[communityID]; ok && value > existing.TicketCounter {
		existing.TicketCounter = value
	}
	return nil
}

// put installs settings directly.
func (r *fakeSettingsRepo) put(settings *domain.CommunitySettings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[settings.CommunityID] = settings
}

type fakeCategoryRepo struct {
	mu         sync.Mutex
	categories map[string]*domain.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: map[string]*domain.Category{}}
}

func (r *fakeCategoryRepo) key(communityID, categoryID string) string {
	return communityID + "/" + categoryID
}

func (r *fakeCategoryRepo) Create(ctx context.Context, category *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *category
	r.categories[r.key(category.CommunityID, category.ID)] = &copied
	return nil
}

func (r *fakeCategoryRepo) Update(ctx context.Context, category *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[r.key(category.CommunityID, category.ID)]; !ok {
		return pgx.ErrNoRows
	}
	copied := *category
	r.categories[r.key(category.CommunityID, category.ID)] = &copied
	return nil
}

func (r *fakeCategoryRepo) Delete(ctx context.Context, communityID, categoryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[r.key(communityID, categoryID)]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.categories, r.key(communityID, categoryID))
	return nil
}

func (r *fakeCategoryRepo) GetByID(ctx context.Context, communityID, categoryID string) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	category, ok := r.categories[r.key(communityID, categoryID)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *category
	return &copied, nil
}

func (r *fakeCategoryRepo) ListByCommunity(ctx context.Context, communityID string, enabledOnly bool) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Category
	for _, category := range r.categories {
		if category.CommunityID != communityID {
			continue
		}
		if enabledOnly && !category.Enabled {
			continue
		}
		result = append(result, *category)
	}
	return result, nil
}

type createdChannel struct {
	communityID string
	name        string
	grants      []gateway.VisibilityGrant
}

type fakeRouting struct {
	mu       sync.Mutex
	created  []createdChannel
	renames  map[string]string
	deleted  []string
	granted  []string
	revoked  []string
	nextID   int
	createFn func() (string, error)
}

func newFakeRouting() *fakeRouting {
	return &fakeRouting{renames: map[string]string{}}
}

func (r *fakeRouting) CreateChannel(ctx context.Context, communityID, name string, parentHint *string, grants []gateway.VisibilityGrant) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createFn != nil {
		return r.createFn()
	}
	r.nextID++
	r.created = append(r.created, createdChannel{communityID: communityID, name: name, grants: grants})
	return "chan-" + name, nil
}

func (r *fakeRouting) RenameChannel(ctx context.Context, channelID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renames[channelID] = name
	return nil
}

func (r *fakeRouting) DeleteChannel(ctx context.Context, channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, channelID)
	return nil
}

func (r *fakeRouting) GrantAccess(ctx context.Context, channelID, memberID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.granted = append(r.granted, channelID+"/"+memberID)
	return nil
}

func (r *fakeRouting) RevokeAccess(ctx context.Context, channelID, memberID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked = append(r.revoked, channelID+"/"+memberID)
	return nil
}

type postedMessage struct {
	channelID string
	content   string
}

type fakeNotifier struct {
	mu    sync.Mutex
	posts []postedMessage
	dms   []postedMessage
}

func (n *fakeNotifier) Post(ctx context.Context, channelID, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.posts = append(n.posts, postedMessage{channelID: channelID, content: content})
	return nil
}

func (n *fakeNotifier) DM(ctx context.Context, memberID, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dms = append(n.dms, postedMessage{channelID: memberID, content: content})
	return nil
}

type fakeTeardown struct {
	mu        sync.Mutex
	scheduled []string
}

func (f *fakeTeardown) Schedule(channelID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, channelID)
}

func repositoryFilter() repository.TicketFilter {
	return repository.TicketFilter{Limit: 50}
}

type fakeAllocator struct {
	mu      sync.Mutex
	counter int
	err     error
	calls   int
}

func (a *fakeAllocator) Next(ctx context.Context, communityID string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return 0, a.err
	}
	a.counter++
	return a.counter, nil
}
