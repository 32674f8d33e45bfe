package sequence

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/spec-kit/community-tickets/internal/domain"
)

// memorySettings implements the subset of the settings store the
// allocator touches, with the same atomicity guarantee.
type memorySettings struct {
	mu       sync.Mutex
	counters map[string]int
}

func newMemorySettings() *memorySettings {
	return &memorySettings{counters: map[string]int{}}
}

func (m *memorySettings) GetOrCreate(ctx context.Context, communityID string) (*domain.CommunitySettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	settings := domain.DefaultSettings(communityID)
	settings.TicketCounter = m.counters[communityID]
	return settings, nil
}

func (m *memorySettings) Update(ctx context.Context, settings *domain.CommunitySettings) error {
	return nil
}

func (m *memorySettings) IncrementSequence(ctx context.Context, communityID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[communityID]++
	return m.counters[communityID], nil
}

func (m *memorySettings) SetSequence(ctx context.Context, communityID string, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value > m.counters[communityID] {
		m.counters[communityID] = value
	}
	return nil
}

func TestStoreAllocatorSequential(t *testing.T) {
	allocator := NewStoreAllocator(newMemorySettings())
	for want := 1; want <= 5; want++ {
		got, err := allocator.Next(context.Background(), "community-1")
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if got != want {
			t.Fatalf("number = %d, want %d", got, want)
		}
	}
}

func TestStoreAllocatorIndependentCommunities(t *testing.T) {
	allocator := NewStoreAllocator(newMemorySettings())
	if _, err := allocator.Next(context.Background(), "community-1"); err != nil {
		t.Fatalf("next: %v", err)
	}
	got, err := allocator.Next(context.Background(), "community-2")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got != 1 {
		t.Fatalf("community-2 first number = %d, want 1", got)
	}
}

func TestStoreAllocatorConcurrent(t *testing.T) {
	const workers = 50
	allocator := NewStoreAllocator(newMemorySettings())

	numbers := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := allocator.Next(context.Background(), "community-1")
			if err != nil {
				t.Errorf("next: %v", err)
				return
			}
			numbers <- n
		}()
	}
	wg.Wait()
	close(numbers)

	var got []int
	for n := range numbers {
		got = append(got, n)
	}
	sort.Ints(got)
	if len(got) != workers {
		t.Fatalf("allocated %d numbers, want %d", len(got), workers)
	}
	for i, n := range got {
		if n != i+1 {
			t.Fatalf("numbers = %v, want dense 1..%d", got, workers)
		}
	}
}
