// Package sequence issues per-community ticket numbers. Numbers are
// strictly increasing and duplicate-free under concurrent allocation;
// both backends perform the increment as one atomic read-modify-write.
package sequence

import (
	"context"

	"github.com/spec-kit/community-tickets/internal/repository"
)

// Allocator hands out the next ticket number for a community.
type Allocator interface {
	Next(ctx context.Context, communityID string) (int, error)
}

// storeAllocator delegates to the settings store's atomic increment.
type storeAllocator struct {
	settings repository.SettingsRepository
}

// NewStoreAllocator builds an allocator backed by the settings store.
func NewStoreAllocator(settings repository.SettingsRepository) Allocator {
	return &storeAllocator{settings: settings}
}

func (a *storeAllocator) Next(ctx context.Context, communityID string) (int, error) {
	return a.settings.IncrementSequence(ctx, communityID)
}
