package userlist

import (
	"context"

	domain "user-browser-service/internal/domain/user"
)

// Source defines the remote collaborator that serves pages of users.
// Implementations report every failure as an errors.FetchError.
type Source interface {
	FetchPage(ctx context.Context, req domain.PageRequest) ([]domain.Record, error) // Fetch one page
}

// Usecase defines the gestures a view can forward to the list controller.
type Usecase interface {
	Start() bool
	Refresh() bool
	LoadMore() bool
	RetryLastOperation() bool
	SetSearchQuery(query string)
	OnItemSelected(r domain.Record) Selection
	Find(id string) (domain.Record, bool)
	Snapshot() Snapshot
}
