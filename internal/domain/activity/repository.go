package activity

import (
	"context"
)

// Repository is the activity feed read model
type Repository interface {
	// Upsert stores an entry keyed by its event id, so replays are harmless.
	Upsert(ctx context.Context, entry *Entry) error
	GetByEventID(ctx context.Context, eventID string) (*Entry, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*Entry, error)
	CountByAccount(ctx context.Context, accountID string) (int64, error)
}

// ErrEntryNotFound indicates missing activity entry
type ErrEntryNotFound struct {
	EventID string
}

func (e ErrEntryNotFound) Error() string {
	return "activity entry not found: " + e.EventID
}

// Is matches any ErrEntryNotFound when the target has no event id.
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	return t.EventID == "" || e.EventID == t.EventID
}
