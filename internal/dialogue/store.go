package dialogue

import "context"

// Store keeps the current state per user. Get returns Start for users
// without a stored state.
type Store interface {
	Get(ctx context.Context, userID int64) (State, error)
	Set(ctx context.Context, userID int64, s State) error
	Delete(ctx context.Context, userID int64) error
}
