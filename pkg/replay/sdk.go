package replay

import (
	"context"

	"github.com/polisai/polis-replay/pkg/domain"
)

// SDK is the entry-point surface of the external session-replay library.
// Implementations own recording, buffering, and transport; the facade only
// gates and forwards.
type SDK interface {
	// Init starts the SDK for appID. It is called at most once per facade.
	Init(appID string, opts domain.InitOptions) error
	// AddTag attaches a single tag to the current replay.
	AddTag(ctx context.Context, name string, value any, typ domain.TagType) error
	// AddTags attaches tags in order, in one call.
	AddTags(ctx context.Context, tags []domain.Tag) error
	// UpdateUserData associates identity and tenant metadata with the replay.
	UpdateUserData(ctx context.Context, data domain.UserData) error
	// TrackStateTransition records a named application milestone.
	TrackStateTransition(from, to, trigger string) error
}
