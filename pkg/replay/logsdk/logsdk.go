// Package logsdk implements the replay SDK by writing every call to a
// structured logger. It is meant for dry runs and local development.
package logsdk

import (
	"context"
	"log/slog"
	"sync"

	"github.com/polisai/polis-replay/pkg/domain"
)

// SDK logs replay calls instead of recording them.
type SDK struct {
	logger *slog.Logger

	mu    sync.Mutex
	appID string
}

// New creates an SDK writing to logger.
func New(logger *slog.Logger) *SDK {
	if logger == nil {
		logger = slog.Default()
	}
	return &SDK{logger: logger.With("sdk", "log")}
}

// Init records the app id.
func (s *SDK) Init(appID string, opts domain.InitOptions) error {
	if appID == "" {
		return domain.ErrMissingAppID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appID != "" {
		return domain.ErrAlreadyInitialized
	}
	s.appID = appID

	s.logger.Info("replay init", "app_id", appID, "release", opts.Release, "dist", opts.Dist)
	return nil
}

// AddTag logs a validated tag.
func (s *SDK) AddTag(ctx context.Context, name string, value any, typ domain.TagType) error {
	return s.AddTags(ctx, []domain.Tag{{Name: name, Value: value, Type: typ}})
}

// AddTags logs each tag after validating all of them.
func (s *SDK) AddTags(ctx context.Context, tags []domain.Tag) error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, tag := range tags {
		if err := tag.Validate(); err != nil {
			return err
		}
	}
	for _, tag := range tags {
		s.logger.InfoContext(ctx, "replay tag", "name", tag.Name, "value", tag.Value, "type", string(tag.Type))
	}
	return nil
}

// UpdateUserData logs the populated user fields.
func (s *SDK) UpdateUserData(ctx context.Context, data domain.UserData) error {
	if err := s.ready(); err != nil {
		return err
	}
	fields := data.Fields()
	attrs := make([]any, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, slog.String(f.Key, f.Value))
	}
	s.logger.InfoContext(ctx, "replay user data", slog.Group("user", attrs...))
	return nil
}

// TrackStateTransition logs the transition.
func (s *SDK) TrackStateTransition(from, to, trigger string) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.logger.Info("replay state transition", "from", from, "to", to, "trigger", trigger)
	return nil
}

func (s *SDK) ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appID == "" {
		return domain.ErrNotInitialized
	}
	return nil
}
