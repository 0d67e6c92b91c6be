// Package otelsdk implements the replay SDK on top of OpenTelemetry. Each
// initialized SDK owns one long-lived session span: tags and user data become
// span attributes and state transitions become span events.
package otelsdk

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/polisai/polis-replay/pkg/domain"
	"github.com/polisai/polis-replay/pkg/telemetry"
)

const tracerName = "github.com/polisai/polis-replay/pkg/replay/otelsdk"

// Attribute key prefixes on the session span.
const (
	TagKeyPrefix  = "replay.tag."
	UserKeyPrefix = "replay.user."
)

// SDK records replay sessions as OpenTelemetry spans.
type SDK struct {
	tracer    trace.Tracer
	redaction telemetry.RedactionPolicy
	logger    *slog.Logger
	newID     func() string

	mu        sync.Mutex
	appID     string
	sessionID string
	session   trace.Span
	closed    bool
}

// Option configures an SDK.
type Option func(*SDK)

// WithTracer overrides the tracer, which defaults to the global provider's.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *SDK) { s.tracer = tracer }
}

// WithRedaction applies policy to user data attributes. Keys are the user
// field names (e.g. "userEmail").
func WithRedaction(policy telemetry.RedactionPolicy) Option {
	return func(s *SDK) {
		s.redaction = make(telemetry.RedactionPolicy, len(policy))
		for key, strategy := range policy {
			s.redaction[UserKeyPrefix+key] = strategy
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SDK) { s.logger = logger }
}

// WithSessionIDGenerator replaces the random session id source.
func WithSessionIDGenerator(newID func() string) Option {
	return func(s *SDK) { s.newID = newID }
}

// New creates an SDK. It records nothing until Init is called.
func New(opts ...Option) *SDK {
	s := &SDK{
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// Init starts the session span for appID.
func (s *SDK) Init(appID string, opts domain.InitOptions) (err error) {
	defer func() {
		telemetry.RecordSDKCall(context.Background(), telemetry.SDKCall{AppID: appID, Operation: "init", Err: err})
	}()

	if appID == "" {
		return domain.ErrMissingAppID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		return domain.ErrAlreadyInitialized
	}

	s.appID = appID
	s.sessionID = s.newID()

	attrs := []attribute.KeyValue{
		attribute.String("replay.app_id", appID),
		attribute.String("replay.session_id", s.sessionID),
	}
	if opts.Release != "" {
		attrs = append(attrs, attribute.String("replay.release", opts.Release))
	}
	if opts.Dist != "" {
		attrs = append(attrs, attribute.String("replay.dist", opts.Dist))
	}

	_, s.session = s.tracer.Start(context.Background(), "replay.session",
		trace.WithNewRoot(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)

	s.logger.Debug("Replay session started", "app_id", appID, "session_id", s.sessionID)
	return nil
}

// SessionID returns the id of the active session, or "" before Init.
func (s *SDK) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// AddTag validates the tag and sets it on the session span.
func (s *SDK) AddTag(ctx context.Context, name string, value any, typ domain.TagType) error {
	return s.AddTags(ctx, []domain.Tag{{Name: name, Value: value, Type: typ}})
}

// AddTags validates every tag before setting any of them.
func (s *SDK) AddTags(ctx context.Context, tags []domain.Tag) (err error) {
	defer func() { s.record(ctx, "add_tags", err) }()

	attrs := make([]attribute.KeyValue, 0, len(tags))
	for _, tag := range tags {
		if err := tag.Validate(); err != nil {
			return err
		}
		attrs = append(attrs, TagAttribute(tag))
	}

	session, err := s.activeSession()
	if err != nil {
		return err
	}

	session.SetAttributes(attrs...)
	for _, tag := range tags {
		telemetry.RecordTag(ctx, string(tag.Type))
	}
	return nil
}

// UpdateUserData sets the populated user fields on the session span, after
// redaction.
func (s *SDK) UpdateUserData(ctx context.Context, data domain.UserData) (err error) {
	defer func() { s.record(ctx, "update_user_data", err) }()

	session, err := s.activeSession()
	if err != nil {
		return err
	}

	fields := data.Fields()
	attrs := make([]attribute.KeyValue, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, attribute.String(UserKeyPrefix+f.Key, f.Value))
	}
	attrs = telemetry.RedactAttributes(s.redaction, attrs)

	session.SetAttributes(attrs...)
	session.AddEvent("replay.user_data.updated", trace.WithAttributes(attribute.Int("replay.user.fields", len(attrs))))
	telemetry.RecordUserDataUpdate(ctx, len(attrs))
	return nil
}

// TrackStateTransition adds a state transition event to the session span.
func (s *SDK) TrackStateTransition(from, to, trigger string) (err error) {
	ctx := context.Background()
	defer func() { s.record(ctx, "track_state_transition", err) }()

	session, err := s.activeSession()
	if err != nil {
		return err
	}

	session.AddEvent("replay.state_transition", trace.WithAttributes(
		attribute.String("replay.state.from", from),
		attribute.String("replay.state.to", to),
		attribute.String("replay.state.trigger", trigger),
	))
	telemetry.RecordStateTransition(ctx, trigger)
	return nil
}

// Close ends the session span. The SDK cannot be reused afterwards.
func (s *SDK) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil && !s.closed {
		s.session.End()
		s.closed = true
	}
}

func (s *SDK) activeSession() (trace.Span, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, domain.ErrNotInitialized
	}
	if s.closed {
		return nil, fmt.Errorf("replay session %s already closed", s.sessionID)
	}
	return s.session, nil
}

func (s *SDK) record(ctx context.Context, operation string, err error) {
	s.mu.Lock()
	appID := s.appID
	s.mu.Unlock()
	telemetry.RecordSDKCall(ctx, telemetry.SDKCall{AppID: appID, Operation: operation, Err: err})
}

// TagAttribute converts a validated tag to a span attribute.
func TagAttribute(tag domain.Tag) attribute.KeyValue {
	key := attribute.Key(TagKeyPrefix + tag.Name)
	switch tag.Type {
	case domain.TagTypeNumber:
		if i, ok := integerValue(tag.Value); ok {
			return key.Int64(i)
		}
		f, _ := domain.NumericValue(tag.Value)
		return key.Float64(f)
	case domain.TagTypeBool:
		return key.Bool(tag.Value.(bool))
	case domain.TagTypeDateTime:
		return key.String(tag.Value.(time.Time).UTC().Format(time.RFC3339Nano))
	default:
		return key.String(fmt.Sprint(tag.Value))
	}
}

func integerValue(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), uint64(v) <= math.MaxInt64
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), v <= math.MaxInt64
	default:
		return 0, false
	}
}
