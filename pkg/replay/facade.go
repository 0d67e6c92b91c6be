package replay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/polisai/polis-replay/pkg/domain"
)

// Operation names used in logs, metrics, and span names.
const (
	OpInitialize           = "initialize"
	OpUpdateUserData       = "update_user_data"
	OpAddTag               = "add_tag"
	OpAddTags              = "add_tags"
	OpTrackStateTransition = "track_state_transition"
)

const tracerName = "github.com/polisai/polis-replay/pkg/replay"

// Outcome classifies how an operation ended.
type Outcome string

// Operation outcomes.
const (
	OutcomeOK      Outcome = "ok"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Result is the internal status of an operation. Public methods log it and
// drop it.
type Result struct {
	Operation string
	Outcome   Outcome
	Err       error
}

// Options configures a Facade.
type Options struct {
	// AppID identifies the application to the SDK. Surrounding whitespace is
	// trimmed. Empty or domain.PlaceholderAppID keeps the facade inert.
	AppID       string
	InitOptions domain.InitOptions
	Logger      *slog.Logger
	Metrics     *Metrics
	Tracer      trace.Tracer
}

// Facade gates every call to the replay SDK behind a one-way initialization
// flag and contains every SDK failure.
type Facade struct {
	sdk      SDK
	appID    string
	initOpts domain.InitOptions
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer

	initMu      sync.Mutex
	initFailed  bool
	initialized atomic.Bool
}

// New creates an uninitialized facade around sdk.
func New(sdk SDK, opts Options) *Facade {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	return &Facade{
		sdk:      sdk,
		appID:    strings.TrimSpace(opts.AppID),
		initOpts: opts.InitOptions,
		logger:   logger.With("component", "replay"),
		metrics:  opts.Metrics,
		tracer:   tracer,
	}
}

// IsInitialized reports whether the SDK has been initialized.
func (f *Facade) IsInitialized() bool {
	return f.initialized.Load()
}

// Initialize starts the SDK once. A missing or placeholder app id skips
// initialization with a warning. A failed SDK init is logged and leaves the
// facade uninitialized for the rest of its life: the SDK init entry point is
// never called a second time.
func (f *Facade) Initialize(ctx context.Context) {
	_ = f.initialize(ctx)
}

func (f *Facade) initialize(ctx context.Context) Result {
	f.initMu.Lock()
	defer f.initMu.Unlock()

	if f.initialized.Load() {
		f.logger.DebugContext(ctx, "Replay SDK already initialized")
		return Result{Operation: OpInitialize, Outcome: OutcomeSkipped, Err: domain.ErrAlreadyInitialized}
	}
	if f.initFailed {
		f.logger.WarnContext(ctx, "Replay SDK initialization failed earlier, restart required")
		return Result{Operation: OpInitialize, Outcome: OutcomeSkipped, Err: domain.ErrInitFailed}
	}

	start := time.Now()
	ctx, span := f.tracer.Start(ctx, "replay."+OpInitialize, trace.WithAttributes(
		attribute.String("replay.operation", OpInitialize),
	))
	defer span.End()

	if err := domain.CheckAppID(f.appID); err != nil {
		f.logger.WarnContext(ctx, "Replay SDK app id not configured, skipping initialization", "error", err)
		return f.finish(span, OpInitialize, start, Result{Operation: OpInitialize, Outcome: OutcomeSkipped, Err: err})
	}

	if err := callSDK(func() error { return f.sdk.Init(f.appID, f.initOpts) }); err != nil {
		f.initFailed = true
		f.logger.ErrorContext(ctx, "Failed to initialize replay SDK", "app_id", f.appID, "error", err)
		return f.finish(span, OpInitialize, start, Result{Operation: OpInitialize, Outcome: OutcomeFailed, Err: err})
	}

	f.initialized.Store(true)
	f.metrics.SetInitialized(true)
	f.logger.InfoContext(ctx, "Replay SDK initialized", "app_id", f.appID)
	return f.finish(span, OpInitialize, start, Result{Operation: OpInitialize, Outcome: OutcomeOK})
}

// UpdateUserData forwards identity and tenant metadata and waits for the SDK
// to finish.
func (f *Facade) UpdateUserData(ctx context.Context, data domain.UserData) {
	_ = f.updateUserData(ctx, data)
}

// UpdateUserDataAsync is UpdateUserData returning a completion handle.
func (f *Facade) UpdateUserDataAsync(ctx context.Context, data domain.UserData) *Completion {
	return startCompletion(func() Result { return f.updateUserData(ctx, data) })
}

func (f *Facade) updateUserData(ctx context.Context, data domain.UserData) Result {
	fields := data.Fields()
	return f.forward(ctx, OpUpdateUserData,
		[]attribute.KeyValue{attribute.Int("replay.user.fields", len(fields))},
		func(ctx context.Context) error { return f.sdk.UpdateUserData(ctx, data) },
		func(ctx context.Context) {
			f.logger.InfoContext(ctx, "Updated replay user data", "fields", fieldKeys(fields))
		},
	)
}

// AddTag forwards a single tag.
func (f *Facade) AddTag(ctx context.Context, name string, value any, typ domain.TagType) {
	_ = f.addTag(ctx, name, value, typ)
}

// AddTagAsync is AddTag returning a completion handle.
func (f *Facade) AddTagAsync(ctx context.Context, name string, value any, typ domain.TagType) *Completion {
	return startCompletion(func() Result { return f.addTag(ctx, name, value, typ) })
}

func (f *Facade) addTag(ctx context.Context, name string, value any, typ domain.TagType) Result {
	return f.forward(ctx, OpAddTag,
		[]attribute.KeyValue{
			attribute.String("replay.tag.name", name),
			attribute.String("replay.tag.type", string(typ)),
		},
		func(ctx context.Context) error { return f.sdk.AddTag(ctx, name, value, typ) },
		func(ctx context.Context) {
			f.logger.InfoContext(ctx, "Added replay tag", "name", name, "value", value, "type", string(typ))
		},
	)
}

// AddTags forwards tags in order, in one call.
func (f *Facade) AddTags(ctx context.Context, tags []domain.Tag) {
	_ = f.addTags(ctx, tags)
}

// AddTagsAsync is AddTags returning a completion handle.
func (f *Facade) AddTagsAsync(ctx context.Context, tags []domain.Tag) *Completion {
	return startCompletion(func() Result { return f.addTags(ctx, tags) })
}

func (f *Facade) addTags(ctx context.Context, tags []domain.Tag) Result {
	return f.forward(ctx, OpAddTags,
		[]attribute.KeyValue{attribute.Int("replay.tags.count", len(tags))},
		func(ctx context.Context) error { return f.sdk.AddTags(ctx, tags) },
		func(ctx context.Context) {
			f.logger.InfoContext(ctx, "Added replay tags", "count", len(tags))
		},
	)
}

// TrackStateTransition records a transition into state. The from state is
// always empty and the trigger is always domain.StateTransitionTrigger.
func (f *Facade) TrackStateTransition(ctx context.Context, state string) {
	_ = f.trackStateTransition(ctx, state)
}

// TrackStateTransitionAsync is TrackStateTransition returning a completion handle.
func (f *Facade) TrackStateTransitionAsync(ctx context.Context, state string) *Completion {
	return startCompletion(func() Result { return f.trackStateTransition(ctx, state) })
}

func (f *Facade) trackStateTransition(ctx context.Context, state string) Result {
	return f.forward(ctx, OpTrackStateTransition,
		[]attribute.KeyValue{attribute.String("replay.state.to", state)},
		func(context.Context) error {
			return f.sdk.TrackStateTransition("", state, domain.StateTransitionTrigger)
		},
		func(ctx context.Context) {
			f.logger.InfoContext(ctx, "Tracked replay state transition", "state", state)
		},
	)
}

// forward runs call behind the initialization guard and contains its failure.
func (f *Facade) forward(
	ctx context.Context,
	op string,
	attrs []attribute.KeyValue,
	call func(context.Context) error,
	onSuccess func(context.Context),
) Result {
	start := time.Now()
	ctx, span := f.tracer.Start(ctx, "replay."+op, trace.WithAttributes(
		append([]attribute.KeyValue{attribute.String("replay.operation", op)}, attrs...)...,
	))
	defer span.End()

	if !f.initialized.Load() {
		f.logger.WarnContext(ctx, "Replay SDK not initialized yet", "operation", op)
		return f.finish(span, op, start, Result{Operation: op, Outcome: OutcomeSkipped, Err: domain.ErrNotInitialized})
	}

	if err := callSDK(func() error { return call(ctx) }); err != nil {
		f.logger.ErrorContext(ctx, "Replay SDK call failed", "operation", op, "error", err)
		return f.finish(span, op, start, Result{Operation: op, Outcome: OutcomeFailed, Err: err})
	}

	onSuccess(ctx)
	return f.finish(span, op, start, Result{Operation: op, Outcome: OutcomeOK})
}

func (f *Facade) finish(span trace.Span, op string, start time.Time, result Result) Result {
	span.SetAttributes(attribute.String("replay.outcome", string(result.Outcome)))
	switch result.Outcome {
	case OutcomeFailed:
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
	case OutcomeOK:
		span.SetStatus(codes.Ok, "")
	}

	f.metrics.RecordOperation(op, result.Outcome, time.Since(start))
	return result
}

// callSDK invokes fn and converts a panic into domain.ErrSDKPanic.
func callSDK(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if rErr, ok := r.(error); ok {
				err = fmt.Errorf("%w: %w", domain.ErrSDKPanic, rErr)
				return
			}
			err = fmt.Errorf("%w: %v", domain.ErrSDKPanic, r)
		}
	}()

	if err := fn(); err != nil {
		return err
	}
	return nil
}

func fieldKeys(fields []domain.UserField) []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}
