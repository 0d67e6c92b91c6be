package otelsdk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/polisai/polis-replay/pkg/domain"
	"github.com/polisai/polis-replay/pkg/telemetry"
)

func newRecordedSDK(t *testing.T, opts ...Option) (*SDK, *tracetest.SpanRecorder) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider()
	tp.RegisterSpanProcessor(recorder)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	opts = append([]Option{
		WithTracer(tp.Tracer("test")),
		WithSessionIDGenerator(func() string { return "session-1" }),
	}, opts...)
	return New(opts...), recorder
}

func endedSession(t *testing.T, sdk *SDK, recorder *tracetest.SpanRecorder) sdktrace.ReadOnlySpan {
	t.Helper()
	sdk.Close()
	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "replay.session", spans[0].Name())
	return spans[0]
}

func TestInitStartsSession(t *testing.T) {
	sdk, recorder := newRecordedSDK(t)

	require.NoError(t, sdk.Init("abc123", domain.InitOptions{Release: "1.4.0", Dist: "web"}))
	assert.Equal(t, "session-1", sdk.SessionID())
	assert.ErrorIs(t, sdk.Init("abc123", domain.InitOptions{}), domain.ErrAlreadyInitialized)

	span := endedSession(t, sdk, recorder)
	attrs := attribute.NewSet(span.Attributes()...)
	for key, want := range map[string]string{
		"replay.app_id":     "abc123",
		"replay.session_id": "session-1",
		"replay.release":    "1.4.0",
		"replay.dist":       "web",
	} {
		value, ok := attrs.Value(attribute.Key(key))
		require.True(t, ok, key)
		assert.Equal(t, want, value.AsString(), key)
	}
}

func TestInitRejectsEmptyAppID(t *testing.T) {
	sdk, _ := newRecordedSDK(t)
	assert.ErrorIs(t, sdk.Init("", domain.InitOptions{}), domain.ErrMissingAppID)
	assert.Empty(t, sdk.SessionID())
}

func TestCallsBeforeInitFail(t *testing.T) {
	sdk, recorder := newRecordedSDK(t)
	ctx := context.Background()

	assert.ErrorIs(t, sdk.AddTag(ctx, "plan", "pro", domain.TagTypeString), domain.ErrNotInitialized)
	assert.ErrorIs(t, sdk.UpdateUserData(ctx, domain.UserData{UserID: "u-1"}), domain.ErrNotInitialized)
	assert.ErrorIs(t, sdk.TrackStateTransition("", "checkout", "user-action"), domain.ErrNotInitialized)
	assert.Empty(t, recorder.Ended())
}

func TestTagsBecomeSessionAttributes(t *testing.T) {
	sdk, recorder := newRecordedSDK(t)
	ctx := context.Background()
	require.NoError(t, sdk.Init("abc123", domain.InitOptions{}))

	when := time.Date(2026, 10, 19, 12, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	require.NoError(t, sdk.AddTag(ctx, "plan", "pro", domain.TagTypeString))
	require.NoError(t, sdk.AddTags(ctx, []domain.Tag{
		{Name: "seats", Value: 12, Type: domain.TagTypeNumber},
		{Name: "ratio", Value: 0.25, Type: domain.TagTypeNumber},
		{Name: "trial", Value: false, Type: domain.TagTypeBool},
		{Name: "signup", Value: when, Type: domain.TagTypeDateTime},
	}))

	span := endedSession(t, sdk, recorder)
	attrs := attribute.NewSet(span.Attributes()...)

	plan, _ := attrs.Value("replay.tag.plan")
	assert.Equal(t, "pro", plan.AsString())
	seats, _ := attrs.Value("replay.tag.seats")
	assert.Equal(t, int64(12), seats.AsInt64())
	ratio, _ := attrs.Value("replay.tag.ratio")
	assert.Equal(t, 0.25, ratio.AsFloat64())
	trial, ok := attrs.Value("replay.tag.trial")
	require.True(t, ok)
	assert.False(t, trial.AsBool())
	signup, _ := attrs.Value("replay.tag.signup")
	assert.Equal(t, "2026-10-19T10:30:00Z", signup.AsString())
}

func TestAddTagsRejectsMalformedBatch(t *testing.T) {
	sdk, recorder := newRecordedSDK(t)
	ctx := context.Background()
	require.NoError(t, sdk.Init("abc123", domain.InitOptions{}))

	err := sdk.AddTags(ctx, []domain.Tag{
		{Name: "plan", Value: "pro", Type: domain.TagTypeString},
		{Name: "seats", Value: "twelve", Type: domain.TagTypeNumber},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTag)

	span := endedSession(t, sdk, recorder)
	attrs := attribute.NewSet(span.Attributes()...)
	_, ok := attrs.Value("replay.tag.plan")
	assert.False(t, ok, "no tag of a rejected batch may be applied")
}

func TestUserDataIsRedacted(t *testing.T) {
	sdk, recorder := newRecordedSDK(t, WithRedaction(telemetry.MaskKeys("userEmail")))
	require.NoError(t, sdk.Init("abc123", domain.InitOptions{}))

	require.NoError(t, sdk.UpdateUserData(context.Background(), domain.UserData{
		UserID:    "u-1",
		UserEmail: "person@example.com",
		TenantID:  "acme",
	}))

	span := endedSession(t, sdk, recorder)
	attrs := attribute.NewSet(span.Attributes()...)

	email, _ := attrs.Value("replay.user.userEmail")
	assert.Equal(t, "pers***.com", email.AsString())
	userID, _ := attrs.Value("replay.user.userId")
	assert.Equal(t, "u-1", userID.AsString())
	_, ok := attrs.Value("replay.user.username")
	assert.False(t, ok)

	require.Len(t, span.Events(), 1)
	assert.Equal(t, "replay.user_data.updated", span.Events()[0].Name)
}

func TestStateTransitionsBecomeEvents(t *testing.T) {
	sdk, recorder := newRecordedSDK(t)
	require.NoError(t, sdk.Init("abc123", domain.InitOptions{}))

	require.NoError(t, sdk.TrackStateTransition("", "cart", "user-action"))
	require.NoError(t, sdk.TrackStateTransition("", "checkout", "user-action"))

	span := endedSession(t, sdk, recorder)
	events := span.Events()
	require.Len(t, events, 2)

	for i, want := range []string{"cart", "checkout"} {
		assert.Equal(t, "replay.state_transition", events[i].Name)
		attrs := attribute.NewSet(events[i].Attributes...)
		to, _ := attrs.Value("replay.state.to")
		assert.Equal(t, want, to.AsString())
		from, ok := attrs.Value("replay.state.from")
		require.True(t, ok)
		assert.Empty(t, from.AsString())
		trigger, _ := attrs.Value("replay.state.trigger")
		assert.Equal(t, "user-action", trigger.AsString())
	}
}

func TestCallsAfterCloseFail(t *testing.T) {
	sdk, _ := newRecordedSDK(t)
	require.NoError(t, sdk.Init("abc123", domain.InitOptions{}))
	sdk.Close()

	assert.Error(t, sdk.TrackStateTransition("", "checkout", "user-action"))
}

func TestTagAttribute(t *testing.T) {
	tests := []struct {
		name string
		tag  domain.Tag
		want attribute.KeyValue
	}{
		{"string", domain.Tag{Name: "plan", Value: "pro", Type: domain.TagTypeString}, attribute.String("replay.tag.plan", "pro")},
		{"large string", domain.Tag{Name: "notes", Value: "long", Type: domain.TagTypeLargeString}, attribute.String("replay.tag.notes", "long")},
		{"int", domain.Tag{Name: "n", Value: int32(7), Type: domain.TagTypeNumber}, attribute.Int64("replay.tag.n", 7)},
		{"uint", domain.Tag{Name: "n", Value: uint16(7), Type: domain.TagTypeNumber}, attribute.Int64("replay.tag.n", 7)},
		{"float", domain.Tag{Name: "n", Value: float32(1.5), Type: domain.TagTypeNumber}, attribute.Float64("replay.tag.n", 1.5)},
		{"bool", domain.Tag{Name: "b", Value: true, Type: domain.TagTypeBool}, attribute.Bool("replay.tag.b", true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TagAttribute(tt.tag))
		})
	}
}
