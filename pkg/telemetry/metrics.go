package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce            sync.Once
	metricsInitErr         error
	sdkCallCounter         metric.Int64Counter
	tagCounter             metric.Int64Counter
	stateTransitionCounter metric.Int64Counter
	userDataUpdateCounter  metric.Int64Counter
)

// SDKCall describes one call into the replay SDK.
type SDKCall struct {
	AppID     string
	Operation string
	Err       error
}

// RecordSDKCall counts a replay SDK call partitioned by operation and result.
func RecordSDKCall(ctx context.Context, call SDKCall) {
	if err := ensureMetrics(); err != nil {
		return
	}

	result := "ok"
	if call.Err != nil {
		result = "error"
	}

	sdkCallCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("replay.app_id", call.AppID),
		attribute.String("replay.operation", call.Operation),
		attribute.String("replay.result", result),
	))
}

// RecordTag counts an accepted tag by type.
func RecordTag(ctx context.Context, tagType string) {
	if err := ensureMetrics(); err != nil {
		return
	}
	tagCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("replay.tag.type", tagType)))
}

// RecordStateTransition counts a tracked state transition by trigger. The
// target state stays on the span event.
func RecordStateTransition(ctx context.Context, trigger string) {
	if err := ensureMetrics(); err != nil {
		return
	}
	stateTransitionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("replay.state.trigger", trigger),
	))
}

// RecordUserDataUpdate counts a user data update and how many fields it set.
func RecordUserDataUpdate(ctx context.Context, fields int) {
	if err := ensureMetrics(); err != nil {
		return
	}
	userDataUpdateCounter.Add(ctx, 1, metric.WithAttributes(attribute.Int("replay.user.fields", fields)))
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("replay.sdk")

		sdkCallCounter, metricsInitErr = meter.Int64Counter(
			"replay.sdk.calls_total",
			metric.WithDescription("Replay SDK calls partitioned by operation and result"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		tagCounter, metricsInitErr = meter.Int64Counter(
			"replay.tags_total",
			metric.WithDescription("Tags attached to replay sessions"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		stateTransitionCounter, metricsInitErr = meter.Int64Counter(
			"replay.state_transitions_total",
			metric.WithDescription("State transitions recorded against replay sessions"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		userDataUpdateCounter, metricsInitErr = meter.Int64Counter(
			"replay.user_data_updates_total",
			metric.WithDescription("User data updates applied to replay sessions"),
			metric.WithUnit("{count}"),
		)
	})

	return metricsInitErr
}

// resetMetrics drops the cached instruments so the next record call binds to
// the current global MeterProvider.
func resetMetrics() {
	metricsOnce = sync.Once{}
	metricsInitErr = nil
	sdkCallCounter = nil
	tagCounter = nil
	stateTransitionCounter = nil
	userDataUpdateCounter = nil
}
