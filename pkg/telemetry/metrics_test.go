package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}

	metrics := map[string]metricdata.Metrics{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			metrics[m.Name] = m
		}
	}
	return metrics
}

func useManualReader(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		otel.SetMeterProvider(prev)
		ResetMetricsForTest()
	})

	ResetMetricsForTest()
	return reader
}

func TestRecordSDKCall(t *testing.T) {
	reader := useManualReader(t)
	ctx := context.Background()

	RecordSDKCall(ctx, SDKCall{AppID: "abc123", Operation: "add_tag"})
	RecordSDKCall(ctx, SDKCall{AppID: "abc123", Operation: "add_tag", Err: errors.New("boom")})
	RecordSDKCall(ctx, SDKCall{AppID: "abc123", Operation: "add_tag"})

	metrics := collectMetrics(t, reader)
	calls, ok := metrics["replay.sdk.calls_total"]
	if !ok {
		t.Fatalf("missing replay.sdk.calls_total metric")
	}
	sum, ok := calls.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("unexpected data type for calls metric")
	}
	if len(sum.DataPoints) != 2 {
		t.Fatalf("expected 2 datapoints (ok, error), got %d", len(sum.DataPoints))
	}

	byResult := map[string]int64{}
	for _, dp := range sum.DataPoints {
		value, ok := dp.Attributes.Value(attribute.Key("replay.result"))
		if !ok {
			t.Fatalf("datapoint missing replay.result")
		}
		byResult[value.AsString()] = dp.Value
	}
	if byResult["ok"] != 2 || byResult["error"] != 1 {
		t.Fatalf("unexpected counts by result: %v", byResult)
	}
}

func TestRecordTagTransitionAndUserData(t *testing.T) {
	reader := useManualReader(t)
	ctx := context.Background()

	RecordTag(ctx, "STR")
	RecordTag(ctx, "NUM")
	RecordStateTransition(ctx, "user-action")
	RecordUserDataUpdate(ctx, 3)

	metrics := collectMetrics(t, reader)

	tags := metrics["replay.tags_total"].Data.(metricdata.Sum[int64])
	if len(tags.DataPoints) != 2 {
		t.Fatalf("expected 2 tag datapoints, got %d", len(tags.DataPoints))
	}

	transitions := metrics["replay.state_transitions_total"].Data.(metricdata.Sum[int64])
	if transitions.DataPoints[0].Value != 1 {
		t.Fatalf("expected 1 transition, got %d", transitions.DataPoints[0].Value)
	}
	if value, ok := transitions.DataPoints[0].Attributes.Value(attribute.Key("replay.state.trigger")); !ok || value.AsString() != "user-action" {
		t.Fatalf("expected replay.state.trigger=user-action, got %v", value)
	}
	if _, ok := transitions.DataPoints[0].Attributes.Value(attribute.Key("replay.state.to")); ok {
		t.Fatalf("target state must not be a metric attribute")
	}

	updates := metrics["replay.user_data_updates_total"].Data.(metricdata.Sum[int64])
	if value, ok := updates.DataPoints[0].Attributes.Value(attribute.Key("replay.user.fields")); !ok || value.AsInt64() != 3 {
		t.Fatalf("expected replay.user.fields=3, got %v", value)
	}
}
