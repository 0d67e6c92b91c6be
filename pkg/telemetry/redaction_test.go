package telemetry

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestRedactAttributesHonorsStrategies(t *testing.T) {
	policy := RedactionPolicy{
		"replay.user.userEmail": StrategyMask,
		"replay.user.userId":    StrategyHash,
		"replay.user.username":  StrategyRedact,
		"replay.user.tenantId":  StrategyDrop,
	}

	attrs := []attribute.KeyValue{
		attribute.String("replay.user.userEmail", "person@example.com"),
		attribute.String("replay.user.userId", "u-1"),
		attribute.String("replay.user.username", "person"),
		attribute.String("replay.user.tenantId", "acme"),
		attribute.String("replay.user.userRole", "admin"),
	}

	filtered := RedactAttributes(policy, attrs)
	require.Len(t, filtered, 4)

	got := map[string]string{}
	for _, kv := range filtered {
		got[string(kv.Key)] = kv.Value.AsString()
	}

	assert.Equal(t, "pers***.com", got["replay.user.userEmail"])
	assert.Equal(t, "[REDACTED]", got["replay.user.username"])
	assert.Equal(t, "admin", got["replay.user.userRole"])
	assert.Regexp(t, `^\[REDACTED:hash:[0-9a-f]{8}\]$`, got["replay.user.userId"])
	assert.NotContains(t, got, "replay.user.tenantId")
}

func TestRedactAttributesNilPolicy(t *testing.T) {
	attrs := []attribute.KeyValue{
		attribute.String("replay.user.userEmail", "person@example.com"),
		attribute.String("replay.user.userRole", "admin"),
	}

	assert.Equal(t, attrs, RedactAttributes(nil, attrs))
}

func TestMaskAndHash(t *testing.T) {
	assert.Equal(t, "***", maskValue("short"))
	assert.Equal(t, "1234***6789", maskValue("123456789"[:4]+"xx"+"6789"))
	assert.Equal(t, "[REDACTED:empty]", hashValue(""))

	masked := maskValue("aééééééééz@exámple")
	assert.True(t, utf8.ValidString(masked))
	assert.Equal(t, "aééé***mple", masked)
	assert.Equal(t, "***", maskValue("éééééééé"))
	assert.Equal(t, hashValue("u-1"), hashValue("u-1"))
	assert.NotEqual(t, hashValue("u-1"), hashValue("u-2"))
}

func TestMaskKeys(t *testing.T) {
	assert.Equal(t, RedactionPolicy{"a": StrategyMask, "b": StrategyMask}, MaskKeys("a", "b"))
}
