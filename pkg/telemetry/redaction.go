package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Redaction strategies.
const (
	StrategyDrop   = "drop"
	StrategyMask   = "mask"
	StrategyHash   = "hash"
	StrategyRedact = "redact"
)

// RedactionPolicy maps attribute keys to a redaction strategy.
type RedactionPolicy map[string]string

// MaskKeys returns a policy masking every given key.
func MaskKeys(keys ...string) RedactionPolicy {
	policy := make(RedactionPolicy, len(keys))
	for _, key := range keys {
		policy[key] = StrategyMask
	}
	return policy
}

// RedactAttributes applies a redaction policy to telemetry attributes before export.
//
// Keys named by the policy are dropped, masked, hashed, or replaced according
// to their strategy; an empty strategy means drop. A nil policy passes every
// attribute through.
func RedactAttributes(policy RedactionPolicy, attrs []attribute.KeyValue) []attribute.KeyValue {
	if len(attrs) == 0 {
		return attrs
	}

	redacted := make([]attribute.KeyValue, 0, len(attrs))
	for _, kv := range attrs {
		key := string(kv.Key)
		strategy, ok := policy[key]
		if !ok {
			redacted = append(redacted, kv)
			continue
		}

		switch strings.ToLower(strategy) {
		case StrategyMask:
			redacted = append(redacted, attribute.String(key, maskValue(kv.Value.Emit())))
		case StrategyHash:
			redacted = append(redacted, attribute.String(key, hashValue(kv.Value.Emit())))
		case StrategyRedact, "replace":
			redacted = append(redacted, attribute.String(key, "[REDACTED]"))
		default:
			// drop
		}
	}

	return redacted
}

// maskValue shows the first and last 4 characters with *** in between (e.g., "1234***6789").
// Characters are runes, so multi-byte input stays valid UTF-8.
func maskValue(s string) string {
	runes := []rune(s)
	if len(runes) <= 8 {
		return "***"
	}
	return string(runes[:4]) + "***" + string(runes[len(runes)-4:])
}

// hashValue produces a deterministic digest for correlation without exposing data.
func hashValue(s string) string {
	if s == "" {
		return "[REDACTED:empty]"
	}
	sum := sha256.Sum256([]byte(s))
	return "[REDACTED:hash:" + hex.EncodeToString(sum[:4]) + "]"
}
