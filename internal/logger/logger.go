package logger

import (
	"encoding/json"
	"sort"
	"strings"

	"go.uber.org/zap"
)

type Fields map[string]any

var base = zap.NewNop()

var sensitiveKeys = map[string]struct{}{
	"pin":                  {},
	"transactionpin":       {},
	"transaction_pin":      {},
	"transactionpinhash":   {},
	"transaction_pin_hash": {},
}

// Init installs the process-wide logger. Until called, log output is dropped.
func Init(l *zap.Logger) {
	if l != nil {
		base = l
	}
}

func Info(message string, fields Fields) {
	base.Info(message, zapFields(fields)...)
}

func Error(message string, err error, fields Fields) {
	merged := Fields{}
	for k, v := range fields {
		merged[k] = v
	}
	if err != nil {
		merged["error"] = err.Error()
	}
	base.Error(message, zapFields(merged)...)
}

// SanitizePayload masks sensitive values (transaction PINs) in an arbitrary
// payload before it is logged.
func SanitizePayload(payload any) any {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "<unavailable>"
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return "<unavailable>"
	}

	return sanitizeValue(data)
}

func zapFields(fields Fields) []zap.Field {
	sanitized, ok := SanitizePayload(fields).(map[string]any)
	if !ok {
		return nil
	}

	keys := make([]string, 0, len(sanitized))
	for k := range sanitized {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, sanitized[k]))
	}
	return out
}

func sanitizeValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, inner := range typed {
			if isSensitiveKey(key) {
				out[key] = "******"
				continue
			}
			out[key] = sanitizeValue(inner)
		}
		return out
	case []any:
		out := make([]any, 0, len(typed))
		for _, item := range typed {
			out = append(out, sanitizeValue(item))
		}
		return out
	default:
		return value
	}
}

func isSensitiveKey(key string) bool {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), "-", ""))
	_, ok := sensitiveKeys[normalized]
	return ok
}
