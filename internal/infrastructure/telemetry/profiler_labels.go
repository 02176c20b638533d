package telemetry

import (
	"context"
	"slices"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelController = "controller"
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelTenantID   = "tenant_id"
)

// MaxLabelValueLength bounds profiling label values
const MaxLabelValueLength = 128

// highCardinalityLabels never become profiling labels. Order and line IDs
// would create a profile series per record.
var highCardinalityLabels = map[string]bool{
	"user_id":         true,
	"request_id":      true,
	"order_id":        true,
	"invoice_line_id": true,
	"attachment_id":   true,
	"trace_id":        true,
	"span_id":         true,
}

// WithProfilingLabels runs fn with Pyroscope labels attached to its goroutine.
// The labels map is not retained.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// HTTPRequestLabels builds the label set recorded for an API request.
// Empty values are dropped.
func HTTPRequestLabels(controller, route, method, tenantID string) map[string]string {
	labels := make(map[string]string, 4)
	for k, v := range map[string]string{
		ProfilingLabelController: controller,
		ProfilingLabelRoute:      route,
		ProfilingLabelMethod:     method,
		ProfilingLabelTenantID:   tenantID,
	} {
		if v != "" {
			labels[k] = v
		}
	}
	return labels
}

// sanitizeLabels returns key/value pairs sorted by key, with empty and
// high-cardinality entries removed and long values truncated.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, key := range keys {
		value := labels[key]
		if value == "" {
			continue
		}
		cleanKey := sanitizeLabelKey(key)
		if cleanKey == "" || highCardinalityLabels[cleanKey] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		pairs = append(pairs, cleanKey, value)
	}
	return pairs
}

// sanitizeLabelKey lowercases the key and keeps [a-z0-9_], mapping
// spaces and dashes to underscores.
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		switch c := key[i]; {
		case c == ' ' || c == '-':
			b.WriteByte('_')
		case (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_':
			b.WriteByte(c)
		}
	}
	return b.String()
}
