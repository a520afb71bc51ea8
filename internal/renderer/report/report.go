// Package report defines the error-reporting collaborator used for non-fatal
// conditions: measurement failures, paint failures and clamped inconsistent
// cache maintenance calls. Nothing reported here aborts a render pass.
package report

import (
	"sort"

	"go.uber.org/zap"
)

// Condition categorizes a reported failure.
type Condition uint8

const (
	// ConditionMeasurementFailure indicates the shaping service failed for a line.
	ConditionMeasurementFailure Condition = iota

	// ConditionPaintFailure indicates a margin or text paint call failed.
	ConditionPaintFailure

	// ConditionInconsistentState indicates an invalidate/reindex call that did
	// not match the buffer and was clamped.
	ConditionInconsistentState

	// ConditionOutOfRange indicates a line index outside buffer bounds.
	ConditionOutOfRange

	// ConditionClamped indicates a structural viewport value was clamped.
	ConditionClamped
)

// String returns the string representation of the condition.
func (c Condition) String() string {
	switch c {
	case ConditionMeasurementFailure:
		return "measurement_failure"
	case ConditionPaintFailure:
		return "paint_failure"
	case ConditionInconsistentState:
		return "inconsistent_cache_state"
	case ConditionOutOfRange:
		return "out_of_range"
	case ConditionClamped:
		return "clamped"
	default:
		return "unknown"
	}
}

// Context carries structured details about a reported condition.
type Context map[string]any

// Reporter receives non-fatal conditions.
type Reporter interface {
	Report(cond Condition, err error, ctx Context)
}

// Func adapts a function to the Reporter interface.
type Func func(cond Condition, err error, ctx Context)

// Report calls f.
func (f Func) Report(cond Condition, err error, ctx Context) {
	f(cond, err, ctx)
}

// Discard drops every report.
var Discard Reporter = Func(func(Condition, error, Context) {})

// LogReporter reports conditions through a zap logger.
type LogReporter struct {
	log *zap.Logger
}

// NewLogReporter creates a reporter writing to l. A nil logger discards.
func NewLogReporter(l *zap.Logger) *LogReporter {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogReporter{log: l}
}

// Report logs the condition at warn level with its context as fields.
func (r *LogReporter) Report(cond Condition, err error, ctx Context) {
	fields := make([]zap.Field, 0, len(ctx)+2)
	fields = append(fields, zap.String("condition", cond.String()))
	if err != nil {
		fields = append(fields, zap.Error(err))
	}

	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.Any(k, ctx[k]))
	}

	r.log.Warn("render condition", fields...)
}
