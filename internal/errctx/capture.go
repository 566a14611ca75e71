// Package errctx builds the sanitized diagnostic record attached to errored
// responses. Capture must never fail: a fact-check that broke is still a
// fact-check whose caller deserves a structured answer.
package errctx

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/ppiankov/veridex/internal/model"
	"github.com/ppiankov/veridex/internal/source"
)

// Error kinds distinguishable by callers.
const (
	KindCancelled      = "cancelled"
	KindTimeout        = "timeout"
	KindSourceNotFound = "source_not_found"
	KindPanic          = "panic"
)

const (
	maxInputLen = 256
	maxFrames   = 5
)

// sensitiveKeyFragments redact any input whose key contains one of these,
// regardless of the value's type.
var sensitiveKeyFragments = []string{
	"password", "token", "secret", "api_key", "apikey", "key",
	"authorization", "credential", "image_data",
}

// Capture builds the error context for a failed stage operation. It is the
// single point where a failure is recorded; the result is attached verbatim
// to the terminal response and never re-derived downstream.
func Capture(stage, operation string, inputs map[string]interface{}, err error) *model.ErrorContext {
	return &model.ErrorContext{
		Stage:     stage,
		Operation: operation,
		Kind:      classify(err),
		Message:   errMessage(err),
		Inputs:    Sanitize(inputs),
		Frames:    condensedTrace(),
		Timestamp: time.Now().UTC(),
	}
}

// PanicError wraps a recovered panic value so it can travel as an error and
// classify as KindPanic.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// classify maps an error onto a stable kind string.
func classify(err error) string {
	var pe *PanicError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &pe):
		return KindPanic
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, source.ErrSourceNotFound):
		return KindSourceNotFound
	default:
		return fmt.Sprintf("%T", err)
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Sanitize converts an input snapshot into loggable strings. Binary payloads
// are replaced with a size descriptor, sensitive keys are redacted whatever
// their value, long values are truncated, and anything that cannot be
// rendered degrades to a placeholder rather than an error.
func Sanitize(inputs map[string]interface{}) map[string]string {
	if len(inputs) == 0 {
		return nil
	}
	out := make(map[string]string, len(inputs))
	for k, v := range inputs {
		if isSensitiveKey(k) {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = renderValue(v)
	}
	return out
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, frag := range sensitiveKeyFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// renderValue stringifies a single input value. Recovers from any panic in a
// custom Stringer rather than letting sanitization itself fail.
func renderValue(v interface{}) (rendered string) {
	defer func() {
		if r := recover(); r != nil {
			rendered = "[unrenderable]"
		}
	}()

	switch val := v.(type) {
	case nil:
		return "<nil>"
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(val))
	case string:
		return truncate(val)
	default:
		return truncate(fmt.Sprintf("%v", val))
	}
}

func truncate(s string) string {
	if len(s) <= maxInputLen {
		return s
	}
	return s[:maxInputLen] + fmt.Sprintf("... (%d bytes total)", len(s))
}

// condensedTrace returns the last few in-module frames above the capture
// site, formatted as "file.go:123 funcName".
func condensedTrace() []string {
	pcs := make([]uintptr, maxFrames+4)
	// Skip runtime.Callers, condensedTrace and Capture itself.
	n := runtime.Callers(3, pcs)
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	var out []string
	for {
		frame, more := frames.Next()
		if frame.Function != "" && !strings.HasPrefix(frame.Function, "runtime.") {
			name := frame.Function
			if idx := strings.LastIndex(name, "/"); idx >= 0 {
				name = name[idx+1:]
			}
			file := frame.File
			if idx := strings.LastIndex(file, "/"); idx >= 0 {
				file = file[idx+1:]
			}
			out = append(out, fmt.Sprintf("%s:%d %s", file, frame.Line, name))
		}
		if !more || len(out) >= maxFrames {
			break
		}
	}
	return out
}
