// Package logging defines the engine's log sink contract.
//
// Per spec.md §9 ("Global function-pointer log sink -> context-injected
// sink"), the callback lives on the owning struct instead of in a package
// global, so multiple peers in one process log independently. A nil Func
// is valid and simply discards everything (§6: "optional callback,
// null-safe").
package logging

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// Level is one of the three severities spec.md §4.F defines.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Func is the host-facing log callback: fn(file, tag, level, line, func,
// message). tag is always "SSDP" per spec.md §6.
type Func func(file, tag string, level Level, line int, function, message string)

// Sink adapts a Func (which may be nil) into leveled logging helpers used
// internally.
type Sink struct {
	fn Func
}

// NewSink wraps fn. fn may be nil.
func NewSink(fn Func) Sink { return Sink{fn: fn} }

func (s Sink) log(level Level, format string, args ...interface{}) {
	if s.fn == nil {
		return
	}
	file, line, function := caller()
	s.fn(file, "SSDP", level, line, function, fmt.Sprintf(format, args...))
}

func (s Sink) Debug(format string, args ...interface{}) { s.log(LevelDebug, format, args...) }
func (s Sink) Warn(format string, args ...interface{})  { s.log(LevelWarn, format, args...) }
func (s Sink) Error(format string, args ...interface{}) { s.log(LevelError, format, args...) }

// caller reports the file/line/function of the code that invoked the
// Debug/Warn/Error wrapper, mirroring the C source's __LINE__/__func__.
func caller() (file string, line int, function string) {
	pc, f, l, ok := runtime.Caller(3)
	if !ok {
		return "unknown", 0, "unknown"
	}
	function = "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		function = filepath.Base(fn.Name())
	}
	return filepath.Base(f), l, function
}
