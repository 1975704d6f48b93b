package session

import (
	"fmt"
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Trace is an optional structured event sink replacing the teacher's
// "#if DBGINFO" print macros with an opt-in run-time trace path, design note
// §9. A nil *Trace is always safe to call Event on, so the common
// no-tracing path never pays for the formatting it skips.
type Trace struct {
	w io.Writer
}

// NewRotatingTrace wraps path in a lumberjack.Logger rotating at
// maxSizeMB with maxBackups retained, the shape a long-running host
// passes via Params.TracePath so its trace file doesn't grow unbounded.
func NewRotatingTrace(path string, maxSizeMB, maxBackups int) *Trace {
	return &Trace{w: &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}}
}

// Event writes one formatted trace line. Safe to call on a nil Trace.
func (t *Trace) Event(format string, args ...interface{}) {
	if t == nil || t.w == nil {
		return
	}
	fmt.Fprintf(t.w, format+"\n", args...)
}
