package cli

import (
	"fmt"
	"io"
)

// IO handles command output and collects warnings for the exit code.
type IO struct {
	out      io.Writer
	errOut   io.Writer
	warnings []string
	started  bool
}

// NewIO creates a new IO instance.
func NewIO(out, errOut io.Writer) *IO {
	return &IO{out: out, errOut: errOut}
}

// Warn records a degraded-result warning. Warnings are printed to
// stderr both before the first stdout write and again at the end, so
// they stay visible when stdout is piped or truncated. Any warning
// turns the exit code into the partial-success code; normal output
// still happens, flagging partial results instead of suppressing them.
func (o *IO) Warn(msg string) {
	o.warnings = append(o.warnings, msg)
}

// Println writes to stdout. On first call, any collected warnings
// are printed to stderr first.
func (o *IO) Println(a ...any) {
	o.flushWarningsStart()
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout. On first call, any
// collected warnings are printed to stderr first.
func (o *IO) Printf(format string, a ...any) {
	o.flushWarningsStart()
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln writes to stderr.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Out returns the stdout writer for bulk output (rendered tables,
// subprocess output). Triggers the same warning flush as Println.
func (o *IO) Out() io.Writer {
	o.flushWarningsStart()

	return o.out
}

// ErrOut returns the stderr writer.
func (o *IO) ErrOut() io.Writer {
	return o.errOut
}

// Finish prints warnings to stderr and returns the exit code:
// exitPartial if any warnings were collected, exitOK otherwise.
func (o *IO) Finish() int {
	// If no output happened but we have warnings, print them at the
	// "start" position anyway.
	o.flushWarningsStart()

	for _, w := range o.warnings {
		_, _ = fmt.Fprintln(o.errOut, "warning:", w)
	}

	if len(o.warnings) > 0 {
		return exitPartial
	}

	return exitOK
}

func (o *IO) flushWarningsStart() {
	if !o.started && len(o.warnings) > 0 {
		for _, w := range o.warnings {
			_, _ = fmt.Fprintln(o.errOut, "warning:", w)
		}

		o.started = true
	}
}
