package ivp

import (
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/kr/text"
)

// Logger accumulates diagnostic messages during an integrate call and
// writes them to Output once the run finishes, mirroring the teacher's
// rudimentary accumulate-then-flush logger.
type Logger struct {
	Output  io.Writer
	Verbose bool
	buff    strings.Builder
}

// NewLogger returns a Logger writing to w.
func NewLogger(w io.Writer) *Logger {
	return &Logger{Output: w}
}

// Logf formats a message onto the logger's buffer.
func (l *Logger) Logf(format string, a ...interface{}) {
	if l == nil {
		return
	}
	l.buff.WriteString(fmt.Sprintf(format, a...))
	if !strings.HasSuffix(format, "\n") {
		l.buff.WriteByte('\n')
	}
}

// Indentf logs a nested diagnostic block (a rejected-step trace, a
// Nordsieck cache miss) indented two spaces, so it reads as a child of the
// preceding top-level Logf line.
func (l *Logger) Indentf(format string, a ...interface{}) {
	if l == nil {
		return
	}
	msg := fmt.Sprintf(format, a...)
	l.buff.WriteString(text.Indent(msg, "  "))
	if !strings.HasSuffix(msg, "\n") {
		l.buff.WriteByte('\n')
	}
}

// Dump pretty-prints v (typically a Nordsieck higher-order block or a
// rejected stage vector) when Verbose is set, gated the way the examples'
// gosl-derived ODE tests gate their own chk.Verbose dumps.
func (l *Logger) Dump(label string, v interface{}) {
	if l == nil || !l.Verbose {
		return
	}
	l.Indentf("%s:\n%s", label, spew.Sdump(v))
}

func (l *Logger) flush() {
	if l == nil || l.Output == nil {
		return
	}
	l.Output.Write([]byte(l.buff.String()))
	l.buff.Reset()
}

// Flush writes accumulated messages to Output and clears the buffer.
func (l *Logger) Flush() { l.flush() }
