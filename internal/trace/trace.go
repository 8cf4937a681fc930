// Package trace writes the operator console diagnostics: a hex dump of
// every packet in and out, plus free-form lines about decoded fields and
// decisions. This is human-inspection output, separate from the structured
// slog stream.
package trace

import (
	"fmt"
	"io"
	"sync"
)

// bytesPerRow is the width of a hex dump row.
const bytesPerRow = 32

// Tracer writes diagnostics to a single writer. A nil or disabled Tracer
// discards everything, so call sites never need to guard.
type Tracer struct {
	mu      sync.Mutex
	w       io.Writer
	enabled bool
}

// New creates a Tracer writing to w. Pass enabled=false to discard.
func New(w io.Writer, enabled bool) *Tracer {
	return &Tracer{w: w, enabled: enabled}
}

// Enabled reports whether the tracer writes anything.
func (t *Tracer) Enabled() bool {
	return t != nil && t.enabled
}

// Printf writes one formatted line.
func (t *Tracer) Printf(format string, args ...interface{}) {
	if !t.Enabled() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, format+"\n", args...)
}

// Dump writes a labelled hex dump of data, 32 bytes per row with a
// decimal offset prefix.
func (t *Tracer) Dump(label string, data []byte) {
	if !t.Enabled() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.w, "%s (%d bytes):\n", label, len(data))
	if len(data) == 0 {
		fmt.Fprintln(t.w, "<empty packet>")
		return
	}
	for i, b := range data {
		if i%bytesPerRow == 0 {
			fmt.Fprintf(t.w, "%04d :", i)
		}
		fmt.Fprintf(t.w, " %02X", b)
		if (i+1)%bytesPerRow == 0 {
			fmt.Fprintln(t.w)
		}
	}
	if len(data)%bytesPerRow != 0 {
		fmt.Fprintln(t.w)
	}
}
