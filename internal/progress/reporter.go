// Package progress prints incremental completion counts for a
// download batch. It is the observer side-channel of the download
// engine, not part of its result contract.
package progress

import (
	"fmt"
	"io"
	"sync"
)

// Reporter writes "label n/total" lines, overwriting in place so a
// batch occupies a single console line.
type Reporter struct {
	mu      sync.Mutex
	out     io.Writer
	label   string
	started bool
}

func NewReporter(out io.Writer, label string) *Reporter {
	return &Reporter{out: out, label: label}
}

// Update reports completed of total. Safe for concurrent use.
func (r *Reporter) Update(completed, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
	fmt.Fprintf(r.out, "\r%s %d/%d", r.label, completed, total)
}

// Finish terminates the progress line if anything was reported.
func (r *Reporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		fmt.Fprintln(r.out)
		r.started = false
	}
}
