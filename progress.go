package nativedeps

import (
	"fmt"
	"sync"

	"github.com/fatih/color"
	"github.com/gosuri/uilive"
)

// StepTicker renders in-place build progress for the CLI: a completed
// counter plus the step currently handed to a native build tool. Native
// builds run for minutes, so a live single-line ticker beats a scrolling
// log for interactive runs.
type StepTicker struct {
	mu      sync.Mutex
	writer  *uilive.Writer
	done    int
	skipped int
	total   int
	current string
}

// NewStepTicker starts a ticker expecting total steps.
func NewStepTicker(total int) *StepTicker {
	t := &StepTicker{total: total, writer: uilive.New()}
	t.writer.Start()
	t.render()
	return t
}

// SetTotal fixes the step count once the plan is known.
func (t *StepTicker) SetTotal(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = total
	t.render()
}

// Start marks a step as running.
func (t *StepTicker) Start(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = id
	t.render()
}

// Finish marks the running step complete.
func (t *StepTicker) Finish(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done++
	t.current = ""
	t.render()
}

// Skip records a cache hit.
func (t *StepTicker) Skip(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done++
	t.skipped++
	t.render()
}

// Stop flushes and releases the live writer.
func (t *StepTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.render()
	t.writer.Stop()
}

func (t *StepTicker) render() {
	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgHiGreen).SprintFunc()

	msg := fmt.Sprintf("%s steps done (%d cached)\n",
		cyan(fmt.Sprintf("[%d/%d]", t.done, t.total)), t.skipped)
	if t.current != "" {
		msg += green(fmt.Sprintf("\tbuilding: %s\n", t.current))
	}
	fmt.Fprint(t.writer, msg)
}
