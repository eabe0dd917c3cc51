package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	barWidth      = 20
)

// StatusTracker keeps track of download progress for one catalog run.
// It is safe for use from concurrent workers.
type StatusTracker struct {
	mu        sync.Mutex
	quiet     bool
	step      string
	itemTotal int
	itemDone  int
	success   int
	failed    int
	skipped   int
	startTime time.Time
}

// NewStatusTracker creates a new status tracker. When quiet is set the
// tracker only counts and never writes to the terminal.
func NewStatusTracker(quiet bool) *StatusTracker {
	return &StatusTracker{
		quiet:     quiet,
		startTime: time.Now(),
	}
}

// UpdateStep announces a new phase of the run (pagination, fallback,
// downloading)
func (st *StatusTracker) UpdateStep(step string) {
	st.mu.Lock()
	st.step = step
	quiet := st.quiet
	st.mu.Unlock()

	if !quiet {
		fmt.Printf("\n%s %s\n", Magenta("[STEP]"), step)
	}
}

// SetItemTotal sets the number of items in the current batch and resets
// the per-batch counters
func (st *StatusTracker) SetItemTotal(total int) {
	st.mu.Lock()
	st.itemTotal = total
	st.itemDone = 0
	st.success = 0
	st.failed = 0
	st.skipped = 0
	st.mu.Unlock()
}

// AdvanceItem records one finished item and redraws the progress line
func (st *StatusTracker) AdvanceItem(outcome string) {
	st.mu.Lock()
	st.itemDone++
	switch outcome {
	case "success":
		st.success++
	case "failed":
		st.failed++
	case "skipped":
		st.skipped++
	}
	line := st.progressLine()
	quiet := st.quiet
	st.mu.Unlock()

	if !quiet {
		fmt.Printf("\r%s", line)
	}
}

// progressLine renders the bar; callers must hold st.mu
func (st *StatusTracker) progressLine() string {
	total := st.itemTotal
	if total <= 0 {
		total = 1
	}
	filled := st.itemDone * barWidth / total
	if filled > barWidth {
		filled = barWidth
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, barWidth-filled)

	return fmt.Sprintf("[%s] %d/%d | ok %d fail %d skip %d",
		bar, st.itemDone, st.itemTotal, st.success, st.failed, st.skipped)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.startTime)
}

// PrintSummary prints the final counters for the run
func (st *StatusTracker) PrintSummary() {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.quiet {
		return
	}
	fmt.Printf("\n%s ok %d | fail %d | skip %d | elapsed %s\n",
		Green("[DONE]"),
		st.success, st.failed, st.skipped,
		time.Since(st.startTime).Round(time.Second))
}
