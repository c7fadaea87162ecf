package testutil

import (
	"sync"
	"time"

	"github.com/yungbote/trailmark-backend/internal/data/aggregates"
)

// HooksRecorder keeps every progress write outcome so tests can assert which
// operations lost a race or asked for a retry.
type HooksRecorder struct {
	mu sync.Mutex

	Operations []Outcome
	Conflicts  []string
	Retries    []string
}

// Outcome is one finished progress write. Status is "success" or an error code.
type Outcome struct {
	Op       string
	Status   string
	Duration time.Duration
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) ObserveOperation(name, status string, dur time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Operations = append(h.Operations, Outcome{Op: name, Status: status, Duration: dur})
}

func (h *HooksRecorder) IncConflict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Conflicts = append(h.Conflicts, name)
}

func (h *HooksRecorder) IncRetry(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Retries = append(h.Retries, name)
}

// StatusesFor lists the outcomes recorded for op, oldest first.
func (h *HooksRecorder) StatusesFor(op string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, o := range h.Operations {
		if o.Op == op {
			out = append(out, o.Status)
		}
	}
	return out
}

// Reset forgets everything recorded so far.
func (h *HooksRecorder) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Operations, h.Conflicts, h.Retries = nil, nil, nil
}
