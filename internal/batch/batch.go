// Package batch drives a whole-project translation run: a strictly
// sequential pass over a filtered cue subset with cancellation,
// rate-limit detection, and per-item failure bookkeeping.
package batch

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/subweaver/subweaver/internal/cue"
	"github.com/subweaver/subweaver/internal/logging"
	"github.com/subweaver/subweaver/internal/translate"
)

// lifecycle phase of a batch run
type State string

const (
	StateIdle               State = "idle"
	StateRunning            State = "running"
	StateCompleted          State = "completed"
	StatePartiallyCompleted State = "partially_completed"
	StateCancelled          State = "cancelled"
	StateRateLimited        State = "rate_limited"
	// every targeted item failed without an explicit cancel or rate limit
	StateFailed State = "failed"
)

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StatePartiallyCompleted, StateCancelled, StateRateLimited, StateFailed:
		return true
	}
	return false
}

// which cues a run targets
type Mode string

const (
	// all cues with non-empty original text, regardless of existing translation
	ModeRestartAll Mode = "restart_all"
	// cues with non-empty original text and empty/whitespace translation
	ModeProcessUntranslated Mode = "process_untranslated"
)

// the host model's cue access used by a run: snapshot by id before each
// call, write back only the translated field after it
type Store interface {
	CueByID(id string) (cue.Cue, bool)
	SetTranslatedText(id, text string) bool
}

// outcome of one run
type Result struct {
	State     State
	Processed int // successfully translated items
	Total     int // targeted items
	Progress  float64
}

// observable state for rendering a progress UI
type Snapshot struct {
	State     State
	Processed int
	Total     int
	Progress  float64
}

// Driver executes one batch run at a time. The zero Driver is not usable;
// construct with NewDriver.
type Driver struct {
	log *logging.Logger

	mu        sync.Mutex
	state     State
	processed int
	total     int
	progress  float64
}

func NewDriver(log *logging.Logger) *Driver {
	return &Driver{log: log, state: StateIdle}
}

// Snapshot returns the current phase, counts, and percentage. Safe to call
// from another goroutine while a run is in flight.
func (d *Driver) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{
		State:     d.state,
		Processed: d.processed,
		Total:     d.total,
		Progress:  d.progress,
	}
}

// Run processes the targeted subset of cues strictly sequentially: each
// translation call is awaited before the next is dispatched, and the
// context is checked before every dispatch. An in-flight call is not
// force-aborted on cancellation; it is allowed to settle but its result
// is discarded.
//
// Cues are captured by id up front; each cue's current content is
// re-resolved from the store immediately before its call so a manual edit
// made during the run is neither translated from stale text nor clobbered
// by the write-back.
//
// Exactly one terminal Result is produced per run.
func (d *Driver) Run(
	ctx context.Context,
	store Store,
	cues []cue.Cue,
	mode Mode,
	translator translate.Translator,
	targetLanguage string,
	opts Options,
) (Result, error) {
	targets := filterTargets(cues, mode)

	d.mu.Lock()
	if d.state == StateRunning {
		d.mu.Unlock()
		return Result{}, fmt.Errorf("a batch run is already in progress")
	}
	d.state = StateRunning
	d.processed = 0
	d.total = len(targets)
	d.progress = 0
	d.mu.Unlock()

	if len(targets) == 0 {
		return d.finish(StateFailed, 0, 0), nil
	}

	d.log.Infow("Batch translation started",
		"targets", len(targets),
		"mode", string(mode),
		"target_language", targetLanguage,
	)

	processed := 0
	rateLimited := false
	cancelled := false

	for _, id := range targets {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		current, ok := store.CueByID(id)
		if !ok {
			d.log.Warnw("Skipping cue deleted during batch run", "cue_id", id)
			continue
		}

		translated, err := translator.Translate(ctx, translate.Request{
			Text:           current.OriginalText,
			TargetLanguage: targetLanguage,
			Creativity:     opts.Creativity,
			CustomPrompt:   opts.CustomPrompt,
		})

		if ctx.Err() != nil {
			// the call settled after cancellation; discard its result
			cancelled = true
			break
		}

		if err != nil {
			if translate.IsRateLimit(err) {
				d.log.Warnw("Rate limit hit, stopping batch run",
					"cue_id", id, "error", err)
				rateLimited = true
				break
			}
			d.log.Warnw("Skipping cue after translation failure",
				"cue_id", id, "error", err)
			continue
		}

		store.SetTranslatedText(id, translated)
		processed++
		d.publishProgress(processed, len(targets))
	}

	switch {
	case cancelled:
		return d.finish(StateCancelled, processed, len(targets)), nil
	case rateLimited:
		return d.finish(StateRateLimited, processed, len(targets)), nil
	case processed == len(targets):
		return d.finish(StateCompleted, processed, len(targets)), nil
	case processed == 0:
		return d.finish(StateFailed, processed, len(targets)), nil
	default:
		return d.finish(StatePartiallyCompleted, processed, len(targets)), nil
	}
}

// per-run backend parameters; only the AI backends consume them
type Options struct {
	Creativity   float64
	CustomPrompt string
}

// publishProgress records counts after a successful item. Progress only
// grows within a run; a halted run leaves it frozen at its last value.
func (d *Driver) publishProgress(processed, total int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.processed = processed
	if pct := float64(processed) / float64(total) * 100; pct > d.progress {
		d.progress = pct
	}
}

func (d *Driver) finish(state State, processed, total int) Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.state = state
	d.processed = processed
	d.total = total
	if state == StateCompleted {
		d.progress = 100
	}

	result := Result{
		State:     state,
		Processed: processed,
		Total:     total,
		Progress:  d.progress,
	}

	d.log.Infow("Batch translation finished",
		"state", string(state),
		"processed", processed,
		"total", total,
		"progress", result.Progress,
	)
	return result
}

// filterTargets captures the run's target ids in insertion order.
func filterTargets(cues []cue.Cue, mode Mode) []string {
	var ids []string
	for _, c := range cues {
		if !hasOriginalText(c) {
			continue
		}
		if mode == ModeProcessUntranslated && !c.Untranslated() {
			continue
		}
		ids = append(ids, c.ID)
	}
	return ids
}

func hasOriginalText(c cue.Cue) bool {
	return strings.TrimSpace(c.OriginalText) != ""
}
