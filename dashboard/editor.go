package dashboard

import (
	"errors"
	"sort"
	"time"
)

// EditorState tracks where an availability edit session is in its lifecycle.
type EditorState int

const (
	// StateViewing means the working set matches what is persisted.
	StateViewing EditorState = iota
	// StateDirty means the working set has unsaved changes.
	StateDirty
	// StateSaving means a save is in flight; further saves are rejected.
	StateSaving
)

func (s EditorState) String() string {
	switch s {
	case StateViewing:
		return "viewing"
	case StateDirty:
		return "dirty"
	case StateSaving:
		return "saving"
	default:
		return "unknown"
	}
}

// ErrSaveInFlight is returned by Save when a save is already running.
var ErrSaveInFlight = errors.New("blockout save already in progress")

// BlockoutStore persists a therapist's full blockout list. The stored list is
// replaced wholesale; there is no per-date merge.
type BlockoutStore interface {
	SaveBlockoutDates(therapistID uint, dates []string) error
}

// Editor is the availability edit session for one therapist. It holds the
// persisted baseline and a working copy; toggles mutate only the working copy
// until Save succeeds. Not safe for concurrent use.
type Editor struct {
	therapistID uint
	state       EditorState
	baseline    map[string]struct{}
	working     map[string]struct{}

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewEditor starts an edit session seeded with the persisted blockout list.
func NewEditor(therapistID uint, dates []string) *Editor {
	base := make(map[string]struct{}, len(dates))
	work := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		base[d] = struct{}{}
		work[d] = struct{}{}
	}
	return &Editor{
		therapistID: therapistID,
		state:       StateViewing,
		baseline:    base,
		working:     work,
		Now:         time.Now,
	}
}

// State reports the session state.
func (e *Editor) State() EditorState { return e.state }

// Dirty reports whether the working set differs from the persisted baseline.
func (e *Editor) Dirty() bool {
	if len(e.working) != len(e.baseline) {
		return true
	}
	for d := range e.working {
		if _, ok := e.baseline[d]; !ok {
			return true
		}
	}
	return false
}

// Dates returns the working set sorted ascending.
func (e *Editor) Dates() []string {
	out := make([]string, 0, len(e.working))
	for d := range e.working {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Blocked reports whether a date is in the working set.
func (e *Editor) Blocked(date string) bool {
	_, ok := e.working[date]
	return ok
}

// Toggle flips a date in or out of the working set. Adding a date in the past
// is rejected; removing an already-blocked past date is allowed so stale
// blockouts can be cleaned up. Returns false when the toggle was rejected.
func (e *Editor) Toggle(date string) bool {
	if e.state == StateSaving {
		return false
	}
	day, ok := parseDay(date)
	if !ok {
		return false
	}
	key := day.Format(DateLayout)

	if _, blocked := e.working[key]; blocked {
		delete(e.working, key)
	} else {
		if day.Before(startOfDay(e.Now())) {
			return false
		}
		e.working[key] = struct{}{}
	}
	e.syncState()
	return true
}

// Reset discards unsaved edits, restoring the working set to the baseline.
func (e *Editor) Reset() {
	if e.state == StateSaving {
		return
	}
	e.working = make(map[string]struct{}, len(e.baseline))
	for d := range e.baseline {
		e.working[d] = struct{}{}
	}
	e.state = StateViewing
}

// Save persists the working set as the therapist's complete blockout list.
// On success the baseline is replaced and the session returns to viewing; on
// failure the unsaved edits are kept so the user can retry.
func (e *Editor) Save(store BlockoutStore) error {
	if e.state == StateSaving {
		return ErrSaveInFlight
	}
	e.state = StateSaving

	if err := store.SaveBlockoutDates(e.therapistID, e.Dates()); err != nil {
		e.state = StateDirty
		return err
	}

	e.baseline = make(map[string]struct{}, len(e.working))
	for d := range e.working {
		e.baseline[d] = struct{}{}
	}
	e.state = StateViewing
	return nil
}

func (e *Editor) syncState() {
	if e.Dirty() {
		e.state = StateDirty
	} else {
		e.state = StateViewing
	}
}
