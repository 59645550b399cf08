package agent

import (
	"time"

	agenterrors "inventory-agent/core/errors"
	"inventory-agent/core/model"
	"inventory-agent/core/normalize"
	"inventory-agent/core/reconcile"
)

// State is a step of the reconciliation state machine.
type State string

const (
	StateCollecting  State = "collecting"
	StateNormalizing State = "normalizing"
	StateFetching    State = "fetching"
	StateDiffing     State = "diffing"
	StateApplying    State = "applying"
	StateReporting   State = "reporting"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
)

// RunStatus is the overall outcome of a run.
type RunStatus string

const (
	// StatusCompleted means every planned operation applied.
	StatusCompleted RunStatus = "Completed"
	// StatusPartiallyFailed means the run finished but some operations
	// failed or were skipped.
	StatusPartiallyFailed RunStatus = "PartiallyFailed"
	// StatusFailed means the run ended before anything could be applied.
	StatusFailed RunStatus = "Failed"
)

// Transition records when the run entered a state.
type Transition struct {
	State State     `json:"state"`
	At    time.Time `json:"at"`
}

// AdapterStatus is the outcome of one tool.
type AdapterStatus struct {
	Name       string               `json:"name"`
	Status     model.FragmentStatus `json:"status"`
	Reason     string               `json:"reason,omitempty"`
	ErrorKind  string               `json:"error_kind,omitempty"`
	Warnings   int                  `json:"warnings,omitempty"`
	DurationMS int64                `json:"duration_ms"`
}

// Degraded reports whether the tool did not deliver a full fragment.
func (a AdapterStatus) Degraded() bool {
	return a.Status != model.FragmentOK
}

// ErrorEntry is a classified error surfaced in the report.
type ErrorEntry struct {
	Kind    agenterrors.Kind `json:"kind"`
	Message string           `json:"message"`
}

// Report is the structured result of one run.
type Report struct {
	RunID    string    `json:"run_id"`
	Identity string    `json:"identity,omitempty"`
	Status   RunStatus `json:"status"`
	State    State     `json:"state"`
	DryRun   bool      `json:"dry_run,omitempty"`

	Trail    []Transition    `json:"trail"`
	Adapters []AdapterStatus `json:"adapters"`

	// Created is set when the run created the device remotely.
	Created  bool                        `json:"created,omitempty"`
	RemoteID string                      `json:"remote_id,omitempty"`
	Summary  reconcile.Summary           `json:"summary"`
	Results  []reconcile.OperationResult `json:"results,omitempty"`
	// Untouched lists remote-only components left in place.
	Untouched []model.ComponentRef `json:"untouched,omitempty"`

	Conflicts []string     `json:"conflicts,omitempty"`
	Warnings  []string     `json:"warnings,omitempty"`
	Errors    []ErrorEntry `json:"errors,omitempty"`

	LookupAttempts int       `json:"lookup_attempts,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	DurationMS     int64     `json:"duration_ms"`

	Device *model.Device `json:"device,omitempty"`
}

// Adapter returns the status of the named tool.
func (r *Report) Adapter(name string) (AdapterStatus, bool) {
	for _, a := range r.Adapters {
		if a.Name == name {
			return a, true
		}
	}
	return AdapterStatus{}, false
}

// Count returns how many operation results have the given status.
func (r *Report) Count(status reconcile.OperationStatus) int {
	return reconcile.ApplyResult{Results: r.Results}.Count(status)
}

// States returns the visited states in order.
func (r *Report) States() []State {
	states := make([]State, len(r.Trail))
	for i, t := range r.Trail {
		states[i] = t.State
	}
	return states
}

func (r *Report) enter(s State, at time.Time) {
	r.State = s
	r.Trail = append(r.Trail, Transition{State: s, At: at})
}

func (r *Report) addError(err error) {
	r.Errors = append(r.Errors, ErrorEntry{Kind: agenterrors.KindOf(err), Message: err.Error()})
}

func (r *Report) addNormalization(rep normalize.Report) {
	for _, c := range rep.Conflicts {
		r.Conflicts = append(r.Conflicts, c.String())
	}
	r.Warnings = append(r.Warnings, rep.Warnings...)
}

func adapterStatus(f model.Fragment, took time.Duration) AdapterStatus {
	return AdapterStatus{
		Name:       f.Source,
		Status:     f.Status,
		Reason:     f.Reason,
		ErrorKind:  f.ErrorKind,
		Warnings:   len(f.Warnings),
		DurationMS: took.Milliseconds(),
	}
}
