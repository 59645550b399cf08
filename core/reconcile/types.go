package reconcile

import (
	"fmt"

	"inventory-agent/core/model"
)

// OperationType names a changeset entry.
type OperationType string

const (
	// OpCreateDevice creates the device with the full local record.
	OpCreateDevice OperationType = "create_device"
	// OpUpdateField sets one top-level scalar field.
	OpUpdateField OperationType = "update_field"
	// OpAddComponent creates a component present only locally.
	OpAddComponent OperationType = "add_component"
	// OpRemoveComponent deletes a component present only remotely.
	OpRemoveComponent OperationType = "remove_component"
	// OpUpdateComponent rewrites the differing fields of a matched component.
	OpUpdateComponent OperationType = "update_component"
)

// EntityDevice is the entity key of device-level operations.
const EntityDevice = "device"

// FieldChange is one differing field.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// Operation is a single, independently applicable change.
type Operation struct {
	// Type specifies the change to perform.
	Type OperationType `json:"type"`

	// Entity is "device" or the component reference ("disk/c0:e32:s0").
	Entity string `json:"entity"`

	// Field, Old and New describe an update_field operation.
	Field string `json:"field,omitempty"`
	Old   string `json:"old,omitempty"`
	New   string `json:"new,omitempty"`

	// Changes lists the differing fields of an update_component operation.
	Changes []FieldChange `json:"changes,omitempty"`

	// Component carries the full local component of an add_component operation.
	Component *model.Component `json:"component,omitempty"`

	// ComponentID is the remote handle of the component being updated or removed.
	ComponentID string `json:"component_id,omitempty"`

	// Device carries the full local record of a create_device operation.
	Device *model.Device `json:"device,omitempty"`
}

func (o Operation) String() string {
	switch o.Type {
	case OpUpdateField:
		return fmt.Sprintf("%s %s: %q -> %q", o.Type, o.Field, o.Old, o.New)
	case OpUpdateComponent:
		return fmt.Sprintf("%s %s (%d fields)", o.Type, o.Entity, len(o.Changes))
	default:
		return fmt.Sprintf("%s %s", o.Type, o.Entity)
	}
}

// Changeset is the ordered list of operations that brings the remote record
// in line with the local one.
type Changeset struct {
	// Operations are applied in order.
	Operations []Operation `json:"operations"`

	// Untouched lists remote-only components kept because removals are
	// not authorized for their kind.
	Untouched []model.ComponentRef `json:"untouched,omitempty"`
}

// Empty reports whether there is nothing to apply.
func (c Changeset) Empty() bool {
	return len(c.Operations) == 0
}

// Options controls diffing and applying.
type Options struct {
	// AuthoritativeRemovals allows remove_component for remote-only
	// components of kinds the local record reports as complete.
	AuthoritativeRemovals bool

	// DryRun plans operations without executing them.
	DryRun bool
}

// OperationStatus is the outcome of one applied operation.
type OperationStatus string

const (
	StatusApplied OperationStatus = "applied"
	StatusFailed  OperationStatus = "failed"
	StatusSkipped OperationStatus = "skipped"
	StatusPlanned OperationStatus = "planned"
	// StatusConverted marks a create that found the device already present
	// and was applied as updates instead.
	StatusConverted OperationStatus = "converted"
)

// OperationResult records how a single operation went.
type OperationResult struct {
	Operation Operation       `json:"operation"`
	Status    OperationStatus `json:"status"`
	Error     string          `json:"error,omitempty"`
	ErrorKind string          `json:"error_kind,omitempty"`
}

// ApplyResult aggregates per-operation outcomes.
type ApplyResult struct {
	// RemoteID is the remote handle the operations were applied to.
	RemoteID string `json:"remote_id,omitempty"`

	// Results holds one entry per operation, in order. A converted create is
	// followed by the results of the updates it turned into.
	Results []OperationResult `json:"results"`

	// Stopped is set when application ended early (cancellation or a
	// fatal remote error); the remaining operations are skipped.
	Stopped bool `json:"stopped,omitempty"`
}

// Count returns how many results have the given status.
func (r ApplyResult) Count(status OperationStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Degraded reports whether any operation failed or was skipped.
func (r ApplyResult) Degraded() bool {
	return r.Count(StatusFailed) > 0 || r.Count(StatusSkipped) > 0
}

// Summary provides aggregate counts for a changeset.
type Summary struct {
	Total            int `json:"total"`
	Creates          int `json:"creates"`
	FieldUpdates     int `json:"field_updates"`
	ComponentAdds    int `json:"component_adds"`
	ComponentRemoves int `json:"component_removes"`
	ComponentUpdates int `json:"component_updates"`
	Untouched        int `json:"untouched"`
}
