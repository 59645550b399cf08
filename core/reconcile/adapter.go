package reconcile

import (
	"context"
	"errors"

	"inventory-agent/core/model"
)

// ErrConflict is returned by Mutator.CreateDevice when the remote system
// already holds a device with the same identity.
var ErrConflict = errors.New("device already exists")

// Mutator applies single operations to the remote inventory.
// Implementations perform exactly one remote call per method.
type Mutator interface {
	// CreateDevice creates the device and returns its remote handle.
	CreateDevice(ctx context.Context, device model.Device) (string, error)

	// UpdateField sets one top-level field.
	UpdateField(ctx context.Context, remoteID, field, value string) error

	// AddComponent creates a component under the device.
	AddComponent(ctx context.Context, remoteID string, component model.Component) error

	// UpdateComponent merges fields into an existing component.
	UpdateComponent(ctx context.Context, remoteID, componentID string, fields map[string]string) error

	// RemoveComponent deletes a component.
	RemoveComponent(ctx context.Context, remoteID, componentID string) error
}

// Refetcher is implemented by mutators that can look a device up again.
// ApplyPlan uses it to turn a conflicting create into updates.
type Refetcher interface {
	Lookup(ctx context.Context, identity string) (*model.RemoteRecord, error)
}
