// Package reconcile computes and applies the changeset between the local
// inventory record and the remote inventory system's record.
//
// # Diffing
//
// Diff walks the union of component references from both sides, the
// same way for every kind:
//
//   - local only: add_component
//   - remote only: remove_component when removals are authoritative and
//     the local kind is complete, otherwise reported as untouched
//   - both, differing: update_component restricted to the differing fields
//
// Top-level fields follow the update-if-different rule. Values missing
// locally never blank remote values. An absent remote record yields a
// single create_device.
//
// # Applying
//
// ApplyPlan executes operations one at a time through a Mutator and
// records a result per operation. Failures are reported, not rolled back.
// A create that conflicts with an existing device is converted into
// updates when the Mutator also implements Refetcher.
//
// # Usage Example
//
//	cs := reconcile.Diff(device, record, reconcile.Options{})
//	result := reconcile.ApplyPlan(ctx, client, record.ID, cs, reconcile.Options{})
//	if result.Degraded() {
//	    // report PartiallyFailed
//	}
package reconcile
