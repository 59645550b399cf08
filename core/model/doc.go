// Package model defines the inventory data model shared by every stage of a
// reconciliation run.
//
// # Types
//
//   - Fragment: the typed, nullable output of a single tool adapter.
//   - Device: the canonical, deduplicated inventory of one host.
//   - RemoteRecord: the remote inventory's view of the same host.
//   - Component: a generic kind/key/fields view of any sub-component,
//     used for diffing and for the remote wire format.
//
// Component lists on a Device are always sorted by their stable key
// (slot, port, controller id) so that repeated runs produce the same order
// and diffing can match by key instead of position.
package model
