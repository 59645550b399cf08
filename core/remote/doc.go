// Package remote is the client of the remote inventory API.
//
// Lookup resolves a device by identity; a missing device is reported as a
// nil record, not as an error. Client implements reconcile.Mutator, so a
// changeset is applied with one HTTP request per operation, and
// reconcile.Refetcher, so a create that hits an existing identity turns
// into updates.
//
// Failures are classified for the caller: network errors, throttling and
// 5xx responses are RemoteTransient, every other error status is
// RemoteFatal. The client never retries.
//
// Lookups are cached per identity with concurrent lookups sharing one
// request. Every mutation and every call to Invalidate clears the cache.
package remote
