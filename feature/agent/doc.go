// Package agent drives reconciliation runs and exposes them over HTTP.
//
// A run moves through collecting, normalizing, fetching, diffing, applying
// and reporting, and ends completed or failed:
//
//   - Collecting runs every enabled tool adapter, at most Workers at a time,
//     and waits for all of them. Failed tools only degrade the result.
//   - Normalizing merges the fragments. An unresolved identity fails the run.
//   - Fetching looks the device up remotely. Transient failures are retried
//     with exponential backoff up to LookupAttempts; fatal ones fail the run.
//   - Diffing and applying compute and execute the changeset. Operations that
//     do not apply make the run PartiallyFailed, never Failed.
//
// Only one run executes at a time; a second Run returns a RunInProgress
// error. The remote lookup cache is invalidated at the start of every run.
//
// Every report goes to the log and to the optional archive (database) and
// upload (object storage) sinks.
//
// # HTTP Endpoints
//
//   - GET /agent/status : Last report and whether a run is active.
//   - POST /agent/run : Runs reconciliation now (409 while another run is active).
//   - GET /agent/inventory : Collects and normalizes without contacting the remote.
package agent
