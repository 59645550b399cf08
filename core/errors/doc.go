// Package errors defines the agent's error taxonomy.
//
// Every failure that crosses a component boundary is an *AgentError tagged
// with a Kind. The kind decides propagation:
//
//   - ToolUnavailable, ToolTimeout, ToolExecutionError: recorded on the
//     adapter's fragment, never abort the run.
//   - IdentityUnresolved: fatal, the run cannot key the device.
//   - RemoteTransient: retried with bounded exponential backoff.
//   - RemoteFatal: not retried.
//   - PartialApply: the run completes but is reported degraded.
//
// Use KindOf or IsKind to classify wrapped errors:
//
//	if errors.IsKind(err, errors.KindRemoteFatal) {
//	    return err
//	}
package errors
